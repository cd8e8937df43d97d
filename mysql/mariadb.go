package mysql

import (
	"context"

	"github.com/migratekit/sessionlock"
	"github.com/migratekit/sessionlock/session"
)

// MariaDBDriver is the MariaDB variant of the MySQL lock driver. The locking
// functions are identical; only the engine detection differs.
type MariaDBDriver struct {
	Driver
}

// NewMariaDBDriver creates the MariaDB lock driver.
func NewMariaDBDriver() *MariaDBDriver {
	return &MariaDBDriver{}
}

func (d *MariaDBDriver) Name() string {
	return "mariadb"
}

func (d *MariaDBDriver) Supports(ctx context.Context, sess sessionlock.Session) bool {
	return sess.Kind() == sessionlock.KindMariaDB
}

// OpenMariaDBSession connects to MariaDB through GORM and pins a lock session
// on the pool.
func OpenMariaDBSession(cfg Config, sessCfg session.Config) (*session.DBSession, error) {
	return openSession(cfg, sessCfg, sessionlock.KindMariaDB)
}

var _ sessionlock.Driver = (*MariaDBDriver)(nil)
