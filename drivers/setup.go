package drivers

import (
	"github.com/migratekit/sessionlock"
	"github.com/migratekit/sessionlock/mysql"
	"github.com/migratekit/sessionlock/oracle"
	"github.com/migratekit/sessionlock/postgres"
	"github.com/migratekit/sessionlock/sqlite"
	"github.com/migratekit/sessionlock/sqlserver"
)

// All returns the default driver set in deterministic order. The order is
// the tie-break when several drivers of equal priority support one session,
// so callers relying on selection stability should not reorder the slice.
func All() []sessionlock.Driver {
	return []sessionlock.Driver{
		mysql.NewDriver(),
		mysql.NewMariaDBDriver(),
		postgres.NewDriver(),
		oracle.NewDriver(),
		sqlserver.NewDriver(),
		sqlite.NewDriver(),
	}
}

// AllWithLogger is like All but hands the logger to the drivers that emit
// diagnostics.
func AllWithLogger(logger sessionlock.Logger) []sessionlock.Driver {
	return []sessionlock.Driver{
		mysql.NewDriver(),
		mysql.NewMariaDBDriver(),
		postgres.NewDriverWithLogger(logger),
		oracle.NewDriverWithLogger(logger),
		sqlserver.NewDriver(),
		sqlite.NewDriver(),
	}
}
