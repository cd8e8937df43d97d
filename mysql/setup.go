package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/migratekit/sessionlock"
	"github.com/migratekit/sessionlock/session"
)

const (
	sqlGetLock     = "SELECT get_lock(?, ?)"
	sqlReleaseLock = "SELECT release_lock(?)"
	sqlLockInfo    = "SELECT l.processlist_id, p.host, p.time, p.state" +
		" FROM (SELECT is_used_lock(?) AS processlist_id) AS l" +
		" LEFT JOIN information_schema.processlist p" +
		" ON p.id = l.processlist_id"

	// MySQL 5.7 and later enforces a maximum length on lock names of 64 characters.
	lockNameMaxLength = 64

	// Server-side wait before get_lock reports contention.
	acquireTimeoutSeconds = 5
)

// Driver implements the session lock protocol on MySQL user-level
// (a.k.a. application-level or advisory) locks.
//
// A lock obtained with get_lock() is released explicitly by release_lock() or
// implicitly when the session terminates, normally or abnormally. User locks
// are not released when transactions commit or roll back.
type Driver struct{}

// NewDriver creates the MySQL lock driver.
func NewDriver() *Driver {
	return &Driver{}
}

func (d *Driver) Name() string {
	return "mysql"
}

func (d *Driver) Priority() int {
	return sessionlock.PrioritySessionLock
}

func (d *Driver) Supports(ctx context.Context, sess sessionlock.Session) bool {
	return sess.Kind() == sessionlock.KindMySQL
}

// Acquire requests the named user lock with a short server-side timeout.
// get_lock signals {1 = acquired, 0 = timed out, NULL = error}.
func (d *Driver) Acquire(ctx context.Context, sess sessionlock.Session) (bool, error) {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return false, err
	}

	var locked sql.NullInt64
	row := conn.QueryRowContext(ctx, sqlGetLock, lockName(sess), acquireTimeoutSeconds)
	if err := row.Scan(&locked); err != nil {
		return false, fmt.Errorf("get_lock(%s) failed: %w", lockName(sess), err)
	}

	switch {
	case !locked.Valid:
		return false, sessionlock.NewLockError("get_lock() returned NULL")
	case locked.Int64 == 0:
		return false, nil
	case locked.Int64 != 1:
		return false, sessionlock.NewLockError("get_lock() returned %d", locked.Int64)
	}
	return true, nil
}

// Release frees the named user lock. Anything but 1 is a failure, including 0,
// which means the lock is not owned by this session.
func (d *Driver) Release(ctx context.Context, sess sessionlock.Session) error {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return err
	}

	var unlocked sql.NullInt64
	row := conn.QueryRowContext(ctx, sqlReleaseLock, lockName(sess))
	if err := row.Scan(&unlocked); err != nil {
		return fmt.Errorf("release_lock(%s) failed: %w", lockName(sess), err)
	}

	if !unlocked.Valid || unlocked.Int64 != 1 {
		return sessionlock.NewLockError("release_lock() returned %s", formatNullInt(unlocked))
	}
	return nil
}

// UsedLock checks is_used_lock() and joins the processlist by the holding
// connection id. The reported grant time is synthesized as now minus the
// holder's busy seconds, which only hints at how long the owning session has
// been doing what it is doing.
func (d *Driver) UsedLock(ctx context.Context, sess sessionlock.Session) (*sessionlock.LockInfo, error) {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return nil, err
	}

	var (
		processID sql.NullInt64
		host      sql.NullString
		busySecs  sql.NullInt64
		state     sql.NullString
	)
	row := conn.QueryRowContext(ctx, sqlLockInfo, lockName(sess))
	if err := row.Scan(&processID, &host, &busySecs, &state); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("is_used_lock(%s) failed: %w", lockName(sess), err)
	}
	if !processID.Valid {
		return nil, nil
	}

	var granted time.Time
	if busySecs.Valid && busySecs.Int64 > 0 {
		granted = time.Now().Add(-time.Duration(busySecs.Int64) * time.Second)
	}

	return &sessionlock.LockInfo{
		ID:        1,
		GrantedAt: granted,
		LockedBy:  lockedBy(processID.Int64, host, state),
	}, nil
}

// lockedBy formats the holder descriptor. Processlist hosts look like
// "ip:port"; the port is trimmed off.
func lockedBy(processID int64, host, state sql.NullString) string {
	if !host.Valid {
		return fmt.Sprintf("connection_id#%d", processID)
	}

	h := host.String
	if colon := strings.LastIndex(h, ":"); colon > 0 {
		h = h[:colon]
	}
	return h + " (" + state.String + ")"
}

func formatNullInt(v sql.NullInt64) string {
	if !v.Valid {
		return "NULL"
	}
	return fmt.Sprintf("%d", v.Int64)
}

// OpenSession connects to MySQL through GORM and pins a lock session on the
// pool. The session schema defaults to the configured database name.
func OpenSession(cfg Config, sessCfg session.Config) (*session.DBSession, error) {
	return openSession(cfg, sessCfg, sessionlock.KindMySQL)
}

func openSession(cfg Config, sessCfg session.Config, kind sessionlock.Kind) (*session.DBSession, error) {
	g, err := gorm.Open(
		gormmysql.Open(cfg.dsn()),
		&gorm.Config{
			TranslateError: true,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL/MariaDB database: %w", err)
	}

	if sessCfg.Schema == "" {
		sessCfg.Schema = cfg.Connection.DbName
	}
	return session.FromGorm(g, kind, sessCfg)
}

var _ sessionlock.Driver = (*Driver)(nil)
