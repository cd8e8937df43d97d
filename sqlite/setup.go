package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/migratekit/sessionlock"
	"github.com/migratekit/sessionlock/session"
)

const (
	sqlBeginExclusive = "BEGIN EXCLUSIVE"
	sqlCommit         = "COMMIT"

	busyTimeoutMillis = 100
)

// Driver implements the session lock protocol for embedded SQLite databases.
//
// SQLite has no advisory lock primitive, so the driver holds an exclusive
// transaction on the pinned connection for the duration of the lock. This is
// a degraded variant: it blocks all writers, not just other migrators, and
// lock introspection is synthetic. It exists so that single-file test and
// development databases run through the same locking code path as the server
// engines.
type Driver struct{}

// NewDriver creates the SQLite lock driver.
func NewDriver() *Driver {
	return &Driver{}
}

func (d *Driver) Name() string {
	return "sqlite"
}

func (d *Driver) Priority() int {
	return sessionlock.PrioritySessionLock
}

func (d *Driver) Supports(ctx context.Context, sess sessionlock.Session) bool {
	return sess.Kind() == sessionlock.KindSQLite
}

// Acquire opens an exclusive transaction on the session's connection.
// A concurrent holder surfaces as SQLITE_BUSY, which is contention, not an
// error.
func (d *Driver) Acquire(ctx context.Context, sess sessionlock.Session) (bool, error) {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return false, err
	}

	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis)); err != nil {
		return false, fmt.Errorf("setting busy_timeout failed: %w", err)
	}
	if _, err := conn.ExecContext(ctx, sqlBeginExclusive); err != nil {
		if isBusy(err) {
			return false, nil
		}
		return false, fmt.Errorf("BEGIN EXCLUSIVE failed: %w", err)
	}
	return true, nil
}

// Release commits the exclusive transaction opened by Acquire.
func (d *Driver) Release(ctx context.Context, sess sessionlock.Session) error {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, sqlCommit); err != nil {
		return sessionlock.WrapLockError(err, "releasing exclusive transaction failed")
	}
	return nil
}

// UsedLock cannot inspect other connections of an embedded database, so it
// reports a synthetic descriptor.
func (d *Driver) UsedLock(ctx context.Context, sess sessionlock.Session) (*sessionlock.LockInfo, error) {
	return &sessionlock.LockInfo{
		ID:        1,
		GrantedAt: time.Now(),
		LockedBy:  strings.ToUpper(sess.SchemaName()+"."+sess.LockTableName()) + " (exclusive mode)",
	}, nil
}

// OpenSession opens an embedded database file and wraps it in a pinned
// session. Concurrent lockers of the same file must each open their own
// session.
func OpenSession(cfg Config) (*session.DBSession, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s failed: %w", cfg.Path, err)
	}
	return session.New(db, sessionlock.KindSQLite, session.Config{
		Schema:    cfg.schema(),
		LockTable: cfg.LockTable,
	})
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

var _ sessionlock.Driver = (*Driver)(nil)
