package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/migratekit/sessionlock"
	"github.com/migratekit/sessionlock/session"
)

const (
	sqlTryLock = "SELECT pg_try_advisory_lock($1,$2)"
	sqlUnlock  = "SELECT pg_advisory_unlock($1,$2)"
	sqlLockInfo = "SELECT l.pid," +
		" a.client_hostname," +
		" a.backend_start," +
		" a.state" +
		" FROM pg_locks l" +
		" LEFT JOIN pg_stat_activity a" +
		" ON a.pid = l.pid" +
		" WHERE l.locktype = 'advisory'" +
		" AND l.classid = $1" +
		" AND l.objid = $2" +
		" AND l.objsubid = 2" +
		" AND l.granted"
)

// Driver implements the session lock protocol on PostgreSQL advisory locks.
//
// Session-level advisory locks do not honor transaction semantics: a lock
// acquired during a transaction that is later rolled back is still held
// following the rollback, and an unlock is effective even if the calling
// transaction fails later. The server cleans the lock up when the session
// ends.
//
// Two-key advisory locks require PostgreSQL 9.1; Supports gates on that.
type Driver struct {
	logger sessionlock.Logger
}

// NewDriver creates the PostgreSQL lock driver.
func NewDriver() *Driver {
	return &Driver{}
}

// NewDriverWithLogger creates the PostgreSQL lock driver with a logger for
// version-probe warnings.
func NewDriverWithLogger(logger sessionlock.Logger) *Driver {
	return &Driver{logger: logger}
}

func (d *Driver) Name() string {
	return "postgres"
}

func (d *Driver) Priority() int {
	return sessionlock.PrioritySessionLock
}

// Supports requires a PostgreSQL session on version 9.1 or later. A failing
// version probe degrades to false: Supports is a pure predicate used during
// backend selection and must never raise.
func (d *Driver) Supports(ctx context.Context, sess sessionlock.Session) bool {
	if sess.Kind() != sessionlock.KindPostgres {
		return false
	}

	major, minor, err := sess.ServerVersion(ctx)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Problem querying database version", err)
		}
		return false
	}
	return major > 9 || (major == 9 && minor >= 1)
}

// Acquire tries the two-key advisory lock, non-blocking.
func (d *Driver) Acquire(ctx context.Context, sess sessionlock.Session) (bool, error) {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return false, err
	}

	classID, objID := lockID(sess)
	var locked bool
	row := conn.QueryRowContext(ctx, sqlTryLock, classID, objID)
	if err := row.Scan(&locked); err != nil {
		return false, fmt.Errorf("pg_try_advisory_lock(%d,%d) failed: %w", classID, objID, err)
	}
	return locked, nil
}

// Release unlocks the two-key pair. pg_advisory_unlock returns false when the
// lock is not held by this session, which is a failure here.
func (d *Driver) Release(ctx context.Context, sess sessionlock.Session) error {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return err
	}

	classID, objID := lockID(sess)
	var unlocked sql.NullBool
	row := conn.QueryRowContext(ctx, sqlUnlock, classID, objID)
	if err := row.Scan(&unlocked); err != nil {
		return fmt.Errorf("pg_advisory_unlock(%d,%d) failed: %w", classID, objID, err)
	}

	if !unlocked.Valid || !unlocked.Bool {
		return sessionlock.NewLockError("pg_advisory_unlock() returned %s", formatNullBool(unlocked))
	}
	return nil
}

// UsedLock joins pg_locks with pg_stat_activity for the granted advisory lock
// matching our key pair. The reported grant time is really the holding
// backend's start time.
func (d *Driver) UsedLock(ctx context.Context, sess sessionlock.Session) (*sessionlock.LockInfo, error) {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return nil, err
	}

	classID, objID := lockID(sess)
	var (
		pid          int64
		hostname     sql.NullString
		backendStart sql.NullTime
		state        sql.NullString
	)
	row := conn.QueryRowContext(ctx, sqlLockInfo, classID, objID)
	if err := row.Scan(&pid, &hostname, &backendStart, &state); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("advisory lock introspection failed: %w", err)
	}

	return &sessionlock.LockInfo{
		ID:        1,
		GrantedAt: backendStart.Time,
		LockedBy:  lockedBy(pid, hostname, state),
	}, nil
}

func lockedBy(pid int64, hostname, state sql.NullString) string {
	if !hostname.Valid {
		return fmt.Sprintf("pid#%d", pid)
	}
	return hostname.String + " (" + state.String + ")"
}

func formatNullBool(v sql.NullBool) string {
	if !v.Valid {
		return "NULL"
	}
	return fmt.Sprintf("%t", v.Bool)
}

// OpenSession connects to PostgreSQL through the pgx stdlib adapter and pins
// a lock session on the pool. The session schema defaults to "public".
func OpenSession(cfg Config, sessCfg session.Config) (*session.DBSession, error) {
	pgxCfg, err := pgx.ParseConfig(cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL connection config: %w", err)
	}

	db := stdlib.OpenDB(*pgxCfg)
	if sessCfg.Schema == "" {
		sessCfg.Schema = "public"
	}
	return session.New(db, sessionlock.KindPostgres, sessCfg)
}

// OpenGormSession connects through GORM instead, for applications that manage
// their PostgreSQL connections that way. The lock session still pins a plain
// database/sql connection out of GORM's pool.
func OpenGormSession(cfg Config, sessCfg session.Config) (*session.DBSession, error) {
	g, err := gorm.Open(
		gormpostgres.Open(cfg.connString()),
		&gorm.Config{
			TranslateError: true,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if sessCfg.Schema == "" {
		sessCfg.Schema = "public"
	}
	return session.FromGorm(g, sessionlock.KindPostgres, sessCfg)
}

var _ sessionlock.Driver = (*Driver)(nil)
