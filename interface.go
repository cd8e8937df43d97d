package sessionlock

import (
	"context"
	"database/sql"
	"time"
)

// Kind identifies the database engine behind a Session. Drivers use it in
// their Supports predicate when choosing a backend for a connection.
type Kind string

const (
	KindPostgres  Kind = "postgres"
	KindMySQL     Kind = "mysql"
	KindMariaDB   Kind = "mariadb"
	KindOracle    Kind = "oracle"
	KindSQLServer Kind = "sqlserver"
	KindSQLite    Kind = "sqlite"
)

// Priority values used during backend selection. Every session-level driver
// reports PrioritySessionLock, strictly above PriorityDefault, which is
// reserved for a table-row based fallback owned by the surrounding migration
// engine.
const (
	PriorityDefault     = 1
	PrioritySessionLock = PriorityDefault + 1
)

// Session represents one live database session for the lifetime of an
// acquire/release pair. Conn must return the same pinned connection on every
// call: the native lock is owned by the underlying database session, so
// handing out a different connection between acquire and release would leak
// the lock.
//
// The lock subsystem borrows the connection per call and never closes it.
type Session interface {
	// Conn returns the pinned connection for this session.
	Conn(ctx context.Context) (*sql.Conn, error)

	// Kind reports the database engine this session is connected to.
	Kind() Kind

	// SchemaName is the default schema (or database/catalog) the migration
	// runs against. Together with LockTableName it determines the lock key.
	SchemaName() string

	// LockTableName is the name of the changelog lock table. No table of
	// that name is ever read or written by this module; the name only feeds
	// lock key derivation so that session locks and the table-based fallback
	// guard the same logical resource.
	LockTableName() string

	// ServerVersion reports the engine's major and minor version. Only
	// consulted by drivers with a version gate; implementations may return
	// an error for engines where the probe is not supported.
	ServerVersion(ctx context.Context) (major, minor int, err error)
}

// LockInfo describes an observed changelog lock. All fields are best-effort:
// depending on the backend, GrantedAt may be the session start time or the
// query time rather than the true grant time, and LockedBy is a free-form
// owner descriptor.
type LockInfo struct {
	// ID is the backend-specific encoding of the lock handle. Backends that
	// cannot multiplex distinguishable ids report a synthetic 1.
	ID int

	// GrantedAt is the best-effort time the lock was granted.
	GrantedAt time.Time

	// LockedBy describes the current holder, typically "host (state)".
	// "UNKNOWN" when nothing is retrievable.
	LockedBy string
}

// Driver is the per-engine locking protocol. Implementations are stateless
// per call: everything is derived from the Session on each invocation, so a
// Driver value may be shared freely.
//
// Acquire, Release and UsedLock operate on the engine's native session-scoped
// primitive. They are transaction-independent: a rollback must not release
// the lock and no commit is required to obtain it.
type Driver interface {
	// Name identifies the driver, e.g. for log fields.
	Name() string

	// Priority ranks the driver against the baseline fallback during
	// backend selection. Must be strictly greater than PriorityDefault.
	Priority() int

	// Supports reports whether this driver can serve the given session.
	// It never returns an error: capability or version probes that fail
	// degrade to false.
	Supports(ctx context.Context, sess Session) bool

	// Acquire attempts a non-blocking acquisition of the lock. It returns
	// false when the lock is held by another session, which is not an error.
	Acquire(ctx context.Context, sess Session) (bool, error)

	// Release releases the lock previously obtained by Acquire. Releasing a
	// lock this session does not own is an error.
	Release(ctx context.Context, sess Session) error

	// UsedLock reports the current holder of the lock, or nil when the lock
	// is not in use (or the backend cannot tell).
	UsedLock(ctx context.Context, sess Session) (*LockInfo, error)
}

// Logger defines the interface for logging operations within the sessionlock
// packages. The logger package provides a Zap-backed implementation.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}
