package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/migratekit/sessionlock"
)

const (
	sqlAllocateLock = "BEGIN dbms_lock.allocate_unique(:name, :handle); END;"
	sqlRequestLock  = "BEGIN :rc := dbms_lock.request(:handle, :lockmode, :timeout, FALSE); END;"
	sqlReleaseLock  = "BEGIN :rc := dbms_lock.release(:handle); END;"
	sqlLockInfo     = "SELECT SYS_CONTEXT ('USERENV', 'SESSIONID') SESSIONID," +
		" SYS_CONTEXT ('USERENV', 'CURRENT_USER') CURRENT_USER," +
		" SYS_CONTEXT ('USERENV', 'INSTANCE_NAME') INSTANCE_NAME," +
		" SYS_CONTEXT ('USERENV', 'HOST') HOST," +
		" SYS_CONTEXT ('USERENV', 'OS_USER') OS_USER" +
		" FROM DUAL"

	// dbms_lock.request X_MODE
	exclusiveMode = 6

	acquireTimeoutSeconds = 5
)

// Driver implements the session lock protocol on Oracle DBMS_LOCK user locks.
//
// Oracle's protocol is two-step: allocate_unique turns the string lock name
// into a numeric handle, then request/release operate on that handle. The
// handle belongs to the Oracle lock namespace, not to this process, so it is
// re-derived on every acquire, release and introspect call rather than
// cached.
type Driver struct {
	logger sessionlock.Logger
}

// NewDriver creates the Oracle lock driver.
func NewDriver() *Driver {
	return &Driver{}
}

// NewDriverWithLogger creates the Oracle lock driver with a logger for
// introspection warnings.
func NewDriverWithLogger(logger sessionlock.Logger) *Driver {
	return &Driver{logger: logger}
}

func (d *Driver) Name() string {
	return "oracle"
}

func (d *Driver) Priority() int {
	return sessionlock.PrioritySessionLock
}

func (d *Driver) Supports(ctx context.Context, sess sessionlock.Session) bool {
	return sess.Kind() == sessionlock.KindOracle
}

// allocate derives the lock handle for this session's lock name. Must precede
// every request/release/introspect.
func allocate(ctx context.Context, conn *sql.Conn, name string) (string, error) {
	var handle string
	_, err := conn.ExecContext(ctx, sqlAllocateLock,
		sql.Named("name", name),
		sql.Named("handle", sql.Out{Dest: &handle}),
	)
	if err != nil {
		return "", fmt.Errorf("dbms_lock.allocate_unique(%s) failed: %w", name, err)
	}
	return handle, nil
}

// Acquire requests the lock in exclusive mode with a short server-side
// timeout and maps dbms_lock.request's return-code space.
func (d *Driver) Acquire(ctx context.Context, sess sessionlock.Session) (bool, error) {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return false, err
	}

	name := lockName(sess)
	handle, err := allocate(ctx, conn, name)
	if err != nil {
		return false, err
	}

	var rc int64
	_, err = conn.ExecContext(ctx, sqlRequestLock,
		sql.Named("rc", sql.Out{Dest: &rc}),
		sql.Named("handle", handle),
		sql.Named("lockmode", exclusiveMode),
		sql.Named("timeout", acquireTimeoutSeconds),
	)
	if err != nil {
		return false, fmt.Errorf("dbms_lock.request() for lock %s failed: %w", name, err)
	}
	return requestOutcome(rc, name)
}

// Release frees the lock via dbms_lock.release after re-deriving the handle.
func (d *Driver) Release(ctx context.Context, sess sessionlock.Session) error {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return err
	}

	name := lockName(sess)
	handle, err := allocate(ctx, conn, name)
	if err != nil {
		return err
	}

	var rc int64
	_, err = conn.ExecContext(ctx, sqlReleaseLock,
		sql.Named("rc", sql.Out{Dest: &rc}),
		sql.Named("handle", handle),
	)
	if err != nil {
		return fmt.Errorf("dbms_lock.release() for lock %s failed: %w", name, err)
	}
	return releaseOutcome(rc, name)
}

// UsedLock reports best-effort lock information. Oracle does not expose lock
// ownership without elevated privileges, so this reads SYS_CONTEXT values for
// the current session - not necessarily the lock owner - and stamps them with
// the query time. Acknowledged as incomplete information, not a bug.
//
// With DBA privileges the real owner is available via:
//
//	SELECT LOCKS_ALLOCATED.*, LOCKS.*
//	FROM DBA_LOCKS LOCKS, SYS.DBMS_LOCK_ALLOCATED LOCKS_ALLOCATED
//	WHERE LOCKS.LOCK_ID1 = LOCKS_ALLOCATED.LOCKID
//	AND LOCKS_ALLOCATED.NAME = 'lockName';
func (d *Driver) UsedLock(ctx context.Context, sess sessionlock.Session) (*sessionlock.LockInfo, error) {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return nil, err
	}

	handle, err := allocate(ctx, conn, lockName(sess))
	if err != nil {
		return nil, err
	}

	lockID, err := parseLockID(handle)
	if err != nil && d.logger != nil {
		d.logger.Warn("could not parse lock handle "+handle, err)
	}

	var sessionID, currentUser, instanceName, host, osUser sql.NullString
	row := conn.QueryRowContext(ctx, sqlLockInfo)
	if err := row.Scan(&sessionID, &currentUser, &instanceName, &host, &osUser); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("session context introspection failed: %w", err)
	}

	return &sessionlock.LockInfo{
		ID:        lockID,
		GrantedAt: time.Now(),
		LockedBy: fmt.Sprintf("(session_id=%s)(current_user=%s)(instance_name=%s)(os_user=%s)(host=%s)",
			sessionID.String, currentUser.String, instanceName.String, osUser.String, host.String),
	}, nil
}

// lockName derives the lock name: upper-cased "schema.locktable". Oracle
// imposes no documented length limit on allocate_unique names.
func lockName(sess sessionlock.Session) string {
	return strings.ToUpper(sess.SchemaName() + "." + sess.LockTableName())
}

// parseLockID recovers a numeric lock id from an allocated handle. Handles
// are integers between 1073741824 and 1999999999 rendered into a longer
// string; the leading ten digits carry the id. Falls back to 1.
func parseLockID(handle string) (int, error) {
	if len(handle) < 10 {
		return 1, nil
	}
	id, err := strconv.Atoi(handle[:10])
	if err != nil {
		return 1, err
	}
	return id, nil
}

// requestOutcome maps dbms_lock.request return codes onto the acquire
// contract: granted, contended, or protocol error.
func requestOutcome(rc int64, lockName string) (bool, error) {
	switch rc {
	case 0:
		return true, nil
	case 1: // timeout, lock held by another session
		return false, nil
	case 2:
		return false, sessionlock.NewLockError("dbms_lock.request() for lock %s returned deadlock", lockName)
	case 3:
		return false, sessionlock.NewLockError("dbms_lock.request() for lock %s returned parameter error", lockName)
	case 4:
		return false, sessionlock.NewLockError("dbms_lock.request() for lock %s returned already own lock specified by lock handle", lockName)
	case 5:
		return false, sessionlock.NewLockError("dbms_lock.request() for lock %s returned illegal lock handle", lockName)
	default:
		return false, sessionlock.NewLockError("dbms_lock.request() for lock %s returned unknown code %d", lockName, rc)
	}
}

// releaseOutcome maps dbms_lock.release return codes. 0 is success.
func releaseOutcome(rc int64, lockName string) error {
	switch rc {
	case 0:
		return nil
	case 3:
		return sessionlock.NewLockError("dbms_lock.release() for lock %s returned parameter error", lockName)
	case 4:
		return sessionlock.NewLockError("dbms_lock.release() for lock %s returned do not own lock specified by lock handle", lockName)
	case 5:
		return sessionlock.NewLockError("dbms_lock.release() for lock %s returned illegal lock handle", lockName)
	default:
		return sessionlock.NewLockError("dbms_lock.release() for lock %s returned unknown code %d", lockName, rc)
	}
}

var _ sessionlock.Driver = (*Driver)(nil)
