package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/migratekit/sessionlock"
)

const (
	sqlGetLock = "DECLARE @lockResult int;" +
		" EXEC @lockResult = sp_getapplock" +
		"    @Resource = @p1," +
		"    @LockMode = 'Exclusive'," +
		"    @LockOwner = 'Session'," +
		"    @LockTimeout = @p2;" +
		" SELECT @lockResult;"
	sqlReleaseLock = "DECLARE @releaseLockResult int;" +
		" EXEC @releaseLockResult = sp_releaseapplock" +
		"    @Resource = @p1," +
		"    @LockOwner = 'Session';" +
		" SELECT @releaseLockResult;"
	sqlLockInfo = "SELECT SP.spid, SP.hostname, SP.login_time, SP.status" +
		" FROM sys.dm_tran_locks DTL INNER JOIN sys.sysprocesses SP" +
		" ON DTL.request_session_id = SP.spid" +
		" WHERE DTL.resource_description like @p1"

	acquireTimeoutMillis = 5000
)

// Driver implements the session lock protocol on SQL Server application
// resource locks.
//
// A lock obtained with sp_getapplock(@LockOwner = 'Session') is released
// explicitly by sp_releaseapplock or implicitly when the session terminates,
// and is not released when transactions commit or roll back.
type Driver struct{}

// NewDriver creates the SQL Server lock driver.
func NewDriver() *Driver {
	return &Driver{}
}

func (d *Driver) Name() string {
	return "sqlserver"
}

func (d *Driver) Priority() int {
	return sessionlock.PrioritySessionLock
}

func (d *Driver) Supports(ctx context.Context, sess sessionlock.Session) bool {
	return sess.Kind() == sessionlock.KindSQLServer
}

// Acquire requests the application lock in exclusive session-scoped mode.
// Return-code space: 0 = granted synchronously, 1 = granted after waiting,
// -1 = timeout, -2 = canceled, -3 = chosen as deadlock victim, -999 =
// parameter validation or other call error, NULL = error.
func (d *Driver) Acquire(ctx context.Context, sess sessionlock.Session) (bool, error) {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return false, err
	}

	var locked sql.NullInt64
	row := conn.QueryRowContext(ctx, sqlGetLock, lockName(sess), acquireTimeoutMillis)
	if err := row.Scan(&locked); err != nil {
		return false, fmt.Errorf("sp_getapplock(%s) failed: %w", lockName(sess), err)
	}

	switch {
	case !locked.Valid:
		return false, sessionlock.NewLockError("sp_getapplock() returned NULL")
	case locked.Int64 == -999:
		return false, sessionlock.NewLockError("sp_getapplock() returned %d, indicates a parameter validation or other call error", locked.Int64)
	case locked.Int64 == -1 || locked.Int64 == -2 || locked.Int64 == -3:
		return false, nil
	}
	return true, nil
}

// Release frees the application lock. Anything but 0 is a failure.
func (d *Driver) Release(ctx context.Context, sess sessionlock.Session) error {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return err
	}

	var unlocked sql.NullInt64
	row := conn.QueryRowContext(ctx, sqlReleaseLock, lockName(sess))
	if err := row.Scan(&unlocked); err != nil {
		return fmt.Errorf("sp_releaseapplock(%s) failed: %w", lockName(sess), err)
	}

	if !unlocked.Valid || unlocked.Int64 != 0 {
		return sessionlock.NewLockError("sp_releaseapplock() returned %s", formatNullInt(unlocked))
	}
	return nil
}

// UsedLock matches the lock name against transaction-lock resource
// descriptions and joins the process list. The reported grant time is really
// the holding session's login time.
func (d *Driver) UsedLock(ctx context.Context, sess sessionlock.Session) (*sessionlock.LockInfo, error) {
	conn, err := sess.Conn(ctx)
	if err != nil {
		return nil, err
	}

	var (
		spid      int64
		hostname  sql.NullString
		loginTime sql.NullTime
		status    sql.NullString
	)
	row := conn.QueryRowContext(ctx, sqlLockInfo, "%"+lockName(sess)+"%")
	if err := row.Scan(&spid, &hostname, &loginTime, &status); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("application lock introspection failed: %w", err)
	}

	return &sessionlock.LockInfo{
		ID:        1,
		GrantedAt: loginTime.Time,
		LockedBy:  lockedBy(spid, hostname, status),
	}, nil
}

// lockName derives the application lock resource name: upper-cased
// "schema.locktable". Unlike MySQL there is no documented length limit.
func lockName(sess sessionlock.Session) string {
	return strings.ToUpper(sess.SchemaName() + "." + sess.LockTableName())
}

// lockedBy formats the holder descriptor. sysprocesses pads hostname and
// status with trailing blanks.
func lockedBy(spid int64, hostname, status sql.NullString) string {
	if !hostname.Valid || strings.TrimSpace(hostname.String) == "" {
		return fmt.Sprintf("system_process_id#%d", spid)
	}
	return strings.TrimSpace(hostname.String) + " (" + strings.TrimSpace(status.String) + ")"
}

func formatNullInt(v sql.NullInt64) string {
	if !v.Valid {
		return "NULL"
	}
	return fmt.Sprintf("%d", v.Int64)
}

var _ sessionlock.Driver = (*Driver)(nil)
