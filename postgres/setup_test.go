package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migratekit/sessionlock"
	"github.com/migratekit/sessionlock/session"
)

func newMockSession(t *testing.T) (*session.DBSession, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess, err := session.New(db, sessionlock.KindPostgres, session.Config{Schema: "test_schema"})
	require.NoError(t, err)
	return sess, mock
}

func testLockID(t *testing.T, sess sessionlock.Session) (int32, int32) {
	t.Helper()
	classID, objID := lockID(sess)
	return classID, objID
}

func TestAcquireGranted(t *testing.T) {
	sess, mock := newMockSession(t)
	classID, objID := testLockID(t, sess)
	mock.ExpectQuery(sqlTryLock).
		WithArgs(classID, objID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))

	locked, err := NewDriver().Acquire(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireContended(t *testing.T) {
	sess, mock := newMockSession(t)
	classID, objID := testLockID(t, sess)
	mock.ExpectQuery(sqlTryLock).
		WithArgs(classID, objID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	locked, err := NewDriver().Acquire(context.Background(), sess)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestReleaseSuccess(t *testing.T) {
	sess, mock := newMockSession(t)
	classID, objID := testLockID(t, sess)
	mock.ExpectQuery(sqlUnlock).
		WithArgs(classID, objID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	require.NoError(t, NewDriver().Release(context.Background(), sess))
}

func TestReleaseNotOwned(t *testing.T) {
	sess, mock := newMockSession(t)
	classID, objID := testLockID(t, sess)
	mock.ExpectQuery(sqlUnlock).
		WithArgs(classID, objID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(false))

	err := NewDriver().Release(context.Background(), sess)
	require.Error(t, err)

	var lockErr *sessionlock.LockError
	require.ErrorAs(t, err, &lockErr)
	assert.Contains(t, err.Error(), "pg_advisory_unlock() returned false")
}

func TestUsedLockNotHeld(t *testing.T) {
	sess, mock := newMockSession(t)
	classID, objID := testLockID(t, sess)
	mock.ExpectQuery(sqlLockInfo).
		WithArgs(classID, objID).
		WillReturnRows(sqlmock.NewRows([]string{"pid", "client_hostname", "backend_start", "state"}))

	info, err := NewDriver().UsedLock(context.Background(), sess)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestUsedLockFormatsHolder(t *testing.T) {
	sess, mock := newMockSession(t)
	classID, objID := testLockID(t, sess)
	started := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	mock.ExpectQuery(sqlLockInfo).
		WithArgs(classID, objID).
		WillReturnRows(sqlmock.NewRows([]string{"pid", "client_hostname", "backend_start", "state"}).
			AddRow(4711, "build-agent-7", started, "active"))

	info, err := NewDriver().UsedLock(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 1, info.ID)
	assert.Equal(t, "build-agent-7 (active)", info.LockedBy)
	assert.Equal(t, started, info.GrantedAt)
}

func TestUsedLockWithoutHostname(t *testing.T) {
	sess, mock := newMockSession(t)
	classID, objID := testLockID(t, sess)
	mock.ExpectQuery(sqlLockInfo).
		WithArgs(classID, objID).
		WillReturnRows(sqlmock.NewRows([]string{"pid", "client_hostname", "backend_start", "state"}).
			AddRow(4711, nil, nil, nil))

	info, err := NewDriver().UsedLock(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "pid#4711", info.LockedBy)
}

type versionedSession struct {
	kind       sessionlock.Kind
	major      int
	minor      int
	versionErr error
}

func (s *versionedSession) Conn(ctx context.Context) (*sql.Conn, error) { return nil, nil }
func (s *versionedSession) Kind() sessionlock.Kind                      { return s.kind }
func (s *versionedSession) SchemaName() string                          { return "public" }
func (s *versionedSession) LockTableName() string                       { return "DATABASECHANGELOGLOCK" }
func (s *versionedSession) ServerVersion(ctx context.Context) (int, int, error) {
	return s.major, s.minor, s.versionErr
}

func TestSupportsGatesOnServerVersion(t *testing.T) {
	driver := NewDriver()

	assert.False(t, driver.Supports(context.Background(),
		&versionedSession{kind: sessionlock.KindPostgres, major: 9, minor: 0}))
	assert.True(t, driver.Supports(context.Background(),
		&versionedSession{kind: sessionlock.KindPostgres, major: 9, minor: 1}))
	assert.True(t, driver.Supports(context.Background(),
		&versionedSession{kind: sessionlock.KindPostgres, major: 15, minor: 2}))
	assert.False(t, driver.Supports(context.Background(),
		&versionedSession{kind: sessionlock.KindMySQL, major: 15, minor: 2}))
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Info(string, error, ...map[string]interface{})  {}
func (l *recordingLogger) Debug(string, error, ...map[string]interface{}) {}
func (l *recordingLogger) Warn(msg string, _ error, _ ...map[string]interface{}) {
	l.warnings = append(l.warnings, msg)
}
func (l *recordingLogger) Error(string, error, ...map[string]interface{}) {}
func (l *recordingLogger) Fatal(string, error, ...map[string]interface{}) {}

func TestSupportsDegradesOnVersionProbeFailure(t *testing.T) {
	logger := &recordingLogger{}
	driver := NewDriverWithLogger(logger)

	supported := driver.Supports(context.Background(), &versionedSession{
		kind:       sessionlock.KindPostgres,
		versionErr: errors.New("connection refused"),
	})
	assert.False(t, supported)
	require.Len(t, logger.warnings, 1)
	assert.Contains(t, logger.warnings[0], "database version")
}

func TestStringHashIsDeterministic(t *testing.T) {
	assert.Equal(t, int32(0), stringHash(""))
	assert.Equal(t, int32('a'), stringHash("a"))
	assert.Equal(t, int32(31*'a'+'b'), stringHash("ab"))
	// Identical input always derives the identical lock key.
	assert.Equal(t, stringHash("DATABASECHANGELOGLOCK"), stringHash("DATABASECHANGELOGLOCK"))
	assert.NotEqual(t, stringHash("public"), stringHash("test_schema"))
}

func TestLockIDSeparatesTableAndSchemaKeys(t *testing.T) {
	sess := &versionedSession{kind: sessionlock.KindPostgres, major: 15}
	classID, objID := lockID(sess)
	assert.Equal(t, stringHash("DATABASECHANGELOGLOCK"), classID)
	assert.Equal(t, stringHash("public"), objID)
}
