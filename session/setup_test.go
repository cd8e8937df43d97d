package session

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/migratekit/sessionlock"
)

func TestNewRequiresSchema(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = New(nil, sessionlock.KindPostgres, Config{Schema: "public"})
	assert.Error(t, err)

	_, err = New(db, sessionlock.KindPostgres, Config{})
	assert.Error(t, err)

	sess, err := New(db, sessionlock.KindPostgres, Config{Schema: "public"})
	require.NoError(t, err)
	assert.Equal(t, "public", sess.SchemaName())
	assert.Equal(t, DefaultLockTableName, sess.LockTableName())
	assert.Equal(t, sessionlock.KindPostgres, sess.Kind())
}

func TestLockTableOverride(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess, err := New(db, sessionlock.KindMySQL, Config{Schema: "app", LockTable: "MIGRATION_LOCK"})
	require.NoError(t, err)
	assert.Equal(t, "MIGRATION_LOCK", sess.LockTableName())
}

func TestConnIsPinned(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess, err := New(db, sessionlock.KindPostgres, Config{Schema: "public"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	first, err := sess.Conn(context.Background())
	require.NoError(t, err)
	second, err := sess.Conn(context.Background())
	require.NoError(t, err)

	// Acquire and release must run on the same database session.
	assert.Same(t, first, second)
}

func TestCloseIsIdempotent(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess, err := New(db, sessionlock.KindPostgres, Config{Schema: "public"})
	require.NoError(t, err)

	_, err = sess.Conn(context.Background())
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
}

func TestServerVersionPostgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess, err := New(db, sessionlock.KindPostgres, Config{Schema: "public"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	mock.ExpectQuery("SELECT current_setting('server_version_num')::int").
		WillReturnRows(sqlmock.NewRows([]string{"current_setting"}).AddRow(150002))

	major, minor, err := sess.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, major)
	assert.Equal(t, 2, minor)
}

func TestServerVersionLegacyPostgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess, err := New(db, sessionlock.KindPostgres, Config{Schema: "public"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	// 9.6.24 under the pre-10 numbering scheme.
	mock.ExpectQuery("SELECT current_setting('server_version_num')::int").
		WillReturnRows(sqlmock.NewRows([]string{"current_setting"}).AddRow(90624))

	major, minor, err := sess.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, major)
	assert.Equal(t, 6, minor)
}

func TestServerVersionMySQL(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess, err := New(db, sessionlock.KindMySQL, Config{Schema: "app"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	mock.ExpectQuery("SELECT VERSION()").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("8.0.36-log"))

	major, minor, err := sess.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, major)
	assert.Equal(t, 0, minor)
}

func TestServerVersionUnsupportedKind(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess, err := New(db, sessionlock.KindOracle, Config{Schema: "app"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	_, _, err = sess.ServerVersion(context.Background())
	assert.Error(t, err)
}

func TestParseVersion(t *testing.T) {
	cases := []struct {
		banner string
		major  int
		minor  int
		ok     bool
	}{
		{"8.0.36-log", 8, 0, true},
		{"10.11.6-MariaDB", 10, 11, true},
		{"5.7", 5, 7, true},
		{"garbage", 0, 0, false},
		{"x.y.z", 0, 0, false},
	}

	for _, c := range cases {
		major, minor, err := parseVersion(c.banner)
		if !c.ok {
			assert.Error(t, err, c.banner)
			continue
		}
		require.NoError(t, err, c.banner)
		assert.Equal(t, c.major, major, c.banner)
		assert.Equal(t, c.minor, minor, c.banner)
	}
}
