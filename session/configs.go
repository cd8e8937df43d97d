package session

// DefaultLockTableName is the conventional changelog lock table name. The
// session lock never touches a table of that name; it only feeds lock key
// derivation so that session locks and a table-based fallback guard the same
// logical resource.
const DefaultLockTableName = "DATABASECHANGELOGLOCK"

type Config struct {
	// Schema is the default schema (PostgreSQL/Oracle) or database name
	// (MySQL/MariaDB) the migration runs against. Required: the lock key is
	// derived from it.
	Schema string

	// LockTable overrides the lock table name used for key derivation.
	// Empty means DefaultLockTableName.
	LockTable string
}

func (c Config) lockTable() string {
	if c.LockTable == "" {
		return DefaultLockTableName
	}
	return c.LockTable
}
