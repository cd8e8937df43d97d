package postgres

import "github.com/migratekit/sessionlock"

// lockID derives the two 32-bit keys for the advisory lock: one from the
// lock-table name, one from the schema name. Two independent namespace
// partitions keep unrelated lock tables in different key spaces; collisions
// within the 32-bit space are a documented risk of the backend's key space,
// not a defect.
func lockID(sess sessionlock.Session) (int32, int32) {
	return stringHash(sess.LockTableName()), stringHash(sess.SchemaName())
}

// stringHash is a 31-based polynomial hash. Unlike maphash or FNV over
// runtime-seeded state, it is deterministic across process restarts and
// builds, which the lock key must be: every process has to derive the same
// pair for the same (schema, lock table).
func stringHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = 31*h + int32(r)
	}
	return h
}
