// Package postgres locks the changelog with PostgreSQL session-level
// advisory locks (pg_try_advisory_lock / pg_advisory_unlock over a two-key
// pair derived from the schema and lock-table names).
//
// While a flag stored in a table could serve the same purpose, advisory locks
// are faster, avoid table bloat, and are automatically cleaned up by the
// server at the end of the session. Two-key advisory locks require
// PostgreSQL 9.1 or later; the driver's Supports predicate gates on that and
// degrades to false when the version cannot be determined.
package postgres
