// Package sqlserver locks via sp_getapplock in exclusive mode with session
// ownership. Session-owned application locks survive transaction boundaries
// and are cleaned up by the server when the owning session ends.
//
// Lock introspection joins sys.dm_tran_locks against sys.sysprocesses and
// matches the resource description by pattern, since SQL Server hashes the
// resource name and does not store it verbatim.
package sqlserver
