// Package mysql locks the changelog with MySQL user-level locks
// (get_lock / release_lock / is_used_lock). The MariaDB variant shares the
// protocol and differs only in engine detection.
//
// Lock names are capped at 64 characters by the server; the derived
// "SCHEMA.LOCKTABLE" name is truncated to fit. The grant time reported by
// introspection is approximated from the holding session's busy time.
package mysql
