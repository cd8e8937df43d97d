// Package oracle locks the changelog with Oracle DBMS_LOCK user locks.
//
// Every operation first calls dbms_lock.allocate_unique to turn the lock name
// into a numeric handle; the handle is never cached across calls. The package
// issues PL/SQL blocks with OUT binds and therefore requires a driver that
// supports sql.Out, such as godror.
package oracle
