// Package sessionlock coordinates a single logical migration lock across
// cooperating processes that share a relational database, using each engine's
// native session-scoped advisory primitive instead of a row in a shared
// table.
//
// # Why session-scoped locks
//
// A lock row in a table survives a crashed process and has to be cleaned up
// by hand. A session-scoped lock (MySQL user locks, PostgreSQL advisory
// locks, Oracle DBMS_LOCK, SQL Server application locks) is owned by the
// database session itself: if the connection drops, the engine releases the
// lock. That is the entire value proposition of this package.
//
// # Architecture
//
// Three pieces cooperate:
//
//   - Driver: the per-engine protocol (acquire / release / introspect) over a
//     live connection. One implementation per backend lives in the mysql,
//     postgres, oracle, sqlserver and sqlite packages.
//   - Session: one pinned database connection plus the schema and lock-table
//     names that determine the lock key. See the session package.
//   - Service: the backend-agnostic state machine. It tracks the local "held"
//     flag, exposes idempotent AcquireLock, the WaitForLock poll loop,
//     ReleaseLock with unconditional local reset, and ListLocks.
//
// # Basic usage
//
//	sess, err := session.New(db, sessionlock.KindPostgres, session.Config{
//	    Schema: "public",
//	})
//	if err != nil { ... }
//	defer sess.Close()
//
//	driver := sessionlock.Select(ctx, sess, drivers.All()...)
//	svc := sessionlock.NewService(sess, driver, sessionlock.Config{}, log)
//
//	if err := svc.WaitForLock(ctx); err != nil { ... }
//	defer svc.ReleaseLock(ctx)
//
// # Error model
//
// Contention is not an error: AcquireLock returns false. Everything else -
// unexpected protocol return codes, connectivity failures, WaitForLock
// timeout - surfaces as a single *LockError with the cause chained.
//
// # Concurrency
//
// A Service instance is meant to be driven by one goroutine. Safety across
// processes is the database engine's job, not this package's. There is no
// ordering guarantee among waiters: acquisition is first-successful-poll-wins
// and starvation of an individual waiter is possible.
package sessionlock
