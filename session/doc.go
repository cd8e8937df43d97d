// Package session implements sessionlock.Session on top of database/sql.
//
// A DBSession pins exactly one connection out of the pool and returns it for
// every driver call; the native session-scoped lock lives and dies with that
// connection. Use New for a plain *sql.DB and FromGorm for a *gorm.DB.
package session
