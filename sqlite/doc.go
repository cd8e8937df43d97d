// Package sqlite provides a degraded lock driver for embedded SQLite
// databases, holding a BEGIN EXCLUSIVE transaction instead of an advisory
// lock. It is suited to tests and single-node tooling, not to production
// migration coordination.
package sqlite
