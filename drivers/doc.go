// Package drivers aggregates the built-in lock drivers into a default set,
// both as a plain slice for direct wiring and as an fx module for
// dependency-injected applications.
package drivers
