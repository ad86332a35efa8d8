// Package settings persists user preferences in a SQLite key/value store.
package settings
