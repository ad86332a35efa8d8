// Package backup archives the user data directory to zip files on a periodic
// schedule and on demand.
package backup
