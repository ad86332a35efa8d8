// Package window defines the shell's contract with the primary window and
// its menu/tray chrome, plus a default implementation backed by the sandboxed
// UI process.
package window
