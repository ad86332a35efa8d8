// Package config loads, normalizes, and validates the TOML configuration for
// the inkwell shell process.
package config
