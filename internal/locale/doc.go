// Package locale resolves the OS locale to an embedded string catalog.
package locale
