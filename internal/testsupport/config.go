package testsupport

import (
	"path/filepath"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/settings"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ExtensionsDir = filepath.Join(base, "extensions")
	cfg.Paths.BackupDir = filepath.Join(base, "backups")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ResourcesDir = filepath.Join(base, "resources")
	cfg.Paths.SocketPath = filepath.Join(base, "inkwell.sock")
	cfg.Backup.IntervalMinutes = 60
	cfg.Backup.Retain = 5

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithUICommand sets the sandboxed UI command on the test config.
func WithUICommand(command string, args ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.UI.Command = command
		cfg.UI.Args = args
	}
}

// MustOpenSettings opens a settings store and closes it with the test.
func MustOpenSettings(t testing.TB, cfg *config.Config) *settings.Store {
	t.Helper()
	store, err := settings.Open(cfg)
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
