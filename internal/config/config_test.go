package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkwell/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("missing file must not report exists")
	}
	if cfg.Backup.IntervalMinutes != 30 {
		t.Fatalf("IntervalMinutes = %d, want 30", cfg.Backup.IntervalMinutes)
	}
	if cfg.Backup.Retain != 20 {
		t.Fatalf("Retain = %d, want 20", cfg.Backup.Retain)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("logging defaults = %s/%s", cfg.Logging.Format, cfg.Logging.Level)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("DataDir %q not absolute", cfg.Paths.DataDir)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
extensions_dir = "` + filepath.Join(dir, "ext") + `"
backup_dir = "` + filepath.Join(dir, "backups") + `"

[ui]
command = "inkwell-ui"
args = ["--sandbox"]

[backup]
interval_minutes = 5
retain = 3

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.UI.Command != "inkwell-ui" || len(cfg.UI.Args) != 1 {
		t.Fatalf("UI = %+v", cfg.UI)
	}
	if cfg.Backup.IntervalMinutes != 5 || cfg.Backup.Retain != 3 {
		t.Fatalf("Backup = %+v", cfg.Backup)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("Logging = %+v", cfg.Logging)
	}
}

func TestAppPathEnvOverridesResources(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.AppPathEnv, dir)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.ResourcesDir != dir {
		t.Fatalf("ResourcesDir = %q, want %q", cfg.Paths.ResourcesDir, dir)
	}
}

func TestAppPathEnvResolvesRelativeToWorkingDir(t *testing.T) {
	dir := t.TempDir()
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldwd) })
	t.Setenv(config.AppPathEnv, "resources")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(dir, "resources")
	// macOS temp dirs may resolve through symlinks; compare the suffix.
	if cfg.Paths.ResourcesDir != want && !strings.HasSuffix(cfg.Paths.ResourcesDir, string(filepath.Separator)+"resources") {
		t.Fatalf("ResourcesDir = %q, want %q", cfg.Paths.ResourcesDir, want)
	}
}

func TestValidateRejectsBackupInsideData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
backup_dir = "` + filepath.Join(dir, "data") + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for backup_dir == data_dir")
	}
}

func TestNormalizeRepairsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[backup]
interval_minutes = -1
retain = 0

[logging]
format = "yaml"
level = ""
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backup.IntervalMinutes != 30 || cfg.Backup.Retain != 20 {
		t.Fatalf("Backup = %+v, want defaults", cfg.Backup)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("Logging = %+v, want defaults", cfg.Logging)
	}
}

func TestSocketPathDefaultsUnderDataDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(cfg.Paths.DataDir, "inkwell.sock")
	if cfg.Paths.SocketPath != want {
		t.Fatalf("SocketPath = %q, want %q", cfg.Paths.SocketPath, want)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/var/lib/inkwell"
	if got := cfg.StartDocumentPath(); got != "/var/lib/inkwell/start.html" {
		t.Fatalf("StartDocumentPath = %q", got)
	}
	if got := cfg.LockPath(); got != "/var/lib/inkwell/inkwell.lock" {
		t.Fatalf("LockPath = %q", got)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("Load sample: exists=%v err=%v", exists, err)
	}
}
