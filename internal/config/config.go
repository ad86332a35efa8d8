package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// AppPathEnv overrides the resource base path with a path resolved relative
// to the working directory. It exists so development and packaged layouts can
// share one binary.
const AppPathEnv = "INKWELL_APP_PATH"

// Paths contains directory configuration for the shell process.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	ExtensionsDir string `toml:"extensions_dir"`
	BackupDir     string `toml:"backup_dir"`
	LogDir        string `toml:"log_dir"`
	ResourcesDir  string `toml:"resources_dir"`
	SocketPath    string `toml:"socket_path"`
}

// UI describes how the sandboxed UI process is launched.
type UI struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// Backup contains configuration for periodic data archiving.
type Backup struct {
	IntervalMinutes int `toml:"interval_minutes"`
	Retain          int `toml:"retain"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for the inkwell shell.
//
// Configuration sections by subsystem:
//   - Paths: user data, extension bundles, backups, logs, UI resources
//   - UI: the sandboxed UI process command line
//   - Backup: periodic archive interval and retention
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	UI      UI      `toml:"ui"`
	Backup  Backup  `toml:"backup"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/inkwell/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized, including the
// INKWELL_APP_PATH resource override.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("inkwell.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(valueOr(c.Paths.DataDir, defaultDataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.ExtensionsDir, err = expandPath(valueOr(c.Paths.ExtensionsDir, defaultExtensionsDir)); err != nil {
		return fmt.Errorf("paths.extensions_dir: %w", err)
	}
	if c.Paths.BackupDir, err = expandPath(valueOr(c.Paths.BackupDir, defaultBackupDir)); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(valueOr(c.Paths.LogDir, defaultLogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	// The env override wins over both the default and the configured value so
	// a packaged binary can be pointed at a development resource tree.
	if override, ok := os.LookupEnv(AppPathEnv); ok && strings.TrimSpace(override) != "" {
		abs, err := filepath.Abs(strings.TrimSpace(override))
		if err != nil {
			return fmt.Errorf("%s: %w", AppPathEnv, err)
		}
		c.Paths.ResourcesDir = abs
	} else if c.Paths.ResourcesDir, err = expandPath(valueOr(c.Paths.ResourcesDir, defaultResourcesDir)); err != nil {
		return fmt.Errorf("paths.resources_dir: %w", err)
	}

	c.Paths.SocketPath = strings.TrimSpace(c.Paths.SocketPath)
	if c.Paths.SocketPath == "" {
		c.Paths.SocketPath = filepath.Join(c.Paths.DataDir, "inkwell.sock")
	} else if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}

	c.UI.Command = strings.TrimSpace(c.UI.Command)

	if c.Backup.IntervalMinutes <= 0 {
		c.Backup.IntervalMinutes = defaultBackupIntervalMinutes
	}
	if c.Backup.Retain <= 0 {
		c.Backup.Retain = defaultBackupRetain
	}

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// Validate rejects configurations the shell cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir is required")
	}
	if strings.TrimSpace(c.Paths.ExtensionsDir) == "" {
		return errors.New("paths.extensions_dir is required")
	}
	if filepath.Clean(c.Paths.BackupDir) == filepath.Clean(c.Paths.DataDir) {
		return errors.New("paths.backup_dir must differ from paths.data_dir")
	}
	return nil
}

// EnsureDirectories creates required directories for shell operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ExtensionsDir, c.Paths.BackupDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StartDocumentPath is the fixed location of the generated start document.
func (c *Config) StartDocumentPath() string {
	return filepath.Join(c.Paths.DataDir, "start.html")
}

// LockPath is the fixed location of the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "inkwell.lock")
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
