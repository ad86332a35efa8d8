package config

const (
	defaultDataDir               = "~/.local/share/inkwell"
	defaultExtensionsDir         = "~/.local/share/inkwell/extensions"
	defaultBackupDir             = "~/.local/share/inkwell/backups"
	defaultLogDir                = "~/.local/share/inkwell/logs"
	defaultResourcesDir          = "/usr/share/inkwell/resources"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultBackupIntervalMinutes = 30
	defaultBackupRetain          = 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       defaultDataDir,
			ExtensionsDir: defaultExtensionsDir,
			BackupDir:     defaultBackupDir,
			LogDir:        defaultLogDir,
			ResourcesDir:  defaultResourcesDir,
		},
		Backup: Backup{
			IntervalMinutes: defaultBackupIntervalMinutes,
			Retain:          defaultBackupRetain,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
