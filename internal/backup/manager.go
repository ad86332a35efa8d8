package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"inkwell/internal/config"
	"inkwell/internal/logging"
)

// Manager schedules periodic backups of the user data directory and performs
// on-demand ones. Begin is idempotent; PerformBackup always archives.
type Manager struct {
	dataDir   string
	backupDir string
	interval  time.Duration
	retain    int
	logger    *slog.Logger

	mu        sync.Mutex
	scheduler gocron.Scheduler
	started   bool
	last      time.Time
}

// NewManager constructs a backup manager from configuration.
func NewManager(cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("backup manager requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		dataDir:   cfg.Paths.DataDir,
		backupDir: cfg.Paths.BackupDir,
		interval:  time.Duration(cfg.Backup.IntervalMinutes) * time.Minute,
		retain:    cfg.Backup.Retain,
		logger:    logging.NewComponentLogger(logger, "backup"),
	}, nil
}

// Begin starts the periodic backup schedule. Calling it again while the
// schedule is running does not add a second job.
func (m *Manager) Begin(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create backup scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(m.interval),
		gocron.NewTask(func() {
			if _, err := m.PerformBackup(ctx); err != nil {
				m.logger.Warn("scheduled backup failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "backup_failed"),
					logging.String(logging.FieldErrorHint, "check backup_dir permissions and free space"),
				)
			}
		}),
		gocron.WithName("periodic-backup"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("schedule periodic backup: %w", err)
	}

	scheduler.Start()
	m.scheduler = scheduler
	m.started = true
	m.logger.Info("periodic backups started",
		logging.Duration("interval", m.interval),
		logging.String(logging.FieldEventType, "backup_schedule_started"),
	)
	return nil
}

// PerformBackup archives the data directory immediately, regardless of
// schedule state, and prunes archives beyond the retain count.
func (m *Manager) PerformBackup(ctx context.Context) (string, error) {
	path, err := writeArchive(ctx, m.dataDir, m.backupDir)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.last = time.Now().UTC()
	m.mu.Unlock()

	m.logger.Info("backup written",
		logging.String("archive", path),
		logging.String(logging.FieldEventType, "backup_written"),
	)

	if err := pruneArchives(m.backupDir, m.retain); err != nil {
		m.logger.Warn("backup pruning failed; old archives remain",
			logging.Error(err),
			logging.String(logging.FieldEventType, "backup_prune_failed"),
			logging.String(logging.FieldErrorHint, "remove old archives manually"),
		)
	}
	return path, nil
}

// LastBackup reports when the most recent backup completed, zero if none has.
func (m *Manager) LastBackup() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Running reports whether the periodic schedule is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Close stops the periodic schedule.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	m.started = false
	scheduler := m.scheduler
	m.scheduler = nil
	return scheduler.Shutdown()
}
