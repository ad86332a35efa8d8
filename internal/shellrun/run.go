package shellrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"inkwell/internal/backup"
	"inkwell/internal/config"
	"inkwell/internal/extensions"
	"inkwell/internal/ipc"
	"inkwell/internal/logging"
	"inkwell/internal/settings"
	"inkwell/internal/shell"
	"inkwell/internal/window"
)

// Options configures shell process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the shell process: single-instance arbitration, bootstrap, and
// the IPC surface. It blocks until the process is asked to quit.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("inkwell-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update inkwell.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "inkwell-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "inkwell.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := settings.Open(cfg)
	if err != nil {
		logger.Error("open settings store", logging.Error(err))
		return err
	}
	defer store.Close()

	backups, err := backup.NewManager(cfg, logger)
	if err != nil {
		return fmt.Errorf("create backup manager: %w", err)
	}
	defer backups.Close()

	extserver := extensions.NewServer(cfg.Paths.ExtensionsDir, logger)
	defer extserver.Close()

	exit := newExitStatus(cancel)
	var ipcServer *ipc.Server
	var coord *shell.Coordinator

	coord, err = shell.New(cfg, logger, shell.Options{
		Settings:  store,
		Backups:   backups,
		Windows:   &window.ProcessFactory{Command: cfg.UI.Command, Args: cfg.UI.Args, Logger: logger},
		Extension: extserver,
		Quit:      exit.request,
		FocusExisting: func() error {
			client, err := ipc.Dial(cfg.Paths.SocketPath)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.FocusWindow()
		},
		RegisterIPC: func() error {
			server, err := ipc.NewServer(signalCtx, cfg.Paths.SocketPath, coord, func() {
				exit.request(0)
			}, logger)
			if err != nil {
				return err
			}
			server.Serve()
			ipcServer = server
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("create coordinator: %w", err)
	}

	// Lifecycle listeners are wired before any bootstrap step so no event is
	// missed while the window comes up.
	notifyActivate(signalCtx, coord)

	if err := coord.Initialize(signalCtx); err != nil {
		return err
	}
	if err := coord.OnReady(signalCtx); err != nil {
		// Fatal bootstrap failures already presented a dialog; this is a no-op
		// then. Either way the run loop must not block on a dead bootstrap.
		exit.request(1)
		if ipcServer != nil {
			ipcServer.Close()
		}
		coord.Shutdown()
		return err
	}
	if !coord.IsPrimary() {
		logger.Info("deferred to primary instance")
		return nil
	}

	<-signalCtx.Done()
	coord.OnBeforeQuit()
	logger.Info("inkwell shell shutting down")
	if ipcServer != nil {
		ipcServer.Close()
	}
	coord.Shutdown()

	if code := exit.code(); code != 0 {
		return fmt.Errorf("shell exited with status %d", code)
	}
	return nil
}

// exitStatus records the first requested exit code and unblocks the run loop.
type exitStatus struct {
	once   sync.Once
	cancel context.CancelFunc

	mu   sync.Mutex
	exit int
}

func newExitStatus(cancel context.CancelFunc) *exitStatus {
	return &exitStatus{cancel: cancel}
}

func (e *exitStatus) request(code int) {
	e.once.Do(func() {
		e.mu.Lock()
		e.exit = code
		e.mu.Unlock()
		e.cancel()
	})
}

func (e *exitStatus) code() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exit
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "inkwell.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
