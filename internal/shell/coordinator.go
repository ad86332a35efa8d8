package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"inkwell/internal/backup"
	"inkwell/internal/config"
	"inkwell/internal/dialog"
	"inkwell/internal/extensions"
	"inkwell/internal/locale"
	"inkwell/internal/logging"
	"inkwell/internal/settings"
	"inkwell/internal/startpage"
	"inkwell/internal/window"
)

// Updater is the shell's trigger point for update checks. Download and
// install mechanics live elsewhere.
type Updater interface {
	CheckForUpdates()
}

// Options inject the coordinator's collaborators. Zero fields get production
// defaults; tests substitute fakes.
type Options struct {
	Settings  *settings.Store
	Backups   *backup.Manager
	Windows   window.Factory
	Dialog    dialog.Presenter
	Updater   Updater
	Extension *extensions.Server

	// Platform defaults to runtime.GOOS. Darwin keeps the process alive with
	// no window; every other platform quits on window-all-closed.
	Platform string
	// Quit defaults to os.Exit.
	Quit func(code int)
	// FocusExisting signals the primary instance when this process loses the
	// single-instance race.
	FocusExisting func() error
	// RegisterIPC starts the IPC surface. Invoked during bootstrap, strictly
	// before the window loads content.
	RegisterIPC func() error
}

// Coordinator owns the process state of the shell: single-instance
// arbitration, bootstrap sequencing, and lifecycle event routing. There is
// exactly one per process.
type Coordinator struct {
	cfg       *config.Config
	logger    *slog.Logger
	settings  *settings.Store
	backups   *backup.Manager
	windows   window.Factory
	dialog    dialog.Presenter
	updater   Updater
	extserver *extensions.Server

	platform      string
	quit          func(code int)
	focusExisting func() error
	registerIPC   func() error

	lock    *flock.Flock
	primary bool

	startDocPath string
	resourceBase string
	catalog      locale.Catalog

	fatalOnce sync.Once

	// mu serializes lifecycle event handlers; they are the Go rendition of
	// the platform's single event loop.
	mu            sync.Mutex
	quitRequested bool
	bundle        *window.Bundle
	trayActive    bool
}

// New constructs the coordinator. It performs no side effects; Initialize
// starts the lifecycle.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Coordinator, error) {
	if cfg == nil {
		return nil, errors.New("coordinator requires config")
	}
	if opts.Settings == nil || opts.Backups == nil || opts.Extension == nil {
		return nil, errors.New("coordinator requires settings, backups, and extensions server")
	}
	if opts.Windows == nil {
		return nil, errors.New("coordinator requires a window factory")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Dialog == nil {
		opts.Dialog = dialog.NewConsole()
	}
	if opts.Platform == "" {
		opts.Platform = runtime.GOOS
	}
	if opts.Quit == nil {
		opts.Quit = os.Exit
	}

	return &Coordinator{
		cfg:           cfg,
		logger:        logging.NewComponentLogger(logger, "shell"),
		settings:      opts.Settings,
		backups:       opts.Backups,
		windows:       opts.Windows,
		dialog:        opts.Dialog,
		updater:       opts.Updater,
		extserver:     opts.Extension,
		platform:      opts.Platform,
		quit:          opts.Quit,
		focusExisting: opts.FocusExisting,
		registerIPC:   opts.RegisterIPC,
		lock:          flock.New(cfg.LockPath()),
		startDocPath:  cfg.StartDocumentPath(),
		resourceBase:  cfg.Paths.ResourcesDir,
		catalog:       locale.Load("en"),
	}, nil
}

// Initialize acquires the single-instance lock synchronously and starts the
// extensions server concurrently. Called exactly once per process, before
// OnReady.
func (c *Coordinator) Initialize(ctx context.Context) error {
	if err := c.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	acquired, err := c.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire single-instance lock: %w", err)
	}
	c.primary = acquired

	if !c.primary {
		// The extensions server must not start: binding a second copy would
		// race the primary for no benefit.
		c.logger.Info("another instance holds the lock",
			logging.String("lock", c.cfg.LockPath()),
			logging.String(logging.FieldEventType, "second_instance"),
		)
		return nil
	}

	go c.extserver.Start(ctx)
	c.logger.Info("shell initialized",
		logging.String("lock", c.cfg.LockPath()),
		logging.String("start_document", c.startDocPath),
		logging.String("resources", c.resourceBase),
	)
	return nil
}

// IsPrimary reports whether this process won the single-instance race.
func (c *Coordinator) IsPrimary() bool {
	return c.primary
}

// OnReady gates bootstrap. A process that lost the single-instance race
// defers focus to the primary and quits before any bootstrap step runs.
func (c *Coordinator) OnReady(ctx context.Context) error {
	if !c.primary {
		if c.focusExisting != nil {
			if err := c.focusExisting(); err != nil {
				c.logger.Warn("could not signal primary instance",
					logging.Error(err),
					logging.String(logging.FieldEventType, "focus_signal_failed"),
				)
			}
		}
		c.quit(0)
		return nil
	}
	return c.finishBootstrap(ctx)
}

// finishBootstrap runs the ordered sequence between process-ready and first
// window display. Any extensions server failure is fatal: the UI cannot be
// served without it.
func (c *Coordinator) finishBootstrap(ctx context.Context) error {
	c.catalog = locale.Detect()

	// Already started during Initialize; this only awaits the shared result.
	// Failing here means no window is ever created.
	addr, err := c.extserver.Await(ctx)
	if err != nil {
		c.fatalBootstrap(err)
		return err
	}

	doc := startpage.Build(startpage.DefaultTemplate(), addr, fileURL(c.resourceBase))
	if err := startpage.Write(c.startDocPath, doc); err != nil {
		c.fatalBootstrap(err)
		return err
	}

	bundle, err := c.windows.Create(window.Options{
		Title:           c.catalog.AppMenuLabel,
		QuitLabel:       c.catalog.QuitLabel,
		ShowWindowLabel: c.catalog.ShowWindowLabel,
		BackupNowLabel:  c.catalog.BackupNowLabel,
	}, c.onWindowTeardown)
	if err != nil {
		return fmt.Errorf("create window bundle: %w", err)
	}
	c.mu.Lock()
	c.bundle = bundle
	c.mu.Unlock()

	// The loaded document may emit IPC calls immediately, so the surface must
	// exist before Load.
	if c.registerIPC != nil {
		if err := c.registerIPC(); err != nil {
			return fmt.Errorf("register IPC handlers: %w", err)
		}
	}

	if window.TraySupported(c.platform) {
		minimizeToTray, err := c.settings.GetBool(ctx, settings.KeyMinimizeToTray, false)
		if err != nil {
			c.logger.Warn("could not read tray preference",
				logging.Error(err),
				logging.String(logging.FieldEventType, "settings_read_failed"),
			)
		}
		if minimizeToTray {
			if err := bundle.Tray.Install(); err != nil {
				c.logger.Warn("tray icon unavailable",
					logging.Error(err),
					logging.String(logging.FieldEventType, "tray_install_failed"),
				)
			} else {
				c.mu.Lock()
				c.trayActive = true
				c.mu.Unlock()
			}
		}
	}

	if err := bundle.Window.Load(fileURL(c.startDocPath)); err != nil {
		return fmt.Errorf("load start document: %w", err)
	}

	c.logger.Info("bootstrap complete",
		logging.String("extensions_address", addr),
		logging.String("start_document", c.startDocPath),
		logging.String(logging.FieldEventType, "bootstrap_complete"),
	)
	return nil
}

// fatalBootstrap presents the failure to the user exactly once and
// terminates the process. There is no degraded mode without the local
// extensions server.
func (c *Coordinator) fatalBootstrap(cause error) {
	c.fatalOnce.Do(func() {
		c.logger.Error("bootstrap failed",
			logging.Error(cause),
			logging.String(logging.FieldEventType, "bootstrap_failed"),
			logging.String(logging.FieldErrorHint, "check the extensions directory and local network permissions"),
		)
		c.dialog.Fatal(c.catalog.BootstrapErrorTitle,
			fmt.Sprintf("%s\n\n%v", c.catalog.BootstrapErrorBody, cause))
		c.quit(1)
	})
}

// onWindowTeardown is the only writer that clears the window handle. It fires
// exactly once, from the window's own close machinery.
func (c *Coordinator) onWindowTeardown() {
	c.mu.Lock()
	c.bundle = nil
	c.trayActive = false
	c.mu.Unlock()
	c.logger.Info("window torn down", logging.String(logging.FieldEventType, "window_teardown"))
	c.OnAllWindowsClosed()
}

// OnSecondInstanceLaunch fires when another launch attempt defers to this
// instance: surface the existing window. A missing window means bootstrap is
// still in progress, which is a defined no-op race.
func (c *Coordinator) OnSecondInstanceLaunch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bundle == nil {
		c.logger.Debug("second instance signal before window exists")
		return
	}
	win := c.bundle.Window
	if !win.Visible() {
		win.Show()
	}
	if win.Minimized() {
		win.Restore()
	}
	win.Focus()
}

// OnAllWindowsClosed terminates the process everywhere except on the platform
// with dock-persistence semantics, where the shell stays alive windowless.
func (c *Coordinator) OnAllWindowsClosed() {
	if c.platform == "darwin" {
		c.logger.Debug("all windows closed; staying resident")
		return
	}
	c.quit(0)
}

// OnBeforeQuit marks the quit intent. Window-close handlers consult the flag
// to decide between hide-to-tray and destruction, so it must be set before
// any teardown logic runs.
func (c *Coordinator) OnBeforeQuit() {
	c.mu.Lock()
	c.quitRequested = true
	c.mu.Unlock()
}

// QuitRequested reports whether an orderly quit is underway.
func (c *Coordinator) QuitRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quitRequested
}

// OnActivate handles dock reactivation: surface the window and check for
// updates. No-op when no window exists.
func (c *Coordinator) OnActivate() {
	c.mu.Lock()
	bundle := c.bundle
	c.mu.Unlock()
	if bundle == nil {
		return
	}
	bundle.Window.Show()
	if c.updater != nil {
		c.updater.CheckForUpdates()
	}
}

// OnWindowCloseRequested decides whether a close request destroys the window.
// With a tray active and no quit underway the window hides instead; the
// return value reports whether destruction should proceed.
func (c *Coordinator) OnWindowCloseRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bundle == nil {
		return true
	}
	if !c.quitRequested && c.trayActive {
		c.bundle.Window.Hide()
		return false
	}
	return true
}

// ShowAppMenu pops the application menu. No-op without a window.
func (c *Coordinator) ShowAppMenu() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bundle == nil {
		return
	}
	c.bundle.Menu.Popup()
}

// InitialDataLoaded begins the periodic backup schedule. Safe to call more
// than once; the schedule is started at most once.
func (c *Coordinator) InitialDataLoaded(ctx context.Context) error {
	return c.backups.Begin(ctx)
}

// MajorDataChange performs one backup immediately.
func (c *Coordinator) MajorDataChange(ctx context.Context) (string, error) {
	return c.backups.PerformBackup(ctx)
}

// ExtensionsServerAddress awaits the shared address resolution. Callers that
// arrive before the server is up simply wait; they never observe a premature
// or empty value.
func (c *Coordinator) ExtensionsServerAddress(ctx context.Context) (string, error) {
	return c.extserver.Await(ctx)
}

// UseSystemMenuBar reads the user's menu bar preference.
func (c *Coordinator) UseSystemMenuBar(ctx context.Context) (bool, error) {
	return c.settings.GetBool(ctx, settings.KeyUseSystemMenuBar, false)
}

// WebRoot returns the local-file URL of the resource base path.
func (c *Coordinator) WebRoot() string {
	return fileURL(c.resourceBase)
}

// StartDocumentPath returns where the generated start document lives.
func (c *Coordinator) StartDocumentPath() string {
	return c.startDocPath
}

// Status is a point-in-time snapshot for operator tooling.
type Status struct {
	Primary           bool
	ExtensionsAddress string
	StartDocument     string
	WindowExists      bool
	WindowVisible     bool
	BackupsRunning    bool
	LastBackup        time.Time
	PID               int
}

// CurrentStatus reports the coordinator's observable state.
func (c *Coordinator) CurrentStatus() Status {
	c.mu.Lock()
	bundle := c.bundle
	c.mu.Unlock()

	status := Status{
		Primary:           c.primary,
		ExtensionsAddress: c.extserver.Addr(),
		StartDocument:     c.startDocPath,
		BackupsRunning:    c.backups.Running(),
		LastBackup:        c.backups.LastBackup(),
		PID:               os.Getpid(),
	}
	if bundle != nil {
		status.WindowExists = true
		status.WindowVisible = bundle.Window.Visible()
	}
	return status
}

// Shutdown tears down the window and releases the single-instance lock.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	bundle := c.bundle
	trayActive := c.trayActive
	c.mu.Unlock()

	if bundle != nil {
		if trayActive {
			bundle.Tray.Remove()
		}
		if err := bundle.Window.Close(); err != nil {
			c.logger.Warn("window close failed", logging.Error(err))
		}
	}
	if c.primary {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("failed to release single-instance lock",
				logging.Error(err),
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove the lock file manually if restarts fail"),
			)
		}
	}
}

// fileURL converts an absolute filesystem path into a file:// URL, keeping
// Windows drive letters addressable.
func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
