package window

import (
	"errors"
	"log/slog"
	"os/exec"
	"sync"

	"inkwell/internal/logging"
)

// ProcessFactory creates bundles backed by the sandboxed UI process. Load
// launches the configured command with the start document URL appended; the
// bundle's teardown fires when that process exits.
type ProcessFactory struct {
	Command string
	Args    []string
	Logger  *slog.Logger
}

// Create builds a process-backed bundle. With no command configured the shell
// runs headless: the window is a state-only stand-in, and teardown fires only
// through Close.
func (f *ProcessFactory) Create(opts Options, teardown func()) (*Bundle, error) {
	if teardown == nil {
		return nil, errors.New("window bundle requires a teardown callback")
	}
	logger := logging.NewComponentLogger(f.Logger, "window")
	win := &processWindow{
		command:  f.Command,
		args:     append([]string{}, f.Args...),
		title:    opts.Title,
		logger:   logger,
		visible:  true,
		teardown: teardown,
	}
	return &Bundle{
		Window: win,
		Menu:   &noopMenu{logger: logger, quitLabel: opts.QuitLabel},
		Tray: &noopTray{
			logger:      logger,
			showLabel:   opts.ShowWindowLabel,
			backupLabel: opts.BackupNowLabel,
		},
	}, nil
}

type processWindow struct {
	command string
	args    []string
	title   string
	logger  *slog.Logger

	mu        sync.Mutex
	cmd       *exec.Cmd
	loaded    bool
	visible   bool
	minimized bool

	teardownOnce sync.Once
	teardown     func()
}

func (w *processWindow) Show() {
	w.mu.Lock()
	w.visible = true
	w.minimized = false
	w.mu.Unlock()
	w.logger.Debug("window shown")
}

func (w *processWindow) Hide() {
	w.mu.Lock()
	w.visible = false
	w.mu.Unlock()
	w.logger.Debug("window hidden")
}

func (w *processWindow) Restore() {
	w.mu.Lock()
	w.minimized = false
	w.visible = true
	w.mu.Unlock()
	w.logger.Debug("window restored")
}

func (w *processWindow) Focus() {
	w.logger.Debug("window focused")
}

func (w *processWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *processWindow) Minimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

func (w *processWindow) Load(url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loaded {
		return errors.New("window already loaded")
	}
	w.loaded = true
	if w.command == "" {
		w.logger.Info("no UI command configured; running headless",
			logging.String("url", url))
		return nil
	}

	args := append(append([]string{}, w.args...), url)
	cmd := exec.Command(w.command, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	w.cmd = cmd
	w.logger.Info("UI process launched",
		logging.String("command", w.command),
		logging.Int("pid", cmd.Process.Pid),
	)

	go func() {
		err := cmd.Wait()
		if err != nil {
			w.logger.Warn("UI process exited with error", logging.Error(err))
		} else {
			w.logger.Info("UI process exited")
		}
		w.fireTeardown()
	}()
	return nil
}

func (w *processWindow) Close() error {
	w.mu.Lock()
	cmd := w.cmd
	w.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		// Teardown fires from the Wait goroutine once the process is gone.
		return cmd.Process.Kill()
	}
	w.fireTeardown()
	return nil
}

func (w *processWindow) fireTeardown() {
	w.teardownOnce.Do(w.teardown)
}

type noopMenu struct {
	logger    *slog.Logger
	quitLabel string
}

func (m *noopMenu) Popup() {
	m.logger.Debug("app menu popup requested",
		logging.String("quit_item", m.quitLabel))
}

type noopTray struct {
	logger      *slog.Logger
	showLabel   string
	backupLabel string
}

func (t *noopTray) Install() error {
	t.logger.Debug("tray icon installed",
		logging.String("show_item", t.showLabel),
		logging.String("backup_item", t.backupLabel),
	)
	return nil
}

func (t *noopTray) Remove() {
	t.logger.Debug("tray icon removed")
}
