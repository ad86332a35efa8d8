package shell_test

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"inkwell/internal/backup"
	"inkwell/internal/config"
	"inkwell/internal/extensions"
	"inkwell/internal/logging"
	"inkwell/internal/settings"
	"inkwell/internal/shell"
	"inkwell/internal/startpage"
	"inkwell/internal/testsupport"
	"inkwell/internal/window"
)

type fakeWindow struct {
	mu        sync.Mutex
	visible   bool
	minimized bool

	showCalls    int
	hideCalls    int
	restoreCalls int
	focusCalls   int
	loadedURLs   []string
	closed       bool
}

func (w *fakeWindow) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = true
	w.showCalls++
}

func (w *fakeWindow) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = false
	w.hideCalls++
}

func (w *fakeWindow) Restore() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minimized = false
	w.restoreCalls++
}

func (w *fakeWindow) Focus() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focusCalls++
}

func (w *fakeWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *fakeWindow) Minimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

func (w *fakeWindow) Load(url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loadedURLs = append(w.loadedURLs, url)
	w.visible = true
	return nil
}

func (w *fakeWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWindow) loaded() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.loadedURLs...)
}

type fakeMenu struct {
	mu     sync.Mutex
	popups int
}

func (m *fakeMenu) Popup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popups++
}

type fakeTray struct {
	mu        sync.Mutex
	installed bool
	removed   bool
}

func (t *fakeTray) Install() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.installed = true
	return nil
}

func (t *fakeTray) Remove() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removed = true
}

type fakeFactory struct {
	mu       sync.Mutex
	creates  int
	opts     window.Options
	window   *fakeWindow
	menu     *fakeMenu
	tray     *fakeTray
	teardown func()
}

func (f *fakeFactory) Create(opts window.Options, teardown func()) (*window.Bundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.opts = opts
	f.window = &fakeWindow{}
	f.menu = &fakeMenu{}
	f.tray = &fakeTray{}
	f.teardown = teardown
	return &window.Bundle{Window: f.window, Menu: f.menu, Tray: f.tray}, nil
}

func (f *fakeFactory) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

type fakeDialog struct {
	mu     sync.Mutex
	fatals []string
}

func (d *fakeDialog) Fatal(title, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fatals = append(d.fatals, title+": "+message)
}

func (d *fakeDialog) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.fatals)
}

type fakeUpdater struct {
	mu     sync.Mutex
	checks int
}

func (u *fakeUpdater) CheckForUpdates() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.checks++
}

type quitRecorder struct {
	mu    sync.Mutex
	codes []int
}

func (q *quitRecorder) record(code int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.codes = append(q.codes, code)
}

func (q *quitRecorder) recorded() []int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]int(nil), q.codes...)
}

type harness struct {
	cfg     *config.Config
	coord   *shell.Coordinator
	factory *fakeFactory
	dialog  *fakeDialog
	updater *fakeUpdater
	quits   *quitRecorder
	store   *settings.Store
	focus   func() error
}

func newHarness(t *testing.T, platform string, configure func(*harness)) *harness {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSettings(t, cfg)

	backups, err := backup.NewManager(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("backup.NewManager: %v", err)
	}
	t.Cleanup(func() {
		_ = backups.Close()
	})

	h := &harness{
		cfg:     cfg,
		factory: &fakeFactory{},
		dialog:  &fakeDialog{},
		updater: &fakeUpdater{},
		quits:   &quitRecorder{},
		store:   store,
	}
	if configure != nil {
		configure(h)
	}

	extserver := extensions.NewServer(cfg.Paths.ExtensionsDir, logging.NewNop())
	t.Cleanup(func() {
		_ = extserver.Close()
	})

	coord, err := shell.New(cfg, logging.NewNop(), shell.Options{
		Settings:      store,
		Backups:       backups,
		Windows:       h.factory,
		Dialog:        h.dialog,
		Updater:       h.updater,
		Extension:     extserver,
		Platform:      platform,
		Quit:          h.quits.record,
		FocusExisting: h.focus,
	})
	if err != nil {
		t.Fatalf("shell.New: %v", err)
	}
	h.coord = coord
	return h
}

func bootstrap(t *testing.T, h *harness) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	if err := h.coord.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !h.coord.IsPrimary() {
		t.Fatal("expected primary instance")
	}
	if err := h.coord.OnReady(ctx); err != nil {
		t.Fatalf("OnReady: %v", err)
	}
}

func TestBootstrapLoadsStartDocument(t *testing.T) {
	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	loaded := h.factory.window.loaded()
	if len(loaded) != 1 {
		t.Fatalf("Load calls = %d, want 1", len(loaded))
	}
	if !strings.HasPrefix(loaded[0], "file://") {
		t.Fatalf("loaded URL %q is not a file URL", loaded[0])
	}

	data, err := os.ReadFile(h.cfg.StartDocumentPath())
	if err != nil {
		t.Fatalf("read start document: %v", err)
	}
	doc := string(data)
	if strings.Contains(doc, startpage.HostToken) || strings.Contains(doc, startpage.BaseURLToken) {
		t.Fatalf("start document still carries tokens:\n%s", doc)
	}
	if !strings.Contains(doc, "127.0.0.1:") {
		t.Fatalf("start document is missing the extensions address:\n%s", doc)
	}
}

func TestBootstrapRegistersIPCBeforeLoad(t *testing.T) {
	var order []string
	var mu sync.Mutex

	h := newHarness(t, "linux", nil)
	h.coord = nil

	cfg := h.cfg
	extserver := extensions.NewServer(cfg.Paths.ExtensionsDir, logging.NewNop())
	t.Cleanup(func() {
		_ = extserver.Close()
	})
	backups, err := backup.NewManager(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("backup.NewManager: %v", err)
	}

	factory := &orderedFactory{order: &order, mu: &mu}
	coord, err := shell.New(cfg, logging.NewNop(), shell.Options{
		Settings:  h.store,
		Backups:   backups,
		Windows:   factory,
		Dialog:    h.dialog,
		Extension: extserver,
		Platform:  "linux",
		Quit:      h.quits.record,
		RegisterIPC: func() error {
			mu.Lock()
			order = append(order, "ipc")
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("shell.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := coord.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := coord.OnReady(ctx); err != nil {
		t.Fatalf("OnReady: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	ipcAt, loadAt := -1, -1
	for i, step := range order {
		switch step {
		case "ipc":
			ipcAt = i
		case "load":
			loadAt = i
		}
	}
	if ipcAt < 0 || loadAt < 0 {
		t.Fatalf("missing steps in %v", order)
	}
	if ipcAt > loadAt {
		t.Fatalf("IPC registered after window load: %v", order)
	}
}

// orderedFactory produces a window whose Load call lands in a shared journal.
type orderedFactory struct {
	order *[]string
	mu    *sync.Mutex
}

type orderedWindow struct {
	fakeWindow
	order *[]string
	mu    *sync.Mutex
}

func (f *orderedFactory) Create(opts window.Options, teardown func()) (*window.Bundle, error) {
	win := &orderedWindow{order: f.order, mu: f.mu}
	return &window.Bundle{Window: win, Menu: &fakeMenu{}, Tray: &fakeTray{}}, nil
}

func (w *orderedWindow) Load(url string) error {
	w.mu.Lock()
	*w.order = append(*w.order, "load")
	w.mu.Unlock()
	return w.fakeWindow.Load(url)
}

func TestBootstrapPassesLocalizedChromeLabels(t *testing.T) {
	t.Setenv("LC_ALL", "de_DE.UTF-8")

	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	opts := h.factory.opts
	if opts.QuitLabel != "Beenden" {
		t.Fatalf("QuitLabel = %q, want Beenden", opts.QuitLabel)
	}
	if opts.ShowWindowLabel != "Inkwell anzeigen" {
		t.Fatalf("ShowWindowLabel = %q", opts.ShowWindowLabel)
	}
	if opts.BackupNowLabel != "Jetzt sichern" {
		t.Fatalf("BackupNowLabel = %q", opts.BackupNowLabel)
	}
}

func TestSecondaryInstanceDefersToPrimary(t *testing.T) {
	focusSignals := 0
	primary := newHarness(t, "linux", nil)
	bootstrap(t, primary)

	secondary := newHarness(t, "linux", func(h *harness) {
		h.focus = func() error {
			focusSignals++
			return nil
		}
	})
	// Same lock file as the primary.
	secondary.coord = rebuildWithConfig(t, secondary, primary.cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := secondary.coord.Initialize(ctx); err != nil {
		t.Fatalf("secondary Initialize: %v", err)
	}
	if secondary.coord.IsPrimary() {
		t.Fatal("secondary instance should not win the lock")
	}
	if err := secondary.coord.OnReady(ctx); err != nil {
		t.Fatalf("secondary OnReady: %v", err)
	}

	if focusSignals != 1 {
		t.Fatalf("focus signals = %d, want 1", focusSignals)
	}
	if codes := secondary.quits.recorded(); len(codes) != 1 || codes[0] != 0 {
		t.Fatalf("secondary quit codes = %v, want [0]", codes)
	}
	if secondary.factory.createCount() != 0 {
		t.Fatal("secondary instance must not create a window")
	}
}

// rebuildWithConfig rewires a harness coordinator onto another instance's
// config so both compete for the same lock.
func rebuildWithConfig(t *testing.T, h *harness, cfg *config.Config) *shell.Coordinator {
	t.Helper()

	backups, err := backup.NewManager(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("backup.NewManager: %v", err)
	}
	t.Cleanup(func() {
		_ = backups.Close()
	})
	extserver := extensions.NewServer(cfg.Paths.ExtensionsDir, logging.NewNop())
	t.Cleanup(func() {
		_ = extserver.Close()
	})

	coord, err := shell.New(cfg, logging.NewNop(), shell.Options{
		Settings:      h.store,
		Backups:       backups,
		Windows:       h.factory,
		Dialog:        h.dialog,
		Updater:       h.updater,
		Extension:     extserver,
		Platform:      "linux",
		Quit:          h.quits.record,
		FocusExisting: h.focus,
	})
	if err != nil {
		t.Fatalf("shell.New: %v", err)
	}
	h.cfg = cfg
	return coord
}

func TestSecondInstanceLaunchSurfacesWindow(t *testing.T) {
	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	win := h.factory.window
	win.Hide()
	win.mu.Lock()
	win.minimized = true
	win.mu.Unlock()

	h.coord.OnSecondInstanceLaunch()

	if !win.Visible() {
		t.Fatal("window should be visible after second-instance signal")
	}
	if win.Minimized() {
		t.Fatal("window should be restored after second-instance signal")
	}
	win.mu.Lock()
	focusCalls := win.focusCalls
	win.mu.Unlock()
	if focusCalls != 1 {
		t.Fatalf("focus calls = %d, want 1", focusCalls)
	}
	if h.factory.createCount() != 1 {
		t.Fatal("second-instance signal must not create another window")
	}
}

func TestSecondInstanceLaunchBeforeWindowIsNoOp(t *testing.T) {
	h := newHarness(t, "linux", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.coord.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	// Bootstrap has not run; no window exists yet.
	h.coord.OnSecondInstanceLaunch()
	if h.factory.createCount() != 0 {
		t.Fatal("no window should exist before bootstrap")
	}
}

func TestAllWindowsClosedQuitsExceptOnDarwin(t *testing.T) {
	linux := newHarness(t, "linux", nil)
	linux.coord.OnAllWindowsClosed()
	if codes := linux.quits.recorded(); len(codes) != 1 || codes[0] != 0 {
		t.Fatalf("linux quit codes = %v, want [0]", codes)
	}

	darwin := newHarness(t, "darwin", nil)
	darwin.coord.OnBeforeQuit()
	darwin.coord.OnAllWindowsClosed()
	if codes := darwin.quits.recorded(); len(codes) != 0 {
		t.Fatalf("darwin quit codes = %v, want none", codes)
	}
	if !darwin.coord.QuitRequested() {
		t.Fatal("quit intent should persist while resident")
	}
}

func TestWindowTeardownClearsHandle(t *testing.T) {
	h := newHarness(t, "darwin", nil)
	bootstrap(t, h)

	if h.factory.teardown == nil {
		t.Fatal("factory never received a teardown callback")
	}
	h.factory.teardown()

	status := h.coord.CurrentStatus()
	if status.WindowExists {
		t.Fatal("window handle should be cleared after teardown")
	}
	// Darwin stays resident, so no quit fires.
	if codes := h.quits.recorded(); len(codes) != 0 {
		t.Fatalf("quit codes = %v, want none on darwin", codes)
	}
	// Reactivation with no window is a defined no-op.
	h.coord.OnActivate()
}

func TestWindowTeardownQuitsOnLinux(t *testing.T) {
	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	h.factory.teardown()
	if codes := h.quits.recorded(); len(codes) != 1 || codes[0] != 0 {
		t.Fatalf("quit codes = %v, want [0]", codes)
	}
}

func TestBootstrapFailureShowsDialogOnceAndQuits(t *testing.T) {
	h := newHarness(t, "linux", nil)

	// Point the server's root somewhere that never exists; startup must fail.
	extserver := extensions.NewServer(h.cfg.Paths.ExtensionsDir+"-missing", logging.NewNop())
	backups, err := backup.NewManager(h.cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("backup.NewManager: %v", err)
	}
	coord, err := shell.New(h.cfg, logging.NewNop(), shell.Options{
		Settings:  h.store,
		Backups:   backups,
		Windows:   h.factory,
		Dialog:    h.dialog,
		Extension: extserver,
		Platform:  "linux",
		Quit:      h.quits.record,
	})
	if err != nil {
		t.Fatalf("shell.New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := coord.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := coord.OnReady(ctx); err == nil {
		t.Fatal("expected bootstrap error")
	}

	if h.dialog.count() != 1 {
		t.Fatalf("dialog count = %d, want 1", h.dialog.count())
	}
	if codes := h.quits.recorded(); len(codes) != 1 || codes[0] != 1 {
		t.Fatalf("quit codes = %v, want [1]", codes)
	}
	if h.factory.createCount() != 0 {
		t.Fatal("no window may be created after a fatal bootstrap failure")
	}

	// A second failing pass must not re-present the dialog or quit again.
	if err := coord.OnReady(ctx); err == nil {
		t.Fatal("expected bootstrap error on retry")
	}
	if h.dialog.count() != 1 {
		t.Fatalf("dialog count after retry = %d, want 1", h.dialog.count())
	}
	if codes := h.quits.recorded(); len(codes) != 1 {
		t.Fatalf("quit codes after retry = %v, want exactly one", codes)
	}
}

func TestCloseRequestHidesToTray(t *testing.T) {
	h := newHarness(t, "linux", nil)
	if err := h.store.SetBool(context.Background(), settings.KeyMinimizeToTray, true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	bootstrap(t, h)

	if !h.factory.tray.installed {
		t.Fatal("tray should install when the preference is set")
	}

	if destroy := h.coord.OnWindowCloseRequested(); destroy {
		t.Fatal("close request should hide to tray, not destroy")
	}
	if h.factory.window.Visible() {
		t.Fatal("window should be hidden after hide-to-tray")
	}

	h.coord.OnBeforeQuit()
	if destroy := h.coord.OnWindowCloseRequested(); !destroy {
		t.Fatal("close request during quit must destroy the window")
	}
}

func TestCloseRequestDestroysWithoutTray(t *testing.T) {
	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	if destroy := h.coord.OnWindowCloseRequested(); !destroy {
		t.Fatal("close request without tray must destroy the window")
	}
}

func TestTrayNotInstalledOnDarwin(t *testing.T) {
	h := newHarness(t, "darwin", nil)
	if err := h.store.SetBool(context.Background(), settings.KeyMinimizeToTray, true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	bootstrap(t, h)

	if h.factory.tray.installed {
		t.Fatal("darwin must not install a tray icon")
	}
}

func TestActivateShowsWindowAndChecksUpdates(t *testing.T) {
	h := newHarness(t, "darwin", nil)
	bootstrap(t, h)
	h.factory.window.Hide()

	h.coord.OnActivate()

	if !h.factory.window.Visible() {
		t.Fatal("activation should show the window")
	}
	h.updater.mu.Lock()
	checks := h.updater.checks
	h.updater.mu.Unlock()
	if checks != 1 {
		t.Fatalf("update checks = %d, want 1", checks)
	}
}

func TestShowAppMenuPopsMenu(t *testing.T) {
	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	h.coord.ShowAppMenu()
	h.factory.menu.mu.Lock()
	popups := h.factory.menu.popups
	h.factory.menu.mu.Unlock()
	if popups != 1 {
		t.Fatalf("menu popups = %d, want 1", popups)
	}
}

func TestExtensionsServerAddressMatchesStatus(t *testing.T) {
	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	addr, err := h.coord.ExtensionsServerAddress(ctx)
	if err != nil {
		t.Fatalf("ExtensionsServerAddress: %v", err)
	}
	if addr == "" {
		t.Fatal("address must never resolve empty")
	}

	status := h.coord.CurrentStatus()
	if status.ExtensionsAddress != addr {
		t.Fatalf("status address %q != awaited %q", status.ExtensionsAddress, addr)
	}
	if !status.Primary || !status.WindowExists {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestUseSystemMenuBarDefaultsFalse(t *testing.T) {
	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	ctx := context.Background()
	got, err := h.coord.UseSystemMenuBar(ctx)
	if err != nil {
		t.Fatalf("UseSystemMenuBar: %v", err)
	}
	if got {
		t.Fatal("preference should default to false")
	}

	if err := h.store.SetBool(ctx, settings.KeyUseSystemMenuBar, true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	got, err = h.coord.UseSystemMenuBar(ctx)
	if err != nil {
		t.Fatalf("UseSystemMenuBar after set: %v", err)
	}
	if !got {
		t.Fatal("preference should read back true")
	}
}

func TestInitialDataLoadedStartsBackups(t *testing.T) {
	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	ctx := context.Background()
	if err := h.coord.InitialDataLoaded(ctx); err != nil {
		t.Fatalf("InitialDataLoaded: %v", err)
	}
	if err := h.coord.InitialDataLoaded(ctx); err != nil {
		t.Fatalf("repeat InitialDataLoaded: %v", err)
	}
	if !h.coord.CurrentStatus().BackupsRunning {
		t.Fatal("backups should be running after InitialDataLoaded")
	}
}

func TestMajorDataChangeWritesArchive(t *testing.T) {
	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	archive, err := h.coord.MajorDataChange(context.Background())
	if err != nil {
		t.Fatalf("MajorDataChange: %v", err)
	}
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("stat archive: %v", err)
	}
}

func TestWebRootIsFileURL(t *testing.T) {
	h := newHarness(t, "linux", nil)

	root := h.coord.WebRoot()
	if !strings.HasPrefix(root, "file://") {
		t.Fatalf("WebRoot = %q, want file URL", root)
	}
}

func TestShutdownReleasesLock(t *testing.T) {
	h := newHarness(t, "linux", nil)
	bootstrap(t, h)

	h.coord.Shutdown()
	if !h.factory.window.closed {
		t.Fatal("shutdown should close the window")
	}

	// The lock must be reacquirable immediately.
	next := newHarness(t, "linux", nil)
	next.coord = rebuildWithConfig(t, next, h.cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := next.coord.Initialize(ctx); err != nil {
		t.Fatalf("Initialize after shutdown: %v", err)
	}
	if !next.coord.IsPrimary() {
		t.Fatal("lock should be free after shutdown")
	}
}

func TestNewRejectsMissingCollaborators(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := shell.New(cfg, logging.NewNop(), shell.Options{}); err == nil {
		t.Fatal("expected error for missing collaborators")
	}
	if _, err := shell.New(nil, logging.NewNop(), shell.Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
