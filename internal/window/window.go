package window

// Window is the shell's contract with the primary application window. The
// chrome itself is owned by the UI layer; the shell only drives visibility
// and content loading.
type Window interface {
	Show()
	Hide()
	Restore()
	Focus()
	Visible() bool
	Minimized() bool
	// Load points the window at the start document URL. Called exactly once
	// per bootstrap, after the document is on disk.
	Load(url string) error
	Close() error
}

// MenuManager owns the application menu.
type MenuManager interface {
	Popup()
}

// Tray owns the tray icon on platforms that have one.
type Tray interface {
	Install() error
	Remove()
}

// Bundle groups the window with its auxiliary chrome. The teardown callback
// passed at creation fires exactly once, from the window's own close
// machinery; it is the only place the coordinator's handle is cleared.
type Bundle struct {
	Window Window
	Menu   MenuManager
	Tray   Tray
}

// Options parameterize bundle creation. The labels arrive already localized
// and feed the menu and tray items.
type Options struct {
	Title           string
	QuitLabel       string
	ShowWindowLabel string
	BackupNowLabel  string
}

// Factory creates window bundles. teardown must be invoked exactly once when
// the window is gone for good (not on hide).
type Factory interface {
	Create(opts Options, teardown func()) (*Bundle, error)
}

// TraySupported reports whether the platform has a tray area the shell should
// populate. Darwin keeps a menu-bar presence through the system instead.
func TraySupported(goos string) bool {
	switch goos {
	case "linux", "windows":
		return true
	default:
		return false
	}
}
