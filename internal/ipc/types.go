package ipc

import "time"

// ShowAppMenuRequest asks the shell to pop the application menu.
type ShowAppMenuRequest struct{}

// ShowAppMenuResponse acknowledges the fire-and-forget notification.
type ShowAppMenuResponse struct{}

// InitialDataLoadedRequest signals that the UI finished loading user data.
type InitialDataLoadedRequest struct{}

// InitialDataLoadedResponse acknowledges the notification.
type InitialDataLoadedResponse struct{}

// MajorDataChangeRequest signals a change worth archiving immediately.
type MajorDataChangeRequest struct{}

// MajorDataChangeResponse reports the archive written for this change.
type MajorDataChangeResponse struct {
	Archive string `json:"archive"`
}

// AddressRequest fetches the extensions server address. The reply is withheld
// until the address resolves; callers never see an empty value.
type AddressRequest struct{}

// AddressResponse carries the resolved host:port.
type AddressResponse struct {
	Address string `json:"address"`
}

// MenuBarRequest fetches the system menu bar preference.
type MenuBarRequest struct{}

// MenuBarResponse carries the preference value.
type MenuBarResponse struct {
	UseSystemMenuBar bool `json:"use_system_menu_bar"`
}

// WebRootRequest fetches the local-file URL of the UI resources.
type WebRootRequest struct{}

// WebRootResponse carries the resource base as a file URL.
type WebRootResponse struct {
	URL string `json:"url"`
}

// FocusWindowRequest is the cross-instance signal sent by a losing launch.
type FocusWindowRequest struct{}

// FocusWindowResponse acknowledges the focus signal.
type FocusWindowResponse struct{}

// ActivateRequest relays a dock-reactivation event.
type ActivateRequest struct{}

// ActivateResponse acknowledges the activation.
type ActivateResponse struct{}

// WindowCloseRequest asks how a window close request should be honored. The
// UI sends it before destroying its window.
type WindowCloseRequest struct{}

// WindowCloseResponse carries the close decision. When Destroy is false the
// window hides to the tray instead.
type WindowCloseResponse struct {
	Destroy bool `json:"destroy"`
}

// StatusRequest fetches a shell status snapshot.
type StatusRequest struct{}

// StatusResponse represents observable shell state for operator tooling.
type StatusResponse struct {
	Primary           bool      `json:"primary"`
	ExtensionsAddress string    `json:"extensions_address"`
	StartDocument     string    `json:"start_document"`
	WindowExists      bool      `json:"window_exists"`
	WindowVisible     bool      `json:"window_visible"`
	BackupsRunning    bool      `json:"backups_running"`
	LastBackup        time.Time `json:"last_backup"`
	PID               int       `json:"pid"`
}

// QuitRequest asks the shell to terminate in an orderly fashion.
type QuitRequest struct{}

// QuitResponse acknowledges the quit request.
type QuitResponse struct {
	Quitting bool `json:"quitting"`
}
