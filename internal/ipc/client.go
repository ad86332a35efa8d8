package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the shell process.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// ShowAppMenu asks the shell to pop the application menu.
func (c *Client) ShowAppMenu() error {
	var resp ShowAppMenuResponse
	return c.client.Call("Shell.ShowAppMenu", ShowAppMenuRequest{}, &resp)
}

// InitialDataLoaded signals that the UI finished loading user data.
func (c *Client) InitialDataLoaded() error {
	var resp InitialDataLoadedResponse
	return c.client.Call("Shell.InitialDataLoaded", InitialDataLoadedRequest{}, &resp)
}

// MajorDataChange triggers an immediate backup.
func (c *Client) MajorDataChange() (*MajorDataChangeResponse, error) {
	var resp MajorDataChangeResponse
	if err := c.client.Call("Shell.MajorDataChange", MajorDataChangeRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExtensionsServerAddress fetches the extensions server address, blocking
// until it resolves.
func (c *Client) ExtensionsServerAddress() (*AddressResponse, error) {
	var resp AddressResponse
	if err := c.client.Call("Shell.ExtensionsServerAddress", AddressRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UseSystemMenuBar fetches the system menu bar preference.
func (c *Client) UseSystemMenuBar() (*MenuBarResponse, error) {
	var resp MenuBarResponse
	if err := c.client.Call("Shell.UseSystemMenuBar", MenuBarRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WebRoot fetches the local-file URL of the UI resources.
func (c *Client) WebRoot() (*WebRootResponse, error) {
	var resp WebRootResponse
	if err := c.client.Call("Shell.WebRoot", WebRootRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FocusWindow signals the primary instance to surface its window.
func (c *Client) FocusWindow() error {
	var resp FocusWindowResponse
	return c.client.Call("Shell.FocusWindow", FocusWindowRequest{}, &resp)
}

// Activate relays a dock-reactivation event.
func (c *Client) Activate() error {
	var resp ActivateResponse
	return c.client.Call("Shell.Activate", ActivateRequest{}, &resp)
}

// WindowCloseRequested asks whether a pending window close should destroy
// the window or hide it to the tray.
func (c *Client) WindowCloseRequested() (*WindowCloseResponse, error) {
	var resp WindowCloseResponse
	if err := c.client.Call("Shell.WindowCloseRequested", WindowCloseRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the shell status snapshot.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Shell.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Quit requests orderly shell termination.
func (c *Client) Quit() (*QuitResponse, error) {
	var resp QuitResponse
	if err := c.client.Call("Shell.Quit", QuitRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
