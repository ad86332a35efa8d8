package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"inkwell/internal/logging"
	"inkwell/internal/shell"
)

// Server exposes shell control via JSON-RPC over a Unix domain socket. It is
// the message channel between the privileged process and the sandboxed UI.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. The quit
// callback performs orderly process shutdown when Shell.Quit arrives.
func NewServer(ctx context.Context, path string, coord *shell.Coordinator, quit func(), logger *slog.Logger) (*Server, error) {
	if coord == nil {
		return nil, errors.New("ipc server requires coordinator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	svc := &service{coord: coord, quit: quit, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Shell", svc); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the shell if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"),
		)
	}
}

type service struct {
	coord  *shell.Coordinator
	quit   func()
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

// ShowAppMenu pops the application menu. Fire-and-forget from the UI.
func (s *service) ShowAppMenu(_ ShowAppMenuRequest, _ *ShowAppMenuResponse) error {
	s.coord.ShowAppMenu()
	return nil
}

// InitialDataLoaded begins periodic backups once the UI has its data.
func (s *service) InitialDataLoaded(_ InitialDataLoadedRequest, _ *InitialDataLoadedResponse) error {
	s.log().Debug("initial data loaded")
	if err := s.coord.InitialDataLoaded(s.ctx); err != nil {
		// Backup scheduling failures stay the backup manager's problem; the
		// notification itself never fails.
		s.log().Warn("begin backups failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "backup_begin_failed"),
		)
	}
	return nil
}

// MajorDataChange archives the data directory immediately.
func (s *service) MajorDataChange(_ MajorDataChangeRequest, resp *MajorDataChangeResponse) error {
	archive, err := s.coord.MajorDataChange(s.ctx)
	if err != nil {
		s.log().Warn("on-demand backup failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "backup_failed"),
		)
		return nil
	}
	resp.Archive = archive
	return nil
}

// ExtensionsServerAddress replies once the shared address future resolves.
// Calls arriving before resolution block rather than failing.
func (s *service) ExtensionsServerAddress(_ AddressRequest, resp *AddressResponse) error {
	addr, err := s.coord.ExtensionsServerAddress(s.ctx)
	if err != nil {
		return err
	}
	resp.Address = addr
	return nil
}

// UseSystemMenuBar reports the user's menu bar preference.
func (s *service) UseSystemMenuBar(_ MenuBarRequest, resp *MenuBarResponse) error {
	value, err := s.coord.UseSystemMenuBar(s.ctx)
	if err != nil {
		return err
	}
	resp.UseSystemMenuBar = value
	return nil
}

// WebRoot reports the local-file URL of the UI resources.
func (s *service) WebRoot(_ WebRootRequest, resp *WebRootResponse) error {
	resp.URL = s.coord.WebRoot()
	return nil
}

// FocusWindow surfaces the window on behalf of a second launch attempt.
func (s *service) FocusWindow(_ FocusWindowRequest, _ *FocusWindowResponse) error {
	s.log().Debug("second instance requested focus")
	s.coord.OnSecondInstanceLaunch()
	return nil
}

// Activate relays dock reactivation.
func (s *service) Activate(_ ActivateRequest, _ *ActivateResponse) error {
	s.coord.OnActivate()
	return nil
}

// WindowCloseRequested decides a pending window close: destroy, or hide to
// the tray. The UI must ask before tearing its window down.
func (s *service) WindowCloseRequested(_ WindowCloseRequest, resp *WindowCloseResponse) error {
	resp.Destroy = s.coord.OnWindowCloseRequested()
	return nil
}

// Status returns a shell status snapshot.
func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.coord.CurrentStatus()
	resp.Primary = status.Primary
	resp.ExtensionsAddress = status.ExtensionsAddress
	resp.StartDocument = status.StartDocument
	resp.WindowExists = status.WindowExists
	resp.WindowVisible = status.WindowVisible
	resp.BackupsRunning = status.BackupsRunning
	resp.LastBackup = status.LastBackup
	resp.PID = status.PID
	return nil
}

// Quit requests orderly termination.
func (s *service) Quit(_ QuitRequest, resp *QuitResponse) error {
	s.log().Info("quit requested via IPC",
		logging.String(logging.FieldEventType, "quit_requested"))
	s.coord.OnBeforeQuit()
	if s.quit != nil {
		s.quit()
	}
	resp.Quitting = true
	return nil
}
