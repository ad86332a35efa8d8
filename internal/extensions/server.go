package extensions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"inkwell/internal/logging"
)

// Server serves locally installed extension bundles to the UI process over an
// ephemeral loopback address. The address is resolved exactly once per
// process; every consumer awaits the same resolution.
type Server struct {
	dir    string
	logger *slog.Logger

	startOnce sync.Once
	done      chan struct{}
	addr      string
	startErr  error

	// mu guards listener and server, which Start assigns from a goroutine
	// while Close may already be unwinding the process.
	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// NewServer configures an extensions server rooted at the bundle directory.
func NewServer(dir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "extensions"),
		done:   make(chan struct{}),
	}
}

// Start binds the loopback listener and begins accepting connections before
// resolving the shared address. Calling Start more than once has no effect;
// the first outcome stands for the process lifetime.
func (s *Server) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		defer close(s.done)

		if _, err := os.Stat(s.dir); err != nil {
			s.startErr = fmt.Errorf("extensions directory: %w", err)
			return
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			s.startErr = fmt.Errorf("bind extensions listener: %w", err)
			return
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/extensions.json", s.handleIndex)
		mux.Handle("/", http.FileServer(http.Dir(s.dir)))

		server := &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		s.mu.Lock()
		s.listener = listener
		s.server = server
		s.mu.Unlock()

		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("extensions server error", logging.Error(err))
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()

		s.addr = listener.Addr().String()
		s.logger.Info("extensions server listening",
			logging.String("address", s.addr),
			logging.String("dir", s.dir),
		)
	})
}

// Await blocks until the address resolves or ctx is done. It never triggers
// startup itself; callers that race ahead of Start simply wait longer.
func (s *Server) Await(ctx context.Context) (string, error) {
	select {
	case <-s.done:
		return s.addr, s.startErr
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Addr returns the resolved address, or empty while startup is pending.
func (s *Server) Addr() string {
	select {
	case <-s.done:
		return s.addr
	default:
		return ""
	}
}

// Close stops the listener. Safe to call before, during, or after Start.
func (s *Server) Close() error {
	s.mu.Lock()
	server := s.server
	listener := s.listener
	s.mu.Unlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
	if listener != nil {
		return listener.Close()
	}
	return nil
}

// handleIndex lists the installed bundle directories as JSON.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
		return
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	bundles := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			bundles = append(bundles, entry.Name())
		}
	}
	sort.Strings(bundles)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"extensions": bundles})
}
