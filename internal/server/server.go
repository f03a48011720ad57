// Package server implements the spry serving engine: static file serving
// with live-reload injection, the remote control endpoint, and the reload
// stream fan-out.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/conneroisu/spry/internal/config"
	"github.com/conneroisu/spry/internal/logging"
	"github.com/conneroisu/spry/internal/reload"
	"github.com/conneroisu/spry/internal/state"
	"github.com/conneroisu/spry/internal/watcher"
)

// Server ties the serving state, the reload hub, the watch pipeline and the
// HTTP surface together.
type Server struct {
	config   *config.Config
	logger   logging.Logger
	state    *state.ServingState
	hub      *reload.Hub
	pipeline *watcher.Pipeline

	httpServer  *http.Server
	serverMutex sync.RWMutex

	// exit is called after the Stop command's grace delay. Overridable in
	// tests.
	exit func(code int)

	shutdownOnce sync.Once
}

// New creates a server rooted at initialDir. The directory must exist and be
// canonicalizable or an error is returned.
func New(cfg *config.Config, initialDir string, logger logging.Logger) (*Server, error) {
	hub := reload.NewHub()

	servingState, err := state.New(initialDir, hub)
	if err != nil {
		return nil, fmt.Errorf("initial directory: %w", err)
	}

	pipeline := watcher.NewPipeline(servingState, hub, watcher.PipelineConfig{
		Debounce:     cfg.Watch.Debounce,
		RetryInitial: cfg.Watch.RetryInitial,
		RetryMax:     cfg.Watch.RetryMax,
		Ignore:       cfg.Watch.Ignore,
	}, logger)

	return &Server{
		config:   cfg,
		logger:   logger.WithComponent("server"),
		state:    servingState,
		hub:      hub,
		pipeline: pipeline,
		exit:     os.Exit,
	}, nil
}

// State exposes the serving state. Used by tests and status surfaces.
func (s *Server) State() *state.ServingState {
	return s.state
}

// Hub exposes the reload hub.
func (s *Server) Hub() *reload.Hub {
	return s.hub
}

// Handler builds the full HTTP handler including middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/control", s.handleControl)
	// The original control caller posts here; keep the alias.
	mux.HandleFunc("/__control__", s.handleControl)
	mux.HandleFunc("/__reload__", s.handleReloadStream)
	mux.HandleFunc("/__reload__/ws", s.handleReloadWS)
	mux.HandleFunc("/", s.handleServe)

	return s.withMiddleware(mux)
}

// Start runs the hub, the watch pipeline and the HTTP server. It blocks
// until the listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)
	go s.pipeline.Run(ctx)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	httpServer := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "serving",
		"addr", addr,
		"root", s.state.Root(),
	)

	if s.config.Server.Open {
		go s.openBrowser(ctx, fmt.Sprintf("http://%s", addr))
	}

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.serverMutex.RLock()
		httpServer := s.httpServer
		s.serverMutex.RUnlock()

		if httpServer != nil {
			shutdownErr = httpServer.Shutdown(ctx)
		}
	})

	return shutdownErr
}

func (s *Server) openBrowser(ctx context.Context, url string) {
	time.Sleep(100 * time.Millisecond) // give the listener time to come up

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	if err != nil {
		s.logger.Warn(ctx, err, "failed to open browser", "url", url)
	}
}
