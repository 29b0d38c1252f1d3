package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lumin/requestclient/internal/logging"
)

const (
	// DefaultListen is the loopback address the bridge binds when none is given
	DefaultListen = "127.0.0.1:8765"

	// DefaultPath is where the websocket endpoint is mounted
	DefaultPath = "/bridge"

	shutdownTimeout = 10 * time.Second
)

// Config holds the bridge server configuration
type Config struct {
	Listen string
	Path   string
}

// Server exposes a Handler over HTTP
type Server struct {
	config   Config
	handler  *Handler
	http     *http.Server
	listener net.Listener
}

// NewServer creates a bridge server around handler
func NewServer(cfg Config, handler *Handler) *Server {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}

	s := &Server{config: cfg, handler: handler}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.http = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Listen binds the configured address. Start calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Listen
}

// URL returns the websocket URL hosts connect to
func (s *Server) URL() string {
	return "ws://" + s.Addr() + s.config.Path
}

// Start serves until ctx is done, a shutdown signal arrives or serving fails
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	logging.Info("Bridge listening for connections",
		zap.String("addr", s.Addr()),
		zap.String("path", s.config.Path),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		err := s.http.Serve(s.listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errChan <- err
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping bridge...")
	case <-ctx.Done():
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting connections and waits for handlers to return
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	err := s.http.Shutdown(ctx)
	// Hijacked websocket connections are not tracked by http.Server
	s.handler.CloseAll()
	if err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = s.http.Close()
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of open bridge connections
func (s *Server) GetActiveConnections() int {
	return s.handler.ActiveConnections()
}
