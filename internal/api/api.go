// Package api provides HTTP handlers and the main API server logic for
// Trendella.
//
// It exposes RESTful endpoints for the gift chat, saved sessions, history,
// and the wishlist. The API integrates with the chat, history, wishlist,
// genai and auth modules.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/trendella/trendella/internal/auth"
	"github.com/trendella/trendella/internal/chat"
	"github.com/trendella/trendella/internal/genai"
	"github.com/trendella/trendella/internal/history"
	"github.com/trendella/trendella/internal/wishlist"
)

// DefaultAddr is the address the API listens on when none is configured.
const DefaultAddr = ":8080"

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server wires the HTTP surface to the application services.
type Server struct {
	addr        string
	manager     *chat.Manager
	historySvc  *history.Service
	wishlistSvc *wishlist.Service
	verifier    auth.Verifier
	gaClient    *genai.Client // nil when auto-naming is disabled
}

// NewServer creates the API server. The genai client may be nil; the
// auto-name endpoint then reports the feature as unavailable.
func NewServer(manager *chat.Manager, historySvc *history.Service, wishlistSvc *wishlist.Service,
	verifier auth.Verifier, gaClient *genai.Client, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		addr:        addr,
		manager:     manager,
		historySvc:  historySvc,
		wishlistSvc: wishlistSvc,
		verifier:    verifier,
		gaClient:    gaClient,
	}
}

// Handler builds the routed handler with auth resolution applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.chatHandler)
	mux.HandleFunc("GET /sessions", s.listSessionsHandler)
	mux.HandleFunc("GET /sessions/{id}", s.getSessionHandler)
	mux.HandleFunc("DELETE /sessions/{id}", s.deleteSessionHandler)
	mux.HandleFunc("POST /sessions/{id}/rename", s.renameSessionHandler)
	mux.HandleFunc("POST /sessions/{id}/autoname", s.autonameSessionHandler)
	mux.HandleFunc("POST /sessions/{id}/select", s.selectSessionHandler)
	mux.HandleFunc("POST /sessions/new", s.newSessionHandler)
	mux.HandleFunc("GET /history", s.historyHandler)
	mux.HandleFunc("GET /wishlist", s.listWishlistHandler)
	mux.HandleFunc("POST /wishlist", s.addWishlistHandler)
	mux.HandleFunc("DELETE /wishlist/{store}/{id}", s.removeWishlistHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	return auth.Middleware(s.verifier)(mux)
}

// Run serves the API until the context is canceled, then flushes pending
// session saves and shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Trendella API running", "addr", s.addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Trendella API shutting down")
	s.manager.Flush()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server shutdown failed", "error", err)
		return err
	}
	return nil
}
