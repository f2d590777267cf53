// Package transport serves the MCP server over streamable HTTP with health and
// legacy OAuth callback routes.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/toolgate/internal/auth"
	"github.com/vinodismyname/toolgate/internal/telemetry"
	"github.com/vinodismyname/toolgate/pkg/version"
	"golang.org/x/sync/errgroup"
)

// Router paths.
const (
	PathHealth   = "/healthz"
	PathMCP      = "/mcp"
	PathCallback = "/oauth2callback"
)

// HTTPServer wraps HTTP routing state.
type HTTPServer struct {
	mcp    http.Handler
	flows  *auth.FlowStore
	hooks  *telemetry.Hooks
	logger zerolog.Logger
}

// NewHTTPServer builds an HTTP transport. flows and hooks may be nil.
func NewHTTPServer(mcpHandler http.Handler, flows *auth.FlowStore, hooks *telemetry.Hooks, logger zerolog.Logger) *HTTPServer {
	return &HTTPServer{mcp: mcpHandler, flows: flows, hooks: hooks, logger: logger}
}

// Router builds the chi router.
func (s *HTTPServer) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get(PathHealth, s.health)
	r.Get(PathCallback, s.callback)
	r.Handle(PathMCP, s.mcp)
	return r
}

type healthResponse struct {
	Status   string              `json:"status"`
	Build    version.Info        `json:"build"`
	Counters *telemetry.Counters `json:"counters,omitempty"`
}

func (s *HTTPServer) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Build: version.Build()}
	if s.hooks != nil {
		c := s.hooks.Counters()
		resp.Counters = &c
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) callback(w http.ResponseWriter, r *http.Request) {
	if s.flows == nil {
		http.Error(w, "legacy authorization disabled", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	if msg := q.Get("error"); msg != "" {
		s.logger.Warn().Str("error", msg).Msg("authorization denied")
		http.Error(w, "authorization denied: "+msg, http.StatusBadRequest)
		return
	}
	if q.Get("code") == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}
	flow, err := s.flows.Complete(q.Get("state"))
	if err != nil {
		http.Error(w, "unknown or expired authorization state", http.StatusBadRequest)
		return
	}
	s.logger.Info().Strs("scopes", flow.Scopes).Msg("legacy authorization completed")
	writeJSON(w, http.StatusOK, map[string]any{"status": "authorized", "scopes": flow.Scopes})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve listens on addr until ctx is canceled, then shuts down within
// shutdownTimeout.
func Serve(ctx context.Context, addr string, handler http.Handler, shutdownTimeout time.Duration, logger zerolog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln, handler, shutdownTimeout, logger)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, ln net.Listener, handler http.Handler, shutdownTimeout time.Duration, logger zerolog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info().Msg("HTTP server stopped")
		return nil
	})
	return g.Wait()
}
