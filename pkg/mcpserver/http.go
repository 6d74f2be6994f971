package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"
)

// Handler returns the HTTP surface for the configured transport mode. The
// health endpoint is always mounted and never gated; everything else runs
// behind the signed-token gate.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	}).Handler)

	r.Get("/health", s.handleHealth)

	switch s.opts.Mode {
	case ModeSSE:
		d := newSSEDispatcher(s)
		r.Group(func(r chi.Router) {
			r.Use(s.gate.Middleware)
			r.Get(s.opts.SSEPath, d.handleConnect)
			r.Post(s.opts.MessagePath, d.handleMessage)
		})
	case ModeStreamable:
		streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return s.mcpServer
		}, &mcp.StreamableHTTPOptions{
			Stateless:    true,
			JSONResponse: true,
		})
		r.Group(func(r chi.Router) {
			r.Use(s.gate.Middleware)
			r.Handle(s.opts.StreamablePath, s.statelessSession(streamable))
		})
	}
	return r
}

// handleHealth is the liveness probe: always 200 while the process is up,
// reporting only the configured transport.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "ok",
		"transport": string(s.opts.Mode),
	})
}

// ListenAndServe runs the HTTP surface until ctx is cancelled or the server
// stops.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.opts.Addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("serving MCP over HTTP",
		"mode", string(s.opts.Mode),
		"addr", s.opts.Addr,
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
