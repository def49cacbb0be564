package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MidOSresearch/midos-mcp/internal/auth"
)

const shutdownTimeout = 5 * time.Second

// Handler builds the HTTP surface: the streamable MCP endpoint plus the
// health probes. GET /mcp is rejected by the streamable handler itself.
func (s *Server) Handler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: true},
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.With(s.withRequestMeta).Handle("/mcp", streamable)
	r.Get("/health", s.handleHealth)
	r.Get("/health/ready", s.handleReady)
	return r
}

// withRequestMeta carries the request headers and remote address into
// the handler context so the gate can authenticate tool calls.
func (s *Server) withRequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithMeta(r.Context(), auth.RequestMeta{
			Header:     r.Header,
			RemoteAddr: r.RemoteAddr,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"server":         ServerName,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports dependency health: 200 when every check passes,
// 503 with the failing checks otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]bool{
		"knowledge":    dirExists(s.cfg.KnowledgeDir()),
		"vector_store": s.storeReady(r.Context()),
		"skills":       len(s.lib.SkillNames()) > 0,
	}

	status := "ready"
	code := http.StatusOK
	for _, ok := range checks {
		if !ok {
			status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}

func (s *Server) storeReady(ctx context.Context) bool {
	if s.engine == nil {
		return false
	}
	_, err := s.engine.Store().Count(ctx)
	return err == nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// serveHTTP runs the HTTP transport until ctx is canceled.
func (s *Server) serveHTTP(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.cfg.HTTP.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("HTTP transport listening", slog.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("HTTP transport stopped gracefully")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
