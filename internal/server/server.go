// Package server hosts the streamable MCP transport over HTTP.
// Stdio deployments never touch this package; it exists for shared
// deployments where clients connect over the network, optionally behind
// bearer-token auth.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modelrelay/openrouter-mcp/pkg/auth"
)

// Config holds HTTP server configuration.
type Config struct {
	Addr string

	// AuthTokenHash is a bcrypt hash of the static access token; empty
	// disables static-token auth. JWTSecret enables HS256 bearer tokens;
	// empty disables them. With both empty the transport is open.
	AuthTokenHash string
	JWTSecret     string

	ReadTimeout time.Duration
	IdleTimeout time.Duration
}

// DefaultConfig returns defaults for addr. WriteTimeout is deliberately
// unset: the streamable transport holds SSE responses open indefinitely.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:        addr,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
}

// Server wraps the HTTP server around an MCP server.
type Server struct {
	config Config
	logger *slog.Logger
	http   *http.Server
}

// New builds the router and server. The MCP handler is mounted at /mcp;
// /health stays unauthenticated for load balancers and probes.
func New(mcpServer *mcp.Server, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	if cfg.AuthTokenHash != "" || cfg.JWTSecret != "" {
		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(cfg.AuthTokenHash, []byte(cfg.JWTSecret), logger))
			r.Handle("/mcp", mcpHandler)
		})
	} else {
		r.Handle("/mcp", mcpHandler)
	}

	return &Server{
		config: cfg,
		logger: logger,
		http: &http.Server{
			Addr:        cfg.Addr,
			Handler:     r,
			ReadTimeout: cfg.ReadTimeout,
			IdleTimeout: cfg.IdleTimeout,
		},
	}
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http transport listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http transport")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// BearerAuth accepts either the static token (verified against tokenHash)
// or a valid HS256 JWT signed with jwtSecret. Either mechanism alone is
// enough; a request failing both gets 401.
func BearerAuth(tokenHash string, jwtSecret []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			if tokenHash != "" && auth.VerifyToken(tokenHash, token) {
				next.ServeHTTP(w, r)
				return
			}
			if len(jwtSecret) > 0 {
				if _, err := auth.ParseJWT(jwtSecret, token); err == nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("rejected unauthenticated mcp request", "remote", r.RemoteAddr)
			unauthorized(w)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized"}`)) //nolint:errcheck
}
