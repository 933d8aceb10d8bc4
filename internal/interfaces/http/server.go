// Package http serves the public REST API: intervention evaluation, the
// savings ledger, and the operational endpoints around them.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/pausewise/pausewise/internal/config"
	httpContracts "github.com/pausewise/pausewise/internal/http"
	"github.com/pausewise/pausewise/internal/interfaces/http/handlers"
	"github.com/pausewise/pausewise/internal/net/ratelimit"
	"github.com/pausewise/pausewise/internal/telemetry"
)

// Server wires the router, middleware chain, and handlers into one
// http.Server
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *handlers.Handlers
	auth     *Authenticator
	limiter  *ratelimit.Limiter
	metrics  *telemetry.MetricsRegistry
	config   config.ServerConfig
}

// NewServer creates the API server. A nil metrics registry disables the
// /metrics endpoint and request instrumentation, which tests rely on.
func NewServer(cfg config.ServerConfig, authCfg config.AuthConfig, h *handlers.Handlers, metrics *telemetry.MetricsRegistry) (*Server, error) {
	// Fail fast when the address is already taken
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("address %s is busy or unavailable: %w", cfg.Addr, err)
	}
	listener.Close()

	server := &Server{
		router:   mux.NewRouter(),
		handlers: h,
		auth:     NewAuthenticator(authCfg),
		limiter:  ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		metrics:  metrics,
		config:   cfg,
	}
	server.setupRoutes()

	server.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Middleware for all routes
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.timeoutMiddleware)

	// Operational endpoints stay unauthenticated
	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	// Authenticated API (JSON only)
	api := s.router.PathPrefix("/v1").Subrouter()
	if s.metrics != nil {
		api.Use(s.metricsMiddleware)
	}
	api.Use(s.jsonContentTypeMiddleware)
	api.Use(s.authMiddleware)
	api.Use(s.rateLimitMiddleware)

	api.HandleFunc("/interventions/evaluate", s.handlers.Evaluate).Methods("POST")
	api.HandleFunc("/savings", s.handlers.AppendSaving).Methods("POST")
	api.HandleFunc("/savings/confirm", s.handlers.ConfirmSaving).Methods("POST")
	api.HandleFunc("/savings/stats", s.handlers.SavingsStats).Methods("GET")
	api.HandleFunc("/savings/history", s.handlers.SavingsHistory).Methods("GET")
	api.HandleFunc("/savings/{id}", s.handlers.GetSaving).Methods("GET")

	// 404 handler
	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

// requestIDMiddleware adds unique request ID to each request
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs every request once it completes
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Capture response status
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(wrapper, r)

		requestID, _ := r.Context().Value("request_id").(string)
		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request handled")
	})
}

// timeoutMiddleware enforces request timeouts
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authMiddleware resolves the caller's identity and stores it on the
// request context for handlers downstream
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := s.auth.Authenticate(r)
		if err != nil {
			s.writeError(w, r, http.StatusUnauthorized, "unauthorized", "Valid credentials are required")
			return
		}
		ctx := context.WithValue(r.Context(), "user_id", principal.UserID)
		ctx = context.WithValue(ctx, "user_tier", string(principal.Tier))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitMiddleware applies the per-user request budget. Runs after auth
// so the budget keys on the authenticated user, not the client address.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value("user_id").(string)
		if !s.limiter.Allow(userID) {
			seconds := int(math.Ceil(s.limiter.RetryAfter(userID).Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			s.writeError(w, r, http.StatusTooManyRequests, "rate_limited", "Request budget exhausted, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and latency per route template
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(wrapper, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}
		s.metrics.RecordHTTPRequest(route, r.Method, wrapper.statusCode, time.Since(start))
	})
}

// jsonContentTypeMiddleware sets JSON content type for API responses
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// writeError writes a contract-shaped error from middleware, where no
// handler is in play yet
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value("request_id").(string)
	if requestID == "" {
		requestID = "unknown"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(httpContracts.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	})
}

// Handler exposes the routed handler chain for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("addr", s.config.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.config.Addr
}

// responseWrapper captures HTTP status codes for logging
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
