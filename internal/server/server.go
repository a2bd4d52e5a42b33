// Package server exposes the transpiler over HTTP.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"angles/pkg/config"
	"angles/pkg/dbmanager"
	"angles/pkg/engine"
	"angles/pkg/loader"
	"angles/pkg/logger"
	"angles/pkg/metrics"
	"angles/pkg/transpiler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/csrf"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/blake2b"
)

// Server holds what the handlers need. DB and Store may be nil.
type Server struct {
	Config     config.Config
	Transpiler *transpiler.Transpiler
	Cache      *loader.Cache
	DB         *dbmanager.DBManager
	// Store receives templates written through the API.
	Store *loader.SQLLoader

	policy *bluemonday.Policy
}

func New(cfg config.Config, tr *transpiler.Transpiler, cache *loader.Cache, db *dbmanager.DBManager) *Server {
	return &Server{
		Config:     cfg,
		Transpiler: tr,
		Cache:      cache,
		DB:         db,
		policy:     bluemonday.UGCPolicy(),
	}
}

func (s *Server) registry() *engine.Registry {
	return s.Transpiler.Registry()
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(logger.Middleware)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders(s.Config.IsProduction()))

	if s.Config.RateLimitRequests > 0 {
		window := s.Config.RateLimitWindow
		if window <= 0 {
			window = 60
		}
		r.Use(httprate.LimitByIP(s.Config.RateLimitRequests, time.Duration(window)*time.Second))
	} else {
		slog.Info("Rate limiting disabled (RATE_LIMIT_REQUESTS not set)")
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
	}))

	if s.Config.Compression {
		r.Use(Brotli)
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(RequireJWT(s.Config.JWTSecret))
		api.Post("/transpile", s.handleTranspile)
		api.Get("/templates", s.handleListTemplates)
		api.Get("/templates/*", s.handleTemplate)
		api.Put("/templates/*", s.handleSaveTemplate)
		api.Delete("/templates/*", s.handleDeleteTemplate)
		api.Post("/cache/clear", s.handleClearCache)
		api.Get("/mappers", s.handleMappers)
	})

	r.Group(func(pg chi.Router) {
		pg.Use(s.csrfProtect())
		pg.Get("/", s.handlePlayground)
		pg.Post("/", s.handlePreview)
	})

	return r
}

func (s *Server) csrfProtect() func(http.Handler) http.Handler {
	port := s.Config.Port
	protect := csrf.Protect(
		csrfKey(s.Config.CSRFKey),
		csrf.Secure(s.Config.IsProduction()),
		csrf.Path("/"),
		csrf.TrustedOrigins([]string{
			"localhost",
			"localhost:" + port,
			"127.0.0.1",
			"127.0.0.1:" + port,
		}),
		csrf.SameSite(csrf.SameSiteLaxMode),
	)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil && !s.Config.IsProduction() {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

// csrfKey turns the configured secret into the 32 bytes gorilla/csrf wants.
// Without a secret the key is random, so tokens do not survive a restart.
func csrfKey(secret string) []byte {
	if secret == "" {
		key := make([]byte, 32)
		_, _ = rand.Read(key)
		return key
	}
	if len(secret) == 32 {
		return []byte(secret)
	}
	sum := blake2b.Sum256([]byte(secret))
	return sum[:]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("DOWN: Database Error"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.Config.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("angles server ready", "addr", ln.Addr().String(), "env", s.Config.Env)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Server gracefully stopped")
	return nil
}
