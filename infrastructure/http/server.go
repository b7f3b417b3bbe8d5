package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"

	requestcontext "github.com/KocBilge/barcode/frontend/shared/context"
	"github.com/KocBilge/barcode/infrastructure/audit"
	"github.com/KocBilge/barcode/infrastructure/cache"
	"github.com/KocBilge/barcode/infrastructure/scannerkey"
	"github.com/KocBilge/barcode/infrastructure/sqlite"
	"github.com/KocBilge/barcode/models"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// ScannerKeyHeader authenticates scanning devices in place of the CSRF token.
const ScannerKeyHeader = "X-Scanner-Key"

// Options tunes the page handlers.
type Options struct {
	PerPage        int
	MaxUploadBytes int64
}

func (o Options) withDefaults() Options {
	if o.PerPage < 1 {
		o.PerPage = 10
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 10 << 20
	}
	return o
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB          *sqlite.DB
	Sections    *cache.SectionCache
	ScannerKeys *cache.ScannerKeyCache
	Audit       *audit.Service
	Options     Options
}

// NewServer creates a new http server.
func NewServer(addr string, db *sqlite.DB, sections *cache.SectionCache, scannerKeys *cache.ScannerKeyCache, auditSvc *audit.Service, opts Options) *Server {
	s := &Server{
		Addr:        addr,
		router:      chi.NewRouter(),
		DB:          db,
		Sections:    sections,
		ScannerKeys: scannerKeys,
		Audit:       auditSvc,
		Options:     opts.withDefaults(),
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Permissions-Policy", "camera=(self)")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.ScannerKeyMiddleware)
	s.router.Use(s.CSRFMiddleware)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := s.DB.Ping(r.Context()); err != nil {
			slog.Error("health check failed", slog.Any("err", err))
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		slog.Error("assets subfs init failed; serving fallback fs", slog.Any("err", err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.RegisterBarcodeRoutes(s.router)
	s.RegisterLabelRoutes(s.router)
	s.RegisterExportRoutes(s.router)
	s.router.Get("/audit", s.auditLogHandler)

	s.server.Handler = s.router
	return s
}

// ScannerKeyMiddleware marks requests carrying a valid X-Scanner-Key as coming from
// that device. A present but invalid key is rejected outright.
func (s *Server) ScannerKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(ScannerKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		device, err := scannerkey.Authenticate(r.Context(), s.DB, s.ScannerKeys, key)
		if err != nil {
			if !errors.Is(err, scannerkey.ErrInvalidKey) {
				slog.Error("scanner key check failed", slog.Any("err", err))
				http.Error(w, "failed to verify scanner key", http.StatusInternalServerError)
				return
			}
			slog.Warn("rejected scanner key", slog.String("method", r.Method), slog.String("path", r.URL.Path))
			http.Error(w, "invalid scanner key", http.StatusUnauthorized)
			return
		}
		ctx := requestcontext.NewContextWithScanner(r.Context(), device)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) auditLogHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var entries []models.AuditLog
	err := s.DB.WithReadTx(r.Context(), func(ctx context.Context, tx bun.Tx) error {
		var err error
		entries, err = s.Audit.Recent(ctx, tx, limit)
		return err
	})
	if err != nil {
		slog.Error("load audit log failed", slog.Any("err", err))
		http.Error(w, "failed to load audit log", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(entries)
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("err", err))
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}
