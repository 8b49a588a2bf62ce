// Package web exposes the JSON API.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/stockroomhq/stockroom/internal/auth"
	"github.com/stockroomhq/stockroom/internal/filestore"
	"github.com/stockroomhq/stockroom/internal/service"
	"github.com/stockroomhq/stockroom/internal/vision"
)

type Server struct {
	catalog   *service.CatalogService
	items     *service.ItemService
	inventory *service.InventoryService
	auth      *auth.Service
	files     filestore.BlobStore
	analyzer  vision.Analyzer // nil when scanning is disabled
	router    *chi.Mux
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewServer(
	catalog *service.CatalogService,
	items *service.ItemService,
	inventory *service.InventoryService,
	authSvc *auth.Service,
	files filestore.BlobStore,
	analyzer vision.Analyzer,
	logger *slog.Logger,
) *Server {
	s := &Server{
		catalog:   catalog,
		items:     items,
		inventory: inventory,
		auth:      authSvc,
		files:     files,
		analyzer:  analyzer,
		router:    chi.NewRouter(),
		validate:  validator.New(),
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(securityHeaders)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)

		r.Get("/files/{folder}/{name}", s.handleGetFile)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", s.handleListCategories)
				r.Get("/tree", s.handleCategoryTree)
				r.Post("/", s.handleCreateCategory)
				r.Get("/{id}", s.handleGetCategory)
				r.Put("/{id}", s.handleUpdateCategory)
				r.Delete("/{id}", s.handleDeleteCategory)
			})

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", s.handleListLocations)
				r.Get("/tree", s.handleLocationTree)
				r.Post("/", s.handleCreateLocation)
				r.Get("/{id}", s.handleGetLocation)
				r.Put("/{id}", s.handleUpdateLocation)
				r.Delete("/{id}", s.handleDeleteLocation)
				r.Post("/{id}/scan", s.handleScanLocation)
			})

			r.Route("/items", func(r chi.Router) {
				r.Post("/search", s.handleSearchItems)
				r.Post("/", s.handleCreateItem)
				r.Get("/{id}", s.handleGetItem)
				r.Put("/{id}", s.handleUpdateItem)
				r.Delete("/{id}", s.handleDeleteItem)
				r.Get("/{id}/inventory", s.handleItemLedger)
				r.Post("/{id}/inventory", s.handleCreateInventory)
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Put("/{id}", s.handleUpdateInventory)
				r.Post("/{id}/adjust", s.handleAdjustInventory)
				r.Delete("/{id}", s.handleDeleteInventory)
			})

			r.Post("/files", s.handleUploadFile)
		})
	})
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}
