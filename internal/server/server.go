// Package server exposes the resolution engine over HTTP.
//
// The API is read-mostly: schemas are compiled at startup and held in an
// atomically swappable registry, and each request resolves field state or
// compiles a payload against a snapshot of that registry. Compilation
// outcomes are recorded in the ledger when a store is configured.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/formwell/formwell/internal/store"
)

// Server is the formwell HTTP server.
type Server struct {
	config   Config
	registry *Registry
	store    *store.Store // nil when no ledger is configured
	logger   *zap.Logger
	router   *mux.Router
	httpSrv  *http.Server
}

// New creates a server over an already-loaded schema registry. The store
// may be nil; compilations are then not recorded.
func New(config Config, registry *Registry, st *store.Store, logger *zap.Logger) *Server {
	s := &Server{
		config:   config,
		registry: registry,
		store:    st,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	s.httpSrv = &http.Server{
		Addr:         config.Addr(),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Router returns the HTTP handler, exposed for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/schemas", s.handleListSchemas).Methods("GET")
	api.HandleFunc("/schemas/{blockType}", s.handleGetSchema).Methods("GET")
	api.HandleFunc("/schemas/{blockType}/fields", s.handleResolveFields).Methods("POST")
	api.HandleFunc("/schemas/{blockType}/compile", s.handleCompile).Methods("POST")
	api.HandleFunc("/compilations", s.handleListCompilations).Methods("GET")

	s.router.Use(s.logMiddleware)
}

// Run starts the server and blocks until the context is canceled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			zap.String("addr", s.config.Addr()),
			zap.Strings("schemas", s.registry.BlockTypes()),
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
