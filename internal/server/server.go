// Package server exposes the query path over HTTP and WebSocket.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/coderag/internal/metrics"
	"github.com/ziadkadry99/coderag/internal/rag"
	"github.com/ziadkadry99/coderag/internal/vectordb"
)

// Config holds server configuration.
type Config struct {
	Port         int
	AllowAll     bool   // allow all CORS origins (dev mode)
	TopK         int    // default number of context blocks
	ManifestPath string // read by /api/stats
	Collection   string
}

// Server serves questions and searches against one collection.
type Server struct {
	cfg        Config
	answerer   *rag.Answerer
	store      vectordb.VectorSink
	metrics    *metrics.Metrics
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. m may be nil, in which case /metrics is not mounted.
func New(cfg Config, answerer *rag.Answerer, store vectordb.VectorSink, m *metrics.Metrics, logger *slog.Logger) *Server {
	if cfg.TopK <= 0 {
		cfg.TopK = 6
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		answerer: answerer,
		store:    store,
		metrics:  m,
		logger:   logger,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Post("/search", s.handleSearch)
		r.Get("/stats", s.handleStats)
	})
	r.Get("/ws/ask", s.handleWebSocket)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	return r
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("coderag server listening", "addr", addr, "collection", s.cfg.Collection)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
