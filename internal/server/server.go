// Package server exposes a ledger over HTTP: CSV uploads go through the
// import pipeline and the stored categories and transactions can be listed.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/tally-ledger/tally/internal/importer"
	"github.com/tally-ledger/tally/internal/logging"
	"github.com/tally-ledger/tally/internal/model"
)

// DefaultMaxUploadBytes caps an upload when Options.MaxUploadBytes is unset.
const DefaultMaxUploadBytes = 10 << 20

// Ledger lists what the stores hold.
type Ledger interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListTransactions(ctx context.Context) ([]model.Transaction, error)
}

// ImportHook is called after each successful upload import.
type ImportHook func(filename string, res *importer.Result)

// Options configures a Server.
type Options struct {
	MaxUploadBytes int64
	// UploadDir receives uploads before import; empty means the OS temp dir.
	UploadDir   string
	Logger      *logrus.Logger
	AfterImport ImportHook
}

// Server is the HTTP server for a ledger.
type Server struct {
	ledger   Ledger
	importer *importer.Importer
	opts     Options
	log      *logrus.Logger
	router   *chi.Mux
	server   *http.Server
}

// New creates a Server.
func New(ledger Ledger, imp *importer.Importer, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		ledger:   ledger,
		importer: imp,
		opts:     opts,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/categories", s.handleListCategories)
	s.router.Get("/transactions", s.handleListTransactions)
	s.router.Post("/transactions/import", s.handleImport)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.WithField("addr", addr).Info("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// writeJSON encodes v as JSON with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("json encode error")
	}
}

// writeError logs err and writes {"error": message}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	entry := s.log.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"status":     status,
		"request_id": middleware.GetReqID(r.Context()),
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(message)

	s.writeJSON(w, status, map[string]string{"error": message})
}

// requestLogger logs one line per request through logrus.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
				"remote":     r.RemoteAddr,
			}).Info("request")
		})
	}
}
