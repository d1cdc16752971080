// Package server exposes the player store over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kyzn-15/g-sheet-api/internal/logger"
	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// Players is the store surface the handlers need.
type Players interface {
	ListAll(ctx context.Context) ([]types.Player, error)
	Get(ctx context.Context, id int) (types.Player, bool, error)
	Create(ctx context.Context, fields types.Fields) (types.Player, error)
	Update(ctx context.Context, id int, patch types.Fields) (types.Player, bool, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// ReadyFunc reports whether the backing sheet can serve requests.
type ReadyFunc func(ctx context.Context) error

// Server is the HTTP facade over a player store.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	players    Players
	ready      ReadyFunc
	logger     *logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithReadiness sets the check behind /ready. Without one /ready always
// succeeds.
func WithReadiness(fn ReadyFunc) Option {
	return func(s *Server) { s.ready = fn }
}

// New creates a Server listening on addr.
func New(addr string, players Players, l *logger.Logger, opts ...Option) *Server {
	if l == nil {
		l = logger.NewNop()
	}
	s := &Server{
		players: players,
		logger:  l.With(zap.String("component", "http")),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})

	r.HandleFunc("/players", s.listPlayers).Methods(http.MethodGet)
	r.HandleFunc("/players", s.createPlayer).Methods(http.MethodPost)
	r.HandleFunc("/players/{id:[0-9]+}", s.getPlayer).Methods(http.MethodGet)
	r.HandleFunc("/players/{id:[0-9]+}", s.updatePlayer).Methods(http.MethodPatch)
	r.HandleFunc("/players/{id:[0-9]+}", s.deletePlayer).Methods(http.MethodDelete)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router = r
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
