package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/marketlens/intrascan/internal/scan/pipeline"
)

// ScanRunner runs one named strategy for a scan date. Implemented by the
// application layer; the server stays a thin presentation surface.
type ScanRunner interface {
	RunScan(ctx context.Context, strategy string, scanDate time.Time) (*pipeline.Result, error)
}

// Server exposes scan results, health, and metrics over HTTP.
type Server struct {
	runner   ScanRunner
	registry *prometheus.Registry
	router   *mux.Router
}

// NewServer wires the routes.
func NewServer(runner ScanRunner, registry *prometheus.Registry) *Server {
	s := &Server{runner: runner, registry: registry, router: mux.NewRouter()}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/scan/{strategy}", s.handleScan).Methods(http.MethodGet)
	return s
}

// Handler returns the root handler for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving HTTP until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	log.Info().Str("addr", addr).Msg("http server listening")
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScan runs the requested strategy synchronously and returns the full
// result: ranked candidates plus exclusions with reasons.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	strategy := mux.Vars(r)["strategy"]

	scanDate := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		scanDate = parsed
	}

	result, err := s.runner.RunScan(r.Context(), strategy, scanDate)
	if err != nil {
		log.Error().Err(err).Str("strategy", strategy).Msg("scan request failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
