// Package httpapi exposes the analysis pipeline and history over JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"CredibilityScanner/internal/domain"
	"CredibilityScanner/internal/metrics"
	"CredibilityScanner/internal/ports"
	"CredibilityScanner/internal/usecase"
)

// UserHeader carries the identity established by the upstream auth layer.
const UserHeader = "X-User-ID"

const maxBodyBytes = 1 << 20

type Analyzer interface {
	RunAnalysis(ctx context.Context, req usecase.AnalysisRequest) (domain.AnalysisResult, error)
}

type HistoryReader interface {
	ForUser(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error)
}

// Options wire the server. Cache and History may be nil; their routes then
// answer 503.
type Options struct {
	Addr            string
	Analyzer        Analyzer
	History         HistoryReader
	Cache           ports.ResultCache
	Metrics         *metrics.Collector
	Logger          *slog.Logger
	ShutdownTimeout time.Duration
}

type Server struct {
	opts   Options
	router *mux.Router
	logger *slog.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{opts: opts, router: mux.NewRouter(), logger: logger.With("component", "httpapi")}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.observe)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analyses", s.createAnalysis).Methods(http.MethodPost)
	api.HandleFunc("/analyses/{id}", s.getAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/users/{user}/history", s.userHistory).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	if s.opts.Metrics != nil {
		s.router.Handle("/metrics", s.opts.Metrics.Handler()).Methods(http.MethodGet)
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks until ctx is cancelled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

type analysisRequest struct {
	Text       string `json:"text"`
	SourceType string `json:"source_type"`
	SourceURL  string `json:"source_url"`
	DeepScan   bool   `json:"deep_scan"`
}

func (s *Server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	var body analysisRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	sourceType, err := domain.ParseSourceType(body.SourceType)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.opts.Analyzer.RunAnalysis(r.Context(), usecase.AnalysisRequest{
		Text:       body.Text,
		SourceType: sourceType,
		SourceURL:  body.SourceURL,
		DeepScan:   body.DeepScan,
		UserID:     r.Header.Get(UserHeader),
	})
	if err != nil {
		s.logger.Error("analysis failed", "error", err)
		var ae *usecase.AnalysisError
		if errors.As(err, &ae) {
			respondWithError(w, http.StatusServiceUnavailable, ae.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.opts.Cache == nil {
		respondWithError(w, http.StatusServiceUnavailable, "result cache not configured")
		return
	}
	id := mux.Vars(r)["id"]
	result, ok, err := s.opts.Cache.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("cache lookup failed", "analysis_id", id, "error", err)
		respondWithError(w, http.StatusBadGateway, "result cache unavailable")
		return
	}
	if !ok {
		respondWithError(w, http.StatusNotFound, "analysis not found or expired")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) userHistory(w http.ResponseWriter, r *http.Request) {
	user := mux.Vars(r)["user"]
	switch caller := r.Header.Get(UserHeader); {
	case caller == "":
		respondWithError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
		return
	case caller != user:
		respondWithError(w, http.StatusForbidden, "history belongs to another user")
		return
	}
	if s.opts.History == nil {
		respondWithError(w, http.StatusServiceUnavailable, usecase.ErrHistoryUnavailable.Error())
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	records, err := s.opts.History.ForUser(r.Context(), user, limit)
	switch {
	case errors.Is(err, usecase.ErrUserRequired):
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, usecase.ErrHistoryUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.logger.Error("history lookup failed", "error", err)
		respondWithError(w, http.StatusBadGateway, "history unavailable")
		return
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
