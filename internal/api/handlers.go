package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"swatch-extractor/internal/config"
	"swatch-extractor/internal/metrics"
	"swatch-extractor/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultRunTimeout bounds a single run started over HTTP.
const DefaultRunTimeout = 10 * time.Minute

// Runner executes one extraction run.
type Runner func(ctx context.Context, config *types.Config) (*types.RunResult, error)

// ScrapeRequest represents the request body for POST /scrape. Empty fields
// keep the server's configured values. CollectionURL must stay on the host
// of the configured collection and OutputFile must be a bare file name
// inside the configured output directory.
type ScrapeRequest struct {
	CollectionURL string `json:"collection_url,omitempty"`
	OutputFile    string `json:"output_file,omitempty"`
}

// RunSummary condenses a run result.
type RunSummary struct {
	CollectionURL   string              `json:"collection_url"`
	OutputFile      string              `json:"output_file"`
	Total           int                 `json:"total"`
	Complete        int                 `json:"complete"`
	Partial         int                 `json:"partial"`
	FailuresByStage map[types.Stage]int `json:"failures_by_stage"`
	Duration        string              `json:"duration"`
}

// APIResponse represents the response from the API.
type APIResponse struct {
	Success bool                  `json:"success"`
	RunID   string                `json:"run_id,omitempty"`
	Summary *RunSummary           `json:"summary,omitempty"`
	Data    []types.ProductRecord `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// Server exposes extraction runs over HTTP. Runs are serialized: a request
// arriving while another run is in progress waits for it to finish.
type Server struct {
	config     *types.Config
	logger     types.Logger
	runner     Runner
	recorder   *metrics.Recorder
	runTimeout time.Duration

	mu      sync.Mutex
	running atomic.Bool
}

// NewServer creates a new API server.
// config is the base for every run; requests may only narrow it through
// the fields of ScrapeRequest.
func NewServer(config *types.Config, logger types.Logger, recorder *metrics.Recorder, runner Runner) *Server {
	return &Server{
		config:     config,
		logger:     logger,
		runner:     runner,
		recorder:   recorder,
		runTimeout: DefaultRunTimeout,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/scrape", s.handleScrape)
	if s.recorder != nil {
		r.Method(http.MethodGet, "/metrics", s.recorder.Handler())
	}

	return r
}

// handleScrape runs one extraction and returns its records.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}

	cfg := *s.config
	if u := strings.TrimSpace(req.CollectionURL); u != "" {
		if err := checkCollectionHost(s.config.CollectionURL, u); err != nil {
			s.respondError(w, http.StatusBadRequest, "", err.Error())
			return
		}
		cfg.CollectionURL = u
	}
	if f := strings.TrimSpace(req.OutputFile); f != "" {
		if err := config.ValidateOutputFile(f); err != nil {
			s.respondError(w, http.StatusBadRequest, "", err.Error())
			return
		}
		cfg.OutputFile = f
	}
	if err := config.Validate(&cfg); err != nil {
		s.respondError(w, http.StatusBadRequest, "", err.Error())
		return
	}

	s.logger.Infof("API request received for collection: %s", cfg.CollectionURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running.Store(true)
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()

	result, err := s.runner(ctx, &cfg)
	if err != nil {
		runID := ""
		if result != nil {
			runID = result.RunID
		}

		var exhausted *types.ListingExhaustedError
		if errors.As(err, &exhausted) {
			s.logger.Warnf("Run found no products: %v", err)
			s.respondError(w, http.StatusUnprocessableEntity, runID, err.Error()+"; update the listing rules")
			return
		}

		s.logger.Errorf("Run failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, runID, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, APIResponse{
		Success: true,
		RunID:   result.RunID,
		Summary: Summarize(result),
		Data:    result.Records,
	})
}

// checkCollectionHost rejects a requested collection URL whose host differs
// from the configured one, so API callers cannot point the fetcher at
// arbitrary hosts.
func checkCollectionHost(configured, requested string) error {
	want, err := url.Parse(configured)
	if err != nil {
		return fmt.Errorf("configured collection_url is invalid: %w", err)
	}
	got, err := url.Parse(requested)
	if err != nil {
		return fmt.Errorf("collection_url is not a valid URL: %q", requested)
	}
	if !strings.EqualFold(got.Host, want.Host) {
		return fmt.Errorf("collection_url must be on host %s, got: %q", want.Host, requested)
	}
	return nil
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"running": s.running.Load(),
	})
}

// Summarize builds the summary for a run result.
func Summarize(result *types.RunResult) *RunSummary {
	complete := result.CompleteCount()
	return &RunSummary{
		CollectionURL:   result.CollectionURL,
		OutputFile:      result.OutputFile,
		Total:           len(result.Records),
		Complete:        complete,
		Partial:         len(result.Records) - complete,
		FailuresByStage: result.FailuresByStage(),
		Duration:        result.Duration.Round(time.Millisecond).String(),
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, runID, message string) {
	s.respondJSON(w, status, APIResponse{
		Success: false,
		RunID:   runID,
		Error:   message,
	})
}
