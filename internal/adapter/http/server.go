package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/windsim/internal/config"
	"github.com/couchcryptid/windsim/internal/domain"
)

// maxRequestBytes bounds the size of a simulation request body.
const maxRequestBytes = 1 << 20

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Simulator executes a simulation and delivers it to the configured sinks.
type Simulator interface {
	Execute(ctx context.Context, cfg domain.SimulationConfig, seed uint64) (*domain.Run, error)
}

// RunReader looks up a stored run by ID.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*domain.Run, error)
}

// Server exposes health, readiness, metrics, and simulation HTTP endpoints.
type Server struct {
	httpServer *http.Server
	sim        Simulator
	runs       RunReader
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /v1/simulations routes.
func NewServer(addr string, ready ReadinessChecker, sim Simulator, runs RunReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sim:    sim,
		runs:   runs,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/simulations", s.handleCreateSimulation)
	mux.HandleFunc("GET /v1/simulations/{id}", s.handleGetSimulation)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// simulationRequest is the body of POST /v1/simulations. A seed in the
// request wins over one in the config; without either the clock picks one.
type simulationRequest struct {
	Config domain.SimulationConfig `json:"config"`
	Seed   *uint64                 `json:"seed,omitempty"`
}

// simulationResponse summarizes a created run; the full run is at Location.
type simulationResponse struct {
	ID        string         `json:"id"`
	Seed      uint64         `json:"seed"`
	CreatedAt time.Time      `json:"created_at"`
	Summary   domain.Summary `json:"summary"`
	Warning   string         `json:"warning,omitempty"`
}

func (s *Server) handleCreateSimulation(w http.ResponseWriter, r *http.Request) {
	var req simulationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := config.ValidateSimulation(req.Config); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":    "invalid simulation config",
				"problems": verr.Problems,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	seed := domain.DefaultSeed()
	switch {
	case req.Seed != nil:
		seed = *req.Seed
	case req.Config.Seed != nil:
		seed = *req.Config.Seed
	}

	run, err := s.sim.Execute(r.Context(), req.Config, seed)
	if run == nil {
		s.logger.Error("simulation request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := simulationResponse{
		ID:        run.ID,
		Seed:      run.Seed,
		CreatedAt: run.CreatedAt,
		Summary:   run.Summary,
	}
	if err != nil {
		// The run exists but at least one sink rejected it.
		resp.Warning = err.Error()
	}
	w.Header().Set("Location", "/v1/simulations/"+run.ID)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.runs.GetRun(r.Context(), id)
	if errors.Is(err, domain.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "simulation run not found")
		return
	}
	if err != nil {
		s.logger.Error("get simulation failed", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
