// Package api provides the HTTP surface around the projection engine.
// GET endpoints are public (read-only observation).
// POST/DELETE endpoints require a bearer token (admin control plane).
// Run admission, per-run timeouts, and serialization framing all live
// here — the engine itself stays a pure function.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/popula/engine/internal/config"
	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/export"
	"github.com/popula/engine/internal/lifetable"
	"github.com/popula/engine/internal/metrics"
	"github.com/popula/engine/internal/persistence"
	"github.com/popula/engine/internal/projection"
	"github.com/popula/engine/internal/scenario"
)

// Server serves scenarios, runs, and derived metrics over HTTP.
type Server struct {
	DB  *persistence.DB
	Cfg *config.Config

	// runSem bounds concurrent projection runs; acquiring is non-blocking
	// so saturated capacity answers 503 instead of queueing.
	runSem chan struct{}
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.runSem = make(chan struct{}, s.Cfg.MaxConcurrentRuns)
	runLimiter := NewRateLimiter(30, time.Hour)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/scenarios", s.adminOnly(s.handleScenarios))
	mux.HandleFunc("/api/v1/scenario/", s.adminOnly(s.handleScenarioRoutes(runLimiter)))

	addr := fmt.Sprintf(":%d", s.Cfg.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.Cfg.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.Cfg.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on mutating
// requests. GETs pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			if s.Cfg.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no POPULA_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.DB.ListScenarios()
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"name":                "popula-engine",
		"scenarios":           len(scenarios),
		"max_concurrent_runs": s.Cfg.MaxConcurrentRuns,
		"run_timeout":         s.Cfg.RunTimeout.String(),
	})
}

// handleScenarios lists (GET) or creates (POST) scenarios.
func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		scenarios, err := s.DB.ListScenarios()
		if err != nil {
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, scenarios)

	case http.MethodPost:
		var req struct {
			Name        string             `json:"name"`
			Description string             `json:"description"`
			BaseYear    int                `json:"base_year"`
			EndYear     int                `json:"end_year"`
			Shocks      []projection.Shock `json:"shocks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}

		sc := scenario.New(req.Name, req.Description, req.BaseYear, req.EndYear)
		sc.Shocks = req.Shocks
		if errs := sc.Validate(); len(errs) > 0 {
			writeJSONStatus(w, http.StatusBadRequest, map[string]any{"errors": errs})
			return
		}
		if err := s.DB.SaveScenario(sc); err != nil {
			slog.Error("save scenario failed", "error", err)
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		slog.Info("scenario created", "id", sc.ID, "name", sc.Name)
		writeJSONStatus(w, http.StatusCreated, sc)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleScenarioRoutes dispatches /api/v1/scenario/{id}[/sub].
func (s *Server) handleScenarioRoutes(runLimiter *RateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/scenario/")
		parts := strings.SplitN(path, "/", 2)
		id := parts[0]
		sub := ""
		if len(parts) == 2 {
			sub = parts[1]
		}
		if id == "" {
			http.Error(w, "scenario id required", http.StatusBadRequest)
			return
		}

		switch sub {
		case "":
			s.handleScenarioDetail(w, r, id)
		case "baseline":
			s.handleBaseline(w, r, id)
		case "run":
			RateLimitMiddleware(runLimiter, func(w http.ResponseWriter, r *http.Request) {
				s.handleRun(w, r, id)
			})(w, r)
		case "result":
			s.handleResult(w, r, id)
		case "metrics":
			s.handleMetrics(w, r, id)
		case "export":
			s.handleExport(w, r, id)
		default:
			http.NotFound(w, r)
		}
	}
}

func (s *Server) handleScenarioDetail(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		sc, err := s.DB.GetScenario(id)
		if errors.Is(err, persistence.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, sc)

	case http.MethodDelete:
		if err := s.DB.DeleteScenario(id); err != nil {
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		slog.Info("scenario deleted", "id", id)
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleBaseline(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		b, err := s.DB.GetBaseline(id)
		if errors.Is(err, persistence.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, b)

	case http.MethodPost:
		if _, err := s.DB.GetScenario(id); errors.Is(err, persistence.ErrNotFound) {
			http.NotFound(w, r)
			return
		}

		var b persistence.Baseline
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		b.ScenarioID = id

		if b.Population == nil || b.Mortality == nil || b.Fertility == nil {
			http.Error(w, "population, mortality, and fertility are required", http.StatusBadRequest)
			return
		}
		if err := b.Mortality.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := b.Fertility.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// Sub-regional flows are collapsed to a national net at the
		// boundary; the engine never sees region tags.
		b.Migration = demography.AggregateNational(b.Migration)

		if err := s.DB.SaveBaseline(&b); err != nil {
			slog.Error("save baseline failed", "scenario", id, "error", err)
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		writeJSONStatus(w, http.StatusCreated, map[string]any{"scenario_id": id})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleRun executes a stored scenario against its baseline.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	select {
	case s.runSem <- struct{}{}:
		defer func() { <-s.runSem }()
	default:
		http.Error(w, "run capacity exhausted, retry later", http.StatusServiceUnavailable)
		return
	}

	sc, err := s.DB.GetScenario(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if errs := sc.Validate(); len(errs) > 0 {
		writeJSONStatus(w, http.StatusBadRequest, map[string]any{"errors": errs})
		return
	}

	baseline, err := s.DB.GetBaseline(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "scenario has no baseline data", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.Cfg.RunTimeout)
	defer cancel()

	res, runErr := projection.Run(ctx, projection.Input{
		BaseYear:  sc.BaseYear,
		Horizon:   sc.Horizon(),
		Initial:   baseline.Population,
		Mortality: baseline.Mortality,
		Fertility: baseline.Fertility,
		Migration: baseline.Migration,
		Shocks:    sc.Shocks,
	})

	// Failed runs are persisted too: their partial years are real output.
	if err := s.DB.SaveResult(id, res); err != nil {
		slog.Error("save result failed", "scenario", id, "error", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if runErr != nil {
		status = http.StatusUnprocessableEntity
	}
	writeJSONStatus(w, status, map[string]any{
		"scenario_id":     id,
		"state":           res.State.String(),
		"failure":         res.Failure,
		"years_completed": len(res.Years),
		"elapsed_ms":      res.Elapsed.Milliseconds(),
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request, id string) {
	res, err := s.DB.GetResult(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, res)
}

// loadResultAndScenario is shared by the metrics and export handlers.
func (s *Server) loadResultAndScenario(w http.ResponseWriter, id string) (*projection.Result, *scenario.Scenario, bool) {
	res, err := s.DB.GetResult(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "no result for scenario; run it first", http.StatusNotFound)
		return nil, nil, false
	}
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return nil, nil, false
	}
	sc, err := s.DB.GetScenario(id)
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return nil, nil, false
	}
	return res, sc, true
}

// handleMetrics serves derived series as JSON rows:
// GET /api/v1/scenario/{id}/metrics?kind=sex-ratio|dependency|median-age|cohort&birth_year=...
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request, id string) {
	res, sc, ok := s.loadResultAndScenario(w, id)
	if !ok {
		return
	}

	switch kind := r.URL.Query().Get("kind"); kind {
	case "sex-ratio":
		writeJSON(w, metrics.SexRatios(res))
	case "dependency":
		writeJSON(w, metrics.DependencyRatios(res))
	case "median-age":
		writeJSON(w, metrics.MedianAges(res))
	case "cohort":
		birthYear, err := strconv.Atoi(r.URL.Query().Get("birth_year"))
		if err != nil {
			http.Error(w, "birth_year query parameter required", http.StatusBadRequest)
			return
		}
		writeJSON(w, metrics.TrackCohort(res, birthYear))
	case "life-expectancy":
		baseline, err := s.DB.GetBaseline(id)
		if err != nil {
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		rows, err := metrics.LifeExpectancies(baseline.Mortality, sc.Shocks, res.BaseYear, res.Horizon, lifetable.Radix)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, rows)
	default:
		http.Error(w, "unknown metrics kind", http.StatusBadRequest)
	}
}

// handleExport serves derived series as CSV downloads:
// GET /api/v1/scenario/{id}/export?kind=summary|cohorts|sex-ratio|dependency|median-age|cohort|life-expectancy|life-table
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, id string) {
	res, sc, ok := s.loadResultAndScenario(w, id)
	if !ok {
		return
	}

	kind := r.URL.Query().Get("kind")
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-%s.csv", id, kind))

	var err error
	switch kind {
	case "summary":
		err = export.WriteSummaries(w, res)
	case "cohorts":
		year, convErr := strconv.Atoi(r.URL.Query().Get("year"))
		if convErr != nil {
			http.Error(w, "year query parameter required", http.StatusBadRequest)
			return
		}
		snap, found := res.Snapshot(year)
		if !found {
			http.Error(w, "year outside the projected range", http.StatusNotFound)
			return
		}
		err = export.WriteCohorts(w, snap)
	case "sex-ratio":
		err = export.WriteSexRatios(w, metrics.SexRatios(res))
	case "dependency":
		err = export.WriteDependencyRatios(w, metrics.DependencyRatios(res))
	case "median-age":
		err = export.WriteMedianAges(w, metrics.MedianAges(res))
	case "cohort":
		birthYear, convErr := strconv.Atoi(r.URL.Query().Get("birth_year"))
		if convErr != nil {
			http.Error(w, "birth_year query parameter required", http.StatusBadRequest)
			return
		}
		err = export.WriteCohortTracking(w, metrics.TrackCohort(res, birthYear))
	case "life-expectancy":
		baseline, dbErr := s.DB.GetBaseline(id)
		if dbErr != nil {
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		rows, leErr := metrics.LifeExpectancies(baseline.Mortality, sc.Shocks, res.BaseYear, res.Horizon, lifetable.Radix)
		if leErr != nil {
			http.Error(w, leErr.Error(), http.StatusUnprocessableEntity)
			return
		}
		err = export.WriteLifeExpectancies(w, rows)
	case "life-table":
		baseline, dbErr := s.DB.GetBaseline(id)
		if dbErr != nil {
			http.Error(w, "storage error", http.StatusInternalServerError)
			return
		}
		year, convErr := strconv.Atoi(r.URL.Query().Get("year"))
		if convErr != nil {
			year = res.BaseYear
		}
		sex := demography.SexFemale
		if r.URL.Query().Get("sex") == "male" {
			sex = demography.SexMale
		}
		adjusted := projection.AdjustedMortality(baseline.Mortality, sc.Shocks, year)
		rows, ltErr := lifetable.Build(adjusted.QxSlice(sex), lifetable.Radix)
		if ltErr != nil {
			http.Error(w, ltErr.Error(), http.StatusUnprocessableEntity)
			return
		}
		err = export.WriteLifeTable(w, rows)
	default:
		http.Error(w, "unknown export kind", http.StatusBadRequest)
		return
	}

	if err != nil {
		slog.Error("export write failed", "scenario", id, "kind", kind, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSON encode failed", "error", err)
	}
}
