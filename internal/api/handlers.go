package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// statusResponse combines the crawl counters with the live frontier
// state.
type statusResponse struct {
	Seed         string `json:"seed"`
	Fetched      int64  `json:"fetched"`
	Failed       int64  `json:"failed"`
	Skipped      int64  `json:"skipped"`
	BytesWritten int64  `json:"bytes_written"`
	DurationMS   int64  `json:"duration_ms"`
	Pending      int    `json:"pending"`
	InFlight     int    `json:"in_flight"`
	Seen         int    `json:"seen"`
}

func (s *Server) handleStatusRequest(w http.ResponseWriter, r *http.Request) {
	report := s.engine.Snapshot()
	pending, inflight, seen := s.engine.FrontierStats()

	s.respondWithJSON(w, http.StatusOK, statusResponse{
		Seed:         report.Seed,
		Fetched:      report.Fetched,
		Failed:       report.Failed,
		Skipped:      report.Skipped,
		BytesWritten: report.BytesWritten,
		DurationMS:   report.Duration.Milliseconds(),
		Pending:      pending,
		InFlight:     inflight,
		Seen:         seen,
	})
}

// handleResourceRequest reports the stored status of a single URL.
// Requires the PostgreSQL record store.
func (s *Server) handleResourceRequest(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		s.respondWithError(w, http.StatusNotImplemented, "crawl records are not enabled")
		return
	}
	urlParam := r.URL.Query().Get("url")
	if urlParam == "" {
		s.respondWithError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	status, err := s.records.ResourceStatus(r.Context(), urlParam)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.respondWithError(w, http.StatusNotFound, "no record for this URL")
			return
		}
		s.logger.Error("resource status lookup failed", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "could not retrieve status")
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]string{"url": urlParam, "status": status})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"crawler": "healthy"}
	healthy := true

	if s.records != nil {
		if err := s.records.Ping(ctx); err != nil {
			healthStatus["postgres"] = "unhealthy"
			healthy = false
			s.logger.Error("health check failed for postgres", zap.Error(err))
		} else {
			healthStatus["postgres"] = "healthy"
		}
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			healthStatus["redis"] = "unhealthy"
			healthy = false
			s.logger.Error("health check failed for redis", zap.Error(err))
		} else {
			healthStatus["redis"] = "healthy"
		}
	}

	if !healthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
