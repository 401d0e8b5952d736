package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/songmatch/internal/cache"
	"github.com/desertthunder/songmatch/internal/formatter"
	"github.com/desertthunder/songmatch/internal/models"
	"github.com/desertthunder/songmatch/internal/tasks"
)

const maxBodyBytes = 1 << 20

// MatchHandler serves GET /api/match?url=...&platform=...
//
// The "id" parameter is accepted as an alias for "url". The response body is
// always the JSON [models.MatchResult]; the status reflects its error kind.
type MatchHandler struct {
	engine  tasks.Matcher
	timeout time.Duration
}

func (h *MatchHandler) Routes() []string {
	return []string{"/api/match"}
}

func (h *MatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	input := strings.TrimSpace(q.Get("url"))
	if input == "" {
		input = strings.TrimSpace(q.Get("id"))
	}

	platform, err := models.ParsePlatform(q.Get("platform"))
	if err != nil {
		writeResult(w, models.Failure(models.CacheKey{}, models.NewMatchError(models.KindInvalidInput, "%v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	writeResult(w, h.engine.MatchTrack(ctx, input, platform))
}

type batchRequest struct {
	Inputs   []string `json:"inputs"`
	Platform string   `json:"platform"`
	Workers  int      `json:"workers"`
}

// batch serves POST /api/batch with a JSON body of inputs.
func (s *Server) batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if len(req.Inputs) == 0 {
		writeError(w, http.StatusBadRequest, "inputs must not be empty")
		return
	}
	if len(req.Inputs) > s.maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("at most %d inputs per request", s.maxBatch))
		return
	}

	platform, err := models.ParsePlatform(req.Platform)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.reqTimeout)
	defer cancel()

	result, err := s.engine.Batch(ctx, nil, req.Inputs, tasks.BatchOpts{Platform: platform, NumWorkers: req.Workers})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, err.Error())
		return
	}

	data, err := formatter.BatchToJSON(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

type forgetResponse struct {
	Key       string `json:"key"`
	Forgotten bool   `json:"forgotten"`
}

// forget serves DELETE /api/cache?url=...&platform=... and drops the cached
// result for that track, so a stale match can be resolved again.
func (s *Server) forget(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	input := strings.TrimSpace(q.Get("url"))
	if input == "" {
		input = strings.TrimSpace(q.Get("id"))
	}

	platform, err := models.ParsePlatform(q.Get("platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, forgotten, err := s.engine.Forget(input, platform)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := json.Marshal(forgetResponse{Key: key.String(), Forgotten: forgotten})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

type healthResponse struct {
	Status string      `json:"status"`
	Cache  cache.Stats `json:"cache"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(healthResponse{Status: "ok", Cache: s.engine.CacheStats()})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func writeResult(w http.ResponseWriter, res models.MatchResult) {
	data, err := formatter.ResultToJSON(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, StatusFor(res), data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	data, _ := json.Marshal(map[string]string{"error": msg})
	writeJSON(w, status, data)
}

func writeJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
