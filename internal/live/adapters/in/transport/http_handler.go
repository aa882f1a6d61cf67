package transport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fieldtrack/internal/live/application/usecase"
	"fieldtrack/internal/live/domain"
	"fieldtrack/internal/shared/logger"
)

type Handler struct {
	aggregator *usecase.Aggregator
	log        *logger.Logger
}

func NewHandler(aggregator *usecase.Aggregator, log *logger.Logger) *Handler {
	return &Handler{aggregator: aggregator, log: log}
}

// Health — liveness probe
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// FixesResponse is the live-set payload, shared by HTTP and WebSocket push.
type FixesResponse struct {
	Type  string       `json:"type"`
	Fixes []domain.Fix `json:"fixes"`
	Count int          `json:"count"`
}

// ErrorResponse — standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Fixes — GET /live/fixes, optionally windowed with
// ?min_lat=&min_lon=&max_lat=&max_lon=.
func (h *Handler) Fixes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("min_lat") == "" && q.Get("min_lon") == "" && q.Get("max_lat") == "" && q.Get("max_lon") == "" {
		fixes := h.aggregator.Snapshot()
		respondJSON(w, http.StatusOK, FixesResponse{Type: "live_fixes", Fixes: fixes, Count: len(fixes)})
		return
	}

	box, err := parseBoundingBox(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	fixes, err := h.aggregator.FixesWithin(box)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, FixesResponse{Type: "live_fixes", Fixes: fixes, Count: len(fixes)})
}

func parseBoundingBox(q map[string][]string) (domain.BoundingBox, error) {
	var box domain.BoundingBox
	fields := []struct {
		name string
		dst  *float64
	}{
		{"min_lat", &box.MinLat},
		{"min_lon", &box.MinLon},
		{"max_lat", &box.MaxLat},
		{"max_lon", &box.MaxLon},
	}
	for _, f := range fields {
		values, ok := q[f.name]
		if !ok || len(values) == 0 {
			return box, errBoxParam(f.name)
		}
		v, err := strconv.ParseFloat(values[0], 64)
		if err != nil {
			return box, errBoxParam(f.name)
		}
		*f.dst = v
	}
	return box, nil
}

type boxParamError string

func errBoxParam(name string) error { return boxParamError(name) }

func (e boxParamError) Error() string {
	return string(e) + " must be a valid number (all four bounds are required)"
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: status})
}
