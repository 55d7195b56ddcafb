package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/cleanloop/platform/internal/metrics"
	"github.com/cleanloop/platform/internal/repo"
	"github.com/cleanloop/platform/internal/service"
	"github.com/cleanloop/platform/internal/util"
)

// AdminListUsers lists accounts, optionally filtered by ?role=.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	users, err := h.users.List(r.Context(), role, queryLimit(r, 50))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid role", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "user listing failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, users)
}

// AdminGetUser returns one account.
func (h *Handler) AdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "user lookup failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// AdminActivateUser re-enables an account.
func (h *Handler) AdminActivateUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, true)
}

// AdminDeactivateUser disables an account.
func (h *Handler) AdminDeactivateUser(w http.ResponseWriter, r *http.Request) {
	h.setUserActive(w, r, false)
}

func (h *Handler) setUserActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	if err := h.users.SetActive(r.Context(), id, active); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "user update failed", nil)
		return
	}

	status := "deactivated"
	if active {
		status = "activated"
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}

// MetricsOverview returns the admin dashboard counters.
func (h *Handler) MetricsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.metrics.Overview(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "overview failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, overview)
}

// ListMetrics returns metric points of one type since ?since= (RFC 3339,
// default 30 days back).
func (h *Handler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	metricType := r.URL.Query().Get("type")
	if metricType == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "type is required", nil)
		return
	}

	since := util.Now().AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid since", nil)
			return
		}
		since = parsed
	}

	points, err := h.metrics.ListByType(r.Context(), metricType, since)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "metric listing failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, points)
}

type recordMetricRequest struct {
	MetricType  string  `json:"metric_type"`
	Value       float64 `json:"value"`
	Date        string  `json:"date"`
	Area        *string `json:"area"`
	CollectorID *string `json:"collector_id"`
}

// RecordMetric inserts one aggregate data point.
func (h *Handler) RecordMetric(w http.ResponseWriter, r *http.Request) {
	var req recordMetricRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	if req.MetricType == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "metric_type is required", nil)
		return
	}

	date := util.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid date, expected YYYY-MM-DD", nil)
			return
		}
		date = parsed
	}

	input := metrics.RecordInput{
		MetricType: req.MetricType,
		Value:      req.Value,
		Date:       date,
		Area:       req.Area,
	}
	if req.CollectorID != nil {
		collectorID, err := uuidParse(*req.CollectorID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid collector_id", nil)
			return
		}
		input.CollectorID = &collectorID
	}

	point, err := h.metrics.Record(r.Context(), input)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "metric insert failed", nil)
		return
	}

	WriteJSON(w, http.StatusCreated, point)
}
