package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/cleanloop/platform/internal/pickup"
	"github.com/cleanloop/platform/internal/repo"
)

type createPickupRequest struct {
	ScheduledDate time.Time `json:"scheduled_date"`
	Notes         *string   `json:"notes"`
	Area          string    `json:"area"`
	Street        string    `json:"street"`
	HouseNumber   string    `json:"house_number"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
}

// CreatePickup files a new pickup request for the caller.
func (h *Handler) CreatePickup(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	var req createPickupRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	result, err := h.pickups.Create(r.Context(), pickup.CreateInput{
		UserID:        subject,
		ScheduledDate: req.ScheduledDate,
		Notes:         req.Notes,
		Area:          req.Area,
		Street:        req.Street,
		HouseNumber:   req.HouseNumber,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	WriteJSON(w, http.StatusCreated, result)
}

// ListMyPickups lists the caller's requests, newest first.
func (h *Handler) ListMyPickups(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	requests, err := h.pickups.ListByResident(r.Context(), subject, queryLimit(r, 50))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "pickup listing failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, requests)
}

// GetMyPickup returns one of the caller's requests. Other users' requests
// come back as not found, not forbidden.
func (h *Handler) GetMyPickup(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	request, err := h.pickups.GetByID(r.Context(), id)
	if err != nil || request.UserID != subject {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "pickup not found", nil)
		return
	}

	WriteJSON(w, http.StatusOK, request)
}

// PickupHistory lists the transition events recorded for one request.
func (h *Handler) PickupHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	history, err := h.events.ListPickupEvents(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "history lookup failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, history)
}

// ListAssignedPickups lists the requests assigned to the calling collector.
func (h *Handler) ListAssignedPickups(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	requests, err := h.pickups.ListByCollector(r.Context(), subject, queryLimit(r, 50))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "pickup listing failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, requests)
}

type updatePickupStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// UpdateAssignedPickupStatus lets a collector progress one of their requests.
func (h *Handler) UpdateAssignedPickupStatus(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	current, err := h.pickups.GetByID(r.Context(), id)
	if err != nil {
		h.handlePickupError(w, err)
		return
	}
	if current.CollectorID == nil || *current.CollectorID != subject {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "pickup not found", nil)
		return
	}

	var req updatePickupStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	result, err := h.pickups.UpdateStatus(r.Context(), id, req.Status, req.Notes)
	if err != nil {
		h.handlePickupError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// AdminListPickups lists requests with optional status/limit filters.
func (h *Handler) AdminListPickups(w http.ResponseWriter, r *http.Request) {
	filter := pickup.Filter{Limit: queryLimit(r, 100)}
	if statuses, ok := r.URL.Query()["status"]; ok {
		filter.Status = statuses
	}

	requests, err := h.pickups.List(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "pickup listing failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, requests)
}

type assignPickupRequest struct {
	CollectorID string `json:"collector_id"`
}

// AssignPickup schedules a request with a collector. Re-assignment of an
// already scheduled request is allowed and records a fresh event.
func (h *Handler) AssignPickup(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	var req assignPickupRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	collectorID, err := uuidParse(req.CollectorID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid collector_id", nil)
		return
	}

	collector, err := h.users.Get(r.Context(), collectorID)
	if err != nil || collector.Role != "collector" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "collector not found", nil)
		return
	}

	result, err := h.pickups.AssignCollector(r.Context(), id, collectorID)
	if err != nil {
		h.handlePickupError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// AdminUpdatePickupStatus lets an admin force any transition.
func (h *Handler) AdminUpdatePickupStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	var req updatePickupStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	result, err := h.pickups.UpdateStatus(r.Context(), id, req.Status, req.Notes)
	if err != nil {
		h.handlePickupError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handlePickupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pickup.ErrNotFound), errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "pickup not found", nil)
	case errors.Is(err, pickup.ErrInvalidStatus):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid pickup status", nil)
	case errors.Is(err, pickup.ErrPastDate):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "scheduled date must be in the future", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "pickup operation failed", nil)
	}
}
