package http

import (
	"errors"
	"net/http"

	"github.com/cleanloop/platform/internal/subscription"
	"github.com/cleanloop/platform/internal/util"
)

type createSubscriptionRequest struct {
	PlanType     string  `json:"plan_type"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	BillingCycle string  `json:"billing_cycle"`
}

// CreateSubscription opens a plan for the caller.
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	var req createSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	sub, err := h.subscriptions.Create(r.Context(), subscription.CreateInput{
		UserID:       subject,
		PlanType:     req.PlanType,
		Amount:       req.Amount,
		Currency:     req.Currency,
		BillingCycle: req.BillingCycle,
		StartDate:    util.Now(),
	})
	if err != nil {
		h.handleSubscriptionError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, sub)
}

// ListMySubscriptions returns the caller's subscription history.
func (h *Handler) ListMySubscriptions(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	subs, err := h.subscriptions.ListByUser(r.Context(), subject, queryLimit(r, 50))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "subscription listing failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, subs)
}

// ActiveSubscription returns the caller's current active plan.
func (h *Handler) ActiveSubscription(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	sub, err := h.subscriptions.GetActiveByUser(r.Context(), subject)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "no active subscription", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "subscription lookup failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, sub)
}

// CancelMySubscription cancels one of the caller's subscriptions.
func (h *Handler) CancelMySubscription(w http.ResponseWriter, r *http.Request) {
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

	current, err := h.subscriptions.GetActiveByUser(r.Context(), subject)
	if err != nil || current.ID != id {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "subscription not found", nil)
		return
	}

	sub, err := h.subscriptions.UpdateStatus(r.Context(), id, subscription.StatusCancelled)
	if err != nil {
		h.handleSubscriptionError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, sub)
}

type updateSubscriptionStatusRequest struct {
	Status string `json:"status"`
}

// AdminUpdateSubscriptionStatus applies any status transition.
func (h *Handler) AdminUpdateSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	var req updateSubscriptionStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	sub, err := h.subscriptions.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleSubscriptionError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleSubscriptionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "subscription not found", nil)
	case errors.Is(err, subscription.ErrAlreadyActive):
		WriteError(w, http.StatusConflict, "CONFLICT", "user already has an active subscription", nil)
	case errors.Is(err, subscription.ErrInvalidPlan),
		errors.Is(err, subscription.ErrInvalidBilling),
		errors.Is(err, subscription.ErrInvalidAmount),
		errors.Is(err, subscription.ErrInvalidStatus):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "subscription operation failed", nil)
	}
}
