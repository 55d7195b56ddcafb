package http

import (
	"errors"
	"net/http"

	"github.com/cleanloop/platform/internal/payment"
)

type createPaymentRequest struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Method    string  `json:"payment_method"`
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
}

// CreatePayment logs a payment for the caller.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	p, err := h.payments.Create(r.Context(), payment.CreateInput{
		UserID:    subject,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Method:    req.Method,
		Reference: req.Reference,
		Status:    req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidAmount), errors.Is(err, payment.ErrMissingMethod):
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		default:
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "payment failed", nil)
		}
		return
	}

	WriteJSON(w, http.StatusCreated, p)
}

// ListMyPayments returns the caller's payment history, newest first.
func (h *Handler) ListMyPayments(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	payments, err := h.payments.ListByUser(r.Context(), subject, queryLimit(r, 50))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "payment listing failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, payments)
}
