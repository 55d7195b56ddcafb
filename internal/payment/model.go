package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("payment not found")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrMissingMethod = errors.New("payment method is required")
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Payment is one logged payment. Append-only from the application's
// perspective.
type Payment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"payment_method"`
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateInput carries the fields for logging a payment.
type CreateInput struct {
	UserID    uuid.UUID
	Amount    float64
	Currency  string
	Method    string
	Reference string
	Status    string
}
