package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/notify"
)

type paymentRepo interface {
	Create(ctx context.Context, input CreateInput) (*Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Payment, error)
}

type notifier interface {
	Push(ctx context.Context, input notify.CreateInput) (*notify.Notification, error)
}

// Service logs payments and notifies the payer.
type Service struct {
	repo     paymentRepo
	notifier notifier
}

// NewService creates the service.
func NewService(repo paymentRepo, notifier notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Create validates and appends a payment, then pushes a receipt notification.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Payment, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(input.Method) == "" {
		return nil, ErrMissingMethod
	}

	p, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if s.notifier != nil && p.Status == StatusCompleted {
		data, _ := json.Marshal(map[string]string{
			"payment_id": p.ID.String(),
			"reference":  p.Reference,
		})
		// Notification failure must not fail the business operation.
		_, _ = s.notifier.Push(ctx, notify.CreateInput{
			UserID:  p.UserID,
			Type:    notify.TypePaymentReceived,
			Title:   "Payment received",
			Message: "We received your payment of " + p.Currency + " " + strconv.FormatFloat(p.Amount, 'f', 2, 64) + ".",
			Data:    data,
		})
	}

	return p, nil
}

// ListByUser returns the user's payments; empty slice when none.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Payment, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}
