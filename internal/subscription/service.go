package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/notify"
)

type subscriptionRepo interface {
	Create(ctx context.Context, input CreateInput) (*Subscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Subscription, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Subscription, error)
}

type notifier interface {
	Push(ctx context.Context, input notify.CreateInput) (*notify.Notification, error)
}

// Service owns subscription plans.
type Service struct {
	repo     subscriptionRepo
	notifier notifier
}

// NewService creates the service.
func NewService(repo subscriptionRepo, notifier notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Create validates and opens a subscription. The one-active-per-user rule is
// checked here, not in the schema.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Subscription, error) {
	input.PlanType = strings.ToLower(strings.TrimSpace(input.PlanType))
	if !IsValidPlan(input.PlanType) {
		return nil, ErrInvalidPlan
	}
	input.BillingCycle = strings.ToLower(strings.TrimSpace(input.BillingCycle))
	if !IsValidBilling(input.BillingCycle) {
		return nil, ErrInvalidBilling
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if existing, err := s.repo.GetActiveByUser(ctx, input.UserID); err == nil && existing != nil {
		return nil, ErrAlreadyActive
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	sub, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	s.pushChange(ctx, sub, "Your "+sub.PlanType+" plan is now active.")
	return sub, nil
}

// GetActiveByUser returns the current active subscription.
func (s *Service) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.repo.GetActiveByUser(ctx, userID)
}

// ListByUser returns the user's subscription history; empty slice when none.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Subscription, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

// UpdateStatus transitions a subscription and notifies the owner.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Subscription, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !IsValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	sub, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}

	s.pushChange(ctx, sub, "Your subscription is now "+sub.Status+".")
	return sub, nil
}

func (s *Service) pushChange(ctx context.Context, sub *Subscription, message string) {
	if s.notifier == nil {
		return
	}
	data, _ := json.Marshal(map[string]string{
		"subscription_id": sub.ID.String(),
		"status":          sub.Status,
		"plan_type":       sub.PlanType,
	})
	// Notification failure must not fail the business operation.
	_, _ = s.notifier.Push(ctx, notify.CreateInput{
		UserID:  sub.UserID,
		Type:    notify.TypeSubscriptionChange,
		Title:   "Subscription updated",
		Message: message,
		Data:    data,
	})
}
