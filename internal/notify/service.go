package notify

import (
	"context"

	"github.com/google/uuid"
)

type notificationRepo interface {
	Create(ctx context.Context, input CreateInput) (*Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Service is the inbox facade used by HTTP handlers, plus the direct push
// path for notifications that do not originate from a transition event
// (payments, subscription changes).
type Service struct {
	repo notificationRepo
	pub  Publisher
}

// NewService creates the service.
func NewService(repo notificationRepo, pub Publisher) *Service {
	return &Service{repo: repo, pub: pub}
}

// Push inserts a notification and publishes it to live subscribers.
func (s *Service) Push(ctx context.Context, input CreateInput) (*Notification, error) {
	n, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	if s.pub != nil {
		// Durable row exists; live delivery is best-effort.
		_ = s.pub.Publish(ctx, *n)
	}
	return n, nil
}

// ListByUser returns the newest notifications for the user. A user with no
// notifications gets an empty slice, never an error.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit int, unreadOnly bool) ([]Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit, unreadOnly)
}

// UnreadCount returns the badge count.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead marks one notification read.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// MarkAllRead marks every unread notification read, returning how many flipped.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
