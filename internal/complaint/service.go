package complaint

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/events"
	"github.com/cleanloop/platform/internal/util"
)

type complaintRepo interface {
	Create(ctx context.Context, input CreateInput) (*Complaint, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Complaint, error)
	List(ctx context.Context, filter Filter) ([]Complaint, error)
	Update(ctx context.Context, input UpdateInput) (*Complaint, error)
}

type transitionRecorder interface {
	RecordComplaintTransition(ctx context.Context, input events.ComplaintTransitionInput) (uuid.UUID, error)
}

// Service owns the complaint lifecycle.
type Service struct {
	repo     complaintRepo
	recorder transitionRecorder
}

// NewService creates the service.
func NewService(repo complaintRepo, recorder transitionRecorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// Create validates and files a complaint. The description length check runs
// before the repository is touched; an omitted priority defaults to medium.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Complaint, error) {
	if len(strings.TrimSpace(input.Description)) < MinDescriptionLen {
		return nil, ErrShortDescription
	}

	input.Priority = NormalizePriority(input.Priority)
	if !IsValidPriority(input.Priority) {
		return nil, ErrInvalidPriority
	}

	complaint, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create complaint: %w", err)
	}
	return complaint, nil
}

// GetByID fetches one complaint.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByUser returns the resident's complaints; empty slice when none.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Complaint, error) {
	return s.repo.List(ctx, Filter{UserID: &userID, Limit: limit})
}

// List returns complaints for the admin view.
func (s *Service) List(ctx context.Context, filter Filter) ([]Complaint, error) {
	return s.repo.List(ctx, filter)
}

// UpdateStatus applies an admin transition and records the complaint-update
// event; resolving stamps resolved_at.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, adminID uuid.UUID, newStatus string, adminNotes *string) (*Complaint, error) {
	newStatus = NormalizeStatus(newStatus)
	if !IsValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := current.Status

	input := UpdateInput{ID: id, Status: &newStatus, AdminNotes: adminNotes}
	if newStatus == StatusResolved || newStatus == StatusClosed {
		now := util.Now()
		input.ResolvedAt = &now
	}

	complaint, err := s.repo.Update(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("update complaint: %w", err)
	}

	if _, err := s.recorder.RecordComplaintTransition(ctx, events.ComplaintTransitionInput{
		ComplaintID: complaint.ID,
		UserID:      complaint.UserID,
		PickupID:    complaint.PickupID,
		OldStatus:   &oldStatus,
		NewStatus:   newStatus,
		AdminID:     &adminID,
		AdminNotes:  adminNotes,
	}); err != nil {
		return nil, fmt.Errorf("record transition: %w", err)
	}

	return complaint, nil
}
