package pickup

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/events"
	"github.com/cleanloop/platform/internal/util"
)

type requestRepo interface {
	Create(ctx context.Context, input CreateInput) (*Request, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	List(ctx context.Context, filter Filter) ([]Request, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*Request, error)
}

type transitionRecorder interface {
	RecordPickupTransition(ctx context.Context, input events.PickupTransitionInput) (uuid.UUID, error)
}

// Service owns the pickup lifecycle. Every transition is recorded through the
// event recorder; the notification fan-out happens asynchronously from there.
type Service struct {
	repo     requestRepo
	recorder transitionRecorder
}

// NewService creates the service.
func NewService(repo requestRepo, recorder transitionRecorder) *Service {
	return &Service{repo: repo, recorder: recorder}
}

// TransitionResult pairs the mutated request with the recorded event id.
type TransitionResult struct {
	Request  *Request  `json:"request"`
	UpdateID uuid.UUID `json:"update_id"`
}

// Create validates and inserts a new request, recording the initial
// requested event.
func (s *Service) Create(ctx context.Context, input CreateInput) (*TransitionResult, error) {
	if input.ScheduledDate.Before(util.Now()) {
		return nil, ErrPastDate
	}
	if err := util.RequireString(input.Area, "area"); err != nil {
		return nil, err
	}
	if err := util.RequireString(input.Street, "street"); err != nil {
		return nil, err
	}

	request, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create pickup: %w", err)
	}

	updateID, err := s.recorder.RecordPickupTransition(ctx, events.PickupTransitionInput{
		PickupID:  request.ID,
		UserID:    request.UserID,
		Kind:      events.KindStatusChange,
		NewStatus: StatusRequested,
		Notes:     request.Notes,
		Area:      &request.Area,
	})
	if err != nil {
		return nil, fmt.Errorf("record transition: %w", err)
	}

	return &TransitionResult{Request: request, UpdateID: updateID}, nil
}

// GetByID fetches one request.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByResident returns the resident's requests; empty slice when none.
func (s *Service) ListByResident(ctx context.Context, userID uuid.UUID, limit int) ([]Request, error) {
	return s.repo.List(ctx, Filter{UserID: &userID, Limit: limit})
}

// ListByCollector returns requests assigned to the collector.
func (s *Service) ListByCollector(ctx context.Context, collectorID uuid.UUID, limit int) ([]Request, error) {
	return s.repo.List(ctx, Filter{CollectorID: &collectorID, Limit: limit})
}

// List returns requests for the admin view.
func (s *Service) List(ctx context.Context, filter Filter) ([]Request, error) {
	return s.repo.List(ctx, filter)
}

// AssignCollector moves a request to scheduled with a mandatory collector.
// The prior status is deliberately not validated; callers may re-assign.
func (s *Service) AssignCollector(ctx context.Context, pickupID, collectorID uuid.UUID) (*TransitionResult, error) {
	current, err := s.repo.GetByID(ctx, pickupID)
	if err != nil {
		return nil, err
	}
	oldStatus := current.Status

	request, err := s.repo.UpdateStatus(ctx, UpdateStatusInput{
		ID:          pickupID,
		Status:      StatusScheduled,
		CollectorID: &collectorID,
	})
	if err != nil {
		return nil, fmt.Errorf("assign pickup: %w", err)
	}

	updateID, err := s.recorder.RecordPickupTransition(ctx, events.PickupTransitionInput{
		PickupID:    request.ID,
		UserID:      request.UserID,
		CollectorID: &collectorID,
		Kind:        events.KindAssignment,
		OldStatus:   &oldStatus,
		NewStatus:   StatusScheduled,
		Area:        &request.Area,
	})
	if err != nil {
		return nil, fmt.Errorf("record transition: %w", err)
	}

	return &TransitionResult{Request: request, UpdateID: updateID}, nil
}

// UpdateStatus records a transition: mutate the row, then durably record the
// event. picked_up stamps completed_at.
func (s *Service) UpdateStatus(ctx context.Context, pickupID uuid.UUID, newStatus string, notes *string) (*TransitionResult, error) {
	newStatus = NormalizeStatus(newStatus)
	if !IsValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, pickupID)
	if err != nil {
		return nil, err
	}
	oldStatus := current.Status

	input := UpdateStatusInput{ID: pickupID, Status: newStatus, Notes: notes}
	if newStatus == StatusPickedUp {
		now := util.Now()
		input.CompletedAt = &now
	}

	request, err := s.repo.UpdateStatus(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("update pickup: %w", err)
	}

	updateID, err := s.recorder.RecordPickupTransition(ctx, events.PickupTransitionInput{
		PickupID:    request.ID,
		UserID:      request.UserID,
		CollectorID: request.CollectorID,
		Kind:        events.KindStatusChange,
		OldStatus:   &oldStatus,
		NewStatus:   newStatus,
		Notes:       notes,
		Area:        &request.Area,
	})
	if err != nil {
		return nil, fmt.Errorf("record transition: %w", err)
	}

	return &TransitionResult{Request: request, UpdateID: updateID}, nil
}
