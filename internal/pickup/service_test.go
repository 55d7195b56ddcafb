package pickup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/events"
)

type stubRequestRepo struct {
	requests map[uuid.UUID]*Request
}

func newStubRequestRepo() *stubRequestRepo {
	return &stubRequestRepo{requests: make(map[uuid.UUID]*Request)}
}

func (s *stubRequestRepo) Create(ctx context.Context, input CreateInput) (*Request, error) {
	r := &Request{
		ID:            uuid.New(),
		UserID:        input.UserID,
		ScheduledDate: input.ScheduledDate,
		Status:        StatusRequested,
		Notes:         input.Notes,
		Area:          input.Area,
		Street:        input.Street,
		HouseNumber:   input.HouseNumber,
		CreatedAt:     time.Now().UTC(),
	}
	s.requests[r.ID] = r
	return r, nil
}

func (s *stubRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	r, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *stubRequestRepo) List(ctx context.Context, filter Filter) ([]Request, error) {
	out := []Request{}
	for _, r := range s.requests {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.CollectorID != nil && (r.CollectorID == nil || *r.CollectorID != *filter.CollectorID) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *stubRequestRepo) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*Request, error) {
	r, ok := s.requests[input.ID]
	if !ok {
		return nil, ErrNotFound
	}
	r.Status = input.Status
	if input.CollectorID != nil {
		r.CollectorID = input.CollectorID
	}
	if input.Notes != nil {
		r.Notes = input.Notes
	}
	if input.CompletedAt != nil {
		r.CompletedAt = input.CompletedAt
	}
	copied := *r
	return &copied, nil
}

type stubRecorder struct {
	recorded []events.PickupTransitionInput
}

func (s *stubRecorder) RecordPickupTransition(ctx context.Context, input events.PickupTransitionInput) (uuid.UUID, error) {
	s.recorded = append(s.recorded, input)
	return uuid.New(), nil
}

func TestPickupLifecycle(t *testing.T) {
	repo := newStubRequestRepo()
	recorder := &stubRecorder{}
	svc := NewService(repo, recorder)

	resident := uuid.New()
	collector := uuid.New()

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:        resident,
		ScheduledDate: time.Now().Add(24 * time.Hour),
		Area:          "north",
		Street:        "Main St",
		HouseNumber:   "12",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Request.Status != StatusRequested {
		t.Fatalf("expected status requested, got %s", created.Request.Status)
	}
	if created.UpdateID == uuid.Nil {
		t.Fatal("expected a recorded update id")
	}

	assigned, err := svc.AssignCollector(context.Background(), created.Request.ID, collector)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Request.Status != StatusScheduled {
		t.Fatalf("expected status scheduled, got %s", assigned.Request.Status)
	}
	if assigned.Request.CollectorID == nil || *assigned.Request.CollectorID != collector {
		t.Fatal("expected collector to be set")
	}

	done, err := svc.UpdateStatus(context.Background(), created.Request.ID, StatusPickedUp, nil)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if done.Request.Status != StatusPickedUp {
		t.Fatalf("expected status picked_up, got %s", done.Request.Status)
	}
	if done.Request.CompletedAt == nil {
		t.Fatal("picked_up must stamp completed_at")
	}

	if len(recorder.recorded) != 3 {
		t.Fatalf("expected 3 recorded transitions, got %d", len(recorder.recorded))
	}
	if recorder.recorded[1].Kind != events.KindAssignment {
		t.Fatalf("expected assignment event, got %s", recorder.recorded[1].Kind)
	}
	if recorder.recorded[2].OldStatus == nil || *recorder.recorded[2].OldStatus != StatusScheduled {
		t.Fatal("expected old status scheduled on the final transition")
	}
}

func TestCreateRejectsPastDate(t *testing.T) {
	svc := NewService(newStubRequestRepo(), &stubRecorder{})

	_, err := svc.Create(context.Background(), CreateInput{
		UserID:        uuid.New(),
		ScheduledDate: time.Now().Add(-time.Hour),
		Area:          "north",
		Street:        "Main St",
	})
	if err != ErrPastDate {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := newStubRequestRepo()
	svc := NewService(repo, &stubRecorder{})

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:        uuid.New(),
		ScheduledDate: time.Now().Add(time.Hour),
		Area:          "north",
		Street:        "Main St",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), created.Request.ID, "teleported", nil); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

// Repeating the same transition is not deduplicated: the row is rewritten and
// a second event is recorded.
func TestDuplicateTransitionRecordsTwice(t *testing.T) {
	repo := newStubRequestRepo()
	recorder := &stubRecorder{}
	svc := NewService(repo, recorder)

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:        uuid.New(),
		ScheduledDate: time.Now().Add(time.Hour),
		Area:          "north",
		Street:        "Main St",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	before := len(recorder.recorded)
	for i := 0; i < 2; i++ {
		if _, err := svc.UpdateStatus(context.Background(), created.Request.ID, StatusMissed, nil); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	if got := len(recorder.recorded) - before; got != 2 {
		t.Fatalf("expected 2 events for the duplicate transition, got %d", got)
	}

	// The second event carries missed -> missed.
	last := recorder.recorded[len(recorder.recorded)-1]
	if last.OldStatus == nil || *last.OldStatus != StatusMissed || last.NewStatus != StatusMissed {
		t.Fatal("expected missed -> missed on the repeated event")
	}
}

func TestListByResidentEmpty(t *testing.T) {
	svc := NewService(newStubRequestRepo(), &stubRecorder{})

	requests, err := svc.ListByResident(context.Background(), uuid.New(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if requests == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(requests) != 0 {
		t.Fatalf("expected no requests, got %d", len(requests))
	}
}
