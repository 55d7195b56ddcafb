package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleanloop/platform/internal/config"
	"github.com/cleanloop/platform/internal/events"
)

type stubEventSource struct {
	pickupEvents     []events.PickupStatusUpdate
	complaintEvents  []events.ComplaintUpdate
	pickupMarked     []uuid.UUID
	complaintMarked  []uuid.UUID
	markPickupErr    error
	markComplaintErr error
}

func (s *stubEventSource) PendingPickupEvents(ctx context.Context, limit int) ([]events.PickupStatusUpdate, error) {
	return s.pickupEvents, nil
}

func (s *stubEventSource) PendingComplaintEvents(ctx context.Context, limit int) ([]events.ComplaintUpdate, error) {
	return s.complaintEvents, nil
}

func (s *stubEventSource) MarkPickupEventDispatched(ctx context.Context, id uuid.UUID) error {
	if s.markPickupErr != nil {
		return s.markPickupErr
	}
	s.pickupMarked = append(s.pickupMarked, id)
	return nil
}

func (s *stubEventSource) MarkComplaintEventDispatched(ctx context.Context, id uuid.UUID) error {
	if s.markComplaintErr != nil {
		return s.markComplaintErr
	}
	s.complaintMarked = append(s.complaintMarked, id)
	return nil
}

type stubStore struct {
	created   []CreateInput
	createErr error
}

func (s *stubStore) Create(ctx context.Context, input CreateInput) (*Notification, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, input)
	return &Notification{
		ID:        uuid.New(),
		UserID:    input.UserID,
		Type:      input.Type,
		Title:     input.Title,
		Message:   input.Message,
		Data:      input.Data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type stubPublisher struct {
	published []Notification
	err       error
}

func (s *stubPublisher) Publish(ctx context.Context, n Notification) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, n)
	return nil
}

func pickupEvent(kind string, collector *uuid.UUID) events.PickupStatusUpdate {
	return events.PickupStatusUpdate{
		ID:          uuid.New(),
		PickupID:    uuid.New(),
		UserID:      uuid.New(),
		CollectorID: collector,
		Kind:        kind,
		NewStatus:   "scheduled",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestFanOutPickupResidentOnly(t *testing.T) {
	inputs := FanOutPickup(pickupEvent(events.KindStatusChange, nil))
	if len(inputs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(inputs))
	}
	if inputs[0].Type != TypePickupStatusChange {
		t.Fatalf("expected %s, got %s", TypePickupStatusChange, inputs[0].Type)
	}
}

func TestFanOutPickupAssignmentNotifiesBoth(t *testing.T) {
	collector := uuid.New()
	event := pickupEvent(events.KindAssignment, &collector)

	inputs := FanOutPickup(event)
	if len(inputs) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(inputs))
	}
	if inputs[0].UserID != event.UserID || inputs[0].Type != TypePickupStatusChange {
		t.Fatal("first notification must target the resident")
	}
	if inputs[1].UserID != collector || inputs[1].Type != TypeNewPickupAssigned {
		t.Fatal("second notification must be the collector's assignment")
	}
}

func TestFanOutPickupSkipsCollectorWhenSameUser(t *testing.T) {
	event := pickupEvent(events.KindStatusChange, nil)
	event.CollectorID = &event.UserID

	if inputs := FanOutPickup(event); len(inputs) != 1 {
		t.Fatalf("expected 1 notification when collector equals resident, got %d", len(inputs))
	}
}

func TestFanOutComplaint(t *testing.T) {
	owner := uuid.New()
	input := FanOutComplaint(events.ComplaintUpdate{
		ID:          uuid.New(),
		ComplaintID: uuid.New(),
		UserID:      owner,
		NewStatus:   "in_progress",
	})
	if input.UserID != owner || input.Type != TypeComplaintUpdate {
		t.Fatal("complaint notification must target the owner")
	}
	if input.Message != "Your complaint is now in progress." {
		t.Fatalf("unexpected message: %q", input.Message)
	}
}

func TestRunOnceDispatchesAndMarks(t *testing.T) {
	collector := uuid.New()
	source := &stubEventSource{
		pickupEvents: []events.PickupStatusUpdate{pickupEvent(events.KindAssignment, &collector)},
		complaintEvents: []events.ComplaintUpdate{{
			ID:          uuid.New(),
			ComplaintID: uuid.New(),
			UserID:      uuid.New(),
			NewStatus:   "resolved",
		}},
	}
	store := &stubStore{}
	pub := &stubPublisher{}

	d := NewDispatcher(source, store, pub, config.DispatcherConfig{BatchSize: 10}, zerolog.Nop())
	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	// 2 from the assignment, 1 from the complaint.
	if len(store.created) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(store.created))
	}
	if len(pub.published) != 3 {
		t.Fatalf("expected 3 published, got %d", len(pub.published))
	}
	if len(source.pickupMarked) != 1 || len(source.complaintMarked) != 1 {
		t.Fatal("expected both events to be marked dispatched")
	}
}

func TestRunOnceLeavesEventPendingOnStoreFailure(t *testing.T) {
	source := &stubEventSource{
		pickupEvents: []events.PickupStatusUpdate{pickupEvent(events.KindStatusChange, nil)},
	}
	store := &stubStore{createErr: errors.New("db down")}

	d := NewDispatcher(source, store, &stubPublisher{}, config.DispatcherConfig{BatchSize: 10}, zerolog.Nop())
	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once should swallow fan-out failures, got %v", err)
	}
	if len(source.pickupMarked) != 0 {
		t.Fatal("a failed fan-out must leave the event pending")
	}
}

func TestRunOncePublishFailureStillMarks(t *testing.T) {
	source := &stubEventSource{
		pickupEvents: []events.PickupStatusUpdate{pickupEvent(events.KindStatusChange, nil)},
	}
	store := &stubStore{}
	pub := &stubPublisher{err: errors.New("redis down")}

	d := NewDispatcher(source, store, pub, config.DispatcherConfig{BatchSize: 10}, zerolog.Nop())
	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatal("the durable row must still be written")
	}
	if len(source.pickupMarked) != 1 {
		t.Fatal("live delivery is best-effort; the event must be marked")
	}
}
