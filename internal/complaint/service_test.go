package complaint

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/events"
)

type stubComplaintRepo struct {
	complaints  map[uuid.UUID]*Complaint
	createCalls int
}

func newStubComplaintRepo() *stubComplaintRepo {
	return &stubComplaintRepo{complaints: make(map[uuid.UUID]*Complaint)}
}

func (s *stubComplaintRepo) Create(ctx context.Context, input CreateInput) (*Complaint, error) {
	s.createCalls++
	c := &Complaint{
		ID:          uuid.New(),
		UserID:      input.UserID,
		PickupID:    input.PickupID,
		Description: input.Description,
		PhotoURL:    input.PhotoURL,
		Status:      StatusOpen,
		Priority:    NormalizePriority(input.Priority),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	s.complaints[c.ID] = c
	return c, nil
}

func (s *stubComplaintRepo) GetByID(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	c, ok := s.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *stubComplaintRepo) List(ctx context.Context, filter Filter) ([]Complaint, error) {
	out := []Complaint{}
	for _, c := range s.complaints {
		if filter.UserID != nil && c.UserID != *filter.UserID {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *stubComplaintRepo) Update(ctx context.Context, input UpdateInput) (*Complaint, error) {
	c, ok := s.complaints[input.ID]
	if !ok {
		return nil, ErrNotFound
	}
	if input.Status != nil {
		c.Status = *input.Status
	}
	if input.AdminNotes != nil {
		c.AdminNotes = input.AdminNotes
	}
	if input.ResolvedAt != nil {
		c.ResolvedAt = input.ResolvedAt
	}
	copied := *c
	return &copied, nil
}

type stubComplaintRecorder struct {
	recorded []events.ComplaintTransitionInput
}

func (s *stubComplaintRecorder) RecordComplaintTransition(ctx context.Context, input events.ComplaintTransitionInput) (uuid.UUID, error) {
	s.recorded = append(s.recorded, input)
	return uuid.New(), nil
}

func TestCreateRejectsShortDescription(t *testing.T) {
	repo := newStubComplaintRepo()
	svc := NewService(repo, &stubComplaintRecorder{})

	_, err := svc.Create(context.Background(), CreateInput{
		UserID:      uuid.New(),
		PickupID:    uuid.New(),
		Description: "too short",
	})
	if err != ErrShortDescription {
		t.Fatalf("expected ErrShortDescription, got %v", err)
	}
	if repo.createCalls != 0 {
		t.Fatal("repository must not be touched when validation fails")
	}
}

func TestCreateDefaultsPriorityToMedium(t *testing.T) {
	svc := NewService(newStubComplaintRepo(), &stubComplaintRecorder{})

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:      uuid.New(),
		PickupID:    uuid.New(),
		Description: "the truck skipped our street again",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Priority != PriorityMedium {
		t.Fatalf("expected priority medium, got %s", created.Priority)
	}
	if created.Status != StatusOpen {
		t.Fatalf("expected status open, got %s", created.Status)
	}
}

func TestCreateRejectsUnknownPriority(t *testing.T) {
	svc := NewService(newStubComplaintRepo(), &stubComplaintRecorder{})

	_, err := svc.Create(context.Background(), CreateInput{
		UserID:      uuid.New(),
		PickupID:    uuid.New(),
		Description: "bins were left open in the rain",
		Priority:    "urgent",
	})
	if err != ErrInvalidPriority {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestUpdateStatusResolvedStampsResolvedAt(t *testing.T) {
	repo := newStubComplaintRepo()
	recorder := &stubComplaintRecorder{}
	svc := NewService(repo, recorder)

	created, err := svc.Create(context.Background(), CreateInput{
		UserID:      uuid.New(),
		PickupID:    uuid.New(),
		Description: "collection was missed two weeks in a row",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	admin := uuid.New()
	notes := "spoke with the crew, resolved"
	resolved, err := svc.UpdateStatus(context.Background(), created.ID, admin, StatusResolved, &notes)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatal("resolved must stamp resolved_at")
	}
	if len(recorder.recorded) != 1 {
		t.Fatalf("expected 1 recorded transition, got %d", len(recorder.recorded))
	}
	event := recorder.recorded[0]
	if event.AdminID == nil || *event.AdminID != admin {
		t.Fatal("expected the admin id on the event")
	}
	if event.OldStatus == nil || *event.OldStatus != StatusOpen || event.NewStatus != StatusResolved {
		t.Fatal("expected open -> resolved on the event")
	}
}

func TestListByUserEmpty(t *testing.T) {
	svc := NewService(newStubComplaintRepo(), &stubComplaintRecorder{})

	complaints, err := svc.ListByUser(context.Background(), uuid.New(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if complaints == nil || len(complaints) != 0 {
		t.Fatalf("expected empty slice, got %v", complaints)
	}
}
