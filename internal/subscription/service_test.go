package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/notify"
)

type stubSubscriptionRepo struct {
	subs map[uuid.UUID]*Subscription
}

func newStubSubscriptionRepo() *stubSubscriptionRepo {
	return &stubSubscriptionRepo{subs: make(map[uuid.UUID]*Subscription)}
}

func (s *stubSubscriptionRepo) Create(ctx context.Context, input CreateInput) (*Subscription, error) {
	sub := &Subscription{
		ID:           uuid.New(),
		UserID:       input.UserID,
		PlanType:     input.PlanType,
		Status:       StatusActive,
		Amount:       input.Amount,
		Currency:     input.Currency,
		BillingCycle: input.BillingCycle,
		StartDate:    input.StartDate,
		CreatedAt:    time.Now().UTC(),
	}
	s.subs[sub.ID] = sub
	return sub, nil
}

func (s *stubSubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *sub
	return &copied, nil
}

func (s *stubSubscriptionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Subscription, error) {
	out := []Subscription{}
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *stubSubscriptionRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.Status == StatusActive {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubSubscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Subscription, error) {
	sub, ok := s.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	sub.Status = status
	copied := *sub
	return &copied, nil
}

type stubNotifier struct {
	pushed []notify.CreateInput
}

func (s *stubNotifier) Push(ctx context.Context, input notify.CreateInput) (*notify.Notification, error) {
	s.pushed = append(s.pushed, input)
	return &notify.Notification{ID: uuid.New(), UserID: input.UserID, Type: input.Type}, nil
}

func validInput(userID uuid.UUID) CreateInput {
	return CreateInput{
		UserID:       userID,
		PlanType:     PlanStandard,
		Amount:       29.90,
		Currency:     "USD",
		BillingCycle: BillingMonthly,
		StartDate:    time.Now().UTC(),
	}
}

func TestCreateNotifiesOwner(t *testing.T) {
	notifier := &stubNotifier{}
	svc := NewService(newStubSubscriptionRepo(), notifier)

	user := uuid.New()
	sub, err := svc.Create(context.Background(), validInput(user))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.Status != StatusActive {
		t.Fatalf("expected active, got %s", sub.Status)
	}
	if len(notifier.pushed) != 1 || notifier.pushed[0].Type != notify.TypeSubscriptionChange {
		t.Fatal("expected one subscription_change notification")
	}
}

func TestCreateRejectsSecondActive(t *testing.T) {
	svc := NewService(newStubSubscriptionRepo(), &stubNotifier{})

	user := uuid.New()
	if _, err := svc.Create(context.Background(), validInput(user)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(context.Background(), validInput(user)); err != ErrAlreadyActive {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
}

func TestCreateAllowsNewPlanAfterCancellation(t *testing.T) {
	repo := newStubSubscriptionRepo()
	svc := NewService(repo, &stubNotifier{})

	user := uuid.New()
	first, err := svc.Create(context.Background(), validInput(user))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), first.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Create(context.Background(), validInput(user)); err != nil {
		t.Fatalf("second create after cancel: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newStubSubscriptionRepo(), &stubNotifier{})
	user := uuid.New()

	cases := []struct {
		name    string
		mutate  func(*CreateInput)
		wantErr error
	}{
		{"unknown plan", func(in *CreateInput) { in.PlanType = "platinum" }, ErrInvalidPlan},
		{"unknown billing", func(in *CreateInput) { in.BillingCycle = "weekly" }, ErrInvalidBilling},
		{"zero amount", func(in *CreateInput) { in.Amount = 0 }, ErrInvalidAmount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput(user)
			tc.mutate(&input)
			if _, err := svc.Create(context.Background(), input); err != tc.wantErr {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestListByUserEmpty(t *testing.T) {
	svc := NewService(newStubSubscriptionRepo(), &stubNotifier{})

	subs, err := svc.ListByUser(context.Background(), uuid.New(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if subs == nil || len(subs) != 0 {
		t.Fatalf("expected empty slice, got %v", subs)
	}
}
