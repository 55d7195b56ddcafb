package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/notify"
)

type stubPaymentRepo struct {
	payments []Payment
}

func (s *stubPaymentRepo) Create(ctx context.Context, input CreateInput) (*Payment, error) {
	status := input.Status
	if status == "" {
		status = StatusCompleted
	}
	p := Payment{
		ID:        uuid.New(),
		UserID:    input.UserID,
		Amount:    input.Amount,
		Currency:  input.Currency,
		Method:    input.Method,
		Reference: input.Reference,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	s.payments = append(s.payments, p)
	return &p, nil
}

func (s *stubPaymentRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Payment, error) {
	out := []Payment{}
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubNotifier struct {
	pushed []notify.CreateInput
}

func (s *stubNotifier) Push(ctx context.Context, input notify.CreateInput) (*notify.Notification, error) {
	s.pushed = append(s.pushed, input)
	return &notify.Notification{ID: uuid.New(), UserID: input.UserID, Type: input.Type}, nil
}

func TestCreateCompletedNotifies(t *testing.T) {
	notifier := &stubNotifier{}
	svc := NewService(&stubPaymentRepo{}, notifier)

	p, err := svc.Create(context.Background(), CreateInput{
		UserID:   uuid.New(),
		Amount:   29.90,
		Currency: "USD",
		Method:   "card",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", p.Status)
	}
	if len(notifier.pushed) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.pushed))
	}
	got := notifier.pushed[0]
	if got.Type != notify.TypePaymentReceived {
		t.Fatalf("expected %s, got %s", notify.TypePaymentReceived, got.Type)
	}
	if got.Message != "We received your payment of USD 29.90." {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestCreatePendingDoesNotNotify(t *testing.T) {
	notifier := &stubNotifier{}
	svc := NewService(&stubPaymentRepo{}, notifier)

	if _, err := svc.Create(context.Background(), CreateInput{
		UserID:   uuid.New(),
		Amount:   10,
		Currency: "USD",
		Method:   "boleto",
		Status:   StatusPending,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(notifier.pushed) != 0 {
		t.Fatal("pending payments must not notify")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(&stubPaymentRepo{}, &stubNotifier{})

	if _, err := svc.Create(context.Background(), CreateInput{UserID: uuid.New(), Amount: 0, Method: "card"}); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{UserID: uuid.New(), Amount: 5}); err != ErrMissingMethod {
		t.Fatalf("expected ErrMissingMethod, got %v", err)
	}
}

func TestListByUserEmpty(t *testing.T) {
	svc := NewService(&stubPaymentRepo{}, &stubNotifier{})

	payments, err := svc.ListByUser(context.Background(), uuid.New(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if payments == nil || len(payments) != 0 {
		t.Fatalf("expected empty slice, got %v", payments)
	}
}
