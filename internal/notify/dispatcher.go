package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleanloop/platform/internal/config"
	"github.com/cleanloop/platform/internal/events"
)

type eventSource interface {
	PendingPickupEvents(ctx context.Context, limit int) ([]events.PickupStatusUpdate, error)
	PendingComplaintEvents(ctx context.Context, limit int) ([]events.ComplaintUpdate, error)
	MarkPickupEventDispatched(ctx context.Context, id uuid.UUID) error
	MarkComplaintEventDispatched(ctx context.Context, id uuid.UUID) error
}

type notificationStore interface {
	Create(ctx context.Context, input CreateInput) (*Notification, error)
}

// Dispatcher drains undispatched transition events and performs the
// notification fan-out: insert the notification rows, publish each on the
// owner's channel, then mark the event dispatched. A crash between insert and
// mark re-runs the fan-out on the next pass, so delivery is at-least-once.
type Dispatcher struct {
	events eventSource
	store  notificationStore
	pub    Publisher
	cfg    config.DispatcherConfig
	logger zerolog.Logger

	once   sync.Once
	cancel context.CancelFunc
}

// NewDispatcher creates the dispatcher.
func NewDispatcher(eventRepo eventSource, store notificationStore, pub Publisher, cfg config.DispatcherConfig, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{events: eventRepo, store: store, pub: pub, cfg: cfg, logger: logger}
}

// Start launches the periodic loop. Safe to call more than once.
func (d *Dispatcher) Start(parent context.Context) {
	d.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		d.cancel = cancel
		go d.runLoop(ctx)
	})
}

// Stop halts the periodic loop.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Dispatcher) runLoop(ctx context.Context) {
	interval := d.cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info().Dur("interval", interval).Msg("dispatcher: loop started")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("dispatcher: loop stopped")
			return
		case <-ticker.C:
			if err := d.RunOnce(ctx); err != nil {
				d.logger.Error().Err(err).Msg("dispatcher: pass failed")
			}
		}
	}
}

// RunOnce drains one batch of pending events from both outboxes.
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	pickupEvents, err := d.events.PendingPickupEvents(ctx, d.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("pending pickup events: %w", err)
	}
	for _, event := range pickupEvents {
		if err := d.dispatchPickupEvent(ctx, event); err != nil {
			d.logger.Error().Err(err).Str("event_id", event.ID.String()).Msg("dispatcher: pickup fan-out failed")
			continue
		}
		if err := d.events.MarkPickupEventDispatched(ctx, event.ID); err != nil {
			return fmt.Errorf("mark pickup event: %w", err)
		}
	}

	complaintEvents, err := d.events.PendingComplaintEvents(ctx, d.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("pending complaint events: %w", err)
	}
	for _, event := range complaintEvents {
		if err := d.dispatchComplaintEvent(ctx, event); err != nil {
			d.logger.Error().Err(err).Str("event_id", event.ID.String()).Msg("dispatcher: complaint fan-out failed")
			continue
		}
		if err := d.events.MarkComplaintEventDispatched(ctx, event.ID); err != nil {
			return fmt.Errorf("mark complaint event: %w", err)
		}
	}

	return nil
}

// FanOutPickup builds the notifications one pickup event produces: the
// resident always, the collector additionally when assigned and distinct.
func FanOutPickup(event events.PickupStatusUpdate) []CreateInput {
	data, _ := json.Marshal(map[string]string{
		"pickup_id": event.PickupID.String(),
		"status":    event.NewStatus,
		"update_id": event.ID.String(),
	})

	residentInput := CreateInput{
		UserID:  event.UserID,
		Type:    TypePickupStatusChange,
		Title:   "Pickup " + humanStatus(event.NewStatus),
		Message: residentMessage(event.NewStatus),
		Data:    data,
	}

	out := []CreateInput{residentInput}

	if event.CollectorID != nil && *event.CollectorID != event.UserID {
		collectorInput := CreateInput{
			UserID: *event.CollectorID,
			Data:   data,
		}
		if event.Kind == events.KindAssignment {
			collectorInput.Type = TypeNewPickupAssigned
			collectorInput.Title = "New pickup assigned"
			collectorInput.Message = "A pickup has been assigned to you."
		} else {
			collectorInput.Type = TypePickupStatusChange
			collectorInput.Title = "Pickup " + humanStatus(event.NewStatus)
			collectorInput.Message = "A pickup on your route changed to " + humanStatus(event.NewStatus) + "."
		}
		out = append(out, collectorInput)
	}

	return out
}

// FanOutComplaint builds the single notification a complaint event produces.
func FanOutComplaint(event events.ComplaintUpdate) CreateInput {
	data, _ := json.Marshal(map[string]string{
		"complaint_id": event.ComplaintID.String(),
		"status":       event.NewStatus,
		"update_id":    event.ID.String(),
	})
	return CreateInput{
		UserID:  event.UserID,
		Type:    TypeComplaintUpdate,
		Title:   "Complaint " + humanStatus(event.NewStatus),
		Message: "Your complaint is now " + humanStatus(event.NewStatus) + ".",
		Data:    data,
	}
}

func (d *Dispatcher) dispatchPickupEvent(ctx context.Context, event events.PickupStatusUpdate) error {
	for _, input := range FanOutPickup(event) {
		n, err := d.store.Create(ctx, input)
		if err != nil {
			return err
		}
		if err := d.pub.Publish(ctx, *n); err != nil {
			// Durable row exists; live delivery is best-effort.
			d.logger.Warn().Err(err).Str("user_id", input.UserID.String()).Msg("dispatcher: publish failed")
		}
	}
	return nil
}

func (d *Dispatcher) dispatchComplaintEvent(ctx context.Context, event events.ComplaintUpdate) error {
	input := FanOutComplaint(event)
	n, err := d.store.Create(ctx, input)
	if err != nil {
		return err
	}
	if err := d.pub.Publish(ctx, *n); err != nil {
		d.logger.Warn().Err(err).Str("user_id", input.UserID.String()).Msg("dispatcher: publish failed")
	}
	return nil
}

func humanStatus(status string) string {
	switch status {
	case "picked_up":
		return "picked up"
	case "in_progress":
		return "in progress"
	default:
		return status
	}
}

func residentMessage(status string) string {
	switch status {
	case "requested":
		return "Your pickup request was received."
	case "scheduled":
		return "Your pickup has been scheduled."
	case "picked_up":
		return "Your waste has been picked up."
	case "missed":
		return "Your pickup was missed. We are on it."
	default:
		return "Your pickup status changed to " + humanStatus(status) + "."
	}
}
