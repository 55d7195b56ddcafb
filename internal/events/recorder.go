package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleanloop/platform/internal/db"
)

// Recorder durably records a transition: one event row plus one activity-log
// entry, committed together. Notification fan-out is NOT done here; the event
// row doubles as the outbox entry the dispatcher drains. Recording the same
// transition twice produces two events; there is no dedup.
type Recorder struct {
	pool *pgxpool.Pool
	repo *Repository
}

// NewRecorder creates the recorder.
func NewRecorder(pool *pgxpool.Pool, repo *Repository) *Recorder {
	return &Recorder{pool: pool, repo: repo}
}

// RecordPickupTransition persists the event and audit entry, returning the
// event id.
func (r *Recorder) RecordPickupTransition(ctx context.Context, input PickupTransitionInput) (uuid.UUID, error) {
	var updateID uuid.UUID

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		update, err := r.repo.InsertPickupEvent(ctx, tx, input)
		if err != nil {
			return fmt.Errorf("insert pickup event: %w", err)
		}
		updateID = update.ID

		oldData, newData := statusSnapshots(input.OldStatus, input.NewStatus)
		entry := ActivityLogEntry{
			UserID:     input.UserID,
			Action:     "pickup_" + input.NewStatus,
			EntityType: "pickup_request",
			EntityID:   input.PickupID,
			OldData:    oldData,
			NewData:    newData,
		}
		if err := r.repo.InsertActivity(ctx, tx, entry); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return updateID, nil
}

// RecordComplaintTransition persists the complaint event and audit entry.
func (r *Recorder) RecordComplaintTransition(ctx context.Context, input ComplaintTransitionInput) (uuid.UUID, error) {
	var updateID uuid.UUID

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		update, err := r.repo.InsertComplaintEvent(ctx, tx, input)
		if err != nil {
			return fmt.Errorf("insert complaint event: %w", err)
		}
		updateID = update.ID

		actor := input.UserID
		if input.AdminID != nil {
			actor = *input.AdminID
		}
		oldData, newData := statusSnapshots(input.OldStatus, input.NewStatus)
		entry := ActivityLogEntry{
			UserID:     actor,
			Action:     "complaint_" + input.NewStatus,
			EntityType: "complaint",
			EntityID:   input.ComplaintID,
			OldData:    oldData,
			NewData:    newData,
		}
		if err := r.repo.InsertActivity(ctx, tx, entry); err != nil {
			return fmt.Errorf("insert activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return updateID, nil
}

func statusSnapshots(oldStatus *string, newStatus string) (json.RawMessage, json.RawMessage) {
	var oldData json.RawMessage
	if oldStatus != nil {
		oldData, _ = json.Marshal(map[string]string{"status": *oldStatus})
	}
	newData, _ := json.Marshal(map[string]string{"status": newStatus})
	return oldData, newData
}
