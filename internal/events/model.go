package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	// KindStatusChange marks a plain pickup status transition.
	KindStatusChange = "status_change"
	// KindAssignment marks the requested->scheduled transition with a collector.
	KindAssignment = "assignment"
)

// PickupStatusUpdate is one row per pickup transition, append-only.
// Dispatched flips once the notification fan-out for the event has been
// written; until then the row is the outbox entry for the dispatcher.
type PickupStatusUpdate struct {
	ID          uuid.UUID  `json:"id"`
	PickupID    uuid.UUID  `json:"pickup_id"`
	UserID      uuid.UUID  `json:"user_id"`
	CollectorID *uuid.UUID `json:"collector_id,omitempty"`
	Kind        string     `json:"kind"`
	OldStatus   *string    `json:"old_status,omitempty"`
	NewStatus   string     `json:"new_status"`
	Notes       *string    `json:"notes,omitempty"`
	Area        *string    `json:"area,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Dispatched  bool       `json:"dispatched"`
}

// ComplaintUpdate is one row per complaint transition, append-only.
type ComplaintUpdate struct {
	ID         uuid.UUID  `json:"id"`
	ComplaintID uuid.UUID `json:"complaint_id"`
	UserID     uuid.UUID  `json:"user_id"`
	PickupID   uuid.UUID  `json:"pickup_id"`
	OldStatus  *string    `json:"old_status,omitempty"`
	NewStatus  string     `json:"new_status"`
	AdminID    *uuid.UUID `json:"admin_id,omitempty"`
	AdminNotes *string    `json:"admin_notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Dispatched bool       `json:"dispatched"`
}

// ActivityLogEntry is the append-only audit trail.
type ActivityLogEntry struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	OldData    json.RawMessage `json:"old_data,omitempty"`
	NewData    json.RawMessage `json:"new_data,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PickupTransitionInput carries everything recorded for one pickup transition.
type PickupTransitionInput struct {
	PickupID    uuid.UUID
	UserID      uuid.UUID
	CollectorID *uuid.UUID
	Kind        string
	OldStatus   *string
	NewStatus   string
	Notes       *string
	Area        *string
}

// ComplaintTransitionInput carries everything recorded for one complaint transition.
type ComplaintTransitionInput struct {
	ComplaintID uuid.UUID
	UserID      uuid.UUID
	PickupID    uuid.UUID
	OldStatus   *string
	NewStatus   string
	AdminID     *uuid.UUID
	AdminNotes  *string
}
