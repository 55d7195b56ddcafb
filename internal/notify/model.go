package notify

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification kinds. Keep in sync with the frontend filter chips.
const (
	TypePickupStatusChange = "pickup_status_change"
	TypeNewPickupAssigned  = "new_pickup_assigned"
	TypeComplaintUpdate    = "complaint_update"
	TypePaymentReceived    = "payment_received"
	TypeSubscriptionChange = "subscription_change"
)

// Notification is one inbox entry for a user. Created by the dispatcher (or
// directly by payment/subscription services); only the read flag mutates.
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateInput carries the fields for a new notification.
type CreateInput struct {
	UserID  uuid.UUID
	Type    string
	Title   string
	Message string
	Data    json.RawMessage
}
