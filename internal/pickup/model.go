package pickup

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("pickup not found")
	ErrInvalidStatus = errors.New("invalid pickup status")
	ErrPastDate      = errors.New("scheduled date must be in the future")
)

const (
	StatusRequested = "requested"
	StatusScheduled = "scheduled"
	StatusPickedUp  = "picked_up"
	StatusMissed    = "missed"
)

var validStatuses = map[string]struct{}{
	StatusRequested: {},
	StatusScheduled: {},
	StatusPickedUp:  {},
	StatusMissed:    {},
}

// Request is a resident's waste-pickup request. Created by the resident,
// mutated by collectors (status) or admins (assignment), retained forever.
type Request struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	CollectorID   *uuid.UUID `json:"collector_id,omitempty"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	Status        string     `json:"status"`
	Notes         *string    `json:"notes,omitempty"`
	Area          string     `json:"area"`
	Street        string     `json:"street"`
	HouseNumber   string     `json:"house_number"`
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// CreateInput carries the fields for a new request.
type CreateInput struct {
	UserID        uuid.UUID
	ScheduledDate time.Time
	Notes         *string
	Area          string
	Street        string
	HouseNumber   string
	Latitude      *float64
	Longitude     *float64
}

// UpdateStatusInput mutates a request. Collector and notes are written only
// when present.
type UpdateStatusInput struct {
	ID          uuid.UUID
	Status      string
	CollectorID *uuid.UUID
	Notes       *string
	CompletedAt *time.Time
}

// Filter narrows request listings.
type Filter struct {
	UserID      *uuid.UUID
	CollectorID *uuid.UUID
	Status      []string
	Limit       int
	Offset      int
}

// NormalizeStatus lowercases and trims a status value.
func NormalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsValidStatus reports whether the status is one of the four known states.
func IsValidStatus(status string) bool {
	_, ok := validStatuses[NormalizeStatus(status)]
	return ok
}
