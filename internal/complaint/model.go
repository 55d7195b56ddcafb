package complaint

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("complaint not found")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrShortDescription = errors.New("description must be at least 10 characters")
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	// MinDescriptionLen matches the form check the app applies before any
	// network call.
	MinDescriptionLen = 10
)

var (
	validStatuses = map[string]struct{}{
		StatusOpen:       {},
		StatusInProgress: {},
		StatusResolved:   {},
		StatusClosed:     {},
	}
	validPriorities = map[string]struct{}{
		PriorityLow:    {},
		PriorityMedium: {},
		PriorityHigh:   {},
	}
)

// Complaint is a resident-filed issue tied to a pickup. Residents create,
// admins mutate.
type Complaint struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	PickupID    uuid.UUID  `json:"pickup_id"`
	Description string     `json:"description"`
	PhotoURL    *string    `json:"photo_url,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AdminNotes  *string    `json:"admin_notes,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateInput carries the fields for filing a complaint.
type CreateInput struct {
	UserID      uuid.UUID
	PickupID    uuid.UUID
	Description string
	PhotoURL    *string
	Priority    string
}

// UpdateInput lets an admin change status, priority and notes.
type UpdateInput struct {
	ID         uuid.UUID
	Status     *string
	Priority   *string
	AdminNotes *string
	ResolvedAt *time.Time
}

// Filter narrows complaint listings.
type Filter struct {
	UserID   *uuid.UUID
	Status   []string
	Priority *string
	Limit    int
	Offset   int
}

// NormalizeStatus lowercases a status, defaulting empty to open.
func NormalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return StatusOpen
	}
	return status
}

// NormalizePriority lowercases a priority, defaulting empty to medium.
func NormalizePriority(priority string) string {
	priority = strings.ToLower(strings.TrimSpace(priority))
	if priority == "" {
		return PriorityMedium
	}
	return priority
}

// IsValidStatus reports whether the status is accepted.
func IsValidStatus(status string) bool {
	_, ok := validStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// IsValidPriority reports whether the priority is accepted.
func IsValidPriority(priority string) bool {
	_, ok := validPriorities[strings.ToLower(strings.TrimSpace(priority))]
	return ok
}
