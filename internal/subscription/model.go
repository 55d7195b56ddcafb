package subscription

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("subscription not found")
	ErrInvalidStatus  = errors.New("invalid subscription status")
	ErrInvalidPlan    = errors.New("invalid plan type")
	ErrAlreadyActive  = errors.New("user already has an active subscription")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvalidBilling = errors.New("invalid billing cycle")
)

const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"

	PlanBasic    = "basic"
	PlanStandard = "standard"
	PlanPremium  = "premium"

	BillingMonthly   = "monthly"
	BillingQuarterly = "quarterly"
	BillingYearly    = "yearly"
)

var (
	validStatuses = map[string]struct{}{
		StatusActive:    {},
		StatusPaused:    {},
		StatusCancelled: {},
		StatusExpired:   {},
	}
	validPlans = map[string]struct{}{
		PlanBasic:    {},
		PlanStandard: {},
		PlanPremium:  {},
	}
	validBilling = map[string]struct{}{
		BillingMonthly:   {},
		BillingQuarterly: {},
		BillingYearly:    {},
	}
)

// Subscription is a resident's service plan. One active subscription per user
// is an application convention, not a schema constraint.
type Subscription struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	PlanType     string     `json:"plan_type"`
	Status       string     `json:"status"`
	Amount       float64    `json:"amount"`
	Currency     string     `json:"currency"`
	BillingCycle string     `json:"billing_cycle"`
	StartDate    time.Time  `json:"start_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// CreateInput carries the fields for a new subscription.
type CreateInput struct {
	UserID       uuid.UUID
	PlanType     string
	Amount       float64
	Currency     string
	BillingCycle string
	StartDate    time.Time
}

// IsValidStatus reports whether the status is accepted.
func IsValidStatus(status string) bool {
	_, ok := validStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// IsValidPlan reports whether the plan type is accepted.
func IsValidPlan(plan string) bool {
	_, ok := validPlans[strings.ToLower(strings.TrimSpace(plan))]
	return ok
}

// IsValidBilling reports whether the billing cycle is accepted.
func IsValidBilling(cycle string) bool {
	_, ok := validBilling[strings.ToLower(strings.TrimSpace(cycle))]
	return ok
}
