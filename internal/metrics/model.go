package metrics

import (
	"time"

	"github.com/google/uuid"
)

// Metric kinds written by the admin mutation and the rollup queries.
const (
	TypePickupsCompleted = "pickups_completed"
	TypePickupsMissed    = "pickups_missed"
	TypeComplaintsOpened = "complaints_opened"
	TypeRevenue          = "revenue"
)

// SystemMetric is one aggregate data point.
type SystemMetric struct {
	ID          uuid.UUID  `json:"id"`
	MetricType  string     `json:"metric_type"`
	Value       float64    `json:"value"`
	Date        time.Time  `json:"date"`
	Area        *string    `json:"area,omitempty"`
	CollectorID *uuid.UUID `json:"collector_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RecordInput carries the fields for one metric point.
type RecordInput struct {
	MetricType  string
	Value       float64
	Date        time.Time
	Area        *string
	CollectorID *uuid.UUID
}

// Overview is the admin dashboard summary.
type Overview struct {
	ResidentsTotal      int64 `json:"residents_total"`
	CollectorsTotal     int64 `json:"collectors_total"`
	PickupsRequested    int64 `json:"pickups_requested"`
	PickupsScheduled    int64 `json:"pickups_scheduled"`
	PickupsCompleted    int64 `json:"pickups_completed"`
	PickupsMissed       int64 `json:"pickups_missed"`
	PickupsToday        int64 `json:"pickups_today"`
	ComplaintsOpen      int64 `json:"complaints_open"`
	SubscriptionsActive int64 `json:"subscriptions_active"`
}
