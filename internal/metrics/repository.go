package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides access to the system_metrics table and the overview
// aggregates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts one metric point.
func (r *Repository) Record(ctx context.Context, input RecordInput) (*SystemMetric, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO system_metrics (metric_type, value, date, area, collector_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, metric_type, value, date, area, collector_id, created_at`,
		strings.ToLower(strings.TrimSpace(input.MetricType)),
		input.Value,
		input.Date,
		input.Area,
		input.CollectorID,
	)

	var m SystemMetric
	if err := row.Scan(&m.ID, &m.MetricType, &m.Value, &m.Date, &m.Area, &m.CollectorID, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByType returns metric points of one type since a cutoff, oldest first.
func (r *Repository) ListByType(ctx context.Context, metricType string, since time.Time) ([]SystemMetric, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, metric_type, value, date, area, collector_id, created_at
        FROM system_metrics
        WHERE metric_type = $1 AND date >= $2
        ORDER BY date ASC`,
		strings.ToLower(strings.TrimSpace(metricType)), since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []SystemMetric{}
	for rows.Next() {
		var m SystemMetric
		if err := rows.Scan(&m.ID, &m.MetricType, &m.Value, &m.Date, &m.Area, &m.CollectorID, &m.CreatedAt); err != nil {
			return nil, err
		}
		points = append(points, m)
	}
	return points, rows.Err()
}

// Overview aggregates the dashboard counters in one round trip per table.
func (r *Repository) Overview(ctx context.Context) (*Overview, error) {
	var o Overview

	err := r.pool.QueryRow(ctx, `
        SELECT
            count(*) FILTER (WHERE role = 'resident'),
            count(*) FILTER (WHERE role = 'collector')
        FROM users WHERE active`).Scan(&o.ResidentsTotal, &o.CollectorsTotal)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
        SELECT
            count(*) FILTER (WHERE status = 'requested'),
            count(*) FILTER (WHERE status = 'scheduled'),
            count(*) FILTER (WHERE status = 'picked_up'),
            count(*) FILTER (WHERE status = 'missed'),
            count(*) FILTER (WHERE scheduled_date::date = current_date)
        FROM pickup_requests`).Scan(
		&o.PickupsRequested, &o.PickupsScheduled, &o.PickupsCompleted,
		&o.PickupsMissed, &o.PickupsToday)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT count(*) FROM complaints WHERE status IN ('open', 'in_progress')`).Scan(&o.ComplaintsOpen)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT count(*) FROM subscriptions WHERE status = 'active'`).Scan(&o.SubscriptionsActive)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	return &o, nil
}
