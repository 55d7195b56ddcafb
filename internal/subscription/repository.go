package subscription

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriptionColumns = `id, user_id, plan_type, status, amount, currency, billing_cycle, start_date, created_at, updated_at`

// Repository provides access to the subscriptions table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an active subscription.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Subscription, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO subscriptions (user_id, plan_type, status, amount, currency, billing_cycle, start_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+subscriptionColumns,
		input.UserID,
		strings.ToLower(strings.TrimSpace(input.PlanType)),
		StatusActive,
		input.Amount,
		strings.ToUpper(strings.TrimSpace(input.Currency)),
		strings.ToLower(strings.TrimSpace(input.BillingCycle)),
		input.StartDate,
	)
	return scanSubscription(row)
}

// GetByID fetches one subscription.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	return scanSubscription(row)
}

// ListByUser returns the user's subscriptions, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Subscription, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
        SELECT `+subscriptionColumns+`
        FROM subscriptions
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscriptions := []Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, *sub)
	}
	return subscriptions, rows.Err()
}

// GetActiveByUser fetches the user's active subscription, if any.
func (r *Repository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT `+subscriptionColumns+`
        FROM subscriptions
        WHERE user_id = $1 AND status = $2
        ORDER BY created_at DESC
        LIMIT 1`, userID, StatusActive)
	return scanSubscription(row)
}

// UpdateStatus transitions a subscription.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Subscription, error) {
	row := r.pool.QueryRow(ctx, `
        UPDATE subscriptions
        SET status = $2, updated_at = now()
        WHERE id = $1
        RETURNING `+subscriptionColumns,
		id, strings.ToLower(strings.TrimSpace(status)))
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.PlanType, &sub.Status, &sub.Amount,
		&sub.Currency, &sub.BillingCycle, &sub.StartDate, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
