package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `id, user_id, amount, currency, payment_method, reference, status, created_at`

// Repository provides access to the payments table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create appends a payment record.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Payment, error) {
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "" {
		status = StatusCompleted
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO payments (user_id, amount, currency, payment_method, reference, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+paymentColumns,
		input.UserID,
		input.Amount,
		strings.ToUpper(strings.TrimSpace(input.Currency)),
		strings.ToLower(strings.TrimSpace(input.Method)),
		strings.TrimSpace(input.Reference),
		status,
	)
	return scanPayment(row)
}

// ListByUser returns the user's payments, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Payment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
        SELECT `+paymentColumns+`
        FROM payments
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Currency, &p.Method, &p.Reference, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
