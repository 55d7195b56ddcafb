package pickup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const requestColumns = `id, user_id, collector_id, scheduled_date, status, notes, area, street, house_number, latitude, longitude, completed_at, created_at, updated_at`

// Repository provides access to the pickup_requests table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new request with status requested.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Request, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO pickup_requests (user_id, scheduled_date, status, notes, area, street, house_number, latitude, longitude)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+requestColumns,
		input.UserID,
		input.ScheduledDate,
		StatusRequested,
		input.Notes,
		strings.TrimSpace(input.Area),
		strings.TrimSpace(input.Street),
		strings.TrimSpace(input.HouseNumber),
		input.Latitude,
		input.Longitude,
	)
	return scanRequest(row)
}

// GetByID fetches one request.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM pickup_requests WHERE id = $1`, id)
	return scanRequest(row)
}

// List returns requests matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Request, error) {
	base := `SELECT ` + requestColumns + ` FROM pickup_requests`

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.UserID != nil {
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", idx))
		args = append(args, *filter.UserID)
		idx++
	}
	if filter.CollectorID != nil {
		clauses = append(clauses, fmt.Sprintf("collector_id = $%d", idx))
		args = append(args, *filter.CollectorID)
		idx++
	}
	if len(filter.Status) > 0 {
		normalized := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			normalized[i] = NormalizeStatus(status)
		}
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", idx))
		args = append(args, normalized)
		idx++
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []Request{}
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}

// UpdateStatus applies a partial update and bumps updated_at.
func (r *Repository) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*Request, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	setParts = append(setParts, fmt.Sprintf("status = $%d", idx))
	args = append(args, NormalizeStatus(input.Status))
	idx++

	if input.CollectorID != nil {
		setParts = append(setParts, fmt.Sprintf("collector_id = $%d", idx))
		args = append(args, *input.CollectorID)
		idx++
	}
	if input.Notes != nil {
		setParts = append(setParts, fmt.Sprintf("notes = $%d", idx))
		args = append(args, *input.Notes)
		idx++
	}
	if input.CompletedAt != nil {
		setParts = append(setParts, fmt.Sprintf("completed_at = $%d", idx))
		args = append(args, *input.CompletedAt)
		idx++
	}

	setParts = append(setParts, "updated_at = now()")
	args = append(args, input.ID)

	query := fmt.Sprintf(`
        UPDATE pickup_requests
        SET %s
        WHERE id = $%d
        RETURNING `+requestColumns, strings.Join(setParts, ", "), idx)

	row := r.pool.QueryRow(ctx, query, args...)
	return scanRequest(row)
}

func scanRequest(row pgx.Row) (*Request, error) {
	var request Request
	err := row.Scan(
		&request.ID, &request.UserID, &request.CollectorID, &request.ScheduledDate,
		&request.Status, &request.Notes, &request.Area, &request.Street,
		&request.HouseNumber, &request.Latitude, &request.Longitude,
		&request.CompletedAt, &request.CreatedAt, &request.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}
