package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const complaintColumns = `id, user_id, pickup_id, description, photo_url, status, priority, admin_notes, resolved_at, created_at, updated_at`

// Repository provides access to the complaints table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new complaint.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Complaint, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO complaints (user_id, pickup_id, description, photo_url, status, priority)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+complaintColumns,
		input.UserID,
		input.PickupID,
		strings.TrimSpace(input.Description),
		input.PhotoURL,
		StatusOpen,
		NormalizePriority(input.Priority),
	)
	return scanComplaint(row)
}

// GetByID fetches one complaint.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id)
	return scanComplaint(row)
}

// List returns complaints matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Complaint, error) {
	base := `SELECT ` + complaintColumns + ` FROM complaints`

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
	if len(filter.Status) > 0 {
		normalized := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			normalized[i] = strings.ToLower(strings.TrimSpace(status))
		}
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", idx))
		args = append(args, normalized)
		idx++
	}
	if filter.Priority != nil {
		clauses = append(clauses, fmt.Sprintf("priority = $%d", idx))
		args = append(args, strings.ToLower(strings.TrimSpace(*filter.Priority)))
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

	complaints := []Complaint{}
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *complaint)
	}
	return complaints, rows.Err()
}

// Update applies the admin-side partial update.
func (r *Repository) Update(ctx context.Context, input UpdateInput) (*Complaint, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	if input.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", idx))
		args = append(args, strings.ToLower(strings.TrimSpace(*input.Status)))
		idx++
	}
	if input.Priority != nil {
		setParts = append(setParts, fmt.Sprintf("priority = $%d", idx))
		args = append(args, strings.ToLower(strings.TrimSpace(*input.Priority)))
		idx++
	}
	if input.AdminNotes != nil {
		setParts = append(setParts, fmt.Sprintf("admin_notes = $%d", idx))
		args = append(args, strings.TrimSpace(*input.AdminNotes))
		idx++
	}
	if input.ResolvedAt != nil {
		setParts = append(setParts, fmt.Sprintf("resolved_at = $%d", idx))
		args = append(args, *input.ResolvedAt)
		idx++
	} else if input.Status != nil {
		// reopening clears resolved_at
		setParts = append(setParts, "resolved_at = NULL")
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, input.ID)
	}

	setParts = append(setParts, "updated_at = now()")
	args = append(args, input.ID)

	query := fmt.Sprintf(`
        UPDATE complaints
        SET %s
        WHERE id = $%d
        RETURNING `+complaintColumns, strings.Join(setParts, ", "), idx)

	row := r.pool.QueryRow(ctx, query, args...)
	return scanComplaint(row)
}

func scanComplaint(row pgx.Row) (*Complaint, error) {
	var complaint Complaint
	err := row.Scan(
		&complaint.ID, &complaint.UserID, &complaint.PickupID, &complaint.Description,
		&complaint.PhotoURL, &complaint.Status, &complaint.Priority, &complaint.AdminNotes,
		&complaint.ResolvedAt, &complaint.CreatedAt, &complaint.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}
