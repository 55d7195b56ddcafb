package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pickupEventColumns = `id, pickup_id, user_id, collector_id, kind, old_status, new_status, notes, area, created_at, dispatched`
const complaintEventColumns = `id, complaint_id, user_id, pickup_id, old_status, new_status, admin_id, admin_notes, created_at, dispatched`

// Repository provides access to the event and activity tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertPickupEvent appends a pickup status-update row inside tx.
func (r *Repository) InsertPickupEvent(ctx context.Context, tx pgx.Tx, input PickupTransitionInput) (*PickupStatusUpdate, error) {
	row := tx.QueryRow(ctx, `
        INSERT INTO pickup_status_updates (pickup_id, user_id, collector_id, kind, old_status, new_status, notes, area)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+pickupEventColumns,
		input.PickupID, input.UserID, input.CollectorID, input.Kind,
		input.OldStatus, input.NewStatus, input.Notes, input.Area,
	)
	return scanPickupEvent(row)
}

// InsertComplaintEvent appends a complaint-update row inside tx.
func (r *Repository) InsertComplaintEvent(ctx context.Context, tx pgx.Tx, input ComplaintTransitionInput) (*ComplaintUpdate, error) {
	row := tx.QueryRow(ctx, `
        INSERT INTO complaint_updates (complaint_id, user_id, pickup_id, old_status, new_status, admin_id, admin_notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+complaintEventColumns,
		input.ComplaintID, input.UserID, input.PickupID,
		input.OldStatus, input.NewStatus, input.AdminID, input.AdminNotes,
	)
	return scanComplaintEvent(row)
}

// InsertActivity appends an audit-trail entry inside tx.
func (r *Repository) InsertActivity(ctx context.Context, tx pgx.Tx, entry ActivityLogEntry) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO activity_log (user_id, action, entity_type, entity_id, old_data, new_data, metadata)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		nullableJSON(entry.OldData), nullableJSON(entry.NewData), nullableJSON(entry.Metadata),
	)
	return err
}

// PendingPickupEvents returns undispatched pickup events, oldest first.
func (r *Repository) PendingPickupEvents(ctx context.Context, limit int) ([]PickupStatusUpdate, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
        SELECT `+pickupEventColumns+`
        FROM pickup_status_updates
        WHERE dispatched = false
        ORDER BY created_at ASC
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates := []PickupStatusUpdate{}
	for rows.Next() {
		update, err := scanPickupEvent(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, *update)
	}
	return updates, rows.Err()
}

// PendingComplaintEvents returns undispatched complaint events, oldest first.
func (r *Repository) PendingComplaintEvents(ctx context.Context, limit int) ([]ComplaintUpdate, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
        SELECT `+complaintEventColumns+`
        FROM complaint_updates
        WHERE dispatched = false
        ORDER BY created_at ASC
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates := []ComplaintUpdate{}
	for rows.Next() {
		update, err := scanComplaintEvent(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, *update)
	}
	return updates, rows.Err()
}

// MarkPickupEventDispatched flips the outbox flag for one pickup event.
func (r *Repository) MarkPickupEventDispatched(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE pickup_status_updates SET dispatched = true WHERE id = $1`, id)
	return err
}

// MarkComplaintEventDispatched flips the outbox flag for one complaint event.
func (r *Repository) MarkComplaintEventDispatched(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE complaint_updates SET dispatched = true WHERE id = $1`, id)
	return err
}

// ListPickupEvents returns the transition history for one pickup.
func (r *Repository) ListPickupEvents(ctx context.Context, pickupID uuid.UUID) ([]PickupStatusUpdate, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+pickupEventColumns+`
        FROM pickup_status_updates
        WHERE pickup_id = $1
        ORDER BY created_at ASC`, pickupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates := []PickupStatusUpdate{}
	for rows.Next() {
		update, err := scanPickupEvent(rows)
		if err != nil {
			return nil, err
		}
		updates = append(updates, *update)
	}
	return updates, rows.Err()
}

// ListActivityByUser returns recent audit entries for a user.
func (r *Repository) ListActivityByUser(ctx context.Context, userID uuid.UUID, limit int) ([]ActivityLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
        SELECT id, user_id, action, entity_type, entity_id, old_data, new_data, metadata, created_at
        FROM activity_log
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []ActivityLogEntry{}
	for rows.Next() {
		var entry ActivityLogEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.EntityType,
			&entry.EntityID, &entry.OldData, &entry.NewData, &entry.Metadata, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanPickupEvent(row pgx.Row) (*PickupStatusUpdate, error) {
	var update PickupStatusUpdate
	err := row.Scan(&update.ID, &update.PickupID, &update.UserID, &update.CollectorID,
		&update.Kind, &update.OldStatus, &update.NewStatus, &update.Notes, &update.Area,
		&update.CreatedAt, &update.Dispatched)
	if err != nil {
		return nil, err
	}
	return &update, nil
}

func scanComplaintEvent(row pgx.Row) (*ComplaintUpdate, error) {
	var update ComplaintUpdate
	err := row.Scan(&update.ID, &update.ComplaintID, &update.UserID, &update.PickupID,
		&update.OldStatus, &update.NewStatus, &update.AdminID, &update.AdminNotes,
		&update.CreatedAt, &update.Dispatched)
	if err != nil {
		return nil, err
	}
	return &update, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
