package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, role, name, email, phone, password_hash, area, street, house_number, latitude, longitude, active, created_at, updated_at`

// Queries provides access to the users and refresh_tokens tables.
type Queries struct {
	pool *pgxpool.Pool
}

// New creates the query set over a pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// CreateUser inserts a new account.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.pool.QueryRow(ctx, `
        INSERT INTO users (role, name, email, phone, password_hash, area, street, house_number, latitude, longitude)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING `+userColumns,
		strings.ToLower(arg.Role),
		strings.TrimSpace(arg.Name),
		strings.ToLower(strings.TrimSpace(arg.Email)),
		arg.Phone,
		arg.PasswordHash,
		strings.TrimSpace(arg.Area),
		strings.TrimSpace(arg.Street),
		strings.TrimSpace(arg.HouseNumber),
		arg.Latitude,
		arg.Longitude,
	)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateEmail
		}
		return User{}, err
	}
	return user, nil
}

// GetUserByEmail looks an account up by normalized e-mail.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	return scanUser(row)
}

// GetUserByID looks an account up by id.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// ListUsers returns accounts, optionally filtered by role.
func (q *Queries) ListUsers(ctx context.Context, role string, limit int) ([]User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if role = strings.ToLower(strings.TrimSpace(role)); role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := q.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser mutates profile fields and bumps updated_at.
func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.pool.QueryRow(ctx, `
        UPDATE users
        SET name = $2, phone = $3, area = $4, street = $5, house_number = $6,
            latitude = $7, longitude = $8, updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns,
		arg.ID,
		strings.TrimSpace(arg.Name),
		arg.Phone,
		strings.TrimSpace(arg.Area),
		strings.TrimSpace(arg.Street),
		strings.TrimSpace(arg.HouseNumber),
		arg.Latitude,
		arg.Longitude,
	)
	return scanUser(row)
}

// UpdateUserPassword replaces the stored hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id uuid.UUID, hash string) error {
	cmd, err := q.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserActive toggles the active flag. Accounts are never hard-deleted.
func (q *Queries) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	cmd, err := q.pool.Exec(ctx,
		`UPDATE users SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertRefreshToken persists a new refresh token record.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (RefreshToken, error) {
	row := q.pool.QueryRow(ctx, `
        INSERT INTO refresh_tokens (id, subject, token_hash, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, subject, token_hash, expires_at, created_at, revoked`,
		arg.ID, arg.Subject, arg.TokenHash, arg.ExpiresAt, arg.CreatedAt,
	)

	var token RefreshToken
	err := row.Scan(&token.ID, &token.Subject, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt, &token.Revoked)
	return token, err
}

// GetRefreshTokenByHash fetches a refresh token by its hash.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	row := q.pool.QueryRow(ctx, `
        SELECT id, subject, token_hash, expires_at, created_at, revoked
        FROM refresh_tokens WHERE token_hash = $1`, tokenHash)

	var token RefreshToken
	err := row.Scan(&token.ID, &token.Subject, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt, &token.Revoked)
	if errors.Is(err, pgx.ErrNoRows) {
		return RefreshToken{}, ErrNotFound
	}
	return token, err
}

// RevokeRefreshToken marks a token revoked.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	cmd, err := q.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InvalidateOtherRefreshTokens revokes every token of the subject except keepHash.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error {
	_, err := q.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE subject = $1 AND token_hash <> $2`,
		subject, keepHash)
	return err
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Role, &user.Name, &user.Email, &user.Phone,
		&user.PasswordHash, &user.Area, &user.Street, &user.HouseNumber,
		&user.Latitude, &user.Longitude, &user.Active, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}
