package repo

import (
	"time"

	"github.com/google/uuid"
)

// User is an account of any role: resident, collector or admin.
type User struct {
	ID           uuid.UUID
	Role         string
	Name         string
	Email        string
	Phone        *string
	PasswordHash string
	Area         string
	Street       string
	HouseNumber  string
	Latitude     *float64
	Longitude    *float64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// RefreshToken models the refresh_tokens table.
type RefreshToken struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// InsertRefreshTokenParams carries the fields persisted for a new refresh token.
type InsertRefreshTokenParams struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CreateUserParams carries the fields persisted at registration.
type CreateUserParams struct {
	Role         string
	Name         string
	Email        string
	Phone        *string
	PasswordHash string
	Area         string
	Street       string
	HouseNumber  string
	Latitude     *float64
	Longitude    *float64
}

// UpdateUserParams holds the mutable profile fields.
type UpdateUserParams struct {
	ID          uuid.UUID
	Name        string
	Phone       *string
	Area        string
	Street      string
	HouseNumber string
	Latitude    *float64
	Longitude   *float64
}
