package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/auth"
	"github.com/cleanloop/platform/internal/repo"
	"github.com/cleanloop/platform/internal/util"
)

type userRepository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
	ListUsers(ctx context.Context, role string, limit int) ([]repo.User, error)
	UpdateUser(ctx context.Context, arg repo.UpdateUserParams) (repo.User, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
}

// UserService covers profile maintenance and the admin user directory.
type UserService struct {
	repo userRepository
}

// NewUserService creates the service.
func NewUserService(r userRepository) *UserService {
	return &UserService{repo: r}
}

// UpdateProfileInput carries a partial profile change. Nil fields are kept.
type UpdateProfileInput struct {
	Name        *string
	Phone       *string
	Area        *string
	Street      *string
	HouseNumber *string
	Latitude    *float64
	Longitude   *float64
}

// UpdateProfile applies a partial update to the caller's own account.
// Omitted fields keep their current value.
func (s *UserService) UpdateProfile(ctx context.Context, subject uuid.UUID, input UpdateProfileInput) (*Profile, error) {
	current, err := s.repo.GetUserByID(ctx, subject)
	if err != nil {
		return nil, err
	}

	params := repo.UpdateUserParams{
		ID:          subject,
		Name:        current.Name,
		Phone:       current.Phone,
		Area:        current.Area,
		Street:      current.Street,
		HouseNumber: current.HouseNumber,
		Latitude:    current.Latitude,
		Longitude:   current.Longitude,
	}
	if input.Name != nil {
		if err := util.RequireString(*input.Name, "name"); err != nil {
			return nil, err
		}
		params.Name = *input.Name
	}
	if input.Phone != nil {
		params.Phone = input.Phone
	}
	if input.Area != nil {
		params.Area = *input.Area
	}
	if input.Street != nil {
		params.Street = *input.Street
	}
	if input.HouseNumber != nil {
		params.HouseNumber = *input.HouseNumber
	}
	if input.Latitude != nil {
		params.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		params.Longitude = input.Longitude
	}

	user, err := s.repo.UpdateUser(ctx, params)
	if err != nil {
		return nil, err
	}
	return profileFromUser(user), nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return profileFromUser(user), nil
}

// List returns users for the admin directory, optionally filtered by role.
func (s *UserService) List(ctx context.Context, role string, limit int) ([]Profile, error) {
	if role != "" {
		if _, ok := auth.ParseRole(role); !ok {
			return nil, ErrInvalidRole
		}
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	users, err := s.repo.ListUsers(ctx, role, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Profile, 0, len(users))
	for _, u := range users {
		out = append(out, *profileFromUser(u))
	}
	return out, nil
}

// SetActive enables or disables an account. Disabled accounts cannot log in
// and their refresh tokens stop working at the next rotation.
func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetUserActive(ctx, id, active)
}
