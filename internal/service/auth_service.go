package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cleanloop/platform/internal/auth"
	"github.com/cleanloop/platform/internal/repo"
	"github.com/cleanloop/platform/internal/util"
)

var (
	// ErrInvalidCredentials signals a failed authentication.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled signals a deactivated account.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrRefreshInvalid signals an invalid or expired refresh token.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrInvalidRole signals a role outside resident/collector/admin.
	ErrInvalidRole = errors.New("invalid role")
	// ErrResetInvalid signals an unknown or expired password-reset token.
	ErrResetInvalid = errors.New("invalid reset token")
)

type authRepository interface {
	CreateUser(ctx context.Context, arg repo.CreateUserParams) (repo.User, error)
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
	UpdateUserPassword(ctx context.Context, id uuid.UUID, hash string) error
	InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.RefreshToken, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentrates authentication and session rules.
type AuthService struct {
	repo       authRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewAuthService creates the service.
func NewAuthService(r authRepository, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL, resetTTL time.Duration) *AuthService {
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL, resetTTL: resetTTL}
}

// JWT exposes the token manager (used by middleware).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult is the standard payload for authentications.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	Subject       uuid.UUID
	Role          auth.Role
	HomeRoute     string
	Profile       *Profile
	RefreshExpiry time.Time
}

// Profile is the user's own view of their account.
type Profile struct {
	ID          string   `json:"id"`
	Role        string   `json:"role"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       *string  `json:"phone,omitempty"`
	Area        string   `json:"area"`
	Street      string   `json:"street"`
	HouseNumber string   `json:"house_number"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// RegisterInput carries a self-service registration.
type RegisterInput struct {
	Role        string
	Name        string
	Email       string
	Phone       *string
	Password    string
	Area        string
	Street      string
	HouseNumber string
	Latitude    *float64
	Longitude   *float64
}

// Register creates a resident or collector account and logs it in. Admin
// accounts are seeded operationally, never self-registered.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	role, ok := auth.ParseRole(input.Role)
	if !ok || role == auth.RoleAdmin {
		return nil, ErrInvalidRole
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	if err := util.RequireString(input.Name, "name"); err != nil {
		return nil, err
	}

	hash, err := auth.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, repo.CreateUserParams{
		Role:         string(role),
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
		Area:         input.Area,
		Street:       input.Street,
		HouseNumber:  input.HouseNumber,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Login authenticates by e-mail and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: user not found")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, user.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Msg("login: wrong password")
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges a refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	record, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if record.Revoked || time.Now().UTC().After(record.ExpiresAt) {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.RefreshRedisKey(hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.GetUserByID(ctx, record.Subject)
	if err != nil {
		return nil, err
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	// Revoke the old token (DB + Redis).
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout revokes the current refresh token.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if err := s.redis.Del(ctx, auth.RefreshRedisKey(hash)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// GetMe returns the caller's profile and role policy.
func (s *AuthService) GetMe(ctx context.Context, subject uuid.UUID) (*Profile, auth.RolePolicy, error) {
	user, err := s.repo.GetUserByID(ctx, subject)
	if err != nil {
		return nil, auth.RolePolicy{}, err
	}

	role, _ := auth.ParseRole(user.Role)
	return profileFromUser(user), auth.PolicyFor(role), nil
}

// RequestPasswordReset stores a short-lived reset token in Redis. The raw
// token goes out through the mail channel, never the API response.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Do not reveal whether the address exists.
			return "", nil
		}
		return "", err
	}

	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return "", err
	}

	if err := s.redis.Set(ctx, auth.ResetRedisKey(hash), user.ID.String(), s.resetTTL).Err(); err != nil {
		return "", err
	}

	return raw, nil
}

// ConfirmPasswordReset consumes a reset token and replaces the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, rawToken, newPassword string) error {
	if err := util.ValidatePassword(newPassword); err != nil {
		return err
	}

	key := auth.ResetRedisKey(auth.HashRefreshToken(rawToken))
	idStr, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrResetInvalid
	}
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(idStr)
	if err != nil {
		return ErrResetInvalid
	}

	hash, err := auth.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}

	// One-shot token.
	if err := s.redis.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user repo.User) (*LoginResult, error) {
	if !user.Active {
		return nil, ErrAccountDisabled
	}

	role, ok := auth.ParseRole(user.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	token, _, err := s.jwt.GenerateAccessToken(user.ID.String(), string(role))
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := util.Now().Add(s.refreshTTL)
	if err := s.persistRefresh(ctx, user.ID, refreshHash, expires); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		Subject:       user.ID,
		Role:          role,
		HomeRoute:     auth.PolicyFor(role).HomeRoute,
		Profile:       profileFromUser(user),
		RefreshExpiry: expires,
	}, nil
}

func (s *AuthService) persistRefresh(ctx context.Context, subject uuid.UUID, hash string, expires time.Time) error {
	_, err := s.repo.InsertRefreshToken(ctx, repo.InsertRefreshTokenParams{
		ID:        uuid.New(),
		Subject:   subject,
		TokenHash: hash,
		ExpiresAt: expires,
		CreatedAt: util.Now(),
	})
	if err != nil {
		return err
	}

	if err := s.repo.InvalidateOtherRefreshTokens(ctx, subject, hash); err != nil {
		return err
	}

	return s.redis.Set(ctx, auth.RefreshRedisKey(hash), "active", time.Until(expires)).Err()
}

func profileFromUser(user repo.User) *Profile {
	return &Profile{
		ID:          user.ID.String(),
		Role:        user.Role,
		Name:        user.Name,
		Email:       user.Email,
		Phone:       user.Phone,
		Area:        user.Area,
		Street:      user.Street,
		HouseNumber: user.HouseNumber,
		Latitude:    user.Latitude,
		Longitude:   user.Longitude,
	}
}
