package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cleanloop/platform/internal/auth"
	"github.com/cleanloop/platform/internal/repo"
)

type stubAuthRepo struct {
	users         map[uuid.UUID]repo.User
	tokens        map[string]repo.RefreshToken
	passwordByID  map[uuid.UUID]string
	revokedHashes []string
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{
		users:        make(map[uuid.UUID]repo.User),
		tokens:       make(map[string]repo.RefreshToken),
		passwordByID: make(map[uuid.UUID]string),
	}
}

func (s *stubAuthRepo) addUser(user repo.User) {
	s.users[user.ID] = user
}

func (s *stubAuthRepo) CreateUser(ctx context.Context, arg repo.CreateUserParams) (repo.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, arg.Email) {
			return repo.User{}, repo.ErrDuplicateEmail
		}
	}
	user := repo.User{
		ID:           uuid.New(),
		Role:         arg.Role,
		Name:         arg.Name,
		Email:        strings.ToLower(arg.Email),
		Phone:        arg.Phone,
		PasswordHash: arg.PasswordHash,
		Area:         arg.Area,
		Street:       arg.Street,
		HouseNumber:  arg.HouseNumber,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *stubAuthRepo) GetUserByEmail(ctx context.Context, email string) (repo.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return repo.User{}, repo.ErrNotFound
}

func (s *stubAuthRepo) GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error) {
	u, ok := s.users[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubAuthRepo) UpdateUserPassword(ctx context.Context, id uuid.UUID, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	s.passwordByID[id] = hash
	return nil
}

func (s *stubAuthRepo) InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.RefreshToken, error) {
	token := repo.RefreshToken{
		ID:        arg.ID,
		Subject:   arg.Subject,
		TokenHash: arg.TokenHash,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: arg.CreatedAt,
	}
	s.tokens[arg.TokenHash] = token
	return token, nil
}

func (s *stubAuthRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.RefreshToken, error) {
	token, ok := s.tokens[tokenHash]
	if !ok {
		return repo.RefreshToken{}, repo.ErrNotFound
	}
	return token, nil
}

func (s *stubAuthRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	token, ok := s.tokens[tokenHash]
	if !ok {
		return repo.ErrNotFound
	}
	token.Revoked = true
	s.tokens[tokenHash] = token
	s.revokedHashes = append(s.revokedHashes, tokenHash)
	return nil
}

func (s *stubAuthRepo) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error {
	for hash, token := range s.tokens {
		if token.Subject == subject && hash != keepHash {
			token.Revoked = true
			s.tokens[hash] = token
		}
	}
	return nil
}

type stubRedis struct {
	store map[string]string
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if s.store == nil {
		s.store = make(map[string]string)
	}
	s.store[key] = fmt.Sprint(value)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func newTestAuthService(repoStub *stubAuthRepo, redisStub *stubRedis) *AuthService {
	jwtMgr := auth.NewJWTManager(strings.Repeat("a", 32), time.Minute)
	return NewAuthService(repoStub, redisStub, jwtMgr, time.Hour, 30*time.Minute)
}

func TestRegisterAndLogin(t *testing.T) {
	repoStub := newStubAuthRepo()
	redisStub := &stubRedis{}
	svc := newTestAuthService(repoStub, redisStub)

	result, err := svc.Register(context.Background(), RegisterInput{
		Role:        "resident",
		Name:        "Ana Silva",
		Email:       "Ana@Example.com",
		Password:    "StrongPass1",
		Area:        "north",
		Street:      "Main St",
		HouseNumber: "12",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Role != auth.RoleResident {
		t.Fatalf("expected resident, got %s", result.Role)
	}
	if result.HomeRoute != "/resident/dashboard" {
		t.Fatalf("unexpected home route %q", result.HomeRoute)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	// Login with a differently cased address still works.
	login, err := svc.Login(context.Background(), "ANA@example.com", "StrongPass1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Subject != result.Subject {
		t.Fatal("login must resolve the same account")
	}
}

func TestRegisterRejectsAdmin(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), &stubRedis{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Role:     "admin",
		Name:     "Root",
		Email:    "root@example.com",
		Password: "StrongPass1",
	})
	if err != ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repoStub := newStubAuthRepo()
	svc := newTestAuthService(repoStub, &stubRedis{})

	if _, err := svc.Register(context.Background(), RegisterInput{
		Role: "resident", Name: "Ana", Email: "ana@example.com", Password: "StrongPass1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "ana@example.com", "wrong-password"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	repoStub := newStubAuthRepo()
	svc := newTestAuthService(repoStub, &stubRedis{})

	hash, err := auth.Hash("StrongPass1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repoStub.addUser(repo.User{
		ID:           uuid.New(),
		Role:         "resident",
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: hash,
		Active:       false,
	})

	if _, err := svc.Login(context.Background(), "ana@example.com", "StrongPass1"); err != ErrAccountDisabled {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	repoStub := newStubAuthRepo()
	redisStub := &stubRedis{}
	svc := newTestAuthService(repoStub, redisStub)

	login, err := svc.Register(context.Background(), RegisterInput{
		Role: "collector", Name: "Bruno", Email: "bruno@example.com", Password: "StrongPass1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	// The old token is revoked in both stores.
	oldHash := auth.HashRefreshToken(login.RefreshToken)
	if token := repoStub.tokens[oldHash]; !token.Revoked {
		t.Fatal("old refresh token must be revoked")
	}
	if _, ok := redisStub.store[auth.RefreshRedisKey(oldHash)]; ok {
		t.Fatal("old refresh key must be removed from redis")
	}

	if _, err := svc.Refresh(context.Background(), login.RefreshToken); err != ErrRefreshInvalid {
		t.Fatalf("reusing a rotated token must fail, got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	repoStub := newStubAuthRepo()
	redisStub := &stubRedis{}
	svc := newTestAuthService(repoStub, redisStub)

	login, err := svc.Register(context.Background(), RegisterInput{
		Role: "resident", Name: "Ana", Email: "ana@example.com", Password: "StrongPass1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Logout(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); err != ErrRefreshInvalid {
		t.Fatalf("expected ErrRefreshInvalid after logout, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	repoStub := newStubAuthRepo()
	redisStub := &stubRedis{}
	svc := newTestAuthService(repoStub, redisStub)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Role: "resident", Name: "Ana", Email: "ana@example.com", Password: "OldPassword1",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := svc.RequestPasswordReset(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token for an existing account")
	}

	if err := svc.ConfirmPasswordReset(context.Background(), token, "NewPassword1"); err != nil {
		t.Fatalf("confirm reset: %v", err)
	}

	if _, err := svc.Login(context.Background(), "ana@example.com", "NewPassword1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana@example.com", "OldPassword1"); err != ErrInvalidCredentials {
		t.Fatalf("old password must stop working, got %v", err)
	}

	// Tokens are single use.
	if err := svc.ConfirmPasswordReset(context.Background(), token, "AnotherPass1"); err != ErrResetInvalid {
		t.Fatalf("expected ErrResetInvalid on reuse, got %v", err)
	}
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), &stubRedis{})

	token, err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if token != "" {
		t.Fatal("unknown addresses must not produce a token")
	}
}
