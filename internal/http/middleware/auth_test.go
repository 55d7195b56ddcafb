package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/auth"
)

func testJWT(t *testing.T) *auth.JWTManager {
	t.Helper()
	return auth.NewJWTManager(strings.Repeat("a", 32), time.Minute)
}

func bearerRequest(t *testing.T, jwtMgr *auth.JWTManager, role string) *http.Request {
	t.Helper()
	token, _, err := jwtMgr.GenerateAccessToken(uuid.NewString(), role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT(t))(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	handler := Auth(testJWT(t))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleDeniesWithHomeRoute(t *testing.T) {
	jwtMgr := testJWT(t)
	handler := Auth(jwtMgr)(RequireRole(auth.RoleAdmin)(okHandler()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bearerRequest(t, jwtMgr, "resident"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				HomeRoute string `json:"home_route"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %s", body.Error.Code)
	}
	if body.Error.Details.HomeRoute != "/resident/dashboard" {
		t.Fatalf("expected the caller's home route, got %q", body.Error.Details.HomeRoute)
	}
}

func TestRequireRoleAllowsMatch(t *testing.T) {
	jwtMgr := testJWT(t)
	handler := Auth(jwtMgr)(RequireRole(auth.RoleAdmin)(okHandler()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bearerRequest(t, jwtMgr, "admin"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireCapability(t *testing.T) {
	jwtMgr := testJWT(t)

	cases := []struct {
		role string
		cap  auth.Capability
		want int
	}{
		{"resident", auth.CapRequestPickup, http.StatusOK},
		{"resident", auth.CapAssignPickup, http.StatusForbidden},
		{"collector", auth.CapUpdatePickup, http.StatusOK},
		{"collector", auth.CapManageUsers, http.StatusForbidden},
		{"admin", auth.CapViewMetrics, http.StatusOK},
	}

	for _, tc := range cases {
		handler := Auth(jwtMgr)(RequireCapability(tc.cap)(okHandler()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, bearerRequest(t, jwtMgr, tc.role))
		if rec.Code != tc.want {
			t.Fatalf("%s/%s: expected %d, got %d", tc.role, tc.cap, tc.want, rec.Code)
		}
	}
}
