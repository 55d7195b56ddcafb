package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cleanloop/platform/internal/auth"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyRole    contextKey = "role"
)

// Auth validates the access JWT and injects subject and role into the context.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "missing token", nil)
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid token", nil)
				return
			}

			role, ok := auth.ParseRole(claims.Role)
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "invalid role", nil)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyRole, role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject returns the authenticated subject from the context.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetRole returns the authenticated role from the context.
func GetRole(ctx context.Context) auth.Role {
	val, _ := ctx.Value(ContextKeyRole).(auth.Role)
	return val
}

// RequireCapability gates a route on the caller's role policy. Denials carry
// the caller's home route so clients can redirect instead of guessing.
func RequireCapability(cap auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())
			policy := auth.PolicyFor(role)
			if !policy.Can(cap) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "access denied for role",
					map[string]any{"home_route": policy.HomeRoute})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route group on an exact role.
func RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := GetRole(r.Context())
			if got != role {
				policy := auth.PolicyFor(got)
				writeError(w, http.StatusForbidden, "FORBIDDEN", "access denied for role",
					map[string]any{"home_route": policy.HomeRoute})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":  nil,
		"error": body,
	})
}
