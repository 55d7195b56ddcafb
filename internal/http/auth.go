package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cleanloop/platform/internal/repo"
	"github.com/cleanloop/platform/internal/service"
)

type registerRequest struct {
	Role        string   `json:"role"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       *string  `json:"phone"`
	Password    string   `json:"password"`
	Area        string   `json:"area"`
	Street      string   `json:"street"`
	HouseNumber string   `json:"house_number"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// Register creates a resident or collector account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Role:        req.Role,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		Area:        req.Area,
		Street:      req.Street,
		HouseNumber: req.HouseNumber,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			WriteError(w, http.StatusConflict, "DUPLICATE", "email already registered", nil)
			return
		}
		if errors.Is(err, service.ErrInvalidRole) {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "role must be resident or collector", nil)
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	h.writeLoginSuccess(w, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates by e-mail and password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.writeLoginSuccess(w, http.StatusOK, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the refresh token and issues a new access token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.writeLoginSuccess(w, http.StatusOK, result)
}

// Logout revokes the presented refresh token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "logout failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest issues a reset token. The response is identical whether
// or not the address exists.
func (h *Handler) PasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	token, err := h.authService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "reset request failed", nil)
		return
	}

	if token != "" {
		// Delivery goes through the mail worker; here we only log the event.
		log.Info().Msg("password reset token issued")
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type passwordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordResetConfirm consumes a reset token and replaces the password.
func (h *Handler) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirm
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	if err := h.authService.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrResetInvalid) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "invalid or expired reset token", nil)
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "password_updated"})
}

// Me returns the caller's profile and home route.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	profile, policy, err := h.authService.GetMe(r.Context(), subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "profile lookup failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"profile":    profile,
		"home_route": policy.HomeRoute,
	})
}

type updateMeRequest struct {
	Name        *string  `json:"name"`
	Phone       *string  `json:"phone"`
	Area        *string  `json:"area"`
	Street      *string  `json:"street"`
	HouseNumber *string  `json:"house_number"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// UpdateMe applies a partial profile update.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	var req updateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), subject, service.UpdateProfileInput{
		Name:        req.Name,
		Phone:       req.Phone,
		Area:        req.Area,
		Street:      req.Street,
		HouseNumber: req.HouseNumber,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

// MyActivity lists the caller's recent activity log entries.
func (h *Handler) MyActivity(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	entries, err := h.events.ListActivityByUser(r.Context(), subject, queryLimit(r, 50))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "activity lookup failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid credentials", nil)
	case errors.Is(err, service.ErrAccountDisabled):
		WriteError(w, http.StatusForbidden, "DISABLED", "account disabled", nil)
	case errors.Is(err, service.ErrRefreshInvalid):
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid refresh token", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "authentication failed", nil)
	}
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, status int, result *service.LoginResult) {
	WriteJSON(w, status, map[string]any{
		"access_token":       result.AccessToken,
		"refresh_token":      result.RefreshToken,
		"refresh_expires_at": result.RefreshExpiry.Format(time.RFC3339),
		"role":               result.Role,
		"home_route":         result.HomeRoute,
		"profile":            result.Profile,
	})
}
