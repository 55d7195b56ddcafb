package http

import (
	"errors"
	"net/http"

	"github.com/cleanloop/platform/internal/notify"
)

// ListNotifications returns the caller's inbox, newest first.
// ?unread=true filters to unread only.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	items, err := h.notifications.ListByUser(r.Context(), subject, queryLimit(r, 50), unreadOnly)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "notification listing failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, items)
}

// UnreadCount returns the badge count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), subject)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "unread count failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

// MarkNotificationRead marks one notification read. Only the owner can flip it.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), subject, id); err != nil {
		if errors.Is(err, notify.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "notification not found", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "mark read failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// MarkAllNotificationsRead flips every unread notification.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), subject)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "mark all read failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

// StreamNotifications serves the caller's live notification stream over SSE.
func (h *Handler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	h.streamer.ServeUser(w, r, subject)
}
