package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleanloop/platform/internal/complaint"
	"github.com/cleanloop/platform/internal/repo"
	"github.com/cleanloop/platform/internal/storage"
)

// maxPhotoSize caps complaint photo uploads at 5 MiB.
const maxPhotoSize = 5 << 20

type createComplaintRequest struct {
	PickupID    string  `json:"pickup_id"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	PhotoURL    *string `json:"photo_url"`
}

// CreateComplaint files a complaint against one of the caller's pickups.
// Accepts JSON, or multipart/form-data when a photo is attached.
func (h *Handler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	var req createComplaintRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		photoURL, perr := h.parseComplaintForm(r, &req)
		if perr != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", perr.Error(), nil)
			return
		}
		req.PhotoURL = photoURL
	} else if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	pickupID, err := uuidParse(req.PickupID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid pickup_id", nil)
		return
	}

	// The complaint must target one of the caller's own pickups.
	request, err := h.pickups.GetByID(r.Context(), pickupID)
	if err != nil || request.UserID != subject {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "pickup not found", nil)
		return
	}

	created, err := h.complaints.Create(r.Context(), complaint.CreateInput{
		UserID:      subject,
		PickupID:    pickupID,
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
		Priority:    req.Priority,
	})
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, created)
}

// parseComplaintForm extracts the complaint fields and uploads the attached
// photo, returning its public URL.
func (h *Handler) parseComplaintForm(r *http.Request, req *createComplaintRequest) (*string, error) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		return nil, errors.New("invalid multipart payload")
	}

	req.PickupID = r.FormValue("pickup_id")
	req.Description = r.FormValue("description")
	req.Priority = r.FormValue("priority")

	file, header, err := r.FormFile("photo")
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("invalid photo upload")
	}
	defer file.Close()

	if header.Size > maxPhotoSize {
		return nil, errors.New("photo too large")
	}

	body, err := io.ReadAll(io.LimitReader(file, maxPhotoSize))
	if err != nil {
		return nil, errors.New("photo read failed")
	}

	ext := strings.ToLower(path.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return nil, errors.New("unsupported photo format")
	}

	key := fmt.Sprintf("complaints/%d/%s%s", time.Now().UTC().Year(), uuid.NewString(), ext)
	result, err := h.storage.Upload(r.Context(), storage.UploadInput{
		Key:         key,
		Body:        body,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		return nil, errors.New("photo upload failed")
	}

	return &result.URL, nil
}

// ListMyComplaints lists the caller's complaints, newest first.
func (h *Handler) ListMyComplaints(w http.ResponseWriter, r *http.Request) {
	subject, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	complaints, err := h.complaints.ListByUser(r.Context(), subject, queryLimit(r, 50))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "complaint listing failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, complaints)
}

// GetMyComplaint returns one of the caller's complaints.
func (h *Handler) GetMyComplaint(w http.ResponseWriter, r *http.Request) {
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

	c, err := h.complaints.GetByID(r.Context(), id)
	if err != nil || c.UserID != subject {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "complaint not found", nil)
		return
	}

	WriteJSON(w, http.StatusOK, c)
}

// AdminListComplaints lists complaints with optional status/priority filters.
func (h *Handler) AdminListComplaints(w http.ResponseWriter, r *http.Request) {
	filter := complaint.Filter{Limit: queryLimit(r, 100)}
	if statuses, ok := r.URL.Query()["status"]; ok {
		filter.Status = statuses
	}
	if priority := r.URL.Query().Get("priority"); priority != "" {
		filter.Priority = &priority
	}

	complaints, err := h.complaints.List(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "complaint listing failed", nil)
		return
	}

	WriteJSON(w, http.StatusOK, complaints)
}

type adminUpdateComplaintRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

// AdminUpdateComplaint applies an admin transition.
func (h *Handler) AdminUpdateComplaint(w http.ResponseWriter, r *http.Request) {
	adminID, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "invalid subject", nil)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid id", nil)
		return
	}

	var req adminUpdateComplaintRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", nil)
		return
	}

	updated, err := h.complaints.UpdateStatus(r.Context(), id, adminID, req.Status, req.AdminNotes)
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleComplaintError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, complaint.ErrNotFound), errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "complaint not found", nil)
	case errors.Is(err, complaint.ErrShortDescription):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "description must be at least 10 characters", nil)
	case errors.Is(err, complaint.ErrInvalidStatus):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid status", nil)
	case errors.Is(err, complaint.ErrInvalidPriority):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid priority", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "complaint operation failed", nil)
	}
}
