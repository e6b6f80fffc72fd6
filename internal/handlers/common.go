package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/NITsush45/enter-bank/internal/models"
	"github.com/NITsush45/enter-bank/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// sendServiceError maps the domain failure taxonomy onto HTTP statuses.
// Infrastructure errors are logged and surfaced as an opaque 500 so storage
// details never leak to clients.
func sendServiceError(w http.ResponseWriter, err error) {
	if !models.IsDomainError(err) {
		log.Printf("[HTTP] internal error: %v", err)
		services.SendErrorResponse(w, "Unable to process the request right now", http.StatusInternalServerError, nil)
		return
	}
	services.SendErrorResponse(w, err.Error(), statusForError(err), nil)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrAccountNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrBillerNotFound),
		errors.Is(err, models.ErrScheduleNotFound),
		errors.Is(err, models.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrAmbiguousDestination),
		errors.Is(err, models.ErrMissingDestination),
		errors.Is(err, models.ErrMissingBillerRef):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrScheduleNotActive),
		errors.Is(err, models.ErrScheduleNotPaused),
		errors.Is(err, models.ErrScheduleTerminal),
		errors.Is(err, models.ErrGiftAlreadyClaimed):
		return http.StatusConflict
	default:
		// Business rule rejections: insufficient funds, inactive parties,
		// same-account transfer.
		return http.StatusUnprocessableEntity
	}
}

// decodeJSON enforces the shared request body discipline: bounded size, no
// unknown fields, exactly one JSON object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if dec.More() {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}
