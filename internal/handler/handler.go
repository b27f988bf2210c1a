package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"forceview/internal/codec"
	"forceview/internal/domain"
	"forceview/internal/repository"
	"forceview/internal/service"
	"forceview/internal/view"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var validate = validator.New()

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// writeFailure maps err to a status and writes it. Server-side failures are
// logged.
func writeFailure(w http.ResponseWriter, action string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("Failed to %s: %v", action, err)
	}
	writeError(w, "Failed to "+action, err.Error(), status)
}

// statusFor maps sentinel errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrViewNotFound),
		errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, view.ErrUnknownGroup),
		errors.Is(err, domain.ErrUnresolvedLink),
		errors.Is(err, domain.ErrDuplicateNode),
		errors.Is(err, domain.ErrEmptyNodeID),
		errors.Is(err, service.ErrInvalidSnapshot),
		errors.Is(err, service.ErrInvalidRecord),
		errors.Is(err, repository.ErrUnstorableGroup),
		errors.Is(err, repository.ErrInvalidAuthorship),
		errors.Is(err, repository.ErrUnstorableURL):
		return http.StatusUnprocessableEntity
	case errors.Is(err, view.ErrNotDragging),
		errors.Is(err, view.ErrAlreadyDragging),
		errors.Is(err, view.ErrClosed),
		errors.Is(err, service.ErrReadOnlySource):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidPhase),
		errors.Is(err, codec.ErrUnknownFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeBodyError answers a request whose body could not be read or decoded.
// Bodies cut off by BodyLimit get 413.
func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, "Request body too large",
			fmt.Sprintf("limit is %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
}

// decodeRequest reads a JSON body into dst and validates its struct tags
func decodeRequest(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}
