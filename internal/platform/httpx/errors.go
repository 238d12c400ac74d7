// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/campushub/campushub/internal/shared"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		Problem(w, http.StatusBadRequest, "Validation Failed", fieldErrs.Error())
		return
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrInvalidTransition):
		Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, shared.ErrStorageConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized), errors.Is(err, shared.ErrUnauthenticated):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// RespondDeny renders an authorization deny. The reason is a stable code
// (NOT_OWNER, NOT_ADMIN, ...) callers can branch on. Conflict-flavoured
// reasons map to 409 rather than 403, and visibility denials to 404 so an
// unapproved entity is indistinguishable from a missing one.
func RespondDeny(w http.ResponseWriter, reason string) {
	switch reason {
	case "ALREADY_EXISTS", "INVALID_STATE":
		Problem(w, http.StatusConflict, "Conflict", reason)
	case "NOT_VISIBLE":
		Problem(w, http.StatusNotFound, "Not Found", reason)
	default:
		Problem(w, http.StatusForbidden, "Forbidden", reason)
	}
}
