package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-mfb/meridian-mfb/internal/shared"
)

// RespondError maps domain sentinel errors onto the response envelope.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		NotFound(w, "Resource not found.")
	case errors.Is(err, shared.ErrDuplicate):
		Conflict(w, "A record with the same identifier already exists.")
	case errors.Is(err, shared.ErrValidation):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, shared.ErrForbidden):
		Forbidden(w, "You are not allowed to perform this action.")
	case errors.Is(err, shared.ErrUnauthorized):
		Unauthorized(w, "Authentication required.")
	default:
		write(w, http.StatusInternalServerError, Envelope{StatusCode: 5000, Message: "Internal server error."})
	}
}
