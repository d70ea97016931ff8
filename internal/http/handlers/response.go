// Standard response utilities for the roster API: structured error
// envelopes, consistent JSON serialization, and the translation of service
// and store errors into HTTP results.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable code.
//   - fail() centralizes error logging and formatting; 5xx responses are
//     logged with request context.
//   - mapError() is the single place where the error taxonomy of the lower
//     layers is bound to HTTP statuses, so every endpoint reports the same
//     failure the same way.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-heating-backend/internal/domain"
	"github.com/tbourn/go-heating-backend/internal/http/middleware"
	"github.com/tbourn/go-heating-backend/internal/services"
	"github.com/tbourn/go-heating-backend/internal/store"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"client not found"`
}

// fail aborts the request with a structured error and logs server-side
// errors with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(), for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// mapError translates a service or store error into the matching HTTP
// response. Unrecognized errors become a generic 500; the persistence
// taxonomy guarantees raw backend errors never reach this point.
func mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, store.ErrUnknownField):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, store.ErrAmbiguousKey):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, store.ErrIndexOutOfRange):
		fail(c, http.StatusConflict, ErrCodeStalePosition, err.Error())
	case errors.Is(err, services.ErrConfirmationInvalid):
		fail(c, http.StatusConflict, ErrCodeConfirmationInvalid, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "backing store unavailable")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
