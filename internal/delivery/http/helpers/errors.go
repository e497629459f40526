package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"smartvote/internal/domain"
)

// RetryAfterSeconds is sent with every 503 response.
const RetryAfterSeconds = "1"

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Input errors keep their own message; the rest use a fixed one.
var errorMappings = []errorMapping{
	{domain.ErrWindowClosed, http.StatusConflict, ErrCodeWindowClosed, "voting is not open for this event"},
	{domain.ErrAlreadyRegistered, http.StatusConflict, ErrCodeAlreadyRegistered, "you are already registered for this event"},
	{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden, "you can only cancel your own registrations"},
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "registration not found"},
	{domain.ErrEventNotFound, http.StatusNotFound, ErrCodeEventNotFound, "event not found"},
	{domain.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest, ""},
	{domain.ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized"},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, ErrCodeUnavailable, "service temporarily unavailable, please retry"},
}

// WriteDomainError maps err to its HTTP status and error code. Unmapped errors
// are logged and answered with 500.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		if m.status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", RetryAfterSeconds)
			logger.WarnContext(r.Context(), "store unavailable", "path", r.URL.Path, "method", r.Method, "err", err)
		}
		WriteJSONError(w, m.status, m.code, msg)
		return
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}
