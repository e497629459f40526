package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "smartvote/internal/delivery/http/helpers"
	"smartvote/internal/domain"
)

type contextKey string

const userKey contextKey = "user"

// AdminKeyHeader carries the key for administrative endpoints.
const AdminKeyHeader = "X-Admin-Key"

// SetUser returns a context carrying the authenticated user. Used by auth middleware.
func SetUser(ctx context.Context, user domain.AuthenticatedUser) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user from the context, if present.
func UserFromContext(ctx context.Context) (domain.AuthenticatedUser, bool) {
	user, ok := ctx.Value(userKey).(domain.AuthenticatedUser)
	return user, ok && user.ID != ""
}

// bearerToken extracts the token from the Authorization header. present is
// false when the header is absent.
func bearerToken(r *http.Request) (token string, present bool, problem string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false, "missing authorization header"
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", true, "invalid authorization format"
	}
	token = strings.TrimSpace(auth[len(prefix):])
	if token == "" {
		return "", true, "missing token"
	}
	return token, true, ""
}

// RequireAuth returns a wrapper that validates the Bearer token and sets the user in the request context.
// If the token is missing or invalid, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, _, problem := bearerToken(r)
			if problem != "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, problem)
				return
			}
			user, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "path", r.URL.Path, "err", err)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			next(w, r.WithContext(SetUser(r.Context(), user)))
		}
	}
}

// OptionalAuth sets the user in the request context when a Bearer token is
// presented. Requests without an Authorization header pass through anonymously;
// a malformed or rejected token still answers 401.
func OptionalAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	required := RequireAuth(verifier, logger)
	return func(next http.HandlerFunc) http.HandlerFunc {
		withUser := required(next)
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next(w, r)
				return
			}
			withUser(w, r)
		}
	}
}

// RequireAdminKey rejects requests whose X-Admin-Key does not verify.
func RequireAdminKey(verifier domain.AdminKeyVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if err := verifier.Verify(r.Header.Get(AdminKeyHeader)); err != nil {
				logger.WarnContext(r.Context(), "admin key rejected", "path", r.URL.Path, "remote", r.RemoteAddr)
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid admin key")
				return
			}
			next(w, r)
		}
	}
}
