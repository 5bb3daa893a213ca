package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stemly/backend/internal/model"
	"github.com/stemly/backend/internal/repository"
)

// contextKey is unexported so only this package can read or write the
// identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// RequireUser enforces authentication on protected routes.
//
// It reads the bearer token from the Authorization header, verifies it, and
// stores the resulting identity in the request context. Each authenticated
// request also upserts the user's profile so the store tracks last login.
// Requests without a valid token get 401 and never reach the handler.
func RequireUser(verifier Verifier, users repository.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Debug("token rejected", "error", err)
				writeUnauthorized(w, "valid authentication required")
				return
			}

			// Record the login but don't fail the request over it; the
			// identity in the token is enough to serve the call.
			if err := users.RecordLogin(r.Context(), identity); err != nil {
				logger.Warn("recording login failed", "uid", identity.UID, "error", err)
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity set by
// RequireUser. The second return is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*model.Identity)
	return identity, ok && identity != nil && identity.UID != ""
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, returning "" when the header is absent or malformed.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
