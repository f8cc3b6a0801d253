package middleware

import (
	"context"
	"net/http"

	"github.com/quimera/domains/internal/api/response"
	"github.com/quimera/domains/internal/model"
)

type contextKey string

const identityKey contextKey = "api_key_identity"

// Authenticator resolves a raw API key to its owner identity.
// *core.APIKeyService satisfies this interface.
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*model.APIKey, error)
}

// Auth returns a middleware that validates the X-API-Key header and puts
// the authenticated identity on the request context.
func Auth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := r.Header.Get("X-API-Key")
			if rawKey == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			key, err := auth.Authenticate(r.Context(), rawKey)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the authenticated API key from the context, or nil.
func GetIdentity(ctx context.Context) *model.APIKey {
	key, _ := ctx.Value(identityKey).(*model.APIKey)
	return key
}

// WithIdentity attaches an identity to a context. Used by tests.
func WithIdentity(ctx context.Context, key *model.APIKey) context.Context {
	return context.WithValue(ctx, identityKey, key)
}
