// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"optivista/internal/application/auth"
	usecase "optivista/internal/application/usecase"
)

// AuthMiddleware verifies "Authorization: Bearer <ID_TOKEN>" and puts the
// caller's identity in the request context.
type AuthMiddleware struct {
	Verifier auth.Verifier
	Log      *zap.Logger
}

func NewAuthMiddleware(v auth.Verifier, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{Verifier: v, Log: logger.Named("auth")}
}

// Required rejects requests without a valid token.
func (m *AuthMiddleware) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Verifier == nil {
			WriteError(w, http.StatusServiceUnavailable, "auth middleware not initialized")
			return
		}

		idToken, ok := BearerToken(r)
		if !ok {
			WriteError(w, http.StatusUnauthorized, "unauthorized: missing bearer token")
			return
		}

		id, err := m.Verifier.Verify(r.Context(), idToken)
		if err != nil {
			m.Log.Debug("token rejected", zap.Error(err))
			WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(usecase.WithIdentity(r.Context(), id)))
	})
}

// Optional attaches the identity when a valid token is present and lets
// anonymous requests through unchanged. An invalid token is still rejected.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idToken, ok := BearerToken(r)
		if !ok || m.Verifier == nil {
			next.ServeHTTP(w, r)
			return
		}
		id, err := m.Verifier.Verify(r.Context(), idToken)
		if err != nil {
			WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(usecase.WithIdentity(r.Context(), id)))
	})
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

// CurrentIdentity returns the verified caller, if any.
func CurrentIdentity(r *http.Request) (*auth.Identity, bool) {
	id := usecase.IdentityFromContext(r.Context())
	return id, id != nil
}
