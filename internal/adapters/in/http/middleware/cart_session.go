// internal/adapters/in/http/middleware/cart_session.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	cartdom "optivista/internal/domain/cart"
)

const CartSessionCookie = "cart_session"

type ctxKey struct{ name string }

var ctxKeyCartSession = ctxKey{name: "cartSession"}

// CartSession makes sure every request carries a cart session id, issuing a
// cookie the first time a browser shows up.
func CartSession(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(CartSessionCookie); err == nil {
				if _, perr := uuid.Parse(c.Value); perr == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
			}
			// refresh on every request so the cookie lives as long as the stored cart
			http.SetCookie(w, &http.Cookie{
				Name:     CartSessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(cartdom.DefaultCartTTL / time.Second),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyCartSession, sid)))
		})
	}
}

// CartSessionID returns the session id set by CartSession.
func CartSessionID(r *http.Request) (string, bool) {
	sid, ok := r.Context().Value(ctxKeyCartSession).(string)
	return sid, ok && sid != ""
}
