// internal/adapters/in/http/middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the storefront origins to call the API with credentials
// (the cart session cookie) and bearer tokens.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
