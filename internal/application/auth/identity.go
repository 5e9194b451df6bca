// internal/application/auth/identity.go
package auth

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is a verified signed-in user.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	// Provider is the sign-in provider id ("password", "google.com", ...).
	Provider string `json:"provider,omitempty"`
}

// Verifier turns a bearer ID token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}
