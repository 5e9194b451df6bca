// internal/adapters/out/firebaseauth/verifier.go
package firebaseauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"

	"optivista/internal/application/auth"
)

// Verifier checks Firebase ID tokens. It implements auth.Verifier.
type Verifier struct {
	Client *fbauth.Client
}

func NewVerifier(client *fbauth.Client) *Verifier {
	return &Verifier{Client: client}
}

func (v *Verifier) Verify(ctx context.Context, idToken string) (*auth.Identity, error) {
	if v == nil || v.Client == nil {
		return nil, errors.New("firebaseauth: auth client is nil")
	}
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty token", auth.ErrInvalidToken)
	}

	token, err := v.Client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	return identityFromToken(token)
}

func identityFromToken(token *fbauth.Token) (*auth.Identity, error) {
	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return nil, fmt.Errorf("%w: missing uid", auth.ErrInvalidToken)
	}
	id := &auth.Identity{
		UID:           uid,
		Email:         claimString(token.Claims, "email"),
		Name:          claimString(token.Claims, "name"),
		Picture:       claimString(token.Claims, "picture"),
		EmailVerified: claimBool(token.Claims, "email_verified"),
		Provider:      token.Firebase.SignInProvider,
	}
	return id, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if raw, ok := claims[key]; ok {
		if s, ok := raw.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func claimBool(claims map[string]interface{}, key string) bool {
	if raw, ok := claims[key]; ok {
		if b, ok := raw.(bool); ok {
			return b
		}
	}
	return false
}
