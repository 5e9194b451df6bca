// internal/adapters/out/devauth/verifier.go
package devauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"optivista/internal/application/auth"
)

const issuer = "optivista-dev"

// Claims is the payload of a development token.
type Claims struct {
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Provider      string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// Verifier accepts HS256 tokens signed with a shared secret. It stands in for
// Firebase Auth on local runs (AUTH_MODE=dev) and implements auth.Verifier.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(strings.TrimSpace(secret)), now: time.Now}
}

func (v *Verifier) Verify(_ context.Context, token string) (*auth.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty token", auth.ErrInvalidToken)
	}
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: dev auth secret not configured", auth.ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, auth.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", auth.ErrInvalidToken)
	}

	provider := claims.Provider
	if provider == "" {
		provider = "password"
	}
	return &auth.Identity{
		UID:           claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		Picture:       claims.Picture,
		EmailVerified: claims.EmailVerified,
		Provider:      provider,
	}, nil
}

// Issue signs a token for id, valid for ttl.
func (v *Verifier) Issue(id auth.Identity, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("devauth: secret not configured")
	}
	if strings.TrimSpace(id.UID) == "" {
		return "", fmt.Errorf("devauth: uid is empty")
	}
	now := v.now()
	claims := Claims{
		Email:         id.Email,
		Name:          id.Name,
		Picture:       id.Picture,
		EmailVerified: id.EmailVerified,
		Provider:      id.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
