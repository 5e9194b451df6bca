// internal/infra/secrets/secret_manager.go
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

var ErrNotConfigured = errors.New("secrets: secret manager not configured")

type accessFunc func(ctx context.Context, name string) ([]byte, error)

// Resolver reads API keys from Secret Manager when they are not given directly.
type Resolver struct {
	access    accessFunc
	projectID string
}

// NewResolver wraps a Secret Manager client. A nil client yields a resolver
// that only passes direct values through.
func NewResolver(sm *secretmanager.Client, projectID string) *Resolver {
	r := &Resolver{projectID: strings.TrimSpace(projectID)}
	if sm != nil {
		r.access = func(ctx context.Context, name string) ([]byte, error) {
			resp, err := sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
			if err != nil {
				return nil, err
			}
			if resp == nil || resp.Payload == nil {
				return nil, fmt.Errorf("secrets: empty payload (%s)", name)
			}
			return resp.Payload.Data, nil
		}
	}
	return r
}

// Resolve returns direct when set. Otherwise it reads the latest version of
// secret, which is either a bare secret id or a full resource name.
// Both empty yields "" without error.
func (r *Resolver) Resolve(ctx context.Context, direct, secret string) (string, error) {
	if v := strings.TrimSpace(direct); v != "" {
		return v, nil
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", nil
	}
	if r == nil || r.access == nil {
		return "", ErrNotConfigured
	}

	name, err := r.versionName(secret)
	if err != nil {
		return "", err
	}
	data, err := r.access(ctx, name)
	if err != nil {
		return "", fmt.Errorf("secrets: AccessSecretVersion failed (%s): %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (r *Resolver) versionName(secret string) (string, error) {
	if strings.HasPrefix(secret, "projects/") {
		if strings.Contains(secret, "/versions/") {
			return secret, nil
		}
		return secret + "/versions/latest", nil
	}
	if r.projectID == "" {
		return "", errors.New("secrets: projectID is empty")
	}
	return "projects/" + r.projectID + "/secrets/" + secret + "/versions/latest", nil
}
