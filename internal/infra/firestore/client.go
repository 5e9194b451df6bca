// internal/infra/firestore/client.go
package firestoreinfra

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ClientWrapper holds a Firestore client together with the project it talks to.
type ClientWrapper struct {
	Client    *firestore.Client
	ProjectID string
}

// NewClient connects to Firestore. An empty credentialsFile falls back to
// Application Default Credentials.
func NewClient(ctx context.Context, projectID, credentialsFile string, logger *zap.Logger) (*ClientWrapper, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore: project id is empty")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	if logger != nil {
		logger.Info("firestore connected", zap.String("project", projectID))
	}
	return &ClientWrapper{Client: client, ProjectID: projectID}, nil
}

// Ping issues a cheap read; Firestore has no dedicated ping call.
func (cw *ClientWrapper) Ping(ctx context.Context) error {
	if cw == nil || cw.Client == nil {
		return fmt.Errorf("firestore client is nil")
	}
	it := cw.Client.Collections(ctx)
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}
