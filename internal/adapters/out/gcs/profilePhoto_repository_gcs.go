// internal/adapters/out/gcs/profilePhoto_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	gcscommon "optivista/internal/adapters/out/gcs/common"
)

// ProfilePhotoRepositoryGCS stores profile pictures in a GCS bucket and hands
// back their public URL. It implements usecase.PhotoStorage.
type ProfilePhotoRepositoryGCS struct {
	Client *storage.Client
	Bucket string
}

func NewProfilePhotoRepositoryGCS(client *storage.Client, bucket string) *ProfilePhotoRepositoryGCS {
	return &ProfilePhotoRepositoryGCS{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
	}
}

func (r *ProfilePhotoRepositoryGCS) Upload(ctx context.Context, objectPath, contentType string, src io.Reader) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("ProfilePhotoRepositoryGCS: nil storage client")
	}
	if r.Bucket == "" {
		return "", errors.New("ProfilePhotoRepositoryGCS: bucket is empty")
	}
	obj, ok := gcscommon.CleanObjectPath(objectPath)
	if !ok {
		return "", fmt.Errorf("ProfilePhotoRepositoryGCS: invalid object path %q", objectPath)
	}
	if src == nil {
		return "", errors.New("ProfilePhotoRepositoryGCS: nil reader")
	}

	// cancelling ctx aborts the upload instead of committing a partial object
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := r.Client.Bucket(r.Bucket).Object(obj).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=3600"

	if _, err := io.Copy(w, src); err != nil {
		cancel()
		return "", fmt.Errorf("ProfilePhotoRepositoryGCS: write %s: %w", obj, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ProfilePhotoRepositoryGCS: close %s: %w", obj, err)
	}
	return gcscommon.GCSPublicURL(r.Bucket, obj, ""), nil
}
