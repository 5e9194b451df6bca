// internal/application/usecase/profile_usecase.go
package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"optivista/internal/application/docstore"
	"optivista/internal/application/write"
	userdom "optivista/internal/domain/user"
)

// PhotoStorage stores uploaded profile pictures and returns their public URL.
type PhotoStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

type ProfileUsecase struct {
	reader docstore.Reader
	writer *write.Writer
	photos PhotoStorage
}

func NewProfileUsecase(reader docstore.Reader, writer *write.Writer, photos PhotoStorage) *ProfileUsecase {
	return &ProfileUsecase{reader: reader, writer: writer, photos: photos}
}

func (uc *ProfileUsecase) Get(ctx context.Context, uid string) (userdom.Profile, error) {
	if strings.TrimSpace(uid) == "" {
		return userdom.Profile{}, ErrInvalidArgument
	}
	d, err := getAs[userdom.Profile](ctx, uc.reader, *docstore.Doc(userdom.Collection, uid))
	if err != nil {
		return userdom.Profile{}, err
	}
	if d == nil {
		return userdom.Profile{}, ErrNotFound
	}
	p := d.Data
	p.ID = d.ID
	return p, nil
}

// UpdateNames applies patch without waiting.
func (uc *ProfileUsecase) UpdateNames(uid string, patch userdom.NamePatch) error {
	if strings.TrimSpace(uid) == "" {
		return ErrInvalidArgument
	}
	fields, err := patch.Fields()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if len(fields) == 0 {
		return nil
	}
	uc.writer.Update(*docstore.Doc(userdom.Collection, uid), fields)
	return nil
}

// UploadPhoto stores the picture under profile-pictures/{uid}/ and points the
// profile at it. The upload is awaited, the profile update is not.
func (uc *ProfileUsecase) UploadPhoto(ctx context.Context, uid, filename, contentType string, r io.Reader) (string, error) {
	if uc.photos == nil {
		return "", fmt.Errorf("profile: photo storage not configured")
	}
	uid = strings.TrimSpace(uid)
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if uid == "" || name == "" || name == "." || name == "/" {
		return "", ErrInvalidArgument
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: content type %q is not an image", ErrInvalidArgument, contentType)
	}

	url, err := uc.photos.Upload(ctx, path.Join("profile-pictures", uid, name), contentType, r)
	if err != nil {
		return "", fmt.Errorf("profile: upload: %w", err)
	}
	uc.writer.Update(*docstore.Doc(userdom.Collection, uid), map[string]any{"photoURL": url})
	return url, nil
}
