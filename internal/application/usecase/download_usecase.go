// internal/application/usecase/download_usecase.go
package usecase

import (
	"context"

	"optivista/internal/application/auth"
	"optivista/internal/application/docstore"
	"optivista/internal/application/write"
	downloaddom "optivista/internal/domain/download"
	userdom "optivista/internal/domain/user"
)

type DownloadUsecase struct {
	reader  docstore.Reader
	catalog *CatalogUsecase
	writer  *write.Writer
	clock   Clock
}

func NewDownloadUsecase(reader docstore.Reader, catalog *CatalogUsecase, writer *write.Writer, clock Clock) *DownloadUsecase {
	return &DownloadUsecase{reader: reader, catalog: catalog, writer: writer, clock: orSystemClock(clock)}
}

// DownloadsQuery is the admin log, newest first.
func DownloadsQuery() *docstore.Query {
	return docstore.NewQuery(downloaddom.Collection).OrderBy("downloadDate", true)
}

// Record logs a download by caller without waiting and returns the image to serve.
func (uc *DownloadUsecase) Record(ctx context.Context, caller *auth.Identity, imageID string) (string, error) {
	if caller == nil {
		return "", ErrAuthRequired
	}
	img, err := uc.catalog.Get(ctx, imageID)
	if err != nil {
		return "", err
	}

	name := caller.Name
	profile, err := getAs[userdom.Profile](ctx, uc.reader, *docstore.Doc(userdom.Collection, caller.UID))
	if err != nil {
		return "", err
	}
	if profile != nil {
		name = profile.Data.DisplayName()
	}

	d := downloaddom.Download{
		UserID:       caller.UID,
		UserEmail:    caller.Email,
		UserName:     name,
		ImageID:      img.ID,
		ImageName:    img.Name,
		ImageURL:     img.URL,
		DownloadDate: uc.clock.Now().UTC(),
	}
	if err := d.Validate(); err != nil {
		return "", err
	}
	uc.writer.Create(downloaddom.Collection, d)
	return img.URL, nil
}

func (uc *DownloadUsecase) List(ctx context.Context, limit int) ([]DownloadEntry, error) {
	q := DownloadsQuery()
	if limit > 0 {
		q = q.Limit(limit)
	}
	docs, err := listAs[downloaddom.Download](ctx, uc.reader, q)
	if err != nil {
		return nil, err
	}
	out := make([]DownloadEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, DownloadEntry{ID: d.ID, Download: d.Data})
	}
	return out, nil
}

type DownloadEntry struct {
	ID string `json:"id"`
	downloaddom.Download
}
