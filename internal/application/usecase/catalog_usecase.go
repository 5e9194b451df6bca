// internal/application/usecase/catalog_usecase.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"optivista/internal/application/docstore"
	"optivista/internal/application/write"
	"optivista/internal/domain/catalog"
)

// CatalogUsecase serves the gallery and the admin image console.
type CatalogUsecase struct {
	reader  docstore.Reader
	batcher Batcher
	writer  *write.Writer
	log     *zap.Logger
}

// Batcher commits several writes atomically and waits for the result.
type Batcher interface {
	Batch(ctx context.Context, ops []docstore.BatchOp) error
}

func NewCatalogUsecase(reader docstore.Reader, batcher Batcher, writer *write.Writer, logger *zap.Logger) *CatalogUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogUsecase{reader: reader, batcher: batcher, writer: writer, log: logger.Named("catalog")}
}

// CatalogQuery is the gallery listing, optionally narrowed to one category.
func CatalogQuery(category catalog.Category) *docstore.Query {
	q := docstore.NewQuery(catalog.Collection)
	if category != "" {
		q = q.Where("category", "==", string(category))
	}
	return q
}

// List returns the catalog once. An empty category lists everything.
func (uc *CatalogUsecase) List(ctx context.Context, category string) ([]catalog.Image, error) {
	var cat catalog.Category
	if strings.TrimSpace(category) != "" {
		c, err := catalog.ParseCategory(category)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		cat = c
	}

	docs, err := listAs[catalog.Image](ctx, uc.reader, CatalogQuery(cat))
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Image, 0, len(docs))
	for _, d := range docs {
		img := d.Data
		img.ID = d.ID
		out = append(out, img)
	}
	return out, nil
}

func (uc *CatalogUsecase) Get(ctx context.Context, id string) (catalog.Image, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return catalog.Image{}, ErrInvalidArgument
	}
	d, err := getAs[catalog.Image](ctx, uc.reader, *docstore.Doc(catalog.Collection, id))
	if err != nil {
		return catalog.Image{}, err
	}
	if d == nil {
		return catalog.Image{}, ErrNotFound
	}
	img := d.Data
	img.ID = d.ID
	return img, nil
}

// Add stores a new image without waiting for the write and returns its id.
func (uc *CatalogUsecase) Add(img catalog.Image) (string, error) {
	img.Normalize()
	if err := img.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	ref := uc.writer.NewRef(catalog.Collection)
	img.ID = ref.ID
	uc.writer.Set(ref, img, write.SetOptions{})
	return ref.ID, nil
}

// Update merges img into the existing document without waiting.
func (uc *CatalogUsecase) Update(id string, img catalog.Image) error {
	img.ID = strings.TrimSpace(id)
	img.Normalize()
	if img.ID == "" {
		return ErrInvalidArgument
	}
	if err := img.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	uc.writer.Set(*docstore.Doc(catalog.Collection, img.ID), imageFields(img), write.SetOptions{Merge: true})
	return nil
}

func (uc *CatalogUsecase) Delete(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidArgument
	}
	uc.writer.Delete(*docstore.Doc(catalog.Collection, id))
	return nil
}

// Seed replaces the whole catalog with images: every current image is
// deleted (non-blocking), the deletes are drained, then the new set is
// written in one batch. Live subscribers should refetch afterwards.
func (uc *CatalogUsecase) Seed(ctx context.Context, images []catalog.Image) (int, error) {
	current, err := uc.reader.List(ctx, docstore.NewQuery(catalog.Collection))
	if err != nil {
		return 0, fmt.Errorf("seed: list current: %w", err)
	}
	for _, rec := range current {
		uc.writer.Delete(*docstore.Doc(catalog.Collection, rec.ID))
	}
	uc.writer.Wait()

	ops := make([]docstore.BatchOp, 0, len(images))
	for _, img := range images {
		ref := docstore.Doc(catalog.Collection, img.ID)
		if img.ID == "" {
			r := uc.writer.NewRef(catalog.Collection)
			ref = &r
		}
		img.ID = ref.ID
		ops = append(ops, docstore.BatchOp{Kind: docstore.BatchSet, Ref: *ref, Data: img})
	}
	if err := uc.batcher.Batch(ctx, ops); err != nil {
		return 0, fmt.Errorf("seed: batch: %w", err)
	}
	uc.log.Info("catalog seeded", zap.Int("deleted", len(current)), zap.Int("written", len(ops)))
	return len(ops), nil
}

func imageFields(img catalog.Image) map[string]any {
	f := map[string]any{
		"id":          img.ID,
		"name":        img.Name,
		"description": img.Description,
		"url":         img.URL,
		"category":    string(img.Category),
		"aiHint":      img.AIHint,
	}
	if img.Price > 0 {
		f["price"] = img.Price
	}
	return f
}
