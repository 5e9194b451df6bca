// internal/application/usecase/settings_usecase.go
package usecase

import (
	"context"
	"fmt"

	"optivista/internal/application/docstore"
	settingsdom "optivista/internal/domain/settings"
)

type SettingsUsecase struct {
	reader  docstore.Reader
	batcher Batcher
}

func NewSettingsUsecase(reader docstore.Reader, batcher Batcher) *SettingsUsecase {
	return &SettingsUsecase{reader: reader, batcher: batcher}
}

func (uc *SettingsUsecase) Get(ctx context.Context) (map[string]string, error) {
	docs, err := listAs[settingsdom.Entry](ctx, uc.reader, docstore.NewQuery(settingsdom.Collection))
	if err != nil {
		return nil, err
	}
	entries := make([]settingsdom.Entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.Data)
	}
	return settingsdom.Map(entries), nil
}

// Save writes every given key in one batch.
func (uc *SettingsUsecase) Save(ctx context.Context, in map[string]string) error {
	entries, err := settingsdom.Normalize(in)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	ops := make([]docstore.BatchOp, 0, len(entries))
	for _, e := range entries {
		ops = append(ops, docstore.BatchOp{
			Kind: docstore.BatchSet,
			Ref:  *docstore.Doc(settingsdom.Collection, e.Key),
			Data: e,
		})
	}
	return uc.batcher.Batch(ctx, ops)
}
