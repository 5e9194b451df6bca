// internal/application/usecase/common.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"optivista/internal/application/docstore"
	"optivista/internal/application/live"
)

var (
	ErrInvalidArgument = errors.New("usecase: invalid argument")
	ErrNotFound        = errors.New("usecase: not found")
	ErrAuthRequired    = errors.New("usecase: authentication required")
	ErrForbidden       = errors.New("usecase: forbidden")
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

func orSystemClock(c Clock) Clock {
	if c == nil {
		return systemClock{}
	}
	return c
}

// getAs reads one document into T. Missing documents return (nil, nil).
func getAs[T any](ctx context.Context, r docstore.Reader, ref docstore.DocumentRef) (*live.Doc[T], error) {
	rec, err := r.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref.Path(), err)
	}
	if rec == nil {
		return nil, nil
	}
	var v T
	if err := rec.DataTo(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref.Path(), err)
	}
	return &live.Doc[T]{ID: rec.ID, Data: v}, nil
}

// listAs runs q once and decodes every record into T.
func listAs[T any](ctx context.Context, r docstore.Reader, q *docstore.Query) ([]live.Doc[T], error) {
	recs, err := r.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", q.Path(), err)
	}
	out := make([]live.Doc[T], 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := rec.DataTo(&v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", q.Path(), rec.ID, err)
		}
		out = append(out, live.Doc[T]{ID: rec.ID, Data: v})
	}
	return out, nil
}
