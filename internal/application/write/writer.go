// internal/application/write/writer.go
package write

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"optivista/internal/application/docstore"
	"optivista/internal/application/errorbus"
)

const (
	defaultMaxInFlight = 32
	defaultTimeout     = 30 * time.Second
)

// SetOptions controls Set. Merge replaces only the fields present in the payload.
type SetOptions struct {
	Merge bool
}

// OutcomeObserver is told how every dispatched write ended.
type OutcomeObserver interface {
	WriteFinished(kind errorbus.OpKind, path string, err error)
}

type Options struct {
	MaxInFlight int64
	Timeout     time.Duration
	Observer    OutcomeObserver
}

// Writer issues document writes without making the caller wait for the round trip.
// Failures never reach the caller; they are published on the error bus.
type Writer struct {
	store    docstore.Mutator
	bus      *errorbus.Emitter
	log      *zap.Logger
	sem      *semaphore.Weighted
	timeout  time.Duration
	observer OutcomeObserver

	base context.Context
	wg   sync.WaitGroup
}

func New(store docstore.Mutator, bus *errorbus.Emitter, logger *zap.Logger, opts Options) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = defaultMaxInFlight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Writer{
		store:    store,
		bus:      bus,
		log:      logger.Named("write"),
		sem:      semaphore.NewWeighted(opts.MaxInFlight),
		timeout:  opts.Timeout,
		observer: opts.Observer,
		base:     context.Background(),
	}
}

// NewRef allocates a document id in collection without writing anything.
func (w *Writer) NewRef(collection string) docstore.DocumentRef {
	return w.store.NewRef(collection)
}

// Create allocates a new document id in collection and writes payload there.
// The reference is returned before the write lands.
func (w *Writer) Create(collection string, payload any) docstore.DocumentRef {
	ref := w.store.NewRef(collection)
	w.dispatch(errorbus.OpWrite, ref, payload, func(ctx context.Context) error {
		return w.store.Create(ctx, ref, payload)
	})
	return ref
}

func (w *Writer) Set(ref docstore.DocumentRef, payload any, opts SetOptions) {
	w.dispatch(errorbus.OpWrite, ref, payload, func(ctx context.Context) error {
		return w.store.Set(ctx, ref, payload, opts.Merge)
	})
}

func (w *Writer) Update(ref docstore.DocumentRef, fields map[string]any) {
	w.dispatch(errorbus.OpWrite, ref, fields, func(ctx context.Context) error {
		return w.store.Update(ctx, ref, fields)
	})
}

func (w *Writer) Delete(ref docstore.DocumentRef) {
	w.dispatch(errorbus.OpDelete, ref, nil, func(ctx context.Context) error {
		return w.store.Delete(ctx, ref)
	})
}

// Wait blocks until every write dispatched so far has finished.
func (w *Writer) Wait() {
	w.wg.Wait()
}

// dispatch runs op on its own goroutine. It is the only place writes are issued.
func (w *Writer) dispatch(kind errorbus.OpKind, ref docstore.DocumentRef, payload any, op func(ctx context.Context) error) {
	path := ref.Path()
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		var err error
		if !ref.Valid() {
			err = docstore.ErrInvalidArgument
		} else {
			err = w.run(op)
		}

		if w.observer != nil {
			w.observer.WriteFinished(kind, path, err)
		}
		if err == nil {
			w.log.Debug("write applied", zap.String("path", path), zap.String("operation", string(kind)))
			return
		}

		perr := errorbus.NewPermissionError(kind, path, err)
		if kind != errorbus.OpDelete {
			perr = perr.WithRequestData(payload)
		}
		w.log.Warn("write failed",
			zap.String("path", path),
			zap.String("operation", string(kind)),
			zap.Error(err),
		)
		w.bus.Emit(errorbus.TopicPermissionError, perr)
	}()
}

func (w *Writer) run(op func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(w.base, w.timeout)
	defer cancel()

	if err := w.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer w.sem.Release(1)
	return op(ctx)
}
