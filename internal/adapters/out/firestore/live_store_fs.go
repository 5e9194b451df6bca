// internal/adapters/out/firestore/live_store_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"optivista/internal/application/docstore"
)

// LiveStore implements docstore.Store on top of Cloud Firestore.
//
// Live feeds run one goroutine per feed around a Snapshots iterator. Stopping a
// feed cancels the iterator context and returns; the goroutine exits on its own.
type LiveStore struct {
	Client *firestore.Client
	log    *zap.Logger

	base     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup
}

func NewLiveStore(client *firestore.Client, logger *zap.Logger) *LiveStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	base, shutdown := context.WithCancel(context.Background())
	return &LiveStore{
		Client:   client,
		log:      logger.Named("firestore"),
		base:     base,
		shutdown: shutdown,
	}
}

func (s *LiveStore) doc(ref docstore.DocumentRef) *firestore.DocumentRef {
	return s.Client.Collection(ref.Collection).Doc(ref.ID)
}

func (s *LiveStore) query(q *docstore.Query) firestore.Query {
	fq := s.Client.Collection(q.Collection()).Query
	for _, f := range q.Filters() {
		fq = fq.Where(f.Field, f.Op, f.Value)
	}
	for _, o := range q.Orders() {
		dir := firestore.Asc
		if o.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(o.Field, dir)
	}
	if n := q.MaxResults(); n > 0 {
		fq = fq.Limit(n)
	}
	return fq
}

func (s *LiveStore) ready() error {
	if s == nil || s.Client == nil {
		return errors.New("live_store_fs: firestore client is nil")
	}
	return nil
}

// classify maps gRPC status codes onto the docstore sentinels, keeping the
// original error in the chain for logs.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var sentinel error
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		sentinel = docstore.ErrPermissionDenied
	case codes.NotFound:
		sentinel = docstore.ErrNotFound
	case codes.AlreadyExists:
		sentinel = docstore.ErrAlreadyExists
	case codes.InvalidArgument, codes.FailedPrecondition:
		sentinel = docstore.ErrInvalidArgument
	default:
		return err
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

func record(snap *firestore.DocumentSnapshot) docstore.Record {
	return docstore.NewRecord(snap.Ref.ID, snap.DataTo)
}

// Get returns (nil, nil) if not found (nil policy).
func (s *LiveStore) Get(ctx context.Context, ref docstore.DocumentRef) (*docstore.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: %q", docstore.ErrInvalidArgument, ref.Path())
	}

	snap, err := s.doc(ref).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, classify(err)
	}
	rec := record(snap)
	return &rec, nil
}

func (s *LiveStore) List(ctx context.Context, q *docstore.Query) ([]docstore.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if q == nil || q.Collection() == "" {
		return nil, fmt.Errorf("%w: empty query", docstore.ErrInvalidArgument)
	}

	it := s.query(q).Documents(ctx)
	defer it.Stop()

	var out []docstore.Record
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, record(snap))
	}
	return out, nil
}

func (s *LiveStore) OpenLiveQuery(q *docstore.Query, onSnapshot func([]docstore.Record), onError func(error)) func() {
	if err := s.ready(); err != nil {
		onError(err)
		return func() {}
	}
	if q == nil || q.Collection() == "" {
		onError(fmt.Errorf("%w: empty query", docstore.ErrInvalidArgument))
		return func() {}
	}

	ctx, cancel := context.WithCancel(s.base)
	it := s.query(q).Snapshots(ctx)
	path := q.Path()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer it.Stop()
		for {
			snap, err := it.Next()
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				s.log.Debug("query feed ended", zap.String("path", path), zap.Error(err))
				onError(classify(err))
				return
			}
			recs, err := s.drain(snap.Documents)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				onError(classify(err))
				return
			}
			onSnapshot(recs)
		}
	}()

	return stopOnce(cancel)
}

func (s *LiveStore) drain(it *firestore.DocumentIterator) ([]docstore.Record, error) {
	defer it.Stop()
	recs := make([]docstore.Record, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, record(snap))
	}
}

func (s *LiveStore) OpenLiveDocument(ref docstore.DocumentRef, onSnapshot func(*docstore.Record), onError func(error)) func() {
	if err := s.ready(); err != nil {
		onError(err)
		return func() {}
	}
	if !ref.Valid() {
		onError(fmt.Errorf("%w: %q", docstore.ErrInvalidArgument, ref.Path()))
		return func() {}
	}

	ctx, cancel := context.WithCancel(s.base)
	it := s.doc(ref).Snapshots(ctx)
	path := ref.Path()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer it.Stop()
		for {
			snap, err := it.Next()
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				switch status.Code(err) {
				case codes.Canceled:
					return
				case codes.NotFound:
					onSnapshot(nil)
					continue
				}
				s.log.Debug("document feed ended", zap.String("path", path), zap.Error(err))
				onError(classify(err))
				return
			}
			if snap == nil || !snap.Exists() {
				onSnapshot(nil)
				continue
			}
			rec := record(snap)
			onSnapshot(&rec)
		}
	}()

	return stopOnce(cancel)
}

func stopOnce(cancel context.CancelFunc) func() {
	var once sync.Once
	return func() { once.Do(cancel) }
}

func (s *LiveStore) NewRef(collection string) docstore.DocumentRef {
	col := strings.Trim(strings.TrimSpace(collection), "/")
	return docstore.DocumentRef{Collection: col, ID: s.Client.Collection(col).NewDoc().ID}
}

func (s *LiveStore) Create(ctx context.Context, ref docstore.DocumentRef, data any) error {
	if err := s.checkRef(ref); err != nil {
		return err
	}
	_, err := s.doc(ref).Create(ctx, data)
	return classify(err)
}

func (s *LiveStore) Set(ctx context.Context, ref docstore.DocumentRef, data any, merge bool) error {
	if err := s.checkRef(ref); err != nil {
		return err
	}
	opts, err := setOptions(data, merge)
	if err != nil {
		return err
	}
	_, err = s.doc(ref).Set(ctx, data, opts...)
	return classify(err)
}

func (s *LiveStore) Update(ctx context.Context, ref docstore.DocumentRef, fields map[string]any) error {
	if err := s.checkRef(ref); err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	_, err := s.doc(ref).Update(ctx, updates(fields))
	return classify(err)
}

func (s *LiveStore) Delete(ctx context.Context, ref docstore.DocumentRef) error {
	if err := s.checkRef(ref); err != nil {
		return err
	}
	_, err := s.doc(ref).Delete(ctx)
	return classify(err)
}

// Batch commits ops atomically.
func (s *LiveStore) Batch(ctx context.Context, ops []docstore.BatchOp) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	b := s.Client.Batch()
	for i, op := range ops {
		if !op.Ref.Valid() {
			return fmt.Errorf("%w: batch op %d: %q", docstore.ErrInvalidArgument, i, op.Ref.Path())
		}
		switch op.Kind {
		case docstore.BatchSet:
			opts, err := setOptions(op.Data, op.Merge)
			if err != nil {
				return err
			}
			b.Set(s.doc(op.Ref), op.Data, opts...)
		case docstore.BatchUpdate:
			b.Update(s.doc(op.Ref), updates(op.Fields))
		case docstore.BatchDelete:
			b.Delete(s.doc(op.Ref))
		default:
			return fmt.Errorf("%w: batch op %d: unknown kind %q", docstore.ErrInvalidArgument, i, op.Kind)
		}
	}

	_, err := b.Commit(ctx)
	return classify(err)
}

// Close ends every open feed, waits for the feed goroutines, then closes the client.
func (s *LiveStore) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	s.shutdown()
	s.wg.Wait()
	return s.Client.Close()
}

func (s *LiveStore) checkRef(ref docstore.DocumentRef) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !ref.Valid() {
		return fmt.Errorf("%w: %q", docstore.ErrInvalidArgument, ref.Path())
	}
	return nil
}

func setOptions(data any, merge bool) ([]firestore.SetOption, error) {
	if !merge {
		return nil, nil
	}
	if _, ok := data.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: merge set needs a map, got %T", docstore.ErrInvalidArgument, data)
	}
	return []firestore.SetOption{firestore.MergeAll}, nil
}

func updates(fields map[string]any) []firestore.Update {
	out := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		out = append(out, firestore.Update{Path: k, Value: v})
	}
	return out
}
