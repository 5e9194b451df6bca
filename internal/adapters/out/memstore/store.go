// internal/adapters/out/memstore/store.go
package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"optivista/internal/application/docstore"
)

// Access selects which operations a deny rule blocks.
type Access int

const (
	DenyRead Access = 1 << iota
	DenyWrite
)

type fields = map[string]any

// Store is an in-memory docstore.Store with live feeds.
//
// Snapshot delivery is serialized: listeners see writes in commit order. A
// listener must not write to the store synchronously from inside its callback.
type Store struct {
	log *zap.Logger

	deliverMu sync.Mutex

	mu     sync.Mutex
	docs   map[string]map[string]fields // collection -> id -> fields
	deny   map[string]Access
	feeds  map[uint64]*liveFeed
	feedID uint64
	closed bool
}

var _ docstore.Store = (*Store)(nil)

func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		log:   logger.Named("memstore"),
		docs:  make(map[string]map[string]fields),
		deny:  make(map[string]Access),
		feeds: make(map[uint64]*liveFeed),
	}
}

// Deny makes every operation of the given access on path (a collection or a
// document path) fail with docstore.ErrPermissionDenied. Open feeds on an
// affected path fail immediately.
func (s *Store) Deny(path string, access Access) {
	path = strings.Trim(path, "/")

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	s.deny[path] = s.deny[path] | access
	var failed []*liveFeed
	if access&DenyRead != 0 {
		for id, f := range s.feeds {
			if s.deniedLocked(f.path(), DenyRead) {
				delete(s.feeds, id)
				failed = append(failed, f)
			}
		}
	}
	s.mu.Unlock()

	for _, f := range failed {
		f.fail(fmt.Errorf("%s: %w", f.path(), docstore.ErrPermissionDenied))
	}
}

// Allow drops every deny rule on path.
func (s *Store) Allow(path string) {
	s.mu.Lock()
	delete(s.deny, strings.Trim(path, "/"))
	s.mu.Unlock()
}

// OpenFeeds reports how many live feeds are currently open.
func (s *Store) OpenFeeds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feeds)
}

func (s *Store) deniedLocked(path string, access Access) bool {
	if s.deny[path]&access != 0 {
		return true
	}
	segs := strings.Split(path, "/")
	if len(segs)%2 == 0 {
		col := strings.Join(segs[:len(segs)-1], "/")
		return s.deny[col]&access != 0
	}
	return false
}

func (s *Store) check(path string, access Access) error {
	if s.closed {
		return fmt.Errorf("memstore: closed")
	}
	if s.deniedLocked(path, access) {
		return fmt.Errorf("%s: %w", path, docstore.ErrPermissionDenied)
	}
	return nil
}

// ---- Reader ----

func (s *Store) Get(_ context.Context, ref docstore.DocumentRef) (*docstore.Record, error) {
	if !ref.Valid() {
		return nil, docstore.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ref.Path(), DenyRead); err != nil {
		return nil, err
	}
	f, ok := s.docs[ref.Collection][ref.ID]
	if !ok {
		return nil, nil
	}
	r := record(ref.ID, f)
	return &r, nil
}

func (s *Store) List(_ context.Context, q *docstore.Query) ([]docstore.Record, error) {
	if q == nil || q.Collection() == "" {
		return nil, docstore.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(q.Path(), DenyRead); err != nil {
		return nil, err
	}
	return s.evalLocked(q), nil
}

// ---- Mutator ----

func (s *Store) NewRef(collection string) docstore.DocumentRef {
	return *docstore.Doc(collection, strings.ReplaceAll(uuid.NewString(), "-", "")[:20])
}

func (s *Store) Create(ctx context.Context, ref docstore.DocumentRef, data any) error {
	f, err := toFields(data)
	if err != nil {
		return err
	}
	return s.commit(func() error {
		if err := s.check(ref.Path(), DenyWrite); err != nil {
			return err
		}
		if _, ok := s.docs[ref.Collection][ref.ID]; ok {
			return fmt.Errorf("%s: %w", ref.Path(), docstore.ErrAlreadyExists)
		}
		s.putLocked(ref, f)
		return nil
	}, ref)
}

func (s *Store) Set(ctx context.Context, ref docstore.DocumentRef, data any, merge bool) error {
	f, err := toFields(data)
	if err != nil {
		return err
	}
	return s.commit(func() error {
		if err := s.check(ref.Path(), DenyWrite); err != nil {
			return err
		}
		s.setLocked(ref, f, merge)
		return nil
	}, ref)
}

func (s *Store) Update(ctx context.Context, ref docstore.DocumentRef, upd map[string]any) error {
	f, err := toFields(upd)
	if err != nil {
		return err
	}
	return s.commit(func() error {
		if err := s.check(ref.Path(), DenyWrite); err != nil {
			return err
		}
		return s.updateLocked(ref, f)
	}, ref)
}

func (s *Store) Delete(ctx context.Context, ref docstore.DocumentRef) error {
	return s.commit(func() error {
		if err := s.check(ref.Path(), DenyWrite); err != nil {
			return err
		}
		delete(s.docs[ref.Collection], ref.ID)
		return nil
	}, ref)
}

// Batch applies every op or none of them.
func (s *Store) Batch(ctx context.Context, ops []docstore.BatchOp) error {
	type prepared struct {
		op docstore.BatchOp
		f  fields
	}
	list := make([]prepared, 0, len(ops))
	refs := make([]docstore.DocumentRef, 0, len(ops))
	for _, op := range ops {
		if !op.Ref.Valid() {
			return docstore.ErrInvalidArgument
		}
		var src any
		switch op.Kind {
		case docstore.BatchSet:
			src = op.Data
		case docstore.BatchUpdate:
			src = op.Fields
		case docstore.BatchDelete:
		default:
			return fmt.Errorf("memstore: unknown batch op %q: %w", op.Kind, docstore.ErrInvalidArgument)
		}
		var f fields
		if src != nil {
			var err error
			if f, err = toFields(src); err != nil {
				return err
			}
		}
		list = append(list, prepared{op: op, f: f})
		refs = append(refs, op.Ref)
	}

	return s.commit(func() error {
		for _, p := range list {
			if err := s.check(p.op.Ref.Path(), DenyWrite); err != nil {
				return err
			}
			if p.op.Kind == docstore.BatchUpdate {
				if _, ok := s.docs[p.op.Ref.Collection][p.op.Ref.ID]; !ok {
					return fmt.Errorf("%s: %w", p.op.Ref.Path(), docstore.ErrNotFound)
				}
			}
		}
		for _, p := range list {
			switch p.op.Kind {
			case docstore.BatchSet:
				s.setLocked(p.op.Ref, p.f, p.op.Merge)
			case docstore.BatchUpdate:
				_ = s.updateLocked(p.op.Ref, p.f)
			case docstore.BatchDelete:
				delete(s.docs[p.op.Ref.Collection], p.op.Ref.ID)
			}
		}
		return nil
	}, refs...)
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.feeds = make(map[uint64]*liveFeed)
	s.mu.Unlock()
	return nil
}

func (s *Store) putLocked(ref docstore.DocumentRef, f fields) {
	col, ok := s.docs[ref.Collection]
	if !ok {
		col = make(map[string]fields)
		s.docs[ref.Collection] = col
	}
	col[ref.ID] = f
}

func (s *Store) setLocked(ref docstore.DocumentRef, f fields, merge bool) {
	cur, ok := s.docs[ref.Collection][ref.ID]
	if !merge || !ok {
		s.putLocked(ref, f)
		return
	}
	next := cloneFields(cur)
	for k, v := range f {
		next[k] = v
	}
	s.putLocked(ref, next)
}

func (s *Store) updateLocked(ref docstore.DocumentRef, upd fields) error {
	cur, ok := s.docs[ref.Collection][ref.ID]
	if !ok {
		return fmt.Errorf("%s: %w", ref.Path(), docstore.ErrNotFound)
	}
	next := cloneFields(cur)
	for k, v := range upd {
		setPath(next, strings.Split(k, "."), v)
	}
	s.putLocked(ref, next)
	return nil
}

// commit applies mutate under the store lock and then pushes fresh snapshots
// to every feed watching one of refs.
func (s *Store) commit(mutate func() error, refs ...docstore.DocumentRef) error {
	for _, ref := range refs {
		if !ref.Valid() {
			return docstore.ErrInvalidArgument
		}
	}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if err := mutate(); err != nil {
		s.mu.Unlock()
		return err
	}
	pending := s.snapshotsLocked(refs)
	s.mu.Unlock()

	for _, p := range pending {
		p()
	}
	return nil
}

func record(id string, f fields) docstore.Record {
	raw, err := json.Marshal(f)
	return docstore.NewRecord(id, func(dst any) error {
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dst)
	})
}

// toFields normalizes a payload (struct or map) to its JSON field form.
func toFields(v any) (fields, error) {
	if v == nil {
		return fields{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("memstore: encode: %w", err)
	}
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("memstore: payload is not an object: %w", docstore.ErrInvalidArgument)
	}
	if f == nil {
		f = fields{}
	}
	return f, nil
}

func cloneFields(f fields) fields {
	out := make(fields, len(f))
	for k, v := range f {
		if m, ok := v.(map[string]any); ok {
			v = cloneFields(m)
		}
		out[k] = v
	}
	return out
}

func setPath(m fields, path []string, v any) {
	if len(path) == 1 {
		m[path[0]] = v
		return
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = fields{}
		m[path[0]] = child
	}
	setPath(child, path[1:], v)
}
