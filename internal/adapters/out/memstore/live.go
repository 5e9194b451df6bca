// internal/adapters/out/memstore/live.go
package memstore

import (
	"fmt"
	"sync"

	"optivista/internal/application/docstore"
)

type liveFeed struct {
	q       *docstore.Query
	ref     *docstore.DocumentRef
	onQuery func([]docstore.Record)
	onDoc   func(*docstore.Record)
	onErr   func(error)

	mu      sync.Mutex
	stopped bool
}

func (f *liveFeed) path() string {
	if f.q != nil {
		return f.q.Path()
	}
	return f.ref.Path()
}

func (f *liveFeed) halt() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return false
	}
	f.stopped = true
	return true
}

func (f *liveFeed) active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.stopped
}

func (f *liveFeed) fail(err error) {
	if f.halt() {
		f.onErr(err)
	}
}

func (s *Store) OpenLiveQuery(q *docstore.Query, onSnapshot func([]docstore.Record), onError func(error)) func() {
	return s.open(&liveFeed{q: q, onQuery: onSnapshot, onErr: onError})
}

func (s *Store) OpenLiveDocument(ref docstore.DocumentRef, onSnapshot func(*docstore.Record), onError func(error)) func() {
	return s.open(&liveFeed{ref: &ref, onDoc: onSnapshot, onErr: onError})
}

// open registers f and delivers its first snapshot before returning.
func (s *Store) open(f *liveFeed) func() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	var err error
	switch {
	case f.q != nil && f.q.Collection() == "":
		err = docstore.ErrInvalidArgument
	case f.ref != nil && !f.ref.Valid():
		err = docstore.ErrInvalidArgument
	default:
		err = s.check(f.path(), DenyRead)
	}
	if err != nil {
		s.mu.Unlock()
		f.fail(err)
		return func() {}
	}

	s.feedID++
	id := s.feedID
	s.feeds[id] = f
	first := s.snapshotLocked(f)
	s.mu.Unlock()

	first()
	s.log.Debug("feed opened")

	return func() {
		f.halt()
		s.mu.Lock()
		delete(s.feeds, id)
		s.mu.Unlock()
	}
}

// snapshotsLocked prepares deliveries for every feed affected by a write to refs.
func (s *Store) snapshotsLocked(refs []docstore.DocumentRef) []func() {
	var out []func()
	for _, f := range s.feeds {
		if affected(f, refs) {
			out = append(out, s.snapshotLocked(f))
		}
	}
	return out
}

func affected(f *liveFeed, refs []docstore.DocumentRef) bool {
	for _, r := range refs {
		if f.q != nil && f.q.Collection() == r.Collection {
			return true
		}
		if f.ref != nil && *f.ref == r {
			return true
		}
	}
	return false
}

func (s *Store) snapshotLocked(f *liveFeed) func() {
	if f.q != nil {
		recs := s.evalLocked(f.q)
		return func() {
			if f.active() {
				f.onQuery(recs)
			}
		}
	}

	data, ok := s.docs[f.ref.Collection][f.ref.ID]
	var rec *docstore.Record
	if ok {
		r := record(f.ref.ID, data)
		rec = &r
	}
	return func() {
		if f.active() {
			f.onDoc(rec)
		}
	}
}

// FailFeeds errors every open feed on path, the way a revoked grant does.
func (s *Store) FailFeeds(path string, cause error) int {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	var hit []*liveFeed
	for id, f := range s.feeds {
		if f.path() == path {
			delete(s.feeds, id)
			hit = append(hit, f)
		}
	}
	s.mu.Unlock()

	for _, f := range hit {
		f.fail(fmt.Errorf("%s: %w", path, cause))
	}
	return len(hit)
}
