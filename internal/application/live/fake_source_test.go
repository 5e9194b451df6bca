package live

import (
	"sync"
	"testing"

	json "github.com/goccy/go-json"

	"optivista/internal/application/docstore"
)

type photo struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func rec(t *testing.T, id string, data map[string]any) docstore.Record {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return docstore.NewRecord(id, func(dst any) error { return json.Unmarshal(raw, dst) })
}

type fakeFeed struct {
	path    string
	onQuery func([]docstore.Record)
	onDoc   func(*docstore.Record)
	onErr   func(error)

	mu      sync.Mutex
	stopped bool
}

func (f *fakeFeed) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// fakeSource records every feed it opens and how many are open at once.
type fakeSource struct {
	mu      sync.Mutex
	feeds   []*fakeFeed
	open    int
	maxOpen int
}

func (s *fakeSource) track(f *fakeFeed) func() {
	s.mu.Lock()
	s.feeds = append(s.feeds, f)
	s.open++
	if s.open > s.maxOpen {
		s.maxOpen = s.open
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.stopped = true
			f.mu.Unlock()
			s.mu.Lock()
			s.open--
			s.mu.Unlock()
		})
	}
}

func (s *fakeSource) OpenLiveQuery(q *docstore.Query, onSnapshot func([]docstore.Record), onError func(error)) func() {
	return s.track(&fakeFeed{path: q.Path(), onQuery: onSnapshot, onErr: onError})
}

func (s *fakeSource) OpenLiveDocument(ref docstore.DocumentRef, onSnapshot func(*docstore.Record), onError func(error)) func() {
	return s.track(&fakeFeed{path: ref.Path(), onDoc: onSnapshot, onErr: onError})
}

func (s *fakeSource) opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.feeds)
}

func (s *fakeSource) openNow() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *fakeSource) peak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxOpen
}

func (s *fakeSource) last() *fakeFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.feeds) == 0 {
		return nil
	}
	return s.feeds[len(s.feeds)-1]
}
