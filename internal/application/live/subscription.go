// internal/application/live/subscription.go
package live

import (
	"sync"

	"go.uber.org/zap"

	"optivista/internal/application/docstore"
	"optivista/internal/application/errorbus"
)

// FeedObserver is told whenever a subscription opens or closes a live feed.
type FeedObserver interface {
	FeedOpened(path string)
	FeedClosed(path string)
}

// Deps are the collaborators every subscription needs.
type Deps struct {
	Source   docstore.LiveSource
	Policy   *AccessPolicy
	Bus      *errorbus.Emitter
	Logger   *zap.Logger
	Observer FeedObserver
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// target is a descriptor the core knows how to open.
type target[V any] interface {
	path() string
	open(src docstore.LiveSource, onData func(V), onErr func(error)) (stop func())
}

type feed struct {
	stop func()
	path string
}

// subscription is the state machine shared by query and document subscriptions.
//
// Transitions (descriptor changed, auth changed, manual refetch, close) are
// serialized by opMu. Each transition closes the current feed before a new one
// is opened and bumps gen; callbacks carrying an older gen are dropped, so at
// most one feed ever feeds the result.
type subscription[V any] struct {
	deps Deps
	kind errorbus.OpKind
	log  *zap.Logger

	opMu sync.Mutex

	mu       sync.Mutex
	tgt      target[V]
	auth     AuthState
	result   Result[V]
	version  uint64
	gen      uint64
	cur      *feed
	awaiting bool // cur has not produced its first snapshot yet
	dead     bool // cur reported an error
	opening  bool // reconcile is inside open
	// refetched: cur was opened by a manual refetch and has produced nothing
	// since that refetch returned
	refetched bool
	closed    bool
	started   bool
	watchers  map[uint64]func(Result[V])
	watchSeq  uint64

	notifyMu     sync.Mutex
	lastNotified uint64
}

func newSubscription[V any](deps Deps, kind errorbus.OpKind, auth AuthState) *subscription[V] {
	if deps.Policy == nil {
		deps.Policy = DefaultAccessPolicy()
	}
	return &subscription[V]{
		deps:     deps,
		kind:     kind,
		log:      deps.logger().Named("live"),
		auth:     auth,
		watchers: make(map[uint64]func(Result[V])),
	}
}

// withheld reports whether the gating policy keeps the feed closed. Caller holds mu.
func (s *subscription[V]) withheld() bool {
	if s.tgt == nil {
		return true
	}
	if s.deps.Policy.IsPublic(s.tgt.path()) {
		return false
	}
	return s.auth.IsLoading || s.auth.User == nil
}

// reconcile tears down the current feed and opens whatever the current state calls for.
// Caller holds opMu (not mu).
func (s *subscription[V]) reconcile(refetch bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	prev := s.cur
	s.cur = nil
	s.gen++
	gen := s.gen
	tgt := s.tgt
	hold := s.withheld()

	if hold {
		s.result = Result[V]{}
		s.awaiting = false
	} else {
		s.result = Result[V]{Data: s.result.Data, IsLoading: true}
		s.awaiting = true
	}
	s.dead = false
	s.opening = !hold
	s.refetched = refetch && !hold
	ver, snap, watchers := s.bumpLocked()
	s.mu.Unlock()

	s.closeFeed(prev)
	s.notify(ver, snap, watchers)

	if hold {
		if tgt != nil {
			s.log.Debug("feed withheld until auth resolves", zap.String("path", tgt.path()))
		}
		return
	}

	path := tgt.path()
	stop := tgt.open(
		s.deps.Source,
		func(v V) { s.deliver(gen, v) },
		func(err error) { s.fail(gen, path, err) },
	)
	if stop == nil {
		stop = func() {}
	}
	if s.deps.Observer != nil {
		s.deps.Observer.FeedOpened(path)
	}
	s.log.Debug("feed opened", zap.String("path", path), zap.Uint64("gen", gen))

	s.mu.Lock()
	s.opening = false
	if s.closed || s.gen != gen {
		s.mu.Unlock()
		s.closeFeed(&feed{stop: stop, path: path})
		return
	}
	s.cur = &feed{stop: stop, path: path}
	s.mu.Unlock()
}

func (s *subscription[V]) closeFeed(f *feed) {
	if f == nil {
		return
	}
	f.stop()
	if s.deps.Observer != nil {
		s.deps.Observer.FeedClosed(f.path)
	}
	s.log.Debug("feed closed", zap.String("path", f.path))
}

func (s *subscription[V]) deliver(gen uint64, v V) {
	s.mu.Lock()
	if s.closed || s.dead || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.result = Result[V]{Data: v}
	s.awaiting = false
	if !s.opening {
		s.refetched = false
	}
	ver, snap, watchers := s.bumpLocked()
	s.mu.Unlock()

	s.notify(ver, snap, watchers)
}

func (s *subscription[V]) fail(gen uint64, path string, cause error) {
	s.mu.Lock()
	if s.closed || s.dead || gen != s.gen {
		s.mu.Unlock()
		return
	}
	perr := errorbus.NewPermissionError(s.kind, path, cause)
	s.result = Result[V]{Err: perr}
	s.awaiting = false
	s.refetched = false
	s.dead = true
	ver, snap, watchers := s.bumpLocked()
	s.mu.Unlock()

	s.log.Warn("feed failed",
		zap.String("path", path),
		zap.String("operation", string(s.kind)),
		zap.Error(cause),
	)
	s.notify(ver, snap, watchers)
	s.deps.Bus.Emit(errorbus.TopicPermissionError, perr)
}

// bumpLocked versions the current result for ordered notification. Caller holds mu.
func (s *subscription[V]) bumpLocked() (uint64, Result[V], []func(Result[V])) {
	s.version++
	ws := make([]func(Result[V]), 0, len(s.watchers))
	for _, fn := range s.watchers {
		ws = append(ws, fn)
	}
	return s.version, s.result, ws
}

// notify hands snap to watchers, skipping anything older than what they already saw.
func (s *subscription[V]) notify(ver uint64, snap Result[V], watchers []func(Result[V])) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if ver <= s.lastNotified {
		return
	}
	s.lastNotified = ver
	for _, fn := range watchers {
		fn(snap)
	}
}

// replaceTarget lets pick decide, under the transition lock, whether the
// descriptor changed and what the new target is.
func (s *subscription[V]) replaceTarget(pick func(started bool) (target[V], bool)) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	tgt, changed := pick(s.started)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.tgt = tgt
	s.started = true
	s.mu.Unlock()
	s.reconcile(false)
}

func (s *subscription[V]) setAuth(a AuthState) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	same := s.auth.equal(a)
	s.auth = a
	s.mu.Unlock()
	if same {
		return
	}
	s.reconcile(false)
}

func (s *subscription[V]) manualRefetch() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	// Coalesce while the open feed is still pending or was itself opened by a
	// refetch that nothing has arrived after. Stores that hand over the first
	// snapshot inside open still count as pending here.
	skip := s.closed || s.cur == nil || (!s.dead && (s.awaiting || s.refetched))
	s.mu.Unlock()
	if skip {
		return
	}
	s.reconcile(true)
}

func (s *subscription[V]) close() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	prev := s.cur
	s.cur = nil
	s.watchers = map[uint64]func(Result[V]){}
	s.mu.Unlock()

	s.closeFeed(prev)
}

func (s *subscription[V]) current() Result[V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *subscription[V]) onChange(fn func(Result[V])) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.watchSeq++
	id := s.watchSeq
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *subscription[V]) path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tgt == nil {
		return ""
	}
	return s.tgt.path()
}

// hasFeed reports whether a feed is currently open.
func (s *subscription[V]) hasFeed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil
}
