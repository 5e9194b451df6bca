// internal/application/live/query_subscription.go
package live

import (
	"go.uber.org/zap"

	"optivista/internal/application/docstore"
	"optivista/internal/application/errorbus"
)

// QuerySubscription keeps a continuously updated list of documents matching a query.
type QuerySubscription[T any] struct {
	core *subscription[[]Doc[T]]
	q    *docstore.Query
}

// SubscribeQuery starts a subscription for q (nil means "nothing to subscribe to yet").
//
// q must be kept referentially stable by the caller: handing a different pointer
// tears the feed down and reopens it even when the query is equivalent.
func SubscribeQuery[T any](deps Deps, q *docstore.Query, auth AuthState) *QuerySubscription[T] {
	s := &QuerySubscription[T]{
		core: newSubscription[[]Doc[T]](deps, errorbus.OpReadList, auth),
	}
	s.SetQuery(q)
	return s
}

// SetQuery swaps the descriptor. Passing the pointer already in use is a no-op.
func (s *QuerySubscription[T]) SetQuery(q *docstore.Query) {
	s.core.replaceTarget(func(started bool) (target[[]Doc[T]], bool) {
		if started && s.q == q {
			return nil, false
		}
		s.q = q
		if q == nil {
			return nil, true
		}
		return queryTarget[T]{q: q, log: s.core.log}, true
	})
}

func (s *QuerySubscription[T]) SetAuth(a AuthState) { s.core.setAuth(a) }

// ManualRefetch reopens the feed from scratch, e.g. after a bulk admin mutation.
// A refetch while the current feed has not produced its first snapshot is coalesced.
func (s *QuerySubscription[T]) ManualRefetch() { s.core.manualRefetch() }

// Close tears down the feed; the subscription stays closed.
func (s *QuerySubscription[T]) Close() { s.core.close() }

func (s *QuerySubscription[T]) Result() Result[[]Doc[T]] { return s.core.current() }

// OnChange registers fn for every subsequent result change. fn must not call
// back into the subscription synchronously.
func (s *QuerySubscription[T]) OnChange(fn func(Result[[]Doc[T]])) (unsubscribe func()) {
	return s.core.onChange(fn)
}

// Path is the path currently subscribed to ("" when the descriptor is nil).
func (s *QuerySubscription[T]) Path() string { return s.core.path() }

// Live reports whether a feed is currently open.
func (s *QuerySubscription[T]) Live() bool { return s.core.hasFeed() }

type queryTarget[T any] struct {
	q   *docstore.Query
	log *zap.Logger
}

func (t queryTarget[T]) path() string { return t.q.Path() }

func (t queryTarget[T]) open(src docstore.LiveSource, onData func([]Doc[T]), onErr func(error)) func() {
	return src.OpenLiveQuery(t.q, func(recs []docstore.Record) {
		docs := make([]Doc[T], 0, len(recs))
		for _, r := range recs {
			var v T
			if err := r.DataTo(&v); err != nil {
				t.log.Warn("skipping undecodable document",
					zap.String("path", t.q.Path()+"/"+r.ID),
					zap.Error(err),
				)
				continue
			}
			docs = append(docs, Doc[T]{ID: r.ID, Data: v})
		}
		onData(docs)
	}, onErr)
}
