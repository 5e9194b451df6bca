// internal/application/live/document_subscription.go
package live

import (
	"fmt"

	"optivista/internal/application/docstore"
	"optivista/internal/application/errorbus"
)

// DocumentSubscription keeps one document continuously up to date.
// Data is nil while the document does not exist.
type DocumentSubscription[T any] struct {
	core *subscription[*Doc[T]]
	ref  *docstore.DocumentRef
}

func SubscribeDocument[T any](deps Deps, ref *docstore.DocumentRef, auth AuthState) *DocumentSubscription[T] {
	s := &DocumentSubscription[T]{
		core: newSubscription[*Doc[T]](deps, errorbus.OpReadSingle, auth),
	}
	s.SetDocument(ref)
	return s
}

// SetDocument swaps the reference. Passing the pointer already in use is a no-op.
func (s *DocumentSubscription[T]) SetDocument(ref *docstore.DocumentRef) {
	s.core.replaceTarget(func(started bool) (target[*Doc[T]], bool) {
		if started && s.ref == ref {
			return nil, false
		}
		s.ref = ref
		if ref == nil {
			return nil, true
		}
		return docTarget[T]{ref: *ref}, true
	})
}

func (s *DocumentSubscription[T]) SetAuth(a AuthState) { s.core.setAuth(a) }

func (s *DocumentSubscription[T]) ManualRefetch() { s.core.manualRefetch() }

func (s *DocumentSubscription[T]) Close() { s.core.close() }

func (s *DocumentSubscription[T]) Result() Result[*Doc[T]] { return s.core.current() }

func (s *DocumentSubscription[T]) OnChange(fn func(Result[*Doc[T]])) (unsubscribe func()) {
	return s.core.onChange(fn)
}

func (s *DocumentSubscription[T]) Path() string { return s.core.path() }

func (s *DocumentSubscription[T]) Live() bool { return s.core.hasFeed() }

type docTarget[T any] struct {
	ref docstore.DocumentRef
}

func (t docTarget[T]) path() string { return t.ref.Path() }

func (t docTarget[T]) open(src docstore.LiveSource, onData func(*Doc[T]), onErr func(error)) func() {
	return src.OpenLiveDocument(t.ref, func(rec *docstore.Record) {
		if rec == nil {
			onData(nil)
			return
		}
		var v T
		if err := rec.DataTo(&v); err != nil {
			onErr(fmt.Errorf("decode %s: %w", t.ref.Path(), err))
			return
		}
		onData(&Doc[T]{ID: rec.ID, Data: v})
	}, onErr)
}
