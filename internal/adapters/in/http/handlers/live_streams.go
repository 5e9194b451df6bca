// internal/adapters/in/http/handlers/live_streams.go
package handlers

import (
	"sync/atomic"

	"optivista/internal/application/auth"
	"optivista/internal/application/docstore"
	"optivista/internal/application/errorbus"
	"optivista/internal/application/live"
	usecase "optivista/internal/application/usecase"
	"optivista/internal/domain/catalog"
	downloaddom "optivista/internal/domain/download"
	orderdom "optivista/internal/domain/order"
	userdom "optivista/internal/domain/user"
)

// liveStream adapts one typed subscription to the client protocol.
type liveStream struct {
	name  string
	admin bool
	// granted is set while an admin stream's current user passed the admin check.
	granted atomic.Bool

	// raised reports whether e came from this stream's own feed.
	raised  func(e *errorbus.PermissionError) bool
	setAuth func(id *auth.Identity, resolving bool)
	refetch func()
	filter  func(cat catalog.Category)
	close   func()
}

func authState(id *auth.Identity, resolving bool) live.AuthState {
	switch {
	case resolving:
		return live.Resolving()
	case id == nil:
		return live.SignedOut()
	default:
		return live.SignedIn(id)
	}
}

// raisedBy matches e against the error the subscription currently reports.
// A subscription stores its error before publishing it on the bus.
func raisedBy[V any](current func() live.Result[V]) func(*errorbus.PermissionError) bool {
	return func(e *errorbus.PermissionError) bool {
		return e != nil && current().Err == e
	}
}

// forwards reports whether a bus error may be sent to this stream's client.
func (s *liveStream) forwards(e *errorbus.PermissionError) bool {
	if s.admin && !s.granted.Load() {
		return false
	}
	return s.raised(e)
}

// watch forwards every change of a subscription to the client, starting
// with its current state.
func watch[V any](c *liveClient, name string, onChange func(func(live.Result[V])) func(), current func() live.Result[V]) func() {
	off := onChange(func(r live.Result[V]) { c.sendResult(name, r) })
	c.sendResult(name, current())
	return off
}

func (c *liveClient) openStream(name string, cat catalog.Category, initial live.AuthState) *liveStream {
	switch name {
	case StreamOrders:
		return c.adminQueryStream(name, usecase.OrdersQuery(), initial, orderStream)
	case StreamDownloads:
		return c.adminQueryStream(name, usecase.DownloadsQuery(), initial, downloadStream)
	case StreamMe:
		return c.meStream(initial)
	case StreamMyOrders:
		return c.myOrdersStream(initial)
	default:
		return c.imagesStream(cat, initial)
	}
}

func (c *liveClient) imagesStream(cat catalog.Category, initial live.AuthState) *liveStream {
	sub := live.SubscribeQuery[catalog.Image](c.h.deps, usecase.CatalogQuery(cat), initial)
	off := watch(c, StreamImages, sub.OnChange, sub.Result)
	return &liveStream{
		name:    StreamImages,
		raised:  raisedBy(sub.Result),
		setAuth: func(id *auth.Identity, resolving bool) { sub.SetAuth(authState(id, resolving)) },
		refetch: sub.ManualRefetch,
		filter:  func(cat catalog.Category) { sub.SetQuery(usecase.CatalogQuery(cat)) },
		close:   func() { off(); sub.Close() },
	}
}

type queryStreamKind int

const (
	orderStream queryStreamKind = iota
	downloadStream
)

// adminQueryStream serves a collection only admins may watch. The backend
// client bypasses security rules, so the admin check happens before auth is
// handed to the subscription.
func (c *liveClient) adminQueryStream(name string, q *docstore.Query, initial live.AuthState, kind queryStreamKind) *liveStream {
	if initial.User != nil {
		initial = live.SignedOut()
	}
	s := &liveStream{name: name, admin: true}

	switch kind {
	case downloadStream:
		sub := live.SubscribeQuery[downloaddom.Download](c.h.deps, q, initial)
		off := watch(c, name, sub.OnChange, sub.Result)
		s.raised = raisedBy(sub.Result)
		s.setAuth = func(id *auth.Identity, resolving bool) { sub.SetAuth(authState(id, resolving)) }
		s.refetch = sub.ManualRefetch
		s.close = func() { off(); sub.Close() }
	default:
		sub := live.SubscribeQuery[orderdom.Order](c.h.deps, q, initial)
		off := watch(c, name, sub.OnChange, sub.Result)
		s.raised = raisedBy(sub.Result)
		s.setAuth = func(id *auth.Identity, resolving bool) { sub.SetAuth(authState(id, resolving)) }
		s.refetch = sub.ManualRefetch
		s.close = func() { off(); sub.Close() }
	}
	return s
}

// meStream follows users/{uid} of whoever is signed in.
func (c *liveClient) meStream(initial live.AuthState) *liveStream {
	sub := live.SubscribeDocument[userdom.Profile](c.h.deps, nil, initial)
	off := watch(c, StreamMe, sub.OnChange, sub.Result)
	return &liveStream{
		name:   StreamMe,
		raised: raisedBy(sub.Result),
		setAuth: func(id *auth.Identity, resolving bool) {
			if id == nil {
				sub.SetAuth(authState(nil, resolving))
				sub.SetDocument(nil)
				return
			}
			sub.SetDocument(docstore.Doc(userdom.Collection, id.UID))
			sub.SetAuth(authState(id, false))
		},
		refetch: sub.ManualRefetch,
		close:   func() { off(); sub.Close() },
	}
}

// myOrdersStream lists the orders of whoever is signed in.
func (c *liveClient) myOrdersStream(initial live.AuthState) *liveStream {
	sub := live.SubscribeQuery[orderdom.Order](c.h.deps, nil, initial)
	off := watch(c, StreamMyOrders, sub.OnChange, sub.Result)
	return &liveStream{
		name:   StreamMyOrders,
		raised: raisedBy(sub.Result),
		setAuth: func(id *auth.Identity, resolving bool) {
			if id == nil {
				sub.SetAuth(authState(nil, resolving))
				sub.SetQuery(nil)
				return
			}
			sub.SetQuery(usecase.UserOrdersQuery(id.UID))
			sub.SetAuth(authState(id, false))
		},
		refetch: sub.ManualRefetch,
		close:   func() { off(); sub.Close() },
	}
}
