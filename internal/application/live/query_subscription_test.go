package live

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"optivista/internal/application/auth"
	"optivista/internal/application/docstore"
	"optivista/internal/application/errorbus"
)

var alice = &auth.Identity{UID: "alice", Email: "alice@example.com", EmailVerified: true}

func newDeps(src *fakeSource) (Deps, *errorbus.Emitter) {
	bus := errorbus.NewEmitter(zap.NewNop())
	return Deps{
		Source: src,
		Policy: DefaultAccessPolicy(),
		Bus:    bus,
		Logger: zap.NewNop(),
	}, bus
}

func TestQuerySubscription_NilDescriptorIsWithheld(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)

	for _, a := range []AuthState{Resolving(), SignedOut(), SignedIn(alice)} {
		sub := SubscribeQuery[photo](deps, nil, a)

		res := sub.Result()
		assert.Nil(t, res.Data)
		assert.False(t, res.IsLoading)
		assert.Nil(t, res.Err)
		sub.Close()
	}
	assert.Equal(t, 0, src.opened())
}

func TestQuerySubscription_ProtectedPathWaitsForAuth(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)
	q := docstore.NewQuery("orders")

	sub := SubscribeQuery[photo](deps, q, Resolving())
	defer sub.Close()

	res := sub.Result()
	assert.Nil(t, res.Data)
	assert.False(t, res.IsLoading)
	assert.Nil(t, res.Err)
	assert.Equal(t, 0, src.opened())

	// resolved, but nobody signed in: still withheld
	sub.SetAuth(SignedOut())
	assert.Equal(t, 0, src.opened())
	assert.False(t, sub.Result().IsLoading)

	sub.SetAuth(SignedIn(alice))
	require.Equal(t, 1, src.opened())
	assert.True(t, sub.Result().IsLoading)

	src.last().onQuery([]docstore.Record{
		rec(t, "o1", map[string]any{"name": "first"}),
		rec(t, "o2", map[string]any{"name": "second"}),
	})

	res = sub.Result()
	assert.False(t, res.IsLoading)
	assert.Nil(t, res.Err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "o1", res.Data[0].ID)
	assert.Equal(t, "first", res.Data[0].Data.Name)
	assert.Equal(t, "o2", res.Data[1].ID)
}

func TestQuerySubscription_PublicPathOpensRegardlessOfAuth(t *testing.T) {
	for name, a := range map[string]AuthState{
		"resolving":  Resolving(),
		"signed-out": SignedOut(),
		"signed-in":  SignedIn(alice),
	} {
		t.Run(name, func(t *testing.T) {
			src := &fakeSource{}
			deps, _ := newDeps(src)

			sub := SubscribeQuery[photo](deps, docstore.NewQuery("images"), a)
			defer sub.Close()

			assert.Equal(t, 1, src.opened())
			assert.True(t, sub.Live())
		})
	}
}

func TestQuerySubscription_SnapshotReplacesDataWholesale(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("images"), SignedOut())
	defer sub.Close()

	f := src.last()
	f.onQuery([]docstore.Record{rec(t, "a", map[string]any{"name": "A"}), rec(t, "b", map[string]any{"name": "B"})})
	f.onQuery([]docstore.Record{rec(t, "c", map[string]any{"name": "C"})})

	res := sub.Result()
	require.Len(t, res.Data, 1)
	assert.Equal(t, "c", res.Data[0].ID)
}

func TestQuerySubscription_FeedFailureBecomesPermissionError(t *testing.T) {
	src := &fakeSource{}
	deps, bus := newDeps(src)

	var got []*errorbus.PermissionError
	bus.On(errorbus.TopicPermissionError, func(e *errorbus.PermissionError) { got = append(got, e) })
	bus.On(errorbus.TopicPermissionError, func(e *errorbus.PermissionError) { got = append(got, e) })

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("orders"), SignedIn(alice))
	defer sub.Close()

	src.last().onQuery([]docstore.Record{rec(t, "o1", map[string]any{"name": "x"})})
	src.last().onErr(errors.New("rpc error: code = PermissionDenied"))

	res := sub.Result()
	assert.Nil(t, res.Data)
	assert.False(t, res.IsLoading)
	require.NotNil(t, res.Err)
	assert.Equal(t, errorbus.OpReadList, res.Err.Kind)
	assert.Equal(t, "orders", res.Err.Path)

	require.Len(t, got, 2)
	assert.Same(t, res.Err, got[0])
	assert.Same(t, res.Err, got[1])

	// a dead feed delivers nothing more
	src.last().onQuery([]docstore.Record{rec(t, "o2", map[string]any{"name": "y"})})
	assert.Nil(t, sub.Result().Data)
}

func TestQuerySubscription_ManualRefetchTwiceReopensOnce(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("images"), SignedOut())
	defer sub.Close()
	src.last().onQuery(nil)
	require.Equal(t, 1, src.opened())

	sub.ManualRefetch()
	sub.ManualRefetch()

	assert.Equal(t, 2, src.opened())
	assert.Equal(t, 1, src.openNow())
	assert.Equal(t, 1, src.peak())
	assert.True(t, src.feeds[0].isStopped())
	assert.True(t, sub.Result().IsLoading)
}

func TestQuerySubscription_ManualRefetchAfterErrorReopens(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("orders"), SignedIn(alice))
	defer sub.Close()
	src.last().onErr(errors.New("unavailable"))

	sub.ManualRefetch()

	assert.Equal(t, 2, src.opened())
	res := sub.Result()
	assert.Nil(t, res.Err)
	assert.True(t, res.IsLoading)
}

func TestQuerySubscription_ManualRefetchWhileWithheldIsNoop(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("orders"), Resolving())
	defer sub.Close()

	sub.ManualRefetch()
	assert.Equal(t, 0, src.opened())
}

func TestQuerySubscription_DescriptorIdentityDrivesResubscription(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)

	q := docstore.NewQuery("images")
	sub := SubscribeQuery[photo](deps, q, SignedOut())
	defer sub.Close()

	sub.SetQuery(q)
	assert.Equal(t, 1, src.opened(), "same pointer must not resubscribe")

	sub.SetQuery(docstore.NewQuery("images"))
	assert.Equal(t, 2, src.opened(), "new pointer resubscribes even when equivalent")
	assert.Equal(t, 1, src.peak())
}

func TestQuerySubscription_StaleFeedCallbacksAreDropped(t *testing.T) {
	src := &fakeSource{}
	deps, bus := newDeps(src)

	var emitted int
	bus.On(errorbus.TopicPermissionError, func(*errorbus.PermissionError) { emitted++ })

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("images"), SignedOut())
	defer sub.Close()
	old := src.last()

	sub.SetQuery(docstore.NewQuery("images").Where("category", "==", "nature"))
	require.True(t, old.isStopped())

	old.onQuery([]docstore.Record{rec(t, "stale", map[string]any{"name": "stale"})})
	old.onErr(errors.New("late failure"))

	res := sub.Result()
	assert.True(t, res.IsLoading)
	assert.Nil(t, res.Err)
	assert.Equal(t, 0, emitted)
}

func TestQuerySubscription_SignOutClosesProtectedFeed(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("orders"), SignedIn(alice))
	defer sub.Close()
	src.last().onQuery([]docstore.Record{rec(t, "o1", map[string]any{"name": "x"})})

	sub.SetAuth(SignedOut())

	assert.Equal(t, 0, src.openNow())
	res := sub.Result()
	assert.Nil(t, res.Data)
	assert.False(t, res.IsLoading)
}

func TestQuerySubscription_CloseTearsDownAndIgnoresLateSnapshots(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("images"), SignedOut())
	f := src.last()

	sub.Close()
	sub.Close()

	assert.True(t, f.isStopped())
	assert.Equal(t, 0, src.openNow())

	f.onQuery([]docstore.Record{rec(t, "late", map[string]any{"name": "late"})})
	assert.Nil(t, sub.Result().Data)

	sub.SetAuth(SignedIn(alice))
	sub.ManualRefetch()
	assert.Equal(t, 1, src.opened())
}

func TestQuerySubscription_OnChangeSeesTransitionsInOrder(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("orders"), Resolving())
	defer sub.Close()

	var seen []Result[[]Doc[photo]]
	off := sub.OnChange(func(r Result[[]Doc[photo]]) { seen = append(seen, r) })
	defer off()

	sub.SetAuth(SignedIn(alice))
	src.last().onQuery([]docstore.Record{rec(t, "o1", map[string]any{"name": "x"})})

	require.Len(t, seen, 2)
	assert.True(t, seen[0].IsLoading)
	assert.False(t, seen[1].IsLoading)
	assert.Len(t, seen[1].Data, 1)
}

func TestQuerySubscription_UndecodableDocumentsAreSkipped(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("images"), SignedOut())
	defer sub.Close()

	bad := docstore.NewRecord("bad", func(any) error { return errors.New("boom") })
	src.last().onQuery([]docstore.Record{bad, rec(t, "ok", map[string]any{"name": "fine"})})

	res := sub.Result()
	require.Len(t, res.Data, 1)
	assert.Equal(t, "ok", res.Data[0].ID)
}

func TestQuerySubscription_ConfiguredPublicTable(t *testing.T) {
	src := &fakeSource{}
	deps, _ := newDeps(src)
	deps.Policy = NewAccessPolicy(map[string]Access{"configurations": AccessPublic})

	sub := SubscribeQuery[photo](deps, docstore.NewQuery("images"), SignedOut())
	defer sub.Close()
	assert.Equal(t, 0, src.opened(), "images is protected once the table says nothing about it")

	cfg := SubscribeQuery[photo](deps, docstore.NewQuery("configurations"), SignedOut())
	defer cfg.Close()
	assert.Equal(t, 1, src.opened())
}
