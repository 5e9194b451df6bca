package write_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"optivista/internal/adapters/out/memstore"
	"optivista/internal/application/docstore"
	"optivista/internal/application/errorbus"
	"optivista/internal/application/live"
	"optivista/internal/application/write"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type outcomes struct {
	mu   sync.Mutex
	seen map[errorbus.OpKind][]error
}

func (o *outcomes) WriteFinished(kind errorbus.OpKind, _ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seen == nil {
		o.seen = map[errorbus.OpKind][]error{}
	}
	o.seen[kind] = append(o.seen[kind], err)
}

type capture struct {
	mu   sync.Mutex
	errs []*errorbus.PermissionError
}

func (c *capture) listen(e *errorbus.PermissionError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, e)
}

func (c *capture) all() []*errorbus.PermissionError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*errorbus.PermissionError(nil), c.errs...)
}

func setup(t *testing.T) (*memstore.Store, *errorbus.Emitter, *write.Writer, *capture, *outcomes) {
	t.Helper()
	store := memstore.New(zap.NewNop())
	bus := errorbus.NewEmitter(zap.NewNop())
	c := &capture{}
	bus.On(errorbus.TopicPermissionError, c.listen)
	obs := &outcomes{}
	w := write.New(store, bus, zap.NewNop(), write.Options{MaxInFlight: 2, Observer: obs})
	return store, bus, w, c, obs
}

func TestWriter_CreateReturnsRefBeforeWriteLands(t *testing.T) {
	store, _, w, c, obs := setup(t)

	ref := w.Create("images", map[string]any{"name": "Dunes"})
	require.True(t, ref.Valid())
	assert.Equal(t, "images", ref.Collection)

	w.Wait()

	rec, err := store.Get(context.Background(), ref)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Empty(t, c.all())
	assert.Equal(t, []error{nil}, obs.seen[errorbus.OpWrite])
}

func TestWriter_SetMergeAndUpdate(t *testing.T) {
	store, _, w, c, _ := setup(t)
	ref := *docstore.Doc("users", "u1")

	w.Set(ref, map[string]any{"firstName": "Ann", "lastName": "Lee"}, write.SetOptions{})
	w.Wait()
	w.Set(ref, map[string]any{"lastName": "Ray"}, write.SetOptions{Merge: true})
	w.Wait()
	w.Update(ref, map[string]any{"photoURL": "https://x/y.png"})
	w.Wait()

	rec, err := store.Get(context.Background(), ref)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, rec.DataTo(&got))
	assert.Equal(t, map[string]any{"firstName": "Ann", "lastName": "Ray", "photoURL": "https://x/y.png"}, got)
	assert.Empty(t, c.all())
}

func TestWriter_DeniedWriteIsPublishedNotReturned(t *testing.T) {
	store, _, w, c, obs := setup(t)
	store.Deny("orders", memstore.DenyWrite)

	payload := map[string]any{"status": "pending"}
	w.Set(*docstore.Doc("orders", "o1"), payload, write.SetOptions{})
	w.Delete(*docstore.Doc("orders", "o2"))
	w.Wait()

	errs := c.all()
	require.Len(t, errs, 2)

	byKind := map[errorbus.OpKind]*errorbus.PermissionError{}
	for _, e := range errs {
		byKind[e.Kind] = e
	}

	set := byKind[errorbus.OpWrite]
	require.NotNil(t, set)
	assert.Equal(t, "orders/o1", set.Path)
	assert.Equal(t, payload, set.RequestData)
	assert.True(t, errors.Is(set, docstore.ErrPermissionDenied))

	del := byKind[errorbus.OpDelete]
	require.NotNil(t, del)
	assert.Equal(t, "orders/o2", del.Path)
	assert.Nil(t, del.RequestData)

	assert.Len(t, obs.seen[errorbus.OpWrite], 1)
	assert.Len(t, obs.seen[errorbus.OpDelete], 1)
}

func TestWriter_InvalidRefIsReported(t *testing.T) {
	_, _, w, c, _ := setup(t)

	w.Update(docstore.DocumentRef{Collection: "users"}, map[string]any{"a": 1})
	w.Wait()

	errs := c.all()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], docstore.ErrInvalidArgument)
}

func TestWriter_WritesReachLiveSubscribers(t *testing.T) {
	store, bus, w, _, _ := setup(t)

	sub := live.SubscribeQuery[map[string]any](live.Deps{
		Source: store,
		Bus:    bus,
		Logger: zap.NewNop(),
	}, docstore.NewQuery("images"), live.SignedOut())
	defer sub.Close()

	require.NotNil(t, sub.Result().Data)
	assert.Empty(t, sub.Result().Data)

	for i := 0; i < 5; i++ {
		w.Create("images", map[string]any{"n": i})
	}
	w.Wait()

	assert.Len(t, sub.Result().Data, 5)
	assert.False(t, sub.Result().IsLoading)
}
