package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optivista/internal/application/docstore"
)

type item struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

func names(t *testing.T, recs []docstore.Record) []string {
	t.Helper()
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		var it item
		require.NoError(t, r.DataTo(&it))
		out = append(out, it.Name)
	}
	return out
}

func TestStore_GetMissingReturnsNil(t *testing.T) {
	s := New(nil)
	rec, err := s.Get(context.Background(), *docstore.Doc("images", "nope"))
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_CreateSetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	ref := *docstore.Doc("images", "a")

	require.NoError(t, s.Create(ctx, ref, item{Name: "Dunes", Category: "nature", Price: 10}))
	assert.ErrorIs(t, s.Create(ctx, ref, item{Name: "again"}), docstore.ErrAlreadyExists)

	require.NoError(t, s.Set(ctx, ref, map[string]any{"price": 25}, true))
	rec, err := s.Get(ctx, ref)
	require.NoError(t, err)
	var got item
	require.NoError(t, rec.DataTo(&got))
	assert.Equal(t, item{Name: "Dunes", Category: "nature", Price: 25}, got)

	require.NoError(t, s.Set(ctx, ref, map[string]any{"name": "Only"}, false))
	got = item{}
	rec, _ = s.Get(ctx, ref)
	require.NoError(t, rec.DataTo(&got))
	assert.Equal(t, item{Name: "Only"}, got)

	require.NoError(t, s.Update(ctx, ref, map[string]any{"category": "abstract"}))
	assert.ErrorIs(t, s.Update(ctx, *docstore.Doc("images", "ghost"), map[string]any{"x": 1}), docstore.ErrNotFound)

	require.NoError(t, s.Delete(ctx, ref))
	rec, err = s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_ListFiltersOrdersAndLimits(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	for id, it := range map[string]item{
		"1": {Name: "a", Category: "nature", Price: 30},
		"2": {Name: "b", Category: "portrait", Price: 10},
		"3": {Name: "c", Category: "nature", Price: 20},
		"4": {Name: "d", Category: "nature", Price: 40},
	} {
		require.NoError(t, s.Set(ctx, *docstore.Doc("images", id), it, false))
	}

	q := docstore.NewQuery("images").Where("category", "==", "nature").OrderBy("price", true).Limit(2)
	recs, err := s.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a"}, names(t, recs))

	recs, err = s.List(ctx, docstore.NewQuery("images").Where("price", "<", 25).OrderBy("price", false))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, names(t, recs))

	recs, err = s.List(ctx, docstore.NewQuery("images").Where("category", "in", []string{"portrait"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names(t, recs))
}

func TestStore_DeniedReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	s.Deny("orders", DenyRead|DenyWrite)

	_, err := s.List(ctx, docstore.NewQuery("orders"))
	assert.ErrorIs(t, err, docstore.ErrPermissionDenied)
	_, err = s.Get(ctx, *docstore.Doc("orders", "o1"))
	assert.ErrorIs(t, err, docstore.ErrPermissionDenied)
	assert.ErrorIs(t, s.Set(ctx, *docstore.Doc("orders", "o1"), item{}, false), docstore.ErrPermissionDenied)

	s.Allow("orders")
	assert.NoError(t, s.Set(ctx, *docstore.Doc("orders", "o1"), item{}, false))
}

func TestStore_BatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	s.Deny("roles_admin", DenyWrite)

	err := s.Batch(ctx, []docstore.BatchOp{
		{Kind: docstore.BatchSet, Ref: *docstore.Doc("users", "u1"), Data: map[string]any{"role": "admin"}, Merge: true},
		{Kind: docstore.BatchSet, Ref: *docstore.Doc("roles_admin", "u1"), Data: map[string]any{"uid": "u1"}},
	})
	assert.ErrorIs(t, err, docstore.ErrPermissionDenied)

	rec, err := s.Get(ctx, *docstore.Doc("users", "u1"))
	require.NoError(t, err)
	assert.Nil(t, rec)
}

type collector struct {
	mu    sync.Mutex
	snaps [][]docstore.Record
	docs  []*docstore.Record
	errs  []error
}

func (c *collector) query(r []docstore.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = append(c.snaps, r)
}

func (c *collector) doc(r *docstore.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, r)
}

func (c *collector) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func TestStore_LiveQueryFollowsWrites(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	c := &collector{}

	stop := s.OpenLiveQuery(docstore.NewQuery("images").OrderBy("name", false), c.query, c.fail)
	require.Len(t, c.snaps, 1)
	assert.Empty(t, c.snaps[0])

	require.NoError(t, s.Set(ctx, *docstore.Doc("images", "x"), item{Name: "x"}, false))
	require.NoError(t, s.Set(ctx, *docstore.Doc("orders", "o"), item{Name: "o"}, false))
	require.Len(t, c.snaps, 2, "writes to other collections are not delivered")
	assert.Equal(t, []string{"x"}, names(t, c.snaps[1]))

	stop()
	stop()
	assert.Equal(t, 0, s.OpenFeeds())
	require.NoError(t, s.Delete(ctx, *docstore.Doc("images", "x")))
	assert.Len(t, c.snaps, 2)
}

func TestStore_LiveDocumentMissingThenCreated(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	c := &collector{}

	stop := s.OpenLiveDocument(*docstore.Doc("users", "u1"), c.doc, c.fail)
	defer stop()

	require.NoError(t, s.Set(ctx, *docstore.Doc("users", "u1"), item{Name: "Ann"}, false))

	require.Len(t, c.docs, 2)
	assert.Nil(t, c.docs[0])
	require.NotNil(t, c.docs[1])
	assert.Equal(t, "u1", c.docs[1].ID)
}

func TestStore_DenyFailsOpenFeedsOnce(t *testing.T) {
	s := New(nil)
	c := &collector{}

	stop := s.OpenLiveQuery(docstore.NewQuery("orders"), c.query, c.fail)
	defer stop()

	s.Deny("orders", DenyRead)
	require.Len(t, c.errs, 1)
	assert.ErrorIs(t, c.errs[0], docstore.ErrPermissionDenied)

	assert.Equal(t, 0, s.FailFeeds("orders", errors.New("again")))
	assert.Len(t, c.errs, 1)

	c2 := &collector{}
	s.OpenLiveQuery(docstore.NewQuery("orders"), c2.query, c2.fail)
	assert.Empty(t, c2.snaps)
	assert.Len(t, c2.errs, 1)
}
