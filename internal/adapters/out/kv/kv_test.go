package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"optivista/internal/domain/cart"
	"optivista/internal/domain/catalog"
)

func TestMemoryCartStorage_GetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCartStorage(time.Hour, 0)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", `[]`))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, v)
}

func TestMemoryCartStorage_Expires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCartStorage(20*time.Millisecond, 0)
	require.NoError(t, s.Set(ctx, "k", `[]`))

	require.Eventually(t, func() bool {
		_, ok, _ := s.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryCartStorage_BacksCartStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCartStorage(time.Hour, 0)
	key := cart.Key("session-1")

	st, err := cart.NewStore(ctx, s, key, nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, st.Add(ctx, catalog.Image{ID: "p1", Name: "Dunes", URL: "u", Price: 799}))

	again, err := cart.NewStore(ctx, s, key, nil, zap.NewNop())
	require.NoError(t, err)
	items := again.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ID)
	assert.Equal(t, 1, items[0].Quantity)
}
