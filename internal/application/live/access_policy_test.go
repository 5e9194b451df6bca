package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessPolicy_IsPublic(t *testing.T) {
	p := NewAccessPolicy(map[string]Access{
		"images":             AccessPublic,
		"/configurations/ ":  AccessPublic,
		"users/u1/favorites": AccessPublic,
		"orders":             AccessProtected,
	})

	cases := map[string]bool{
		"images":               true,
		"images/abc":           true,
		"/images/":             true,
		"configurations":       true,
		"users/u1/favorites":   true,
		"users/u1/favorites/x": true,
		"users":                false,
		"users/u1":             false,
		"orders":               false,
		"orders/o1":            false,
		"downloads":            false,
		"":                     false,
	}
	for path, want := range cases {
		assert.Equal(t, want, p.IsPublic(path), path)
	}
}

func TestAccessPolicy_DefaultOnlyOpensCatalog(t *testing.T) {
	p := DefaultAccessPolicy()
	assert.True(t, p.IsPublic("images"))
	assert.False(t, p.IsPublic("orders"))
	assert.False(t, p.IsPublic("contact_form_submissions"))

	var nilPolicy *AccessPolicy
	assert.False(t, nilPolicy.IsPublic("images"))
}
