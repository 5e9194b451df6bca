package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedImages_AreValid(t *testing.T) {
	imgs, err := SeedImages()
	require.NoError(t, err)
	require.NotEmpty(t, imgs)

	cats := map[Category]int{}
	for _, img := range imgs {
		assert.NotEmpty(t, img.ID)
		assert.NoError(t, img.Validate())
		cats[img.Category]++
	}
	for _, c := range Categories() {
		assert.Positive(t, cats[c], "no seed image in %s", c)
	}
}

func TestParseSeed_RejectsBadEntries(t *testing.T) {
	_, err := ParseSeed([]byte("images:\n  - {name: x, url: u, category: sculpture}\n"))
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = ParseSeed([]byte("images:\n  - {id: a, name: x, url: u, category: nature}\n  - {id: a, name: y, url: v, category: nature}\n"))
	assert.ErrorContains(t, err, "duplicate id")

	_, err = ParseSeed([]byte("images: [unterminated"))
	assert.Error(t, err)
}

func TestImage_EffectivePrice(t *testing.T) {
	assert.Equal(t, DefaultPrice, Image{}.EffectivePrice())
	assert.Equal(t, 120.0, Image{Price: 120}.EffectivePrice())
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Portrait ")
	require.NoError(t, err)
	assert.Equal(t, CategoryPortrait, c)

	_, err = ParseCategory("")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}
