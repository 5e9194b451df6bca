package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	entries, err := Normalize(map[string]string{KeyHeroHeadline: " Light ", KeySiteName: "Optivista"})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Key: KeySiteName, Value: "Optivista"}, {Key: KeyHeroHeadline, Value: "Light"}}, entries)

	_, err = Normalize(map[string]string{"theme": "dark"})
	assert.ErrorIs(t, err, ErrUnknownKey)

	assert.Equal(t, map[string]string{KeySiteName: "Optivista", KeyHeroHeadline: "Light"}, Map(entries))
}
