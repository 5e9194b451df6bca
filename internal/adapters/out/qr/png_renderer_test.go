package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNGRenderer_PNG(t *testing.T) {
	r := NewPNGRenderer()

	b, err := r.PNG("upi://pay?pa=shop@upi&pn=Optivista&am=799.00&cu=INR", 200)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestPNGRenderer_DefaultsAndErrors(t *testing.T) {
	r := NewPNGRenderer()

	b, err := r.PNG("hello", 0)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())

	_, err = r.PNG("", 100)
	assert.Error(t, err)
}
