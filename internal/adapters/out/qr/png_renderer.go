// internal/adapters/out/qr/png_renderer.go
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	maxSize     = 1024
)

// PNGRenderer renders payment links as QR code PNGs. It implements
// usecase.QRRenderer.
type PNGRenderer struct {
	Level qrcode.RecoveryLevel
}

func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Level: qrcode.Medium}
}

func (r *PNGRenderer) PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr: empty content")
	}
	if size <= 0 {
		size = DefaultSize
	}
	if size > maxSize {
		size = maxSize
	}
	png, err := qrcode.Encode(content, r.Level, size)
	if err != nil {
		return nil, fmt.Errorf("qr: encode: %w", err)
	}
	return png, nil
}
