package girocode

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// DefaultSize is the rendered QR edge length in pixels.
const DefaultSize = 256

// EncodePNG renders a payload into a QR symbol PNG. Error correction level M
// is what EPC069-12 mandates for GiroCodes.
func EncodePNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("girocode: encode qr: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("girocode: scale qr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("girocode: png encode: %w", err)
	}
	return buf.Bytes(), nil
}
