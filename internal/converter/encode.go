package converter

import (
	"bytes"
	"context"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// encodeWebP renders bitmap onto an NRGBA surface at its natural size
// and encodes the surface as lossy WebP. quality is 0.0-1.0.
func encodeWebP(ctx context.Context, bitmap image.Image, quality float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	surface := imaging.Clone(bitmap)

	var buf bytes.Buffer
	opts := &webp.Options{Quality: float32(quality * 100)}
	if err := webp.Encode(&buf, surface, opts); err != nil {
		return nil, &EncodeFailedError{Err: err}
	}
	if buf.Len() == 0 {
		return nil, &EncodeFailedError{}
	}

	return buf.Bytes(), nil
}

func clampQuality(q float64) float64 {
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}
