package converter

import (
	"bytes"
	"context"
	"image"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Fallback canvas for SVG documents with no usable intrinsic size,
// matching the replaced-element default of 300x150.
const (
	svgDefaultWidth  = 300
	svgDefaultHeight = 150
)

// decodeBitmap turns raw file bytes into an in-memory bitmap. Raster
// formats go through imaging (which fixes EXIF orientation); SVG is
// rasterized at its intrinsic size.
func decodeBitmap(ctx context.Context, data []byte, contentType string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if contentType == "image/svg+xml" {
		return rasterizeSVG(data, contentType)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{ContentType: contentType, Err: err}
	}
	return img, nil
}

func rasterizeSVG(data []byte, contentType string) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{ContentType: contentType, Err: err}
	}

	w := int(icon.ViewBox.W)
	h := int(icon.ViewBox.H)
	if w <= 0 || h <= 0 {
		w, h = svgDefaultWidth, svgDefaultHeight
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	return rgba, nil
}
