// Package imageproc implements the raster side of the grabber: fitting
// product photos onto a square white canvas, painting over the fixed
// watermark corner and stamping a new watermark.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// CanvasSize is the edge length of every produced image.
const CanvasSize = 1000

var white = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Decode reads any supported raster format (JPEG, PNG, GIF, BMP, TIFF, WebP),
// honoring EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Canvas scales img to fit inside a size×size square, enlarging small images,
// and centers it on opaque white. Transparent areas become white.
func Canvas(img image.Image, size int) *image.NRGBA {
	bg := imaging.New(size, size, white)
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return bg
	}
	scale := math.Min(float64(size)/float64(b.Dx()), float64(size)/float64(b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	var fitted image.Image = img
	if w != b.Dx() || h != b.Dy() {
		fitted = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	return imaging.OverlayCenter(bg, fitted, 1.0)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WhiteBackground decodes data, flattens it on white and fits it to the
// standard canvas, returning PNG bytes.
func WhiteBackground(data []byte) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, Canvas(img, CanvasSize)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
