package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ErrCanvasSize is returned when RemoveWatermark gets an image that was not
// first placed on the expected canvas.
var ErrCanvasSize = errors.New("image is not on the expected canvas")

// Geometry fixes where the watermark sits and how it is painted over.
type Geometry struct {
	Canvas int
	PatchW int
	PatchH int
	// Margin between the patch and the bottom/right canvas edges.
	Margin int
	// StripWidth is the thickness of the edge strips sampled next to the patch.
	StripWidth int
	BlurSigma  float64
	// BlendOpacity is the weight of the top strip overlay-blended onto the
	// left strip.
	BlendOpacity float64
	// FadeExtent is where the diagonal fade reaches full opacity, as a
	// fraction of the patch along each axis.
	FadeExtent float64
}

// DefaultGeometry matches the 400×200 bottom-right stamp used by the stores
// the grabber targets.
var DefaultGeometry = Geometry{
	Canvas:       CanvasSize,
	PatchW:       400,
	PatchH:       200,
	Margin:       0,
	StripWidth:   2,
	BlurSigma:    20,
	BlendOpacity: 0.5,
	FadeExtent:   0.2,
}

// Patch returns the rectangle that gets repainted.
func (g Geometry) Patch() image.Rectangle {
	x := g.Canvas - g.PatchW - g.Margin
	y := g.Canvas - g.PatchH - g.Margin
	return image.Rect(x, y, x+g.PatchW, y+g.PatchH)
}

func (g Geometry) validate() error {
	p := g.Patch()
	if g.PatchW <= 0 || g.PatchH <= 0 || g.StripWidth <= 0 {
		return fmt.Errorf("invalid patch geometry %+v", g)
	}
	if p.Min.X-g.StripWidth < 0 || p.Min.Y-g.StripWidth < 0 || p.Max.X > g.Canvas || p.Max.Y > g.Canvas {
		return fmt.Errorf("patch %v does not fit canvas %d", p, g.Canvas)
	}
	return nil
}

// RemoveWatermark paints over the patch area of img with a blurred
// stretch of the pixels bordering it, faded in diagonally from the patch's
// top-left corner. img must already be g.Canvas pixels square.
func RemoveWatermark(img image.Image, g Geometry) (*image.NRGBA, error) {
	b := img.Bounds()
	if b.Dx() != g.Canvas || b.Dy() != g.Canvas {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrCanvasSize, b.Dx(), b.Dy(), g.Canvas, g.Canvas)
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	base := imaging.Clone(img)
	p := g.Patch()

	left := imaging.Crop(base, image.Rect(p.Min.X-g.StripWidth, p.Min.Y, p.Min.X, p.Max.Y))
	left = imaging.Blur(imaging.Resize(left, g.PatchW, g.PatchH, imaging.Lanczos), g.BlurSigma)

	top := imaging.Crop(base, image.Rect(p.Min.X, p.Min.Y-g.StripWidth, p.Max.X, p.Min.Y))
	top = imaging.Blur(imaging.Resize(top, g.PatchW, g.PatchH, imaging.Lanczos), g.BlurSigma)

	patch := overlayBlend(left, top, g.BlendOpacity)
	applyFade(patch, g.FadeExtent)

	return imaging.Overlay(base, patch, p.Min, 1.0), nil
}

// overlayBlend applies the "overlay" blend mode of src onto dst, mixed at
// opacity. Both images must share dimensions. Alpha is taken from dst.
func overlayBlend(dst, src *image.NRGBA, opacity float64) *image.NRGBA {
	out := imaging.Clone(dst)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			d := float64(dst.Pix[i+c]) / 255
			s := float64(src.Pix[i+c]) / 255
			var v float64
			if d < 0.5 {
				v = 2 * d * s
			} else {
				v = 1 - 2*(1-d)*(1-s)
			}
			mixed := d*(1-opacity) + v*opacity
			out.Pix[i+c] = uint8(math.Round(clamp01(mixed) * 255))
		}
	}
	return out
}

// applyFade multiplies the alpha channel of img by a linear gradient running
// from transparent at the top-left corner to opaque at extent of the way
// along both axes.
func applyFade(img *image.NRGBA, extent float64) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := fadeAlpha(x, y, w, h, extent)
			i := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			img.Pix[i+3] = uint8(math.Round(float64(img.Pix[i+3]) * a))
		}
	}
}

func fadeAlpha(x, y, w, h int, extent float64) float64 {
	if extent <= 0 {
		return 1
	}
	t := (float64(x)/float64(w) + float64(y)/float64(h)) / (2 * extent)
	return clamp01(t)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// LoadWatermark decodes a watermark image and stretches it to cover the
// whole canvas.
func LoadWatermark(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, errors.New("empty watermark")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode watermark: %w", err)
	}
	return imaging.Resize(img, CanvasSize, CanvasSize, imaging.Lanczos), nil
}

// Overlay composites wm centered over img at full opacity.
func Overlay(img image.Image, wm image.Image) *image.NRGBA {
	return imaging.OverlayCenter(img, wm, 1.0)
}

// Options selects the transforms Process applies.
type Options struct {
	RemoveWatermark bool
	Geometry        Geometry
	// Watermark, when set, is stamped after any removal.
	Watermark image.Image
}

// Process decodes one downloaded image, fits it to the canvas, optionally
// removes the old watermark and stamps the new one, and returns PNG bytes.
func Process(data []byte, opts Options) ([]byte, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	g := opts.Geometry
	if g.Canvas == 0 {
		g = DefaultGeometry
	}
	out := Canvas(img, g.Canvas)
	if opts.RemoveWatermark {
		if out, err = RemoveWatermark(out, g); err != nil {
			return nil, err
		}
	}
	if opts.Watermark != nil {
		out = Overlay(out, opts.Watermark)
	}
	var buf bytes.Buffer
	if err := EncodePNG(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
