// Package renderer composites watermark layers over a single image and
// encodes the result. Each Render call is independent and side-effect-free
// beyond its return value, so calls for different images may run
// concurrently against the same read-only asset registry.
package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/terrep263/snapbrand/internal/entity"
	"github.com/terrep263/snapbrand/internal/pkg/assets"
	"github.com/terrep263/snapbrand/internal/pkg/geometry"
)

// Renderer renders layer sets against a shared asset registry.
type Renderer struct {
	registry *assets.Registry
}

func New(registry *assets.Registry) *Renderer {
	return &Renderer{registry: registry}
}

// Render decodes the source image, composites every enabled layer in
// z-order and encodes the surface with the requested format and quality.
func (r *Renderer) Render(src entity.SourceImage, layers []entity.Layer, opts entity.RenderOptions) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: image %s: %v", entity.ErrDecode, src.ID, err)
	}

	canvas := imaging.Clone(img)
	if opts.Scale > 0 && opts.Scale != 1 {
		target := int(math.Round(float64(img.Bounds().Dx()) * opts.Scale))
		if target < 1 {
			target = 1
		}
		canvas = imaging.Resize(img, target, 0, imaging.Lanczos)
	}

	width := canvas.Bounds().Dx()
	height := canvas.Bounds().Dy()

	logrus.WithFields(logrus.Fields{
		"image_id": src.ID,
		"format":   format,
		"surface":  fmt.Sprintf("%dx%d", width, height),
		"layers":   len(layers),
	}).Debug("Rendering image")

	for _, layer := range entity.SortLayers(layers) {
		if !layer.Enabled {
			continue
		}
		if err := r.compositeLayer(canvas, layer, width, height); err != nil {
			return nil, err
		}
	}

	return encode(canvas, opts)
}

// compositeLayer resolves one layer's geometry against the surface and
// paints it, tiled if requested.
func (r *Renderer) compositeLayer(canvas *image.NRGBA, layer entity.Layer, width, height int) error {
	stamp, err := r.stamp(layer, width, height)
	if err != nil {
		return err
	}

	w := float64(stamp.Bounds().Dx())
	h := float64(stamp.Bounds().Dy())
	if w == 0 || h == 0 {
		return nil
	}

	originX, originY, err := resolveOrigin(layer, w, h, width, height)
	if err != nil {
		return err
	}

	// Rotation happens about the layer's own center: the stamp is rotated
	// onto an expanded transparent canvas and re-centered on the unrotated
	// box. Positive degrees rotate clockwise.
	painted := imaging.Rotate(stamp, -layer.Rotation, color.NRGBA{})
	rw := float64(painted.Bounds().Dx())
	rh := float64(painted.Bounds().Dy())

	for _, origin := range tileOrigins(layer, originX, originY, w, h, width, height) {
		cx := origin[0] + w/2
		cy := origin[1] + h/2
		at := image.Pt(int(math.Round(cx-rw/2)), int(math.Round(cy-rh/2)))
		draw(canvas, painted, at, layer.Opacity)
	}
	return nil
}

// resolveOrigin turns a layer's normalized placement point and anchor into
// the top-left paint origin of its w×h box on the given surface.
func resolveOrigin(layer entity.Layer, w, h float64, width, height int) (float64, float64, error) {
	px, py, err := geometry.ToPixels(geometry.Point{X: layer.XNorm, Y: layer.YNorm}, width, height)
	if err != nil {
		return 0, 0, fmt.Errorf("layer %s: %w", layer.ID, err)
	}
	ax, ay := layer.Anchor.Fractions()
	return px - ax*w, py - ay*h, nil
}

// draw pastes src over dst at the given point with the layer opacity,
// clipping anything outside dst.
func draw(dst *image.NRGBA, src image.Image, at image.Point, opacity float64) {
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}
	result := imaging.Overlay(dst, src, at, opacity)
	copy(dst.Pix, result.Pix)
}

// stamp renders the layer itself at its resolved pixel size, unrotated.
func (r *Renderer) stamp(layer entity.Layer, width, height int) (*image.NRGBA, error) {
	switch layer.Type {
	case entity.LayerText:
		return r.textStamp(layer, height)
	case entity.LayerLogo:
		return r.logoStamp(layer, width)
	default:
		return nil, fmt.Errorf("%w: unknown layer type %q", entity.ErrInvalidLayer, layer.Type)
	}
}

// logoStamp resizes the logo asset to widthNorm×canvasWidth×scale wide,
// preserving its aspect ratio.
func (r *Renderer) logoStamp(layer entity.Layer, canvasWidth int) (*image.NRGBA, error) {
	logo, err := r.registry.Logo(layer.LogoAssetID)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", layer.ID, err)
	}

	targetW := int(math.Round(layer.WidthNorm * float64(canvasWidth) * layer.Scale))
	if targetW < 1 {
		targetW = 1
	}
	// Zero height keeps the aspect ratio.
	return imaging.Resize(logo, targetW, 0, imaging.Lanczos), nil
}

func encode(img *image.NRGBA, opts entity.RenderOptions) ([]byte, error) {
	var buf bytes.Buffer
	switch opts.Format {
	case entity.FormatPNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
		}
	case entity.FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(qualityPercent(opts.Quality))}); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
		}
	case entity.FormatJPEG, "":
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(qualityPercent(opts.Quality))); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrEncode, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", entity.ErrEncode, opts.Format)
	}
	return buf.Bytes(), nil
}

// qualityPercent maps the 0–1 option onto the 1–100 encoder scale.
func qualityPercent(q float64) int {
	if q <= 0 || q > 1 {
		return 90
	}
	p := int(math.Round(q * 100))
	if p < 1 {
		p = 1
	}
	return p
}
