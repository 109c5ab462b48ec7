package renderer

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/terrep263/snapbrand/internal/entity"
)

// textStamp draws the layer's string into a tight bounding box at the
// resolved font size. Font resolution degrades to the embedded fallback
// instead of failing the render.
func (r *Renderer) textStamp(layer entity.Layer, canvasHeight int) (*image.NRGBA, error) {
	sizePx := layer.FontSizeRel * float64(canvasHeight) * layer.Scale
	if sizePx < 1 {
		sizePx = 1
	}

	face, err := r.registry.Fonts().Face(layer.FontFamily, sizePx)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"layer_id":    layer.ID,
			"font_family": layer.FontFamily,
		}).Warnf("Font load failed, falling back to embedded font: %v", err)
		face, err = r.registry.Fonts().Face("", sizePx)
		if err != nil {
			return nil, err
		}
	}

	metrics := face.Metrics()
	width := font.MeasureString(face, layer.Text).Ceil()
	height := (metrics.Ascent + metrics.Descent).Ceil()
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	stamp := image.NewNRGBA(image.Rect(0, 0, width, height))
	drawer := &font.Drawer{
		Dst:  stamp,
		Src:  image.NewUniform(parseHexColor(layer.Color)),
		Face: face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	drawer.DrawString(layer.Text)

	return stamp, nil
}

// parseHexColor converts "#rrggbb" or "#rrggbbaa" to a color. Anything
// unparseable yields opaque white.
func parseHexColor(hex string) color.NRGBA {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{255, 255, 255, 255}
	}

	r, errR := strconv.ParseUint(hex[0:2], 16, 8)
	g, errG := strconv.ParseUint(hex[2:4], 16, 8)
	b, errB := strconv.ParseUint(hex[4:6], 16, 8)
	if errR != nil || errG != nil || errB != nil {
		return color.NRGBA{255, 255, 255, 255}
	}

	a := uint64(255)
	if len(hex) == 8 {
		var errA error
		a, errA = strconv.ParseUint(hex[6:8], 16, 8)
		if errA != nil {
			a = 255
		}
	}

	return color.NRGBA{uint8(r), uint8(g), uint8(b), uint8(a)}
}
