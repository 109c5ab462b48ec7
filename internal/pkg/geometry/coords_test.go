package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrep263/snapbrand/internal/entity"
)

func TestToNormalized(t *testing.T) {
	tests := []struct {
		name          string
		pixelX        float64
		pixelY        float64
		width         int
		height        int
		wantX         float64
		wantY         float64
	}{
		{
			name:   "center of square canvas",
			pixelX: 500, pixelY: 500,
			width: 1000, height: 1000,
			wantX: 0.5, wantY: 0.5,
		},
		{
			name:   "same relative point on wide canvas",
			pixelX: 1000, pixelY: 250,
			width: 2000, height: 500,
			wantX: 0.5, wantY: 0.5,
		},
		{
			name:   "origin",
			pixelX: 0, pixelY: 0,
			width: 640, height: 480,
			wantX: 0, wantY: 0,
		},
		{
			name:   "bottom right corner",
			pixelX: 640, pixelY: 480,
			width: 640, height: 480,
			wantX: 1, wantY: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ToNormalized(tt.pixelX, tt.pixelY, tt.width, tt.height)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantX, p.X, 1e-12)
			assert.InDelta(t, tt.wantY, p.Y, 1e-12)
		})
	}
}

func TestToNormalizedInvalidCanvas(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{name: "zero width", width: 0, height: 100},
		{name: "zero height", width: 100, height: 0},
		{name: "negative width", width: -1, height: 100},
		{name: "negative height", width: 100, height: -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToNormalized(10, 10, tt.width, tt.height)
			assert.ErrorIs(t, err, entity.ErrInvalidCanvasSize)
		})
	}
}

func TestToPixelsNonFinite(t *testing.T) {
	tests := []struct {
		name  string
		point Point
	}{
		{name: "NaN x", point: Point{X: math.NaN(), Y: 0.5}},
		{name: "NaN y", point: Point{X: 0.5, Y: math.NaN()}},
		{name: "positive infinity", point: Point{X: math.Inf(1), Y: 0.5}},
		{name: "negative infinity", point: Point{X: 0.5, Y: math.Inf(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ToPixels(tt.point, 100, 100)
			assert.ErrorIs(t, err, entity.ErrInvalidCoordinate)
		})
	}
}

// TestRoundTrip checks toPixels(toNormalized(p)) == p within relative
// tolerance across canvas shapes.
func TestRoundTrip(t *testing.T) {
	canvases := [][2]int{
		{1, 1},
		{100, 100},
		{1000, 1000},
		{2000, 500},
		{333, 777},
		{7680, 4320},
	}
	points := [][2]float64{
		{0, 0},
		{1, 1},
		{0.25, 0.75},
		{0.333333, 0.666667},
		{0.95, 0.05},
	}

	for _, c := range canvases {
		for _, pt := range points {
			px := pt[0] * float64(c[0])
			py := pt[1] * float64(c[1])

			norm, err := ToNormalized(px, py, c[0], c[1])
			require.NoError(t, err)

			gotX, gotY, err := ToPixels(norm, c[0], c[1])
			require.NoError(t, err)

			tol := 1e-9 * math.Max(1, math.Max(math.Abs(px), math.Abs(py)))
			assert.InDelta(t, px, gotX, tol)
			assert.InDelta(t, py, gotY, tol)
		}
	}
}

func TestFontSizeConversion(t *testing.T) {
	tests := []struct {
		name         string
		px           float64
		canvasHeight int
		wantRel      float64
	}{
		{name: "5 percent of 1000", px: 50, canvasHeight: 1000, wantRel: 0.05},
		{name: "full height", px: 480, canvasHeight: 480, wantRel: 1},
		{name: "odd height", px: 36, canvasHeight: 731, wantRel: 36.0 / 731.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, err := FontSizeToRelative(tt.px, tt.canvasHeight)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantRel, rel, 1e-12)

			// symmetric pair
			px, err := FontSizeToPixels(rel, tt.canvasHeight)
			require.NoError(t, err)
			assert.InDelta(t, tt.px, px, 1e-9)
		})
	}

	_, err := FontSizeToRelative(12, 0)
	assert.ErrorIs(t, err, entity.ErrInvalidCanvasSize)
	_, err = FontSizeToPixels(0.05, -5)
	assert.ErrorIs(t, err, entity.ErrInvalidCanvasSize)
}
