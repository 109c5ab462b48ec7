// Package geometry converts between normalized (resolution-independent)
// and pixel coordinates. A normalized point holds fractions of the canvas
// dimensions, origin top-left, so a fixed point lands on the same relative
// spot of any canvas: (X*W, Y*H).
package geometry

import (
	"fmt"
	"math"

	"github.com/terrep263/snapbrand/internal/entity"
)

// Point is a normalized position, each coordinate in [0,1] for on-canvas
// placements. Values outside the unit range are legal and mean off-canvas.
type Point struct {
	X float64 `json:"x_norm"`
	Y float64 `json:"y_norm"`
}

// ToNormalized converts a pixel position on a width×height canvas into a
// normalized point.
func ToNormalized(pixelX, pixelY float64, width, height int) (Point, error) {
	if width <= 0 || height <= 0 {
		return Point{}, fmt.Errorf("%w: %dx%d", entity.ErrInvalidCanvasSize, width, height)
	}
	return Point{X: pixelX / float64(width), Y: pixelY / float64(height)}, nil
}

// ToPixels resolves a normalized point against a width×height canvas.
func ToPixels(p Point, width, height int) (float64, float64, error) {
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: %dx%d", entity.ErrInvalidCanvasSize, width, height)
	}
	x := p.X * float64(width)
	y := p.Y * float64(height)
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, 0, fmt.Errorf("%w: (%v, %v)", entity.ErrInvalidCoordinate, p.X, p.Y)
	}
	return x, y, nil
}

// FontSizeToRelative expresses a pixel font size as a fraction of canvas
// height.
func FontSizeToRelative(px float64, canvasHeight int) (float64, error) {
	if canvasHeight <= 0 {
		return 0, fmt.Errorf("%w: height %d", entity.ErrInvalidCanvasSize, canvasHeight)
	}
	return px / float64(canvasHeight), nil
}

// FontSizeToPixels resolves a relative font size against a canvas height.
func FontSizeToPixels(rel float64, canvasHeight int) (float64, error) {
	if canvasHeight <= 0 {
		return 0, fmt.Errorf("%w: height %d", entity.ErrInvalidCanvasSize, canvasHeight)
	}
	return rel * float64(canvasHeight), nil
}
