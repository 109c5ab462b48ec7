package renderer

import "github.com/terrep263/snapbrand/internal/entity"

// tileOrigins returns the paint origins for a layer. Untiled layers paint
// once at their resolved origin. Grid tiling replicates the resolved box at
// a spacing of (w + gapX*W, h + gapY*H) in both directions, with one
// instance anchored exactly at the resolved origin; edge tiles that only
// partially overlap the canvas are kept and clipped at paint time.
func tileOrigins(layer entity.Layer, originX, originY, w, h float64, canvasWidth, canvasHeight int) [][2]float64 {
	if layer.TileMode != entity.TileGrid {
		return [][2]float64{{originX, originY}}
	}

	stepX := w + layer.TileGapX*float64(canvasWidth)
	stepY := h + layer.TileGapY*float64(canvasHeight)
	if stepX <= 0 || stepY <= 0 {
		return [][2]float64{{originX, originY}}
	}

	// Walk back from the anchored instance until the previous tile would
	// no longer touch the canvas.
	startX := originX
	for startX-stepX+w > 0 {
		startX -= stepX
	}
	startY := originY
	for startY-stepY+h > 0 {
		startY -= stepY
	}

	var origins [][2]float64
	for y := startY; y < float64(canvasHeight); y += stepY {
		for x := startX; x < float64(canvasWidth); x += stepX {
			origins = append(origins, [2]float64{x, y})
		}
	}
	return origins
}
