// Package snap adjusts a dragged layer position onto nearby guide lines.
// It is editor feedback only and is never consulted during export.
package snap

import "math"

// DefaultThreshold is the snap distance in normalized units. A candidate
// exactly at the threshold still snaps.
const DefaultThreshold = 0.03

// SafeZoneGuides marks the safe-zone edges and the canvas center.
var SafeZoneGuides = []float64{0.05, 0.5, 0.95}

// RuleOfThirdsGuides adds the thirds lines to the safe-zone set.
var RuleOfThirdsGuides = []float64{0.05, 0.33, 0.5, 0.66, 0.95}

// Result reports the possibly-adjusted position and which guides, if any,
// were activated per axis.
type Result struct {
	X            float64  `json:"x_norm"`
	Y            float64  `json:"y_norm"`
	SnappedX     bool     `json:"snapped_x"`
	SnappedY     bool     `json:"snapped_y"`
	ActiveGuideX *float64 `json:"active_guide_x,omitempty"`
	ActiveGuideY *float64 `json:"active_guide_y,omitempty"`
}

// Position snaps each axis independently to the nearest guide within
// threshold. Horizontal guides are y values, vertical guides are x values.
// A nil or empty guide set leaves that axis untouched, as does enabled=false.
func Position(xNorm, yNorm float64, horizontalGuides, verticalGuides []float64, enabled bool, threshold float64) Result {
	res := Result{X: xNorm, Y: yNorm}
	if !enabled {
		return res
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	if g, ok := nearest(xNorm, verticalGuides, threshold); ok {
		res.X = g
		res.SnappedX = true
		res.ActiveGuideX = &g
	}
	if g, ok := nearest(yNorm, horizontalGuides, threshold); ok {
		res.Y = g
		res.SnappedY = true
		res.ActiveGuideY = &g
	}
	return res
}

// nearest returns the guide with minimum absolute distance to v when that
// distance is within threshold, inclusive.
func nearest(v float64, guides []float64, threshold float64) (float64, bool) {
	best := 0.0
	bestDist := math.Inf(1)
	for _, g := range guides {
		if d := math.Abs(v - g); d < bestDist {
			best = g
			bestDist = d
		}
	}
	if bestDist <= threshold {
		return best, true
	}
	return 0, false
}
