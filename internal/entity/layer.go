package entity

import (
	"fmt"
	"sort"
)

type LayerType string

const (
	LayerText LayerType = "text"
	LayerLogo LayerType = "logo"
)

// Anchor names the point of a layer's bounding box that coincides with the
// layer's placement point.
type Anchor string

const (
	AnchorTopLeft      Anchor = "top-left"
	AnchorTopCenter    Anchor = "top-center"
	AnchorTopRight     Anchor = "top-right"
	AnchorCenterLeft   Anchor = "center-left"
	AnchorCenter       Anchor = "center"
	AnchorCenterRight  Anchor = "center-right"
	AnchorBottomLeft   Anchor = "bottom-left"
	AnchorBottomCenter Anchor = "bottom-center"
	AnchorBottomRight  Anchor = "bottom-right"
)

var anchorFractions = map[Anchor][2]float64{
	AnchorTopLeft:      {0, 0},
	AnchorTopCenter:    {0.5, 0},
	AnchorTopRight:     {1, 0},
	AnchorCenterLeft:   {0, 0.5},
	AnchorCenter:       {0.5, 0.5},
	AnchorCenterRight:  {1, 0.5},
	AnchorBottomLeft:   {0, 1},
	AnchorBottomCenter: {0.5, 1},
	AnchorBottomRight:  {1, 1},
}

// Fractions returns the (ax, ay) bounding-box fractions for the anchor.
// Unknown anchors resolve as center.
func (a Anchor) Fractions() (float64, float64) {
	f, ok := anchorFractions[a]
	if !ok {
		return 0.5, 0.5
	}
	return f[0], f[1]
}

func (a Anchor) Valid() bool {
	_, ok := anchorFractions[a]
	return ok
}

type TileMode string

const (
	TileNone TileMode = "none"
	TileGrid TileMode = "grid"
)

// DefaultTileGap is the gap between tiled instances as a fraction of the
// canvas dimension on each axis, used when a tiled layer carries no gap.
const DefaultTileGap = 0.05

// Layer is one watermark layer of a design. Placement and sizes are stored
// in normalized form (fractions of the target canvas) so the same design
// reproduces on any resolution. The legacy OffsetX/OffsetY fields are
// percent-from-center values written by old editor versions; Normalize
// migrates them into XNorm/YNorm before a layer enters the engine.
type Layer struct {
	ID      string    `json:"id"`
	Type    LayerType `json:"type"`
	ZIndex  int       `json:"z_index"`
	Enabled bool      `json:"enabled"`
	GroupID string    `json:"group_id,omitempty"`

	XNorm   float64  `json:"x_norm"`
	YNorm   float64  `json:"y_norm"`
	OffsetX *float64 `json:"offset_x,omitempty"`
	OffsetY *float64 `json:"offset_y,omitempty"`
	Anchor  Anchor   `json:"anchor"`

	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`

	TileMode TileMode `json:"tile_mode"`
	TileGapX float64  `json:"tile_gap_x,omitempty"`
	TileGapY float64  `json:"tile_gap_y,omitempty"`

	// Text fields
	Text        string  `json:"text,omitempty"`
	FontFamily  string  `json:"font_family,omitempty"`
	FontSizeRel float64 `json:"font_size_rel,omitempty"`
	Color       string  `json:"color,omitempty"`

	// Logo fields
	LogoAssetID      string  `json:"logo_asset_id,omitempty"`
	ScaleLocked      bool    `json:"scale_locked,omitempty"`
	WidthNorm        float64 `json:"width_norm,omitempty"`
	NaturalLogoWidth int     `json:"natural_logo_width,omitempty"`
}

// Normalize migrates legacy placement fields into canonical normalized form
// against the editor canvas the layer was authored on. It returns a copy;
// layers are value objects and are never mutated in place. After
// normalization the legacy fields are cleared, so the engine only ever
// branches on canonical data.
func (l Layer) Normalize(editorWidth, editorHeight int) (Layer, error) {
	if editorWidth <= 0 || editorHeight <= 0 {
		return Layer{}, fmt.Errorf("%w: %dx%d", ErrInvalidCanvasSize, editorWidth, editorHeight)
	}

	out := l

	if l.OffsetX != nil {
		out.XNorm = 0.5 + *l.OffsetX/100
		out.OffsetX = nil
	}
	if l.OffsetY != nil {
		out.YNorm = 0.5 + *l.OffsetY/100
		out.OffsetY = nil
	}

	// Legacy logo layers carried a bare scale against the asset's natural
	// width. WidthNorm becomes authoritative from here on.
	if l.Type == LayerLogo && l.WidthNorm == 0 && l.NaturalLogoWidth > 0 {
		scale := l.Scale
		if scale == 0 {
			scale = 1
		}
		out.WidthNorm = scale * float64(l.NaturalLogoWidth) / float64(editorWidth)
		out.Scale = 1
		out.ScaleLocked = true
	}

	if out.Anchor == "" {
		out.Anchor = AnchorCenter
	}
	if out.Scale == 0 {
		out.Scale = 1
	}
	// Sparse layer JSON omits opacity; zero would render invisibly.
	if out.Opacity == 0 {
		out.Opacity = 1
	}
	if out.TileMode == "" {
		out.TileMode = TileNone
	}
	if out.TileMode == TileGrid {
		if out.TileGapX == 0 {
			out.TileGapX = DefaultTileGap
		}
		if out.TileGapY == 0 {
			out.TileGapY = DefaultTileGap
		}
	}

	return out, out.Validate()
}

// Validate checks a canonical layer. It is called after normalization, so
// legacy fields still present are an error.
func (l Layer) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: layer id is empty", ErrInvalidLayer)
	}
	if l.Type != LayerText && l.Type != LayerLogo {
		return fmt.Errorf("%w: unknown layer type %q", ErrInvalidLayer, l.Type)
	}
	if l.OffsetX != nil || l.OffsetY != nil {
		return fmt.Errorf("%w: layer %s still carries legacy offsets", ErrInvalidLayer, l.ID)
	}
	if !l.Anchor.Valid() {
		return fmt.Errorf("%w: unknown anchor %q", ErrInvalidLayer, l.Anchor)
	}
	if l.Opacity < 0 || l.Opacity > 1 {
		return fmt.Errorf("%w: opacity %v out of range", ErrInvalidLayer, l.Opacity)
	}
	if l.Scale < 0 {
		return fmt.Errorf("%w: negative scale %v", ErrInvalidLayer, l.Scale)
	}
	if l.TileMode != TileNone && l.TileMode != TileGrid {
		return fmt.Errorf("%w: unknown tile mode %q", ErrInvalidLayer, l.TileMode)
	}
	switch l.Type {
	case LayerText:
		if l.Text == "" {
			return fmt.Errorf("%w: text layer %s has no text", ErrInvalidLayer, l.ID)
		}
		if l.FontSizeRel <= 0 {
			return fmt.Errorf("%w: text layer %s has no font size", ErrInvalidLayer, l.ID)
		}
	case LayerLogo:
		if l.LogoAssetID == "" {
			return fmt.Errorf("%w: logo layer %s has no asset id", ErrInvalidLayer, l.ID)
		}
		if l.WidthNorm <= 0 {
			return fmt.Errorf("%w: logo layer %s has no width", ErrInvalidLayer, l.ID)
		}
	}
	return nil
}

// SortLayers orders layers for painting: ascending z-index, input order on
// ties.
func SortLayers(layers []Layer) []Layer {
	sorted := make([]Layer, len(layers))
	copy(sorted, layers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ZIndex < sorted[j].ZIndex
	})
	return sorted
}
