package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textLayer() Layer {
	return Layer{
		ID:          "t1",
		Type:        LayerText,
		Enabled:     true,
		XNorm:       0.5,
		YNorm:       0.5,
		Anchor:      AnchorCenter,
		Scale:       1,
		Opacity:     1,
		TileMode:    TileNone,
		Text:        "Sample",
		FontSizeRel: 0.05,
	}
}

func ptr(v float64) *float64 { return &v }

// TestNormalizeLegacyOffsets: legacy percent-from-center offsets migrate
// into canonical normalized coordinates and are cleared.
func TestNormalizeLegacyOffsets(t *testing.T) {
	tests := []struct {
		name    string
		offsetX float64
		offsetY float64
		wantX   float64
		wantY   float64
	}{
		{name: "center", offsetX: 0, offsetY: 0, wantX: 0.5, wantY: 0.5},
		{name: "quarter right and up", offsetX: 25, offsetY: -25, wantX: 0.75, wantY: 0.25},
		{name: "far corner", offsetX: 45, offsetY: 45, wantX: 0.95, wantY: 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := textLayer()
			l.OffsetX = ptr(tt.offsetX)
			l.OffsetY = ptr(tt.offsetY)

			got, err := l.Normalize(1920, 1080)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantX, got.XNorm, 1e-12)
			assert.InDelta(t, tt.wantY, got.YNorm, 1e-12)
			assert.Nil(t, got.OffsetX)
			assert.Nil(t, got.OffsetY)

			// Value semantics: the input layer is untouched.
			assert.NotNil(t, l.OffsetX)
		})
	}
}

// TestNormalizeLegacyLogoScale: a legacy logo with a bare scale gains an
// authoritative widthNorm derived from its natural width and the editor
// canvas it was authored on.
func TestNormalizeLegacyLogoScale(t *testing.T) {
	l := Layer{
		ID:               "logo1",
		Type:             LayerLogo,
		Enabled:          true,
		XNorm:            0.5,
		YNorm:            0.5,
		Anchor:           AnchorCenter,
		Scale:            0.5,
		Opacity:          1,
		LogoAssetID:      "asset-1",
		NaturalLogoWidth: 800,
	}

	got, err := l.Normalize(1600, 900)
	require.NoError(t, err)
	// 0.5 × 800px on a 1600px editor canvas = a quarter of the width.
	assert.InDelta(t, 0.25, got.WidthNorm, 1e-12)
	assert.True(t, got.ScaleLocked)
	assert.Equal(t, 1.0, got.Scale)
}

func TestNormalizeKeepsCanonicalLogoWidth(t *testing.T) {
	l := Layer{
		ID:          "logo1",
		Type:        LayerLogo,
		Enabled:     true,
		Anchor:      AnchorCenter,
		Scale:       1,
		Opacity:     1,
		LogoAssetID: "asset-1",
		ScaleLocked: true,
		WidthNorm:   0.3,
	}

	got, err := l.Normalize(1600, 900)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, got.WidthNorm, 1e-12)
}

func TestNormalizeDefaults(t *testing.T) {
	l := textLayer()
	l.Anchor = ""
	l.Scale = 0
	l.Opacity = 0
	l.TileMode = ""

	got, err := l.Normalize(1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, AnchorCenter, got.Anchor)
	assert.Equal(t, 1.0, got.Scale)
	assert.Equal(t, 1.0, got.Opacity, "omitted opacity must not save as invisible")
	assert.Equal(t, TileNone, got.TileMode)
}

func TestNormalizeTileGapDefaults(t *testing.T) {
	l := textLayer()
	l.TileMode = TileGrid

	got, err := l.Normalize(1000, 1000)
	require.NoError(t, err)
	assert.InDelta(t, DefaultTileGap, got.TileGapX, 1e-12)
	assert.InDelta(t, DefaultTileGap, got.TileGapY, 1e-12)
}

func TestNormalizeRejectsInvalidCanvas(t *testing.T) {
	l := textLayer()
	_, err := l.Normalize(0, 1080)
	assert.ErrorIs(t, err, ErrInvalidCanvasSize)
	_, err = l.Normalize(1920, -1)
	assert.ErrorIs(t, err, ErrInvalidCanvasSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Layer)
		wantErr bool
	}{
		{name: "valid text layer", mutate: func(l *Layer) {}},
		{name: "missing id", mutate: func(l *Layer) { l.ID = "" }, wantErr: true},
		{name: "unknown type", mutate: func(l *Layer) { l.Type = "video" }, wantErr: true},
		{name: "lingering legacy offset", mutate: func(l *Layer) { l.OffsetX = ptr(10) }, wantErr: true},
		{name: "bad anchor", mutate: func(l *Layer) { l.Anchor = "middle" }, wantErr: true},
		{name: "opacity above one", mutate: func(l *Layer) { l.Opacity = 1.2 }, wantErr: true},
		{name: "negative opacity", mutate: func(l *Layer) { l.Opacity = -0.1 }, wantErr: true},
		{name: "negative scale", mutate: func(l *Layer) { l.Scale = -1 }, wantErr: true},
		{name: "bad tile mode", mutate: func(l *Layer) { l.TileMode = "diagonal" }, wantErr: true},
		{name: "text without text", mutate: func(l *Layer) { l.Text = "" }, wantErr: true},
		{name: "text without font size", mutate: func(l *Layer) { l.FontSizeRel = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := textLayer()
			tt.mutate(&l)
			err := l.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLayer)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLogo(t *testing.T) {
	l := Layer{
		ID: "logo1", Type: LayerLogo, Anchor: AnchorCenter,
		Scale: 1, Opacity: 1, TileMode: TileNone,
		LogoAssetID: "asset-1", WidthNorm: 0.2,
	}
	assert.NoError(t, l.Validate())

	noAsset := l
	noAsset.LogoAssetID = ""
	assert.ErrorIs(t, noAsset.Validate(), ErrInvalidLayer)

	noWidth := l
	noWidth.WidthNorm = 0
	assert.ErrorIs(t, noWidth.Validate(), ErrInvalidLayer)
}

func TestAnchorFractions(t *testing.T) {
	ax, ay := AnchorTopLeft.Fractions()
	assert.Equal(t, [2]float64{0, 0}, [2]float64{ax, ay})

	ax, ay = AnchorCenter.Fractions()
	assert.Equal(t, [2]float64{0.5, 0.5}, [2]float64{ax, ay})

	ax, ay = AnchorBottomLeft.Fractions()
	assert.Equal(t, [2]float64{0, 1}, [2]float64{ax, ay})

	ax, ay = AnchorCenterRight.Fractions()
	assert.Equal(t, [2]float64{1, 0.5}, [2]float64{ax, ay})

	// Unknown anchors resolve as center rather than panicking.
	ax, ay = Anchor("nowhere").Fractions()
	assert.Equal(t, [2]float64{0.5, 0.5}, [2]float64{ax, ay})
}

// TestSortLayers: ascending z-index with ties kept in input order.
func TestSortLayers(t *testing.T) {
	layers := []Layer{
		{ID: "c", ZIndex: 2},
		{ID: "a", ZIndex: 1},
		{ID: "b", ZIndex: 1},
		{ID: "d", ZIndex: 0},
	}

	sorted := SortLayers(layers)
	ids := make([]string, len(sorted))
	for i, l := range sorted {
		ids[i] = l.ID
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
	assert.Equal(t, "c", layers[0].ID, "input slice is not reordered")
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "summer_photo_id-1_branded.jpg", SafeFilename("summer photo.png", "id-1", FormatJPEG))
	assert.Equal(t, "IMG_0042_id-2_branded.png", SafeFilename("IMG_0042.HEIC", "id-2", FormatPNG))
	assert.Equal(t, "id-3_branded.webp", SafeFilename("", "id-3", FormatWebP))
	// Long ids contribute only a short prefix.
	assert.Equal(t, "photo_c93d54c8_branded.png", SafeFilename("photo.jpg", "c93d54c8-4f21-4f3e-9d01-8a1b2c3d4e5f", FormatPNG))
}

// TestSafeFilenameUniquePerImage: two uploads sharing a name must not export
// to the same file, or one output silently overwrites the other.
func TestSafeFilenameUniquePerImage(t *testing.T) {
	first := SafeFilename("photo.jpg", "id-1", FormatPNG)
	second := SafeFilename("photo.jpg", "id-2", FormatPNG)
	assert.NotEqual(t, first, second)
}
