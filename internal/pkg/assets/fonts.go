package assets

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/terrep263/snapbrand/internal/entity"
)

// FontManager parses registered font files and hands out faces at concrete
// pixel sizes. An unknown family falls back to the embedded Go Regular font
// instead of failing a render.
type FontManager struct {
	mu       sync.RWMutex
	parsed   map[string]*opentype.Font
	fallback *opentype.Font

	faceMu sync.Mutex
	faces  map[faceKey]font.Face
}

type faceKey struct {
	family string
	size   float64
}

func NewFontManager() *FontManager {
	// goregular.TTF is a valid embedded font, parse cannot fail.
	fallback, _ := opentype.Parse(goregular.TTF)
	return &FontManager{
		parsed:   make(map[string]*opentype.Font),
		fallback: fallback,
		faces:    make(map[faceKey]font.Face),
	}
}

// Register parses and stores a font under the given family name.
func (fm *FontManager) Register(family string, ttf []byte) error {
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", entity.ErrFontLoad, family, err)
	}

	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.parsed[family] = parsed
	return nil
}

// Face returns a face for the family at the given pixel size. Faces are
// cached per (family, size); a batch renders many layers at few sizes.
func (fm *FontManager) Face(family string, sizePx float64) (font.Face, error) {
	fm.mu.RLock()
	parsed, ok := fm.parsed[family]
	fm.mu.RUnlock()
	if !ok {
		if family != "" {
			logrus.WithField("font_family", family).Warn("Unknown font family, using embedded fallback")
		}
		parsed = fm.fallback
		family = ""
	}

	key := faceKey{family: family, size: sizePx}
	fm.faceMu.Lock()
	defer fm.faceMu.Unlock()
	if face, ok := fm.faces[key]; ok {
		return face, nil
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrFontLoad, err)
	}
	fm.faces[key] = face
	return face, nil
}
