// Package assets holds the read-only logo and font registry a batch renders
// against. Layers store asset ids, never live image handles; the registry
// is populated before a batch starts and only read afterwards, so
// concurrent renders share it without synchronization on the hot path.
package assets

import (
	"bytes"
	"fmt"
	"image"

	"github.com/terrep263/snapbrand/internal/entity"
)

// Registry resolves logo asset ids to decoded images and font families to
// faces.
type Registry struct {
	logos map[string]image.Image
	fonts *FontManager
}

func NewRegistry() *Registry {
	return &Registry{
		logos: make(map[string]image.Image),
		fonts: NewFontManager(),
	}
}

// RegisterLogo decodes and stores a logo image under the given id.
func (r *Registry) RegisterLogo(id string, data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: logo %s: %v", entity.ErrDecode, id, err)
	}
	r.logos[id] = img
	return nil
}

// RegisterLogoImage stores an already-decoded logo image.
func (r *Registry) RegisterLogoImage(id string, img image.Image) {
	r.logos[id] = img
}

// Logo dereferences a logo asset id.
func (r *Registry) Logo(id string) (image.Image, error) {
	img, ok := r.logos[id]
	if !ok {
		return nil, fmt.Errorf("%w: logo %s", entity.ErrAssetNotFound, id)
	}
	return img, nil
}

// RegisterFont parses and stores a font file under a family name.
func (r *Registry) RegisterFont(family string, ttf []byte) error {
	return r.fonts.Register(family, ttf)
}

// Fonts exposes the font manager for face resolution.
func (r *Registry) Fonts() *FontManager {
	return r.fonts
}
