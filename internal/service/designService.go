package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/terrep263/snapbrand/internal/entity"
)

func (s *designService) SaveDesign(design entity.Design) (*entity.Design, error) {
	if design.EditorWidth <= 0 || design.EditorHeight <= 0 {
		return nil, fmt.Errorf("%w: editor canvas %dx%d", entity.ErrInvalidCanvasSize, design.EditorWidth, design.EditorHeight)
	}
	if design.ID == "" {
		design.ID = uuid.New().String()
	}
	if design.CreatedAt.IsZero() {
		design.CreatedAt = time.Now()
	}

	normalized, err := normalizeLayers(design.Layers, design.EditorWidth, design.EditorHeight)
	if err != nil {
		return nil, err
	}
	design.Layers = normalized

	for imageID, layers := range design.Overrides {
		normalized, err := normalizeLayers(layers, design.EditorWidth, design.EditorHeight)
		if err != nil {
			return nil, fmt.Errorf("override for image %s: %w", imageID, err)
		}
		design.Overrides[imageID] = normalized
	}

	if err := s.repo.Save(&design); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"design_id": design.ID,
		"layers":    len(design.Layers),
	}).Info("Design saved")
	return &design, nil
}

func normalizeLayers(layers []entity.Layer, editorWidth, editorHeight int) ([]entity.Layer, error) {
	out := make([]entity.Layer, len(layers))
	for i, layer := range layers {
		normalized, err := layer.Normalize(editorWidth, editorHeight)
		if err != nil {
			return nil, err
		}
		out[i] = normalized
	}
	return out, nil
}

func (s *designService) GetDesign(id string) (*entity.Design, error) {
	return s.repo.FindByID(id)
}

func (s *designService) DeleteDesign(id string) error {
	return s.repo.Delete(id)
}

func (s *designService) ListDesigns() ([]entity.Design, error) {
	return s.repo.List()
}
