package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terrep263/snapbrand/internal/entity"
	"github.com/terrep263/snapbrand/internal/pkg/snap"
)

func (h *Handler) SaveDesign(c *gin.Context) {
	var design entity.Design
	if err := c.ShouldBindJSON(&design); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.designs.SaveDesign(design)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidLayer) || errors.Is(err, entity.ErrInvalidCanvasSize) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) GetDesign(c *gin.Context) {
	design, err := h.designs.GetDesign(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "design not found"})
		return
	}
	c.JSON(http.StatusOK, design)
}

func (h *Handler) ListDesigns(c *gin.Context) {
	designs, err := h.designs.ListDesigns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"designs": designs})
}

func (h *Handler) DeleteDesign(c *gin.Context) {
	if err := h.designs.DeleteDesign(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "design not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "design deleted"})
}

type snapRequest struct {
	XNorm     float64 `json:"x_norm"`
	YNorm     float64 `json:"y_norm"`
	Enabled   *bool   `json:"enabled,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Guides    string  `json:"guides,omitempty"` // "safe-zone" (default) or "thirds"
}

// SnapPosition serves the editor's drag feedback; it never runs during
// export.
func (h *Handler) SnapPosition(c *gin.Context) {
	var req snapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	guides := snap.SafeZoneGuides
	if req.Guides == "thirds" {
		guides = snap.RuleOfThirdsGuides
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	result := snap.Position(req.XNorm, req.YNorm, guides, guides, enabled, req.Threshold)
	c.JSON(http.StatusOK, result)
}
