package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terrep263/snapbrand/internal/entity"
)

type startExportRequest struct {
	BatchID  string               `json:"batch_id" binding:"required"`
	DesignID string               `json:"design_id" binding:"required"`
	Options  entity.RenderOptions `json:"options"`
}

func (h *Handler) StartExport(c *gin.Context) {
	var req startExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	export, err := h.exports.StartExport(req.BatchID, req.DesignID, req.Options)
	if err != nil {
		if errors.Is(err, entity.ErrBatchNotFound) || errors.Is(err, entity.ErrDesignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, export)
}

func (h *Handler) GetExport(c *gin.Context) {
	export, err := h.exports.GetExport(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "export not found"})
		return
	}
	c.JSON(http.StatusOK, export)
}

func (h *Handler) DownloadImage(c *gin.Context) {
	data, err := h.exports.DownloadImage(c.Param("id"), c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "exported image not found"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+c.Param("filename"))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (h *Handler) CancelExport(c *gin.Context) {
	if err := h.exports.CancelExport(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "export cancelled"})
}

func (h *Handler) RetryExport(c *gin.Context) {
	export, err := h.exports.RetryExport(c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrNotFailed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, entity.ErrExportNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, export)
}
