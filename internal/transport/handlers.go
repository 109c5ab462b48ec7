package transport

import (
	"github.com/terrep263/snapbrand/internal/service"
)

type Handler struct {
	designs service.DesignService
	exports service.ExportService
}

func NewHandler(designs service.DesignService, exports service.ExportService) *Handler {
	return &Handler{designs: designs, exports: exports}
}
