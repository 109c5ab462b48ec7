package entity

import "errors"

var (
	// Geometry errors
	ErrInvalidCanvasSize = errors.New("invalid canvas size")
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// Layer errors
	ErrInvalidLayer = errors.New("invalid layer")

	// Renderer errors
	ErrDecode        = errors.New("image decode failed")
	ErrEncode        = errors.New("image encode failed")
	ErrFontLoad      = errors.New("font load failed")
	ErrAssetNotFound = errors.New("asset not found")

	// Export errors
	ErrBatchCancelled = errors.New("export batch cancelled")
	ErrNotFailed      = errors.New("image is not in failed state")

	// Repository errors
	ErrBatchNotFound  = errors.New("batch not found")
	ErrDesignNotFound = errors.New("design not found")
	ErrExportNotFound = errors.New("export not found")
)
