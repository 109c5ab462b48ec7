package entity

import (
	"strings"
	"time"
)

type ExportStatus string

const (
	StatusPending    ExportStatus = "pending"
	StatusProcessing ExportStatus = "processing"
	StatusDone       ExportStatus = "done"
	StatusFailed     ExportStatus = "failed"
)

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatWebP ImageFormat = "webp"
)

func (f ImageFormat) Ext() string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatWebP:
		return ".webp"
	default:
		return ".jpg"
	}
}

// RenderOptions controls encoding of one export batch.
type RenderOptions struct {
	Format  ImageFormat `json:"format"`
	Quality float64     `json:"quality"` // 0–1, ignored for png
	Scale   float64     `json:"scale"`   // output size multiplier, 1 = native
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Format: FormatJPEG, Quality: 0.9, Scale: 1}
}

// SourceImage is one input of an export batch: stable id, decoded
// dimensions and raw bytes.
type SourceImage struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   []byte `json:"-"`
}

// ExportResult is the per-image outcome slot of an export. Data is only set
// while the controller or its caller still owns the bytes; Cleanup releases
// it.
type ExportResult struct {
	ImageID  string       `json:"image_id"`
	Filename string       `json:"filename"`
	Status   ExportStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
	Data     []byte       `json:"-"`
}

// Progress is the snapshot handed to the progress callback after every
// state transition.
type Progress struct {
	Current int            `json:"current"`
	Total   int            `json:"total"`
	Results []ExportResult `json:"results"`
}

// Batch groups uploaded source images.
type Batch struct {
	ID        string        `json:"id"`
	Images    []SourceImage `json:"images"`
	CreatedAt time.Time     `json:"created_at"`
}

// Design is a saved watermark design: a normalized layer list plus the
// editor canvas it was authored on.
type Design struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Layers       []Layer            `json:"layers"`
	Overrides    map[string][]Layer `json:"overrides,omitempty"` // image id -> replacement layers
	EditorWidth  int                `json:"editor_width"`
	EditorHeight int                `json:"editor_height"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ExportTask is the message published for asynchronous export runs.
type ExportTask struct {
	ExportID string        `json:"export_id"`
	BatchID  string        `json:"batch_id"`
	DesignID string        `json:"design_id"`
	Options  RenderOptions `json:"options"`
}

// Export is the persisted state of one export run.
type Export struct {
	ID        string         `json:"id"`
	BatchID   string         `json:"batch_id"`
	DesignID  string         `json:"design_id"`
	Options   RenderOptions  `json:"options"`
	Status    ExportStatus   `json:"status"`
	Results   []ExportResult `json:"results"`
	CreatedAt time.Time      `json:"created_at"`
}

// SafeFilename derives a filename-safe identifier for an exported image.
// A short prefix of the image id keeps same-named uploads from colliding
// in the export directory.
func SafeFilename(name, id string, format ImageFormat) string {
	base := name
	if dot := strings.LastIndex(base, "."); dot > 0 {
		base = base[:dot]
	}

	short := safeChars(id)
	if len(short) > 8 {
		short = short[:8]
	}

	sanitized := safeChars(base)
	if sanitized == "" {
		return short + "_branded" + format.Ext()
	}
	return sanitized + "_" + short + "_branded" + format.Ext()
}

func safeChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
