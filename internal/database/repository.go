package database

import "github.com/terrep263/snapbrand/internal/entity"

// BatchRepository persists uploaded batches, export metadata and exported
// image bytes.
type BatchRepository interface {
	SaveBatch(batch *entity.Batch) error
	FindBatch(id string) (*entity.Batch, error)
	DeleteBatch(id string) error

	SaveExport(export *entity.Export) error
	FindExport(id string) (*entity.Export, error)
	SaveExportImage(exportID, filename string, data []byte) error
	GetExportImage(exportID, filename string) ([]byte, error)

	SaveLogoAsset(id string, data []byte) error
	GetLogoAsset(id string) ([]byte, error)
}

// DesignRepository persists watermark designs (normalized layer lists).
type DesignRepository interface {
	Save(design *entity.Design) error
	FindByID(id string) (*entity.Design, error)
	Delete(id string) error
	List() ([]entity.Design, error)
}
