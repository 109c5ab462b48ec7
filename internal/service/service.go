package service

import (
	"sync"

	"github.com/terrep263/snapbrand/internal/database"
	"github.com/terrep263/snapbrand/internal/entity"
	"github.com/terrep263/snapbrand/internal/pkg/export"
	"github.com/terrep263/snapbrand/internal/pkg/kafka"
)

// DesignService manages watermark designs. Saving is the migration point:
// layers are normalized into canonical form before they are stored, so the
// engine only ever sees canonical layers.
type DesignService interface {
	SaveDesign(design entity.Design) (*entity.Design, error)
	GetDesign(id string) (*entity.Design, error)
	DeleteDesign(id string) error
	ListDesigns() ([]entity.Design, error)
}

// ExportService manages batches and export runs.
type ExportService interface {
	CreateBatch(images []entity.SourceImage) (*entity.Batch, error)
	GetBatch(id string) (*entity.Batch, error)
	DeleteBatch(id string) error

	UploadLogo(data []byte) (string, error)

	StartExport(batchID, designID string, opts entity.RenderOptions) (*entity.Export, error)
	RunExport(task entity.ExportTask) error
	GetExport(id string) (*entity.Export, error)
	CancelExport(id string) error
	RetryExport(id string) (*entity.Export, error)
	DownloadImage(exportID, filename string) ([]byte, error)
}

type designService struct {
	repo database.DesignRepository
}

func NewDesignService(repo database.DesignRepository) DesignService {
	return &designService{repo: repo}
}

type exportService struct {
	batches     database.BatchRepository
	designs     database.DesignRepository
	producer    kafka.Producer
	concurrency int

	mu     sync.Mutex
	active map[string]*activeExport
}

// activeExport tracks a run owned by this process so progress, cancel and
// retry can reach the live controller.
type activeExport struct {
	controller *export.Controller
	resolve    export.LayerResolver
	export     *entity.Export
}

func NewExportService(batches database.BatchRepository, designs database.DesignRepository, producer kafka.Producer, concurrency int) ExportService {
	return &exportService{
		batches:     batches,
		designs:     designs,
		producer:    producer,
		concurrency: concurrency,
		active:      make(map[string]*activeExport),
	}
}
