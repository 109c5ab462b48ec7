package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/terrep263/snapbrand/internal/entity"
	"github.com/terrep263/snapbrand/internal/pkg/assets"
	"github.com/terrep263/snapbrand/internal/pkg/export"
	"github.com/terrep263/snapbrand/internal/pkg/kafka"
	"github.com/terrep263/snapbrand/internal/pkg/renderer"
)

func (s *exportService) CreateBatch(images []entity.SourceImage) (*entity.Batch, error) {
	batch := &entity.Batch{
		ID:        uuid.New().String(),
		Images:    make([]entity.SourceImage, 0, len(images)),
		CreatedAt: time.Now(),
	}

	for _, img := range images {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", entity.ErrDecode, img.Name, err)
		}
		img.ID = uuid.New().String()
		img.Width = cfg.Width
		img.Height = cfg.Height
		batch.Images = append(batch.Images, img)
	}

	if err := s.batches.SaveBatch(batch); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"batch_id": batch.ID,
		"images":   len(batch.Images),
	}).Info("Batch created")
	return batch, nil
}

func (s *exportService) GetBatch(id string) (*entity.Batch, error) {
	return s.batches.FindBatch(id)
}

func (s *exportService) DeleteBatch(id string) error {
	return s.batches.DeleteBatch(id)
}

func (s *exportService) UploadLogo(data []byte) (string, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: logo: %v", entity.ErrDecode, err)
	}
	id := uuid.New().String()
	if err := s.batches.SaveLogoAsset(id, data); err != nil {
		return "", err
	}
	return id, nil
}

// StartExport records a pending export and queues it. Without a broker the
// job runs inline in a background goroutine instead.
func (s *exportService) StartExport(batchID, designID string, opts entity.RenderOptions) (*entity.Export, error) {
	if _, err := s.batches.FindBatch(batchID); err != nil {
		return nil, err
	}
	if _, err := s.designs.FindByID(designID); err != nil {
		return nil, err
	}
	if opts.Format == "" {
		opts = entity.DefaultRenderOptions()
	}

	exp := &entity.Export{
		ID:        uuid.New().String(),
		BatchID:   batchID,
		DesignID:  designID,
		Options:   opts,
		Status:    entity.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.batches.SaveExport(exp); err != nil {
		return nil, err
	}

	task := entity.ExportTask{ExportID: exp.ID, BatchID: batchID, DesignID: designID, Options: opts}
	if err := s.producer.SendMessage(kafka.ExportTopic, task); err != nil {
		go func() {
			if err := s.RunExport(task); err != nil {
				logrus.Errorf("Inline export %s failed: %v", task.ExportID, err)
			}
		}()
	}
	return exp, nil
}

// RunExport executes one queued export job end to end: assemble the asset
// registry, drive the controller across the batch and persist the outcome.
func (s *exportService) RunExport(task entity.ExportTask) error {
	batch, err := s.batches.FindBatch(task.BatchID)
	if err != nil {
		return err
	}
	design, err := s.designs.FindByID(task.DesignID)
	if err != nil {
		return err
	}

	registry, err := s.buildRegistry(design)
	if err != nil {
		return err
	}

	exp := &entity.Export{
		ID:       task.ExportID,
		BatchID:  task.BatchID,
		DesignID: task.DesignID,
		Options:  task.Options,
		Status:   entity.StatusProcessing,
	}

	controller := export.NewController(renderer.New(registry), s.concurrency, func(p entity.Progress) {
		s.mu.Lock()
		if active, ok := s.active[task.ExportID]; ok {
			active.export.Results = p.Results
		}
		s.mu.Unlock()
	})
	resolve := export.NewLayerResolver(design.Layers, design.Overrides)

	s.mu.Lock()
	s.active[task.ExportID] = &activeExport{controller: controller, resolve: resolve, export: exp}
	s.mu.Unlock()

	results, runErr := controller.ExportAll(context.Background(), batch.Images, resolve, task.Options)
	return s.persistRun(exp, results, runErr)
}

// persistRun writes finished image bytes and the export document, then
// releases the bytes held by the controller. Only the file store keeps the
// output after this point: the stored results carry statuses and filenames,
// never blobs.
func (s *exportService) persistRun(exp *entity.Export, results []entity.ExportResult, runErr error) error {
	status := entity.StatusDone
	for _, res := range results {
		if res.Status == entity.StatusDone && res.Data != nil {
			if err := s.batches.SaveExportImage(exp.ID, res.Filename, res.Data); err != nil {
				return err
			}
		}
		if res.Status != entity.StatusDone {
			status = entity.StatusFailed
		}
	}
	if runErr != nil {
		status = entity.StatusFailed
	}

	stripped := make([]entity.ExportResult, len(results))
	copy(stripped, results)
	for i := range stripped {
		stripped[i].Data = nil
	}

	exp.Status = status
	exp.Results = stripped

	if err := s.batches.SaveExport(exp); err != nil {
		return err
	}

	s.mu.Lock()
	if active, ok := s.active[exp.ID]; ok {
		active.controller.Cleanup()
		active.export = exp
		if status == entity.StatusDone {
			// Retry needs the live controller only while failures remain.
			delete(s.active, exp.ID)
		}
	}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"export_id": exp.ID,
		"status":    status,
		"images":    len(results),
	}).Info("Export finished")
	return runErr
}

// GetExport prefers the live in-memory snapshot over the persisted one so
// progress polling sees per-image transitions as they happen.
func (s *exportService) GetExport(id string) (*entity.Export, error) {
	s.mu.Lock()
	if active, ok := s.active[id]; ok {
		snapshot := *active.export
		snapshot.Results = active.controller.Results()
		s.mu.Unlock()
		return &snapshot, nil
	}
	s.mu.Unlock()
	return s.batches.FindExport(id)
}

func (s *exportService) CancelExport(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok := s.active[id]
	if !ok {
		return fmt.Errorf("%w: %s is not running", entity.ErrExportNotFound, id)
	}
	active.controller.Cancel()
	return nil
}

// RetryExport re-runs only the failed images of a finished run. The run
// must still be owned by this process; controller state does not survive
// restarts.
func (s *exportService) RetryExport(id string) (*entity.Export, error) {
	s.mu.Lock()
	active, ok := s.active[id]
	s.mu.Unlock()
	if !ok {
		// Finished runs are evicted; tell a done run apart from an
		// unknown or lost one.
		persisted, err := s.batches.FindExport(id)
		if err != nil {
			return nil, err
		}
		if persisted.Status == entity.StatusDone {
			return nil, fmt.Errorf("%w: export %s", entity.ErrNotFailed, id)
		}
		return nil, fmt.Errorf("%w: %s is not resident", entity.ErrExportNotFound, id)
	}

	hasFailed := false
	for _, res := range active.controller.Results() {
		if res.Status == entity.StatusFailed {
			hasFailed = true
			break
		}
	}
	if !hasFailed {
		return nil, fmt.Errorf("%w: export %s", entity.ErrNotFailed, id)
	}

	results, runErr := active.controller.RetryFailed(context.Background(), active.resolve, active.export.Options)
	if err := s.persistRun(active.export, results, runErr); err != nil {
		return nil, err
	}
	return s.GetExport(id)
}

func (s *exportService) DownloadImage(exportID, filename string) ([]byte, error) {
	return s.batches.GetExportImage(exportID, filename)
}

// buildRegistry loads every logo asset referenced by the design into a
// read-only registry shared by all render calls of the batch.
func (s *exportService) buildRegistry(design *entity.Design) (*assets.Registry, error) {
	registry := assets.NewRegistry()

	register := func(layers []entity.Layer) error {
		for _, layer := range layers {
			if layer.Type != entity.LayerLogo || !layer.Enabled {
				continue
			}
			data, err := s.batches.GetLogoAsset(layer.LogoAssetID)
			if err != nil {
				return err
			}
			if err := registry.RegisterLogo(layer.LogoAssetID, data); err != nil {
				return err
			}
		}
		return nil
	}

	if err := register(design.Layers); err != nil {
		return nil, err
	}
	for _, layers := range design.Overrides {
		if err := register(layers); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
