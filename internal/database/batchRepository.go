package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/terrep263/snapbrand/internal/entity"
	"github.com/terrep263/snapbrand/internal/pkg/storage"
)

func NewBatchRepository(storage storage.FileStorage) BatchRepository {
	return &fileBatchRepository{storage: storage}
}

type fileBatchRepository struct {
	storage storage.FileStorage
}

func (r *fileBatchRepository) SaveBatch(batch *entity.Batch) error {
	// Image bytes are stored apart from the metadata document.
	for _, img := range batch.Images {
		if err := r.storage.Save(originalPath(batch.ID, img.ID), bytes.NewReader(img.Data)); err != nil {
			return err
		}
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return r.storage.Save(batchMetadataPath(batch.ID), bytes.NewReader(data))
}

func (r *fileBatchRepository) FindBatch(id string) (*entity.Batch, error) {
	data, err := r.storage.ReadAll(batchMetadataPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrBatchNotFound, id)
		}
		return nil, err
	}

	var batch entity.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, err
	}

	for i, img := range batch.Images {
		raw, err := r.storage.ReadAll(originalPath(id, img.ID))
		if err != nil {
			return nil, err
		}
		batch.Images[i].Data = raw
	}
	return &batch, nil
}

func (r *fileBatchRepository) DeleteBatch(id string) error {
	if !r.storage.Exists(batchMetadataPath(id)) {
		return fmt.Errorf("%w: %s", entity.ErrBatchNotFound, id)
	}
	if err := r.storage.Delete(batchMetadataPath(id)); err != nil {
		return err
	}
	return r.storage.DeleteAll(filepath.Join("original", id))
}

func (r *fileBatchRepository) SaveExport(export *entity.Export) error {
	// Result bytes live in their own files; the metadata document carries
	// statuses and filenames only.
	data, err := json.Marshal(export)
	if err != nil {
		return err
	}
	return r.storage.Save(exportMetadataPath(export.ID), bytes.NewReader(data))
}

func (r *fileBatchRepository) FindExport(id string) (*entity.Export, error) {
	data, err := r.storage.ReadAll(exportMetadataPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrExportNotFound, id)
		}
		return nil, err
	}

	var export entity.Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, err
	}
	return &export, nil
}

func (r *fileBatchRepository) SaveExportImage(exportID, filename string, data []byte) error {
	return r.storage.Save(filepath.Join("exported", exportID, filename), bytes.NewReader(data))
}

func (r *fileBatchRepository) GetExportImage(exportID, filename string) ([]byte, error) {
	data, err := r.storage.ReadAll(filepath.Join("exported", exportID, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", entity.ErrExportNotFound, exportID, filename)
		}
		return nil, err
	}
	return data, nil
}

func (r *fileBatchRepository) SaveLogoAsset(id string, data []byte) error {
	return r.storage.Save(filepath.Join("assets", id), bytes.NewReader(data))
}

func (r *fileBatchRepository) GetLogoAsset(id string) ([]byte, error) {
	data, err := r.storage.ReadAll(filepath.Join("assets", id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", entity.ErrAssetNotFound, id)
		}
		return nil, err
	}
	return data, nil
}

func batchMetadataPath(id string) string {
	return filepath.Join("batches", id+".json")
}

func exportMetadataPath(id string) string {
	return filepath.Join("exports", id+".json")
}

func originalPath(batchID, imageID string) string {
	return filepath.Join("original", batchID, imageID)
}
