package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrep263/snapbrand/internal/database"
	"github.com/terrep263/snapbrand/internal/entity"
	"github.com/terrep263/snapbrand/internal/pkg/storage"
)

// fakeDesignRepo keeps designs in memory; redis integration is not under
// test here.
type fakeDesignRepo struct {
	designs map[string]entity.Design
}

func newFakeDesignRepo() *fakeDesignRepo {
	return &fakeDesignRepo{designs: make(map[string]entity.Design)}
}

func (r *fakeDesignRepo) Save(design *entity.Design) error {
	r.designs[design.ID] = *design
	return nil
}

func (r *fakeDesignRepo) FindByID(id string) (*entity.Design, error) {
	design, ok := r.designs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrDesignNotFound, id)
	}
	return &design, nil
}

func (r *fakeDesignRepo) Delete(id string) error {
	if _, ok := r.designs[id]; !ok {
		return fmt.Errorf("%w: %s", entity.ErrDesignNotFound, id)
	}
	delete(r.designs, id)
	return nil
}

func (r *fakeDesignRepo) List() ([]entity.Design, error) {
	out := make([]entity.Design, 0, len(r.designs))
	for _, d := range r.designs {
		out = append(out, d)
	}
	return out, nil
}

// fakeProducer accepts every message; the test drives RunExport itself so
// nothing is expected to consume the queue.
type fakeProducer struct{ sent int }

func (p *fakeProducer) SendMessage(topic string, message interface{}) error {
	p.sent++
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func pngBytes(t *testing.T, width, height int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newServices(t *testing.T) (DesignService, ExportService, *fakeDesignRepo) {
	t.Helper()
	batchRepo := database.NewBatchRepository(storage.NewFileStorage(t.TempDir()))
	designRepo := newFakeDesignRepo()
	designs := NewDesignService(designRepo)
	exports := NewExportService(batchRepo, designRepo, &fakeProducer{}, 2)
	return designs, exports, designRepo
}

func testDesign() entity.Design {
	return entity.Design{
		Name:         "night shoot",
		EditorWidth:  1200,
		EditorHeight: 800,
		Layers: []entity.Layer{
			{
				ID:          "t1",
				Type:        entity.LayerText,
				Enabled:     true,
				XNorm:       0.9,
				YNorm:       0.9,
				Anchor:      entity.AnchorBottomRight,
				Scale:       1,
				Opacity:     0.7,
				Text:        "© studio",
				FontSizeRel: 0.05,
				Color:       "#ffffff",
			},
		},
	}
}

func TestCreateBatchDecodesDimensions(t *testing.T) {
	_, exports, _ := newServices(t)

	batch, err := exports.CreateBatch([]entity.SourceImage{
		{Name: "a.png", Data: pngBytes(t, 320, 200, color.NRGBA{10, 20, 30, 255})},
	})
	require.NoError(t, err)
	require.Len(t, batch.Images, 1)
	assert.NotEmpty(t, batch.Images[0].ID)
	assert.Equal(t, 320, batch.Images[0].Width)
	assert.Equal(t, 200, batch.Images[0].Height)
}

func TestCreateBatchRejectsCorruptImage(t *testing.T) {
	_, exports, _ := newServices(t)

	_, err := exports.CreateBatch([]entity.SourceImage{
		{Name: "bad.png", Data: []byte("definitely not a png")},
	})
	assert.ErrorIs(t, err, entity.ErrDecode)
}

// TestSaveDesignNormalizesLegacyLayers pins the save-time migration: legacy
// offsets never survive into storage.
func TestSaveDesignNormalizesLegacyLayers(t *testing.T) {
	designs, _, repo := newServices(t)

	offsetX, offsetY := 40.0, -40.0
	design := testDesign()
	design.Layers[0].OffsetX = &offsetX
	design.Layers[0].OffsetY = &offsetY

	saved, err := designs.SaveDesign(design)
	require.NoError(t, err)

	stored := repo.designs[saved.ID]
	require.Len(t, stored.Layers, 1)
	assert.Nil(t, stored.Layers[0].OffsetX)
	assert.Nil(t, stored.Layers[0].OffsetY)
	assert.InDelta(t, 0.9, stored.Layers[0].XNorm, 1e-12)
	assert.InDelta(t, 0.1, stored.Layers[0].YNorm, 1e-12)
}

func TestSaveDesignRejectsInvalidLayer(t *testing.T) {
	designs, _, _ := newServices(t)

	design := testDesign()
	design.Layers[0].Opacity = 3

	_, err := designs.SaveDesign(design)
	assert.ErrorIs(t, err, entity.ErrInvalidLayer)
}

// TestRunExportEndToEnd drives a full job: batch + design in, persisted
// encoded outputs out.
func TestRunExportEndToEnd(t *testing.T) {
	designs, exports, _ := newServices(t)

	batch, err := exports.CreateBatch([]entity.SourceImage{
		{Name: "first.png", Data: pngBytes(t, 200, 100, color.NRGBA{0, 0, 0, 255})},
		{Name: "second.png", Data: pngBytes(t, 400, 400, color.NRGBA{30, 30, 30, 255})},
	})
	require.NoError(t, err)

	design, err := designs.SaveDesign(testDesign())
	require.NoError(t, err)

	exp, err := exports.StartExport(batch.ID, design.ID, entity.RenderOptions{Format: entity.FormatPNG})
	require.NoError(t, err)

	task := entity.ExportTask{ExportID: exp.ID, BatchID: batch.ID, DesignID: design.ID, Options: exp.Options}
	require.NoError(t, exports.RunExport(task))

	got, err := exports.GetExport(exp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, got.Status)
	require.Len(t, got.Results, 2)

	for _, res := range got.Results {
		assert.Equal(t, entity.StatusDone, res.Status)
		data, err := exports.DownloadImage(exp.ID, res.Filename)
		require.NoError(t, err)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Greater(t, cfg.Width, 0)
	}
}

// TestRunExportReleasesResultBytes: once a run finishes cleanly, the file
// store is the only owner of the output — nothing stays resident in the
// service and the stored results carry no blobs.
func TestRunExportReleasesResultBytes(t *testing.T) {
	designs, exports, _ := newServices(t)

	batch, err := exports.CreateBatch([]entity.SourceImage{
		{Name: "only.png", Data: pngBytes(t, 80, 80, color.NRGBA{10, 10, 10, 255})},
	})
	require.NoError(t, err)

	design, err := designs.SaveDesign(testDesign())
	require.NoError(t, err)

	task := entity.ExportTask{ExportID: "exp-mem", BatchID: batch.ID, DesignID: design.ID, Options: entity.RenderOptions{Format: entity.FormatPNG}}
	require.NoError(t, exports.RunExport(task))

	svc := exports.(*exportService)
	svc.mu.Lock()
	_, resident := svc.active["exp-mem"]
	svc.mu.Unlock()
	assert.False(t, resident, "a finished run must not stay resident")

	got, err := exports.GetExport("exp-mem")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDone, got.Status)
	for _, res := range got.Results {
		assert.Nil(t, res.Data)
		data, err := exports.DownloadImage("exp-mem", res.Filename)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

// TestFailedRunStaysResidentWithoutBlobs: a run with failures keeps its
// controller alive for retry, but neither the controller nor the stored
// export pins any output bytes.
func TestFailedRunStaysResidentWithoutBlobs(t *testing.T) {
	batchRepo := database.NewBatchRepository(storage.NewFileStorage(t.TempDir()))
	designRepo := newFakeDesignRepo()
	designs := NewDesignService(designRepo)
	exports := NewExportService(batchRepo, designRepo, &fakeProducer{}, 2)

	// SaveBatch directly so one image can carry undecodable bytes.
	batch := &entity.Batch{ID: "batch-mix", Images: []entity.SourceImage{
		{ID: "img-good", Name: "good.png", Width: 64, Height: 64, Data: pngBytes(t, 64, 64, color.NRGBA{1, 2, 3, 255})},
		{ID: "img-bad", Name: "bad.png", Width: 64, Height: 64, Data: []byte("corrupt")},
	}}
	require.NoError(t, batchRepo.SaveBatch(batch))

	design, err := designs.SaveDesign(testDesign())
	require.NoError(t, err)

	task := entity.ExportTask{ExportID: "exp-mix", BatchID: "batch-mix", DesignID: design.ID, Options: entity.RenderOptions{Format: entity.FormatPNG}}
	require.NoError(t, exports.RunExport(task))

	svc := exports.(*exportService)
	svc.mu.Lock()
	active, resident := svc.active["exp-mix"]
	svc.mu.Unlock()
	require.True(t, resident, "a failed run stays resident for retry")

	assert.Equal(t, entity.StatusFailed, active.export.Status)
	for _, res := range active.export.Results {
		assert.Nil(t, res.Data)
	}
	for _, res := range active.controller.Results() {
		assert.Nil(t, res.Data)
	}

	// Retry still flows through the resident controller; the corrupt image
	// fails again and the run stays failed.
	retried, err := exports.RetryExport("exp-mix")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, retried.Status)
}

func TestStartExportUnknownBatch(t *testing.T) {
	designs, exports, _ := newServices(t)

	design, err := designs.SaveDesign(testDesign())
	require.NoError(t, err)

	_, err = exports.StartExport("missing", design.ID, entity.DefaultRenderOptions())
	assert.ErrorIs(t, err, entity.ErrBatchNotFound)
}

func TestRetryExportWithoutFailures(t *testing.T) {
	designs, exports, _ := newServices(t)

	batch, err := exports.CreateBatch([]entity.SourceImage{
		{Name: "only.png", Data: pngBytes(t, 64, 64, color.NRGBA{5, 5, 5, 255})},
	})
	require.NoError(t, err)

	design, err := designs.SaveDesign(testDesign())
	require.NoError(t, err)

	task := entity.ExportTask{ExportID: "exp-retry", BatchID: batch.ID, DesignID: design.ID, Options: entity.RenderOptions{Format: entity.FormatPNG}}
	require.NoError(t, exports.RunExport(task))

	_, err = exports.RetryExport("exp-retry")
	assert.ErrorIs(t, err, entity.ErrNotFailed)
}
