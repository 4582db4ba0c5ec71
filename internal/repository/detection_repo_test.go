package repository

import (
	"testing"

	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) *DetectionRepository {
	t.Helper()
	repo, err := NewSQLite(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newRecord(label, confidence string, createdAt int64) *models.DetectionRecord {
	return &models.DetectionRecord{
		ID:            uuid.NewString(),
		BlobKey:       "uploads/" + uuid.NewString() + ".jpg",
		Label:         label,
		Confidence:    decimal.RequireFromString(confidence),
		CreatedAt:     createdAt,
		SourceType:    models.SourceTypeURL,
		ModelName:     "deep-fake-detector",
		ModelVersion:  "v1",
		RecheckStatus: models.RecheckPending,
	}
}

func TestSaveAndGetAllDetections(t *testing.T) {
	repo := newTestRepo(t)

	rec := newRecord("fake", "0.988", 1700000000)
	require.NoError(t, repo.SaveDetection(rec))

	detections, err := repo.GetAllDetections()
	require.NoError(t, err)
	require.Len(t, detections, 1)

	got := detections[0]
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.BlobKey, got.BlobKey)
	assert.Equal(t, "fake", got.Label)
	assert.Equal(t, int64(1700000000), got.CreatedAt)
	assert.Equal(t, models.SourceTypeURL, got.SourceType)
	assert.Equal(t, "deep-fake-detector", got.ModelName)
	assert.Equal(t, "v1", got.ModelVersion)
	assert.Equal(t, models.RecheckPending, got.RecheckStatus)
}

func TestConfidenceRoundTripsExactly(t *testing.T) {
	repo := newTestRepo(t)

	// The exported value feeds ML training labels; a binary float
	// artifact like 0.98764999... would corrupt the dataset.
	require.NoError(t, repo.SaveDetection(newRecord("fake", "0.98765", 1700000000)))

	detections, err := repo.GetAllDetections()
	require.NoError(t, err)
	require.Len(t, detections, 1)
	assert.Equal(t, "0.98765", detections[0].Confidence.String())
}

func TestGetAllDetectionsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)

	oldest := newRecord("real", "0.6", 1700000000)
	newest := newRecord("fake", "0.9", 1700000100)
	require.NoError(t, repo.SaveDetection(oldest))
	require.NoError(t, repo.SaveDetection(newest))

	detections, err := repo.GetAllDetections()
	require.NoError(t, err)
	require.Len(t, detections, 2)
	assert.Equal(t, newest.ID, detections[0].ID)
	assert.Equal(t, oldest.ID, detections[1].ID)
}

func TestGetStats(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.SaveDetection(newRecord("fake", "0.9", 1700000000)))
	require.NoError(t, repo.SaveDetection(newRecord("fake", "0.8", 1700000001)))
	require.NoError(t, repo.SaveDetection(newRecord("real", "0.7", 1700000002)))

	stats, err := repo.GetStats()
	require.NoError(t, err)

	assert.Equal(t, 3, stats["total"])
	byLabel, ok := stats["by_label"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 2, byLabel["fake"])
	assert.Equal(t, 1, byLabel["real"])
}

func TestDuplicateIDRejected(t *testing.T) {
	repo := newTestRepo(t)

	rec := newRecord("fake", "0.9", 1700000000)
	require.NoError(t, repo.SaveDetection(rec))
	err := repo.SaveDetection(rec)
	require.Error(t, err, "id is the primary key, records are write-once")
}
