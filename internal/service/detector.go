package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/blobstore"
	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/inference"
	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageFetcher retrieves raw bytes from a caller-supplied URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Classifier submits image bytes to the remote model.
type Classifier interface {
	Classify(ctx context.Context, data []byte, contentType string) (*inference.Classification, error)
	ModelName() string
	ModelVersion() string
}

// RecordStore persists detection records.
type RecordStore interface {
	SaveDetection(rec *models.DetectionRecord) error
}

// Detector runs the detection pipeline:
// validate -> fetch -> store -> infer -> persist.
// Each call is independent and stateless; the steps run strictly in
// sequence and short-circuit on the first failure.
type Detector struct {
	fetcher    ImageFetcher
	blobs      blobstore.Store
	classifier Classifier
	records    RecordStore
	logger     *zap.Logger
	keyPrefix  string
	timeout    time.Duration
}

// Config for the detector pipeline
type Config struct {
	KeyPrefix      string        // blob key namespace, e.g. "uploads/"
	RequestTimeout time.Duration // end-to-end deadline per detect call
}

// NewDetector creates a new detection pipeline.
func NewDetector(fetcher ImageFetcher, blobs blobstore.Store, classifier Classifier,
	records RecordStore, cfg Config, logger *zap.Logger) *Detector {

	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "uploads/"
	}

	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	return &Detector{
		fetcher:    fetcher,
		blobs:      blobs,
		classifier: classifier,
		records:    records,
		logger:     logger,
		keyPrefix:  cfg.KeyPrefix,
		timeout:    cfg.RequestTimeout,
	}
}

// Detect runs the full pipeline for one image URL.
func (d *Detector) Detect(ctx context.Context, fileURL string) (*models.DetectResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := validateFileURL(fileURL); err != nil {
		return nil, failed(KindInvalidInput, err)
	}

	data, err := d.fetcher.Fetch(ctx, fileURL)
	if err != nil {
		return nil, failed(KindFetchFailed, err)
	}

	contentType, ext, ok := sniffImageFormat(data)
	if !ok {
		return nil, failed(KindInvalidInput,
			fmt.Errorf("file_url does not point to a supported image format (jpeg, png, gif, webp)"))
	}

	// The id is generated before any side effect so it labels the blob
	// even when a later step fails.
	id := uuid.NewString()
	blobKey := d.keyPrefix + id + "." + ext

	if err := d.blobs.Put(ctx, blobKey, data, contentType); err != nil {
		return nil, failed(KindStorageFailed, fmt.Errorf("blob upload failed: %w", err))
	}

	classification, err := d.classifier.Classify(ctx, data, contentType)
	if err != nil {
		// The uploaded blob stays in place. Inference failures are
		// retried by callers re-submitting the URL, not by deleting
		// already-stored evidence.
		return nil, failed(KindInferenceFailed, err)
	}

	record := &models.DetectionRecord{
		ID:            id,
		BlobKey:       blobKey,
		Label:         classification.Label,
		Confidence:    classification.Score,
		CreatedAt:     time.Now().Unix(),
		SourceType:    models.SourceTypeURL,
		ModelName:     d.classifier.ModelName(),
		ModelVersion:  d.classifier.ModelVersion(),
		RecheckStatus: models.RecheckPending,
	}

	if err := d.records.SaveDetection(record); err != nil {
		// Compensate so the blob store holds no object that no record
		// will ever reference.
		if delErr := d.blobs.Delete(ctx, blobKey); delErr != nil {
			d.logger.Error("Failed to delete orphaned blob",
				zap.String("blob_key", blobKey),
				zap.Error(delErr))
		}
		return nil, failed(KindStorageFailed, fmt.Errorf("record write failed: %w", err))
	}

	d.logger.Info("Detection completed",
		zap.String("id", id),
		zap.String("verdict", classification.Label),
		zap.String("blob_key", blobKey))

	displayConfidence, _ := classification.Score.Round(3).Float64()

	return &models.DetectResponse{
		Verdict:      classification.Label,
		Confidence:   displayConfidence,
		ID:           id,
		ModelName:    d.classifier.ModelName(),
		ModelVersion: d.classifier.ModelVersion(),
	}, nil
}

func validateFileURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("file_url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("file_url is not a valid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("file_url must be an http or https URL")
	}

	if u.Host == "" {
		return fmt.Errorf("file_url is missing a host")
	}

	return nil
}
