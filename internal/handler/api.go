package handler

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/blobstore"
	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/models"
	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecordReader exposes the record-store reads used by the dashboard.
type RecordReader interface {
	GetAllDetections() ([]*models.DetectionRecord, error)
	GetStats() (map[string]interface{}, error)
}

// Handler handles HTTP requests
type Handler struct {
	detector   *service.Detector
	records    RecordReader
	blobs      blobstore.Store
	blobPrefix string
	logger     *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(detector *service.Detector, records RecordReader, blobs blobstore.Store,
	blobPrefix string, logger *zap.Logger) *Handler {
	return &Handler{
		detector:   detector,
		records:    records,
		blobs:      blobs,
		blobPrefix: blobPrefix,
		logger:     logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Detection pipeline
		api.POST("/detect", h.Detect)

		// Record browsing and export
		api.GET("/detections", h.GetAllDetections)
		api.GET("/detections/stats", h.GetStats)
		api.GET("/export/csv", h.ExportCSV)

		// Blob browsing and curation
		api.GET("/blobs", h.ListBlobs)
		api.GET("/blob/*key", h.GetBlob)
		api.DELETE("/blob/*key", h.DeleteBlob)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// Detect runs the classification pipeline for a single image URL.
// POST /api/v1/detect
func (h *Handler) Detect(c *gin.Context) {
	var req models.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.detector.Detect(c.Request.Context(), req.FileURL)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Detection failed", zap.Error(err), zap.String("file_url", req.FileURL))
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// statusForError maps pipeline failure kinds to response codes.
// Storage failures surface as 502 since both stores are upstream
// dependencies of this service.
func statusForError(err error) int {
	var perr *service.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case service.KindInvalidInput, service.KindFetchFailed:
			return http.StatusBadRequest
		case service.KindStorageFailed:
			return http.StatusBadGateway
		case service.KindInferenceFailed:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// GetAllDetections returns all detection records, newest first.
// GET /api/v1/detections
func (h *Handler) GetAllDetections(c *gin.Context) {
	detections, err := h.records.GetAllDetections()
	if err != nil {
		h.logger.Error("Failed to get detections", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get detections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detections": detections,
		"total":      len(detections),
	})
}

// GetStats returns detection totals grouped by label.
// GET /api/v1/detections/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.records.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportCSV exports all detection records as training data. Confidence
// is written from the stored exact decimal, never a float.
// GET /api/v1/export/csv
func (h *Handler) ExportCSV(c *gin.Context) {
	detections, err := h.records.GetAllDetections()
	if err != nil {
		h.logger.Error("Failed to export CSV", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=deepfake_detections.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// Write header
	writer.Write([]string{
		"id", "blob_key", "label", "confidence", "created_at",
		"source_type", "model_name", "model_version", "recheck_status",
	})

	// Write data
	for _, rec := range detections {
		writer.Write([]string{
			rec.ID,
			rec.BlobKey,
			rec.Label,
			rec.Confidence.String(),
			time.Unix(rec.CreatedAt, 0).Format("2006-01-02 15:04:05"),
			rec.SourceType,
			rec.ModelName,
			rec.ModelVersion,
			rec.RecheckStatus,
		})
	}
}

// ListBlobs lists the stored images under the uploads prefix.
// GET /api/v1/blobs
func (h *Handler) ListBlobs(c *gin.Context) {
	objects, err := h.blobs.List(c.Request.Context(), h.blobPrefix)
	if err != nil {
		h.logger.Error("Failed to list blobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list blobs"})
		return
	}

	blobs := make([]models.BlobInfo, 0, len(objects))
	for _, obj := range objects {
		blobs = append(blobs, models.BlobInfo{
			Key:          obj.Key,
			SizeBytes:    obj.Size,
			LastModified: obj.LastModified,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"blobs": blobs,
		"total": len(blobs),
	})
}

// GetBlob streams one stored image back to the dashboard.
// GET /api/v1/blob/*key
func (h *Handler) GetBlob(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blob key is required"})
		return
	}

	data, contentType, err := h.blobs.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "blob not found"})
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

// DeleteBlob removes one stored image. The matching detection record is
// intentionally left in place.
// DELETE /api/v1/blob/*key
func (h *Handler) DeleteBlob(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "blob key is required"})
		return
	}

	if err := h.blobs.Delete(c.Request.Context(), key); err != nil {
		h.logger.Error("Failed to delete blob", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete blob"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "blob deleted",
		"key":     key,
	})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "deepfake-detection",
		"version": "1.0.0",
	})
}
