package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Verdict labels produced by the classifier.
const (
	VerdictReal = "real"
	VerdictFake = "fake"
)

// SourceTypeURL marks records created by the URL ingestion pipeline.
// Other source types (direct upload, batch import) may be added later.
const SourceTypeURL = "url"

// RecheckPending is the initial recheck status. The re-verification
// workflow that would transition it does not exist yet, so every record
// keeps this value.
const RecheckPending = "pending"

// DetectionRecord is one persisted classification result. Records are
// immutable once written; deleting the underlying blob does not remove
// the record.
type DetectionRecord struct {
	ID            string          `json:"id" db:"id"`
	BlobKey       string          `json:"blob_key" db:"blob_key"`
	Label         string          `json:"label" db:"label"`
	Confidence    decimal.Decimal `json:"confidence" db:"confidence"` // exact decimal, used as a training label on export
	CreatedAt     int64           `json:"created_at" db:"created_at"` // unix seconds
	SourceType    string          `json:"source_type" db:"source_type"`
	ModelName     string          `json:"model_name" db:"model_name"`
	ModelVersion  string          `json:"model_version" db:"model_version"`
	RecheckStatus string          `json:"recheck_status" db:"recheck_status"`
}

// DetectRequest is the inbound payload for POST /detect.
type DetectRequest struct {
	FileURL string `json:"file_url" binding:"required"`
}

// DetectResponse is returned on a successful detection. Confidence is
// rounded to 3 decimal places for display; the stored record keeps the
// full-precision value.
type DetectResponse struct {
	Verdict      string  `json:"verdict"`
	Confidence   float64 `json:"confidence"`
	ID           string  `json:"id"`
	ModelName    string  `json:"model_name"`
	ModelVersion string  `json:"model_version"`
}

// BlobInfo describes one stored image for the dashboard listing.
type BlobInfo struct {
	Key          string    `json:"key"`
	SizeBytes    int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}
