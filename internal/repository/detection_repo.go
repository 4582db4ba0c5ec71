package repository

import (
	"errors"
	"fmt"

	"github.com/LlamaWritesCode/deepfake-detection-aws/internal/models"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // Required for file source
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

// DetectionRepository stores detection records. Records are write-once:
// there is no update or delete path.
type DetectionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLite opens (or creates) an embedded SQLite record store.
func NewSQLite(dbPath string, logger *zap.Logger) (*DetectionRepository, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &DetectionRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Detection repository initialized",
		zap.String("driver", "sqlite"),
		zap.String("db_path", dbPath))

	return repo, nil
}

// NewPostgres connects to PostgreSQL and runs pending migrations.
func NewPostgres(dataSourceName string, logger *zap.Logger) (*DetectionRepository, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("couldn't get database instance for running migrations: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "deepfake_detections", driver)
	if err != nil {
		return nil, fmt.Errorf("couldn't create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("couldn't run database migration: %w", err)
	}

	logger.Info("Detection repository initialized", zap.String("driver", "postgres"))

	return &DetectionRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the underlying database.
func (r *DetectionRepository) Close() error {
	return r.db.Close()
}

// migrate creates the sqlite schema. The postgres schema lives in
// migrations/ and is applied by golang-migrate.
func (r *DetectionRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS detections (
		id TEXT PRIMARY KEY,
		blob_key TEXT NOT NULL,
		label TEXT NOT NULL,
		confidence TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		source_type TEXT NOT NULL,
		model_name TEXT NOT NULL,
		model_version TEXT NOT NULL DEFAULT '',
		recheck_status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_detections_label ON detections(label);
	CREATE INDEX IF NOT EXISTS idx_detections_created_at ON detections(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveDetection persists a single record. Confidence is stored as its
// decimal string so the exported value never picks up binary float
// artifacts.
func (r *DetectionRepository) SaveDetection(rec *models.DetectionRecord) error {
	query := r.db.Rebind(`
		INSERT INTO detections (
			id, blob_key, label, confidence, created_at,
			source_type, model_name, model_version, recheck_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.Exec(query,
		rec.ID,
		rec.BlobKey,
		rec.Label,
		rec.Confidence.String(),
		rec.CreatedAt,
		rec.SourceType,
		rec.ModelName,
		rec.ModelVersion,
		rec.RecheckStatus,
	)

	if err != nil {
		return fmt.Errorf("failed to save detection: %w", err)
	}

	return nil
}

// GetAllDetections retrieves all records, newest first. Used by the
// dashboard listing and the CSV export.
func (r *DetectionRepository) GetAllDetections() ([]*models.DetectionRecord, error) {
	query := `
		SELECT id, blob_key, label, confidence, created_at,
		       source_type, model_name, model_version, recheck_status
		FROM detections
		ORDER BY created_at DESC, id
	`

	var detections []*models.DetectionRecord
	if err := r.db.Select(&detections, query); err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}

	return detections, nil
}

// GetStats returns totals grouped by label.
func (r *DetectionRepository) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int
	if err := r.db.Get(&total, "SELECT COUNT(*) FROM detections"); err != nil {
		return nil, err
	}
	stats["total"] = total

	rows, err := r.db.Query(`
		SELECT label, COUNT(*) AS count
		FROM detections
		GROUP BY label
		ORDER BY label
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byLabel := make(map[string]int)
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			continue
		}
		byLabel[label] = count
	}
	stats["by_label"] = byLabel

	return stats, nil
}
