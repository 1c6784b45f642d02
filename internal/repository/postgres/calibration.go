package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/NTIA/scos-tekrsa-sub000/internal/repository"
	"github.com/NTIA/scos-tekrsa-sub000/pkg/models"
	"github.com/google/uuid"
)

// PostgresCalibrationRepository implements CalibrationRepository for PostgreSQL
type PostgresCalibrationRepository struct {
	db *sql.DB
}

// NewPostgresCalibrationRepository creates a new PostgreSQL calibration repository
func NewPostgresCalibrationRepository(db *sql.DB) repository.CalibrationRepository {
	return &PostgresCalibrationRepository{db: db}
}

// Create inserts a new calibration record with its full document
func (r *PostgresCalibrationRepository) Create(ctx context.Context, record *models.CalibrationRecord, doc *models.CalibrationDocument) error {
	document, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal calibration document: %w", err)
	}

	s3Key := sql.NullString{String: record.S3Key, Valid: record.S3Key != ""}

	query := `
		INSERT INTO calibrations (id, sensor_id, kind, calibration_datetime, point_count, document, s3_key, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.SensorID,
		record.Kind,
		record.CalibrationDatetime,
		record.PointCount,
		string(document),
		s3Key,
		record.UploadedAt)

	return err
}

// GetByID retrieves a calibration and its document by ID
func (r *PostgresCalibrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CalibrationRecord, *models.CalibrationDocument, error) {
	query := `
		SELECT id, sensor_id, kind, calibration_datetime, point_count, document, s3_key, uploaded_at
		FROM calibrations
		WHERE id = $1`

	return r.queryOne(ctx, query, id)
}

// GetLatest retrieves the most recently uploaded calibration for a sensor
// and kind
func (r *PostgresCalibrationRepository) GetLatest(ctx context.Context, sensorID, kind string) (*models.CalibrationRecord, *models.CalibrationDocument, error) {
	query := `
		SELECT id, sensor_id, kind, calibration_datetime, point_count, document, s3_key, uploaded_at
		FROM calibrations
		WHERE sensor_id = $1 AND kind = $2
		ORDER BY uploaded_at DESC
		LIMIT 1`

	return r.queryOne(ctx, query, sensorID, kind)
}

func (r *PostgresCalibrationRepository) queryOne(ctx context.Context, query string, args ...any) (*models.CalibrationRecord, *models.CalibrationDocument, error) {
	var record models.CalibrationRecord
	var document []byte
	var s3Key sql.NullString

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&record.ID,
		&record.SensorID,
		&record.Kind,
		&record.CalibrationDatetime,
		&record.PointCount,
		&document,
		&s3Key,
		&record.UploadedAt)

	if err != nil {
		return nil, nil, err
	}

	if s3Key.Valid {
		record.S3Key = s3Key.String
	}

	var doc models.CalibrationDocument
	if err := json.Unmarshal(document, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal calibration document: %w", err)
	}

	return &record, &doc, nil
}

// ListBySensor retrieves a sensor's stored calibrations, newest first,
// without their documents
func (r *PostgresCalibrationRepository) ListBySensor(ctx context.Context, sensorID string) ([]*models.CalibrationRecord, error) {
	query := `
		SELECT id, sensor_id, kind, calibration_datetime, point_count, s3_key, uploaded_at
		FROM calibrations
		WHERE sensor_id = $1
		ORDER BY uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, sensorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// LatestAll retrieves the newest calibration record for every sensor and
// kind, for rebuilding the active set at startup
func (r *PostgresCalibrationRepository) LatestAll(ctx context.Context) ([]*models.CalibrationRecord, error) {
	query := `
		SELECT DISTINCT ON (sensor_id, kind) id, sensor_id, kind, calibration_datetime, point_count, s3_key, uploaded_at
		FROM calibrations
		ORDER BY sensor_id, kind, uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*models.CalibrationRecord, error) {
	var records []*models.CalibrationRecord
	for rows.Next() {
		var record models.CalibrationRecord
		var s3Key sql.NullString

		err := rows.Scan(
			&record.ID,
			&record.SensorID,
			&record.Kind,
			&record.CalibrationDatetime,
			&record.PointCount,
			&s3Key,
			&record.UploadedAt)

		if err != nil {
			return nil, err
		}

		if s3Key.Valid {
			record.S3Key = s3Key.String
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
