package repository

import (
	"context"

	"github.com/NTIA/scos-tekrsa-sub000/pkg/models"
	"github.com/google/uuid"
)

// CalibrationRepository defines the interface for calibration storage operations
type CalibrationRepository interface {
	Create(ctx context.Context, record *models.CalibrationRecord, doc *models.CalibrationDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CalibrationRecord, *models.CalibrationDocument, error)
	GetLatest(ctx context.Context, sensorID, kind string) (*models.CalibrationRecord, *models.CalibrationDocument, error)
	ListBySensor(ctx context.Context, sensorID string) ([]*models.CalibrationRecord, error)
	LatestAll(ctx context.Context) ([]*models.CalibrationRecord, error)
}
