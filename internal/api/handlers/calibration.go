package handlers

import (
	"context"
	"errors"

	"github.com/NTIA/scos-tekrsa-sub000/internal/calibration"
	"github.com/NTIA/scos-tekrsa-sub000/internal/corrections"
	"github.com/NTIA/scos-tekrsa-sub000/internal/repository"
	"github.com/NTIA/scos-tekrsa-sub000/internal/storage"
	"github.com/NTIA/scos-tekrsa-sub000/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CalibrationHandler handles calibration-related HTTP requests
type CalibrationHandler struct {
	repo          repository.CalibrationRepository
	s3Service     storage.S3Service
	correctionSvc corrections.CorrectionService
}

// NewCalibrationHandler creates a new calibration handler
func NewCalibrationHandler(repo repository.CalibrationRepository, s3Service storage.S3Service, correctionSvc corrections.CorrectionService) *CalibrationHandler {
	return &CalibrationHandler{
		repo:          repo,
		s3Service:     s3Service,
		correctionSvc: correctionSvc,
	}
}

// UploadCalibration stores a calibration document and makes it the active
// calibration for the sensor
func (h *CalibrationHandler) UploadCalibration(ctx context.Context, req *models.UploadCalibrationRequest) (*models.UploadCalibrationResponse, error) {
	log.Info().Str("sensorID", req.SensorID).Str("kind", req.Kind).Msg("Calibration upload received")

	record, err := h.correctionSvc.Activate(ctx, req.SensorID, req.Kind, &req.Body)
	if err != nil {
		if errors.Is(err, corrections.ErrInvalidDocument) {
			return nil, huma.Error422UnprocessableEntity("Calibration document is invalid", err)
		}
		return nil, huma.Error500InternalServerError("Failed to store calibration", err)
	}

	log.Info().
		Str("sensorID", req.SensorID).
		Str("kind", req.Kind).
		Str("calibrationID", record.ID).
		Int("pointCount", record.PointCount).
		Msg("Calibration stored and activated")

	resp := &models.UploadCalibrationResponse{}
	resp.Body.ID = record.ID
	resp.Body.SensorID = record.SensorID
	resp.Body.Kind = record.Kind
	resp.Body.CalibrationDatetime = record.CalibrationDatetime
	resp.Body.PointCount = record.PointCount
	resp.Body.UploadedAt = record.UploadedAt
	return resp, nil
}

// GetCalibration describes the active calibration for a sensor and kind
func (h *CalibrationHandler) GetCalibration(ctx context.Context, req *models.GetCalibrationRequest) (*models.GetCalibrationResponse, error) {
	entry, ok := h.correctionSvc.Active(req.SensorID, req.Kind)
	if !ok {
		return nil, huma.Error404NotFound("No active calibration for this sensor and kind")
	}

	resp := &models.GetCalibrationResponse{}
	resp.Body.ID = entry.Record.ID
	resp.Body.SensorID = entry.Record.SensorID
	resp.Body.Kind = entry.Record.Kind
	resp.Body.CalibrationDatetime = entry.Record.CalibrationDatetime
	resp.Body.PointCount = entry.Record.PointCount
	resp.Body.UploadedAt = entry.Record.UploadedAt

	for _, d := range entry.Calibration.Divisions() {
		resp.Body.FrequencyDivisions = append(resp.Body.FrequencyDivisions, models.FrequencyDivision{
			LowerBound: d.Lower,
			UpperBound: d.Upper,
		})
	}

	grids := entry.Calibration.Grids()
	resp.Body.Grids = make([]models.GridSummary, 0, len(grids))
	for _, g := range grids {
		resp.Body.Grids = append(resp.Body.Grids, models.GridSummary{
			SampleRate:        g.SampleRate,
			FrequencyMin:      g.FrequencyMin,
			FrequencyMax:      g.FrequencyMax,
			ReferenceLevelMin: g.ReferenceLevelMin,
			ReferenceLevelMax: g.ReferenceLevelMax,
			Points:            g.Points,
		})
	}

	return resp, nil
}

// ListCalibrations lists a sensor's stored calibrations, newest first
func (h *CalibrationHandler) ListCalibrations(ctx context.Context, req *models.ListCalibrationsRequest) (*models.ListCalibrationsResponse, error) {
	records, err := h.repo.ListBySensor(ctx, req.SensorID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list calibrations", err)
	}

	resp := &models.ListCalibrationsResponse{}
	resp.Body.Calibrations = make([]models.CalibrationRecord, 0, len(records))
	for _, record := range records {
		resp.Body.Calibrations = append(resp.Body.Calibrations, *record)
	}
	return resp, nil
}

// DownloadCalibration returns a pre-signed URL for a stored calibration
// document
func (h *CalibrationHandler) DownloadCalibration(ctx context.Context, req *models.DownloadCalibrationRequest) (*models.DownloadCalibrationResponse, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid calibration ID", err)
	}

	record, _, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return nil, huma.Error404NotFound("Calibration not found", err)
	}

	if record.S3Key == "" {
		return nil, huma.Error404NotFound("Calibration has no archived document")
	}

	url, err := h.s3Service.GenerateDownloadURL(ctx, record.S3Key)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate download URL", err)
	}

	resp := &models.DownloadCalibrationResponse{}
	resp.Body.URL = url
	resp.Body.ExpiresIn = int(storage.DownloadURLTTL.Seconds())
	return resp, nil
}

// GetCorrections resolves the correction factors for one operating point
func (h *CalibrationHandler) GetCorrections(ctx context.Context, req *models.CorrectionsRequest) (*models.CorrectionsResponse, error) {
	if req.Body.SampleRate <= 0 {
		return nil, huma.Error400BadRequest("Sample rate must be positive")
	}
	if len(req.Body.SamplesI) != len(req.Body.SamplesQ) {
		return nil, huma.Error400BadRequest("samples_i and samples_q must be the same length")
	}

	log.Info().
		Str("sensorID", req.SensorID).
		Float64("sampleRate", req.Body.SampleRate).
		Float64("frequency", req.Body.Frequency).
		Float64("referenceLevel", req.Body.ReferenceLevel).
		Msg("Corrections requested")

	set, err := h.correctionSvc.Corrections(req.SensorID, req.Body.SampleRate, req.Body.Frequency, req.Body.ReferenceLevel)
	if err != nil {
		return nil, huma.Error500InternalServerError("Calibration lookup failed", err)
	}

	resp := &models.CorrectionsResponse{}
	resp.Body.Factors = set.Factors
	resp.Body.Annotation = set.Annotation
	resp.Body.SiganMiss = string(set.SiganMiss)
	resp.Body.SensorMiss = string(set.SensorMiss)

	if len(req.Body.SamplesI) > 0 {
		samples := make([]complex128, len(req.Body.SamplesI))
		for i := range req.Body.SamplesI {
			samples[i] = complex(req.Body.SamplesI[i], req.Body.SamplesQ[i])
		}
		overloaded, power := calibration.Overloaded(samples, set.Factors[calibration.FactorCompressionSensor])
		resp.Body.Overload = &models.OverloadReport{
			Overloaded:   overloaded,
			MeanPowerDBm: power,
		}
	}

	return resp, nil
}
