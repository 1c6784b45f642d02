package api

import (
	"net/http"

	"github.com/NTIA/scos-tekrsa-sub000/internal/api/handlers"
	"github.com/NTIA/scos-tekrsa-sub000/internal/corrections"
	"github.com/NTIA/scos-tekrsa-sub000/internal/repository"
	"github.com/NTIA/scos-tekrsa-sub000/internal/storage"
	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, s3Service storage.S3Service, calibrationRepo repository.CalibrationRepository, correctionSvc corrections.CorrectionService) {
	// Initialize handlers
	calibrationHandler := handlers.NewCalibrationHandler(calibrationRepo, s3Service, correctionSvc)

	// Register calibration routes
	huma.Register(api, huma.Operation{
		OperationID: "uploadCalibration",
		Method:      http.MethodPut,
		Path:        "/api/sensors/{sensorID}/calibrations/{kind}",
		Summary:     "Upload a calibration",
		Description: "Validates a calibration document, archives it, and makes it the active calibration for the sensor",
		Tags:        []string{"Calibration"},
	}, calibrationHandler.UploadCalibration)

	huma.Register(api, huma.Operation{
		OperationID: "getCalibration",
		Method:      http.MethodGet,
		Path:        "/api/sensors/{sensorID}/calibrations/{kind}",
		Summary:     "Get the active calibration",
		Description: "Returns metadata, frequency divisions, and grid summaries for the active calibration",
		Tags:        []string{"Calibration"},
	}, calibrationHandler.GetCalibration)

	huma.Register(api, huma.Operation{
		OperationID: "listCalibrations",
		Method:      http.MethodGet,
		Path:        "/api/sensors/{sensorID}/calibrations",
		Summary:     "List calibration history",
		Description: "Returns all calibration uploads for a sensor, newest first",
		Tags:        []string{"Calibration"},
	}, calibrationHandler.ListCalibrations)

	huma.Register(api, huma.Operation{
		OperationID: "downloadCalibration",
		Method:      http.MethodGet,
		Path:        "/api/calibrations/{id}/download",
		Summary:     "Download a calibration document",
		Description: "Returns a presigned URL for the archived calibration document",
		Tags:        []string{"Calibration"},
	}, calibrationHandler.DownloadCalibration)

	huma.Register(api, huma.Operation{
		OperationID: "resolveCorrections",
		Method:      http.MethodPost,
		Path:        "/api/sensors/{sensorID}/corrections",
		Summary:     "Resolve correction factors",
		Description: "Interpolates the active calibrations at the requested capture settings and returns the cascaded correction factors with their SigMF annotation",
		Tags:        []string{"Corrections"},
	}, calibrationHandler.GetCorrections)
}
