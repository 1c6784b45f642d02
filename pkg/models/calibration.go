package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// UploadCalibrationRequest represents a request to store and activate a new
// calibration for one sensor
type UploadCalibrationRequest struct {
	SensorID string `path:"sensorID" maxLength:"100" doc:"Sensor identifier"`
	Kind     string `path:"kind" enum:"sigan,sensor" doc:"Calibration scope: signal analyzer alone or full sensor chain"`
	Body     CalibrationDocument
}

// UploadCalibrationResponse represents the response from storing a calibration
type UploadCalibrationResponse struct {
	Body struct {
		ID                  string    `json:"id" doc:"Calibration unique identifier"`
		SensorID            string    `json:"sensor_id" doc:"Sensor identifier"`
		Kind                string    `json:"kind" doc:"Calibration kind"`
		CalibrationDatetime string    `json:"calibration_datetime" doc:"Lab sweep timestamp from the document"`
		PointCount          int       `json:"point_count" doc:"Number of measured grid points"`
		UploadedAt          time.Time `json:"uploaded_at" doc:"When the document was stored"`
	}
}

// GetCalibrationRequest identifies the active calibration to describe
type GetCalibrationRequest struct {
	SensorID string `path:"sensorID" maxLength:"100" doc:"Sensor identifier"`
	Kind     string `path:"kind" enum:"sigan,sensor" doc:"Calibration kind"`
}

// GridSummary describes the calibrated envelope at one sample rate
type GridSummary struct {
	SampleRate        float64 `json:"sample_rate" doc:"Sample rate in samples per second"`
	FrequencyMin      float64 `json:"frequency_min" doc:"Lowest calibrated frequency in Hz"`
	FrequencyMax      float64 `json:"frequency_max" doc:"Highest calibrated frequency in Hz"`
	ReferenceLevelMin float64 `json:"reference_level_min" doc:"Lowest calibrated reference level in dBm"`
	ReferenceLevelMax float64 `json:"reference_level_max" doc:"Highest calibrated reference level in dBm"`
	Points            int     `json:"points" doc:"Measured grid points at this sample rate"`
}

// GetCalibrationResponse describes the currently active calibration
type GetCalibrationResponse struct {
	Body struct {
		ID                  string              `json:"id" doc:"Calibration ID"`
		SensorID            string              `json:"sensor_id" doc:"Sensor identifier"`
		Kind                string              `json:"kind" doc:"Calibration kind"`
		CalibrationDatetime string              `json:"calibration_datetime" doc:"Lab sweep timestamp"`
		PointCount          int                 `json:"point_count" doc:"Number of measured grid points"`
		FrequencyDivisions  []FrequencyDivision `json:"frequency_divisions,omitempty" doc:"Hardware mode switch bands"`
		Grids               []GridSummary       `json:"grids" doc:"Calibrated envelope per sample rate"`
		UploadedAt          time.Time           `json:"uploaded_at" doc:"When the document was stored"`
	}
}

// ListCalibrationsRequest identifies the sensor whose upload history to list
type ListCalibrationsRequest struct {
	SensorID string `path:"sensorID" maxLength:"100" doc:"Sensor identifier"`
}

// ListCalibrationsResponse represents a sensor's stored calibrations,
// newest first
type ListCalibrationsResponse struct {
	Body struct {
		Calibrations []CalibrationRecord `json:"calibrations" doc:"Stored calibrations, newest first"`
	}
}

// DownloadCalibrationRequest identifies a stored calibration document
type DownloadCalibrationRequest struct {
	ID string `path:"id" doc:"Calibration ID"`
}

// DownloadCalibrationResponse carries a pre-signed URL for the archived
// calibration file
type DownloadCalibrationResponse struct {
	Body struct {
		URL       string `json:"url" doc:"Pre-signed S3 URL for the original document"`
		ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
	}
}

// CorrectionsRequest asks for the correction factors at one operating point
type CorrectionsRequest struct {
	SensorID string `path:"sensorID" maxLength:"100" doc:"Sensor identifier"`
	Body     struct {
		SampleRate     float64   `json:"sample_rate" required:"true" example:"14000000" doc:"Sample rate in samples per second"`
		Frequency      float64   `json:"frequency" required:"true" example:"1000000000" doc:"Center frequency in Hz"`
		ReferenceLevel float64   `json:"reference_level" required:"true" example:"-20" doc:"Reference level in dBm"`
		SamplesI       []float64 `json:"samples_i,omitempty" doc:"In-phase sample values for the optional overload check"`
		SamplesQ       []float64 `json:"samples_q,omitempty" doc:"Quadrature sample values, same length as samples_i"`
	}
}

// OverloadReport is the outcome of comparing captured samples against the
// sensor compression point
type OverloadReport struct {
	Overloaded   bool    `json:"overloaded" doc:"Whether the mean power exceeds the sensor compression point"`
	MeanPowerDBm float64 `json:"mean_power_dbm" doc:"Mean sample power in dBm at a 50 ohm load"`
}

// CorrectionsResponse carries the resolved correction set for one operating
// point
type CorrectionsResponse struct {
	Body struct {
		Factors    map[string]float64 `json:"factors" doc:"Resolved correction factors, gaps filled by the default cascade"`
		Annotation map[string]any     `json:"annotation" doc:"SigMF calibration annotation segment"`
		SiganMiss  string             `json:"sigan_miss,omitempty" doc:"Why the signal analyzer lookup used defaults, empty on a hit"`
		SensorMiss string             `json:"sensor_miss,omitempty" doc:"Why the sensor lookup used defaults, empty on a hit"`
		Overload   *OverloadReport    `json:"overload,omitempty" doc:"Present when samples were supplied"`
	}
}

// CalibrationRecord represents a stored calibration (for internal use)
type CalibrationRecord struct {
	ID                  string    `json:"id"`
	SensorID            string    `json:"sensor_id"`
	Kind                string    `json:"kind"`
	CalibrationDatetime string    `json:"calibration_datetime"`
	PointCount          int       `json:"point_count"`
	S3Key               string    `json:"s3_key,omitempty"`
	UploadedAt          time.Time `json:"uploaded_at"`
}
