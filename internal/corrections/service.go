package corrections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NTIA/scos-tekrsa-sub000/internal/calibration"
	"github.com/NTIA/scos-tekrsa-sub000/internal/repository"
	"github.com/NTIA/scos-tekrsa-sub000/internal/storage"
	"github.com/NTIA/scos-tekrsa-sub000/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Calibration kinds. A sigan calibration covers the signal analyzer alone,
// a sensor calibration covers the full antenna-to-analyzer chain.
const (
	KindSigan  = "sigan"
	KindSensor = "sensor"
)

// MissNoActive reports that no calibration has been activated for the
// sensor and kind at all.
const MissNoActive = calibration.MissReason("no active calibration")

// ErrInvalidDocument marks calibration documents that cannot be compiled
// into a lookup table.
var ErrInvalidDocument = errors.New("invalid calibration document")

// ActiveCalibration pairs a stored record with its compiled lookup table.
type ActiveCalibration struct {
	Record      *models.CalibrationRecord
	Calibration *calibration.Calibration
}

// CorrectionSet is the resolved correction data for one operating point.
type CorrectionSet struct {
	Factors    map[string]float64
	Annotation map[string]any
	SiganMiss  calibration.MissReason
	SensorMiss calibration.MissReason
}

// CorrectionService owns the active calibrations and answers correction
// queries from them.
type CorrectionService interface {
	Activate(ctx context.Context, sensorID, kind string, doc *models.CalibrationDocument) (*models.CalibrationRecord, error)
	Active(sensorID, kind string) (*ActiveCalibration, bool)
	Corrections(sensorID string, sampleRate, frequency, referenceLevel float64) (*CorrectionSet, error)
	LoadActive(ctx context.Context) error
}

type correctionService struct {
	repository repository.CalibrationRepository
	s3         storage.S3Service
	defaults   calibration.Defaults

	mu     sync.RWMutex
	active map[string]*ActiveCalibration
}

func NewCorrectionService(repo repository.CalibrationRepository, s3Service storage.S3Service, defaults calibration.Defaults) CorrectionService {
	return &correctionService{
		repository: repo,
		s3:         s3Service,
		defaults:   defaults,
		active:     make(map[string]*ActiveCalibration),
	}
}

func activeKey(sensorID, kind string) string {
	return sensorID + "/" + kind
}

// Activate compiles a calibration document, archives and persists it, and
// swaps it in as the active calibration for the sensor and kind. Queries
// running concurrently keep reading the previous calibration until the swap.
func (s *correctionService) Activate(ctx context.Context, sensorID, kind string, doc *models.CalibrationDocument) (*models.CalibrationRecord, error) {
	cal, pointCount, err := compile(doc)
	if err != nil {
		return nil, err
	}

	record := &models.CalibrationRecord{
		ID:                  uuid.New().String(),
		SensorID:            sensorID,
		Kind:                kind,
		CalibrationDatetime: doc.CalibrationDatetime,
		PointCount:          pointCount,
		UploadedAt:          time.Now().UTC(),
	}

	// Archive the original document. Archive failures are logged but do not
	// block activation; the document itself survives in the database row.
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calibration document: %w", err)
	}
	key := fmt.Sprintf("calibrations/%s/%s/%s.json", sensorID, kind, record.ID)
	if err := s.s3.StoreDocument(ctx, key, data); err != nil {
		log.Warn().
			Err(err).
			Str("sensor_id", sensorID).
			Str("kind", kind).
			Str("s3_key", key).
			Msg("failed to archive calibration document")
	} else {
		record.S3Key = key
	}

	if err := s.repository.Create(ctx, record, doc); err != nil {
		return nil, fmt.Errorf("failed to store calibration: %w", err)
	}

	s.mu.Lock()
	s.active[activeKey(sensorID, kind)] = &ActiveCalibration{Record: record, Calibration: cal}
	s.mu.Unlock()

	log.Info().
		Str("sensor_id", sensorID).
		Str("kind", kind).
		Str("calibration_id", record.ID).
		Str("calibration_datetime", record.CalibrationDatetime).
		Int("point_count", record.PointCount).
		Msg("calibration activated")

	return record, nil
}

// Active returns the active calibration for a sensor and kind, if any.
func (s *correctionService) Active(sensorID, kind string) (*ActiveCalibration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.active[activeKey(sensorID, kind)]
	return entry, ok
}

// Corrections resolves the full correction set for one operating point from
// the sensor's active calibrations. Out-of-range queries and missing
// calibrations fall back to the default cascade and are reported in the
// returned miss reasons, never as errors.
func (s *correctionService) Corrections(sensorID string, sampleRate, frequency, referenceLevel float64) (*CorrectionSet, error) {
	s.mu.RLock()
	sigan := s.active[activeKey(sensorID, KindSigan)]
	sensor := s.active[activeKey(sensorID, KindSensor)]
	s.mu.RUnlock()

	siganRes, err := s.lookup(sigan, sensorID, KindSigan, sampleRate, frequency, referenceLevel)
	if err != nil {
		return nil, err
	}
	sensorRes, err := s.lookup(sensor, sensorID, KindSensor, sampleRate, frequency, referenceLevel)
	if err != nil {
		return nil, err
	}

	factors := calibration.ResolveFactors(siganRes, sensorRes, sampleRate, s.defaults)

	return &CorrectionSet{
		Factors:    factors,
		Annotation: calibration.Annotation(factors),
		SiganMiss:  siganRes.Miss,
		SensorMiss: sensorRes.Miss,
	}, nil
}

func (s *correctionService) lookup(entry *ActiveCalibration, sensorID, kind string, sampleRate, frequency, referenceLevel float64) (calibration.Result, error) {
	if entry == nil {
		log.Warn().
			Str("sensor_id", sensorID).
			Str("kind", kind).
			Msg("no active calibration, using defaults")
		return calibration.Result{Miss: MissNoActive}, nil
	}

	res, err := entry.Calibration.Get(sampleRate, frequency, referenceLevel)
	if err != nil {
		return calibration.Result{}, fmt.Errorf("%s calibration lookup failed: %w", kind, err)
	}
	return res, nil
}

// LoadActive rebuilds the active calibration set from the newest stored
// document per sensor and kind. Documents that no longer compile are
// skipped so one bad row cannot block startup.
func (s *correctionService) LoadActive(ctx context.Context) error {
	records, err := s.repository.LatestAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored calibrations: %w", err)
	}

	loaded := 0
	for _, record := range records {
		id, err := uuid.Parse(record.ID)
		if err != nil {
			log.Warn().Err(err).Str("calibration_id", record.ID).Msg("skipping calibration with malformed ID")
			continue
		}

		_, doc, err := s.repository.GetByID(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("calibration_id", record.ID).Msg("failed to load calibration document")
			continue
		}

		cal, _, err := compile(doc)
		if err != nil {
			log.Warn().
				Err(err).
				Str("calibration_id", record.ID).
				Str("sensor_id", record.SensorID).
				Str("kind", record.Kind).
				Msg("skipping calibration that no longer compiles")
			continue
		}

		s.mu.Lock()
		s.active[activeKey(record.SensorID, record.Kind)] = &ActiveCalibration{Record: record, Calibration: cal}
		s.mu.Unlock()
		loaded++
	}

	log.Info().Int("loaded", loaded).Int("stored", len(records)).Msg("active calibrations restored")
	return nil
}

// compile turns a calibration document into a lookup table, rejecting
// documents that are empty, carry duplicate grid points, or declare
// inverted frequency divisions.
func compile(doc *models.CalibrationDocument) (*calibration.Calibration, int, error) {
	points, divisions := flatten(doc)
	if len(points) == 0 {
		return nil, 0, fmt.Errorf("%w: no calibration points", ErrInvalidDocument)
	}
	for _, d := range divisions {
		if d.Upper < d.Lower {
			return nil, 0, fmt.Errorf("%w: inverted frequency division [%g, %g]", ErrInvalidDocument, d.Lower, d.Upper)
		}
	}

	cal, err := calibration.New(doc.CalibrationDatetime, points, divisions)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	return cal, len(points), nil
}

// flatten walks the nested document grid into the flat point list the
// lookup table is built from.
func flatten(doc *models.CalibrationDocument) ([]calibration.Point, []calibration.Division) {
	var points []calibration.Point
	for _, sr := range doc.Data.SampleRates {
		for _, f := range sr.Data.Frequencies {
			for _, rl := range f.Data.RefLevels {
				points = append(points, calibration.Point{
					SampleRate:     sr.SampleRate,
					Frequency:      f.Frequency,
					ReferenceLevel: rl.ReferenceLevel,
					Factors:        rl.Factors,
				})
			}
		}
	}

	divisions := make([]calibration.Division, 0, len(doc.FrequencyDivisions))
	for _, d := range doc.FrequencyDivisions {
		divisions = append(divisions, calibration.Division{Lower: d.LowerBound, Upper: d.UpperBound})
	}

	return points, divisions
}
