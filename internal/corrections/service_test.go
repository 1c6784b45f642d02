package corrections

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/NTIA/scos-tekrsa-sub000/internal/calibration"
	"github.com/NTIA/scos-tekrsa-sub000/internal/repository/postgres"
	"github.com/NTIA/scos-tekrsa-sub000/internal/storage"
	"github.com/NTIA/scos-tekrsa-sub000/pkg/models"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	miniogo "github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/minio"
	pgContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MockCalibrationRepository implements repository.CalibrationRepository for testing
type MockCalibrationRepository struct {
	mock.Mock
}

func (m *MockCalibrationRepository) Create(ctx context.Context, record *models.CalibrationRecord, doc *models.CalibrationDocument) error {
	args := m.Called(ctx, record, doc)
	return args.Error(0)
}

func (m *MockCalibrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CalibrationRecord, *models.CalibrationDocument, error) {
	args := m.Called(ctx, id)
	var record *models.CalibrationRecord
	if args.Get(0) != nil {
		record = args.Get(0).(*models.CalibrationRecord)
	}
	var doc *models.CalibrationDocument
	if args.Get(1) != nil {
		doc = args.Get(1).(*models.CalibrationDocument)
	}
	return record, doc, args.Error(2)
}

func (m *MockCalibrationRepository) GetLatest(ctx context.Context, sensorID, kind string) (*models.CalibrationRecord, *models.CalibrationDocument, error) {
	args := m.Called(ctx, sensorID, kind)
	var record *models.CalibrationRecord
	if args.Get(0) != nil {
		record = args.Get(0).(*models.CalibrationRecord)
	}
	var doc *models.CalibrationDocument
	if args.Get(1) != nil {
		doc = args.Get(1).(*models.CalibrationDocument)
	}
	return record, doc, args.Error(2)
}

func (m *MockCalibrationRepository) ListBySensor(ctx context.Context, sensorID string) ([]*models.CalibrationRecord, error) {
	args := m.Called(ctx, sensorID)
	return args.Get(0).([]*models.CalibrationRecord), args.Error(1)
}

func (m *MockCalibrationRepository) LatestAll(ctx context.Context) ([]*models.CalibrationRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.CalibrationRecord), args.Error(1)
}

// MockS3Service implements storage.S3Service for testing
type MockS3Service struct {
	mock.Mock
}

func (m *MockS3Service) StoreDocument(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *MockS3Service) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockS3Service) DownloadDocument(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockS3Service) DeleteDocument(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// easyGain is linear in every axis, so interpolated lookups reproduce it
// exactly and expected values can be computed in closed form.
func easyGain(sr, f, rl float64) float64 {
	return (30 - rl) * (sr / 1e6) * (f / 1e9)
}

// gainDocument sweeps a calibration document over the given grid with the
// factor maps produced by factorsAt.
func gainDocument(timestamp string, srs, freqs, rls []float64, factorsAt func(sr, f, rl float64) map[string]float64) *models.CalibrationDocument {
	doc := &models.CalibrationDocument{CalibrationDatetime: timestamp}
	for _, sr := range srs {
		srEntry := models.SampleRateEntry{SampleRate: sr}
		for _, f := range freqs {
			fEntry := models.FrequencyEntry{Frequency: f}
			for _, rl := range rls {
				fEntry.Data.RefLevels = append(fEntry.Data.RefLevels, models.RefLevelEntry{
					ReferenceLevel: rl,
					Factors:        factorsAt(sr, f, rl),
				})
			}
			srEntry.Data.Frequencies = append(srEntry.Data.Frequencies, fEntry)
		}
		doc.Data.SampleRates = append(doc.Data.SampleRates, srEntry)
	}
	return doc
}

var (
	testSampleRates = []float64{14e6, 28e6, 56e6}
	testFrequencies = []float64{1e9, 2e9, 3e9, 4e9}
	testRefLevels   = []float64{-40, -20, 0, 20}
)

func siganDocument() *models.CalibrationDocument {
	return gainDocument("2023-01-05T14:07:10.000Z", testSampleRates, testFrequencies, testRefLevels,
		func(sr, f, rl float64) map[string]float64 {
			return map[string]float64{
				calibration.FactorGainSigan:        easyGain(sr, f, rl),
				calibration.FactorNoiseFigureSigan: 10,
				calibration.FactorCompressionSigan: -25,
				calibration.FactorENBWSigan:        0.8 * sr,
			}
		})
}

func sensorDocument() *models.CalibrationDocument {
	return gainDocument("2023-01-06T09:00:00.000Z", testSampleRates, testFrequencies, testRefLevels,
		func(sr, f, rl float64) map[string]float64 {
			return map[string]float64{
				calibration.FactorGainSensor:        easyGain(sr, f, rl) - 10,
				calibration.FactorGainPreselector:   -10,
				calibration.FactorCompressionSensor: 1,
			}
		})
}

func TestActivateAndCorrections(t *testing.T) {
	mockRepo := &MockCalibrationRepository{}
	mockS3 := &MockS3Service{}
	mockS3.On("StoreDocument", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.CalibrationRecord"), mock.AnythingOfType("*models.CalibrationDocument")).Return(nil)

	svc := NewCorrectionService(mockRepo, mockS3, calibration.StandardDefaults)
	ctx := context.Background()

	record, err := svc.Activate(ctx, "sensor01", KindSigan, siganDocument())
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "sensor01", record.SensorID)
	assert.Equal(t, KindSigan, record.Kind)
	assert.Equal(t, "2023-01-05T14:07:10.000Z", record.CalibrationDatetime)
	assert.Equal(t, 48, record.PointCount)
	assert.Equal(t, "calibrations/sensor01/sigan/"+record.ID+".json", record.S3Key)

	// Signal analyzer hit at an interpolated point. easyGain(14e6, 1.5e9, -10)
	// is (30+10)*14*1.5 = 840; sensor fields derive from the resolved
	// signal-analyzer values.
	set, err := svc.Corrections("sensor01", 14e6, 1.5e9, -10)
	require.NoError(t, err)
	assert.Empty(t, string(set.SiganMiss))
	assert.Equal(t, MissNoActive, set.SensorMiss)
	assert.InDelta(t, 840, set.Factors[calibration.FactorGainSigan], 1e-9)
	assert.InDelta(t, 840, set.Factors[calibration.FactorGainSensor], 1e-9)
	assert.InDelta(t, 11.2e6, set.Factors[calibration.FactorENBWSigan], 1e-9)
	assert.InDelta(t, 11.2e6, set.Factors[calibration.FactorENBWSensor], 1e-9)
	assert.InDelta(t, 10, set.Factors[calibration.FactorNoiseFigureSensor], 1e-9)
	// Preselector gain default 0 plus interpolated compression -25.
	assert.InDelta(t, -25, set.Factors[calibration.FactorCompressionSensor], 1e-9)
	assert.Equal(t, "CalibrationAnnotation", set.Annotation["ntia-core:annotation_type"])

	// Activating a sensor calibration upgrades the derived fields to
	// measured ones.
	_, err = svc.Activate(ctx, "sensor01", KindSensor, sensorDocument())
	require.NoError(t, err)

	set, err = svc.Corrections("sensor01", 14e6, 1.5e9, -10)
	require.NoError(t, err)
	assert.Empty(t, string(set.SiganMiss))
	assert.Empty(t, string(set.SensorMiss))
	assert.InDelta(t, 830, set.Factors[calibration.FactorGainSensor], 1e-9)
	assert.InDelta(t, -10, set.Factors[calibration.FactorGainPreselector], 1e-9)
	// Measured, so not derived from preselector gain plus compression.
	assert.InDelta(t, 1, set.Factors[calibration.FactorCompressionSensor], 1e-9)
	assert.InDelta(t, 1.0, set.Annotation["ntia-sensor:1db_compression_point_sensor"], 1e-9)

	mockRepo.AssertExpectations(t)
	mockS3.AssertExpectations(t)
}

func TestActivateInvalidDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  *models.CalibrationDocument
	}{
		{
			name: "no points",
			doc:  &models.CalibrationDocument{CalibrationDatetime: "2023-01-05T14:07:10.000Z"},
		},
		{
			name: "duplicate points",
			doc: func() *models.CalibrationDocument {
				doc := gainDocument("2023-01-05T14:07:10.000Z", []float64{14e6}, []float64{1e9}, []float64{0},
					func(sr, f, rl float64) map[string]float64 {
						return map[string]float64{calibration.FactorGainSigan: 1}
					})
				dup := doc.Data.SampleRates[0].Data.Frequencies[0].Data.RefLevels[0]
				doc.Data.SampleRates[0].Data.Frequencies[0].Data.RefLevels = append(
					doc.Data.SampleRates[0].Data.Frequencies[0].Data.RefLevels, dup)
				return doc
			}(),
		},
		{
			name: "inverted division",
			doc: func() *models.CalibrationDocument {
				doc := gainDocument("2023-01-05T14:07:10.000Z", []float64{14e6}, []float64{1e9}, []float64{0},
					func(sr, f, rl float64) map[string]float64 {
						return map[string]float64{calibration.FactorGainSigan: 1}
					})
				doc.FrequencyDivisions = []models.FrequencyDivision{{LowerBound: 2.2e9, UpperBound: 2.1e9}}
				return doc
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Neither storage nor the repository may be touched.
			mockRepo := &MockCalibrationRepository{}
			mockS3 := &MockS3Service{}
			svc := NewCorrectionService(mockRepo, mockS3, calibration.StandardDefaults)

			_, err := svc.Activate(context.Background(), "sensor01", KindSigan, tt.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)

			mockRepo.AssertExpectations(t)
			mockS3.AssertExpectations(t)
		})
	}
}

func TestActivateArchiveFailureIsNotFatal(t *testing.T) {
	mockRepo := &MockCalibrationRepository{}
	mockS3 := &MockS3Service{}
	mockS3.On("StoreDocument", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	mockRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewCorrectionService(mockRepo, mockS3, calibration.StandardDefaults)

	record, err := svc.Activate(context.Background(), "sensor01", KindSigan, siganDocument())
	require.NoError(t, err)
	assert.Empty(t, record.S3Key)

	// The calibration still went active.
	_, ok := svc.Active("sensor01", KindSigan)
	assert.True(t, ok)
}

func TestActivateStoreFailure(t *testing.T) {
	mockRepo := &MockCalibrationRepository{}
	mockS3 := &MockS3Service{}
	mockS3.On("StoreDocument", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	svc := NewCorrectionService(mockRepo, mockS3, calibration.StandardDefaults)

	_, err := svc.Activate(context.Background(), "sensor01", KindSigan, siganDocument())
	require.Error(t, err)

	// A calibration that could not be persisted must not go active.
	_, ok := svc.Active("sensor01", KindSigan)
	assert.False(t, ok)
}

func TestCorrectionsWithoutActiveCalibrations(t *testing.T) {
	svc := NewCorrectionService(&MockCalibrationRepository{}, &MockS3Service{}, calibration.StandardDefaults)

	set, err := svc.Corrections("sensor01", 14e6, 1e9, -20)
	require.NoError(t, err)
	assert.Equal(t, MissNoActive, set.SiganMiss)
	assert.Equal(t, MissNoActive, set.SensorMiss)

	for _, key := range calibration.FactorKeys {
		assert.Contains(t, set.Factors, key)
	}
	assert.Equal(t, 0.0, set.Factors[calibration.FactorGainSigan])
	assert.Equal(t, 14e6, set.Factors[calibration.FactorENBWSigan])
	assert.Equal(t, 100.0, set.Factors[calibration.FactorCompressionSensor])
}

func TestCorrectionsOutOfRange(t *testing.T) {
	mockRepo := &MockCalibrationRepository{}
	mockS3 := &MockS3Service{}
	mockS3.On("StoreDocument", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewCorrectionService(mockRepo, mockS3, calibration.StandardDefaults)
	_, err := svc.Activate(context.Background(), "sensor01", KindSigan, siganDocument())
	require.NoError(t, err)

	set, err := svc.Corrections("sensor01", 14e6, 9e9, -20)
	require.NoError(t, err)
	assert.Equal(t, calibration.MissFrequencyHigh, set.SiganMiss)
	assert.Equal(t, MissNoActive, set.SensorMiss)
	// Defaults all the way down.
	assert.Equal(t, 0.0, set.Factors[calibration.FactorGainSigan])
	assert.Equal(t, 100.0, set.Factors[calibration.FactorCompressionSigan])
}

func TestActivateReplacesActiveCalibration(t *testing.T) {
	mockRepo := &MockCalibrationRepository{}
	mockS3 := &MockS3Service{}
	mockS3.On("StoreDocument", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	flat := func(gain float64) *models.CalibrationDocument {
		return gainDocument("2023-01-05T14:07:10.000Z", []float64{14e6}, []float64{1e9, 2e9}, []float64{-20, 0},
			func(sr, f, rl float64) map[string]float64 {
				return map[string]float64{calibration.FactorGainSigan: gain}
			})
	}

	svc := NewCorrectionService(mockRepo, mockS3, calibration.StandardDefaults)
	ctx := context.Background()

	first, err := svc.Activate(ctx, "sensor01", KindSigan, flat(1))
	require.NoError(t, err)

	set, err := svc.Corrections("sensor01", 14e6, 1.5e9, -10)
	require.NoError(t, err)
	assert.InDelta(t, 1, set.Factors[calibration.FactorGainSigan], 1e-9)

	second, err := svc.Activate(ctx, "sensor01", KindSigan, flat(2))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	set, err = svc.Corrections("sensor01", 14e6, 1.5e9, -10)
	require.NoError(t, err)
	assert.InDelta(t, 2, set.Factors[calibration.FactorGainSigan], 1e-9)

	entry, ok := svc.Active("sensor01", KindSigan)
	require.True(t, ok)
	assert.Equal(t, second.ID, entry.Record.ID)
}

func TestCorrectionsRaggedGridFails(t *testing.T) {
	mockRepo := &MockCalibrationRepository{}
	mockS3 := &MockS3Service{}
	mockS3.On("StoreDocument", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	mockRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// The 2 GHz column is missing its 0 dBm point, so interpolating between
	// 1 and 2 GHz cannot assemble four corners.
	doc := &models.CalibrationDocument{CalibrationDatetime: "2023-01-05T14:07:10.000Z"}
	sr := models.SampleRateEntry{SampleRate: 14e6}
	sr.Data.Frequencies = []models.FrequencyEntry{
		{Frequency: 1e9, Data: models.RefLevelList{RefLevels: []models.RefLevelEntry{
			{ReferenceLevel: -20, Factors: map[string]float64{calibration.FactorGainSigan: 1}},
			{ReferenceLevel: 0, Factors: map[string]float64{calibration.FactorGainSigan: 2}},
		}}},
		{Frequency: 2e9, Data: models.RefLevelList{RefLevels: []models.RefLevelEntry{
			{ReferenceLevel: -20, Factors: map[string]float64{calibration.FactorGainSigan: 3}},
		}}},
	}
	doc.Data.SampleRates = []models.SampleRateEntry{sr}

	svc := NewCorrectionService(mockRepo, mockS3, calibration.StandardDefaults)
	_, err := svc.Activate(context.Background(), "sensor01", KindSigan, doc)
	require.NoError(t, err)

	_, err = svc.Corrections("sensor01", 14e6, 1.5e9, -10)
	require.Error(t, err)
}

func TestLoadActive(t *testing.T) {
	goodID := uuid.New()
	badID := uuid.New()
	good := &models.CalibrationRecord{ID: goodID.String(), SensorID: "sensor01", Kind: KindSigan, UploadedAt: time.Now()}
	bad := &models.CalibrationRecord{ID: badID.String(), SensorID: "sensor02", Kind: KindSensor, UploadedAt: time.Now()}

	mockRepo := &MockCalibrationRepository{}
	mockRepo.On("LatestAll", mock.Anything).Return([]*models.CalibrationRecord{good, bad}, nil)
	mockRepo.On("GetByID", mock.Anything, goodID).Return(good, siganDocument(), nil)
	// Empty documents no longer compile and must be skipped.
	mockRepo.On("GetByID", mock.Anything, badID).Return(bad, &models.CalibrationDocument{}, nil)

	svc := NewCorrectionService(mockRepo, &MockS3Service{}, calibration.StandardDefaults)
	require.NoError(t, svc.LoadActive(context.Background()))

	entry, ok := svc.Active("sensor01", KindSigan)
	require.True(t, ok)
	assert.Equal(t, good.ID, entry.Record.ID)

	_, ok = svc.Active("sensor02", KindSensor)
	assert.False(t, ok)

	// The restored calibration answers queries.
	set, err := svc.Corrections("sensor01", 14e6, 1.5e9, -10)
	require.NoError(t, err)
	assert.InDelta(t, 840, set.Factors[calibration.FactorGainSigan], 1e-9)

	mockRepo.AssertExpectations(t)
}

// TestContainer holds test infrastructure
type TestContainer struct {
	postgresContainer testcontainers.Container
	minioContainer    testcontainers.Container
	dbURL             string
	minioURL          string
	bucketName        string
}

// SetupIntegrationTest sets up PostgreSQL and MinIO containers for integration testing
func SetupIntegrationTest(t *testing.T) *TestContainer {
	t.Helper()

	ctx := context.Background()

	// Start PostgreSQL container
	pg, err := pgContainer.Run(ctx,
		"postgres:15-alpine",
		pgContainer.WithDatabase("calibrations_test"),
		pgContainer.WithUsername("testuser"),
		pgContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	dbURL, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start MinIO container
	minioContainer, err := minio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		minio.WithUsername("minioadmin"),
		minio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)

	minioURL, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Create test bucket
	bucketName := "calibrations-test-" + uuid.New().String()[:8]
	err = createMinioBucket(ctx, minioURL, bucketName)
	require.NoError(t, err)

	return &TestContainer{
		postgresContainer: pg,
		minioContainer:    minioContainer,
		dbURL:             dbURL,
		minioURL:          minioURL,
		bucketName:        bucketName,
	}
}

// CleanupIntegrationTest cleans up test containers
func (tc *TestContainer) CleanupIntegrationTest(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if tc.minioContainer != nil {
		require.NoError(t, tc.minioContainer.Terminate(ctx))
	}
	if tc.postgresContainer != nil {
		require.NoError(t, tc.postgresContainer.Terminate(ctx))
	}
}

// createMinioBucket creates a bucket in MinIO for testing
func createMinioBucket(ctx context.Context, minioURL, bucketName string) error {
	client, err := miniogo.New(minioURL, &miniogo.Options{
		Creds:  miniocreds.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		return err
	}
	return client.MakeBucket(ctx, bucketName, miniogo.MakeBucketOptions{})
}

func runMigrations(t *testing.T, db *sql.DB) {
	t.Helper()

	schema, err := os.ReadFile("../../migrations/0001_create_calibrations.up.sql")
	require.NoError(t, err)

	_, err = db.Exec(string(schema))
	require.NoError(t, err)
}

// TestCalibrationLifecycle_Integration exercises upload, archive,
// persistence, lookup, and warm start against real backends
func TestCalibrationLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tc := SetupIntegrationTest(t)
	defer tc.CleanupIntegrationTest(t)

	ctx := context.Background()

	// Set up dependencies
	db, err := sql.Open("postgres", tc.dbURL)
	require.NoError(t, err)
	defer db.Close()

	runMigrations(t, db)

	repo := postgres.NewPostgresCalibrationRepository(db)

	s3Service, err := storage.NewS3Service(storage.S3Config{
		Bucket:    tc.bucketName,
		Endpoint:  tc.minioURL,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	svc := NewCorrectionService(repo, s3Service, calibration.StandardDefaults)

	// Activate both calibration kinds
	siganRecord, err := svc.Activate(ctx, "sensor01", KindSigan, siganDocument())
	require.NoError(t, err)
	require.NotEmpty(t, siganRecord.S3Key)

	sensorRecord, err := svc.Activate(ctx, "sensor01", KindSensor, sensorDocument())
	require.NoError(t, err)

	// The document round-trips through the database
	id, err := uuid.Parse(siganRecord.ID)
	require.NoError(t, err)
	storedRecord, storedDoc, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 48, storedRecord.PointCount)
	assert.Equal(t, "2023-01-05T14:07:10.000Z", storedDoc.CalibrationDatetime)
	assert.Len(t, storedDoc.Data.SampleRates, 3)

	// The original document round-trips through the archive
	archived, err := s3Service.DownloadDocument(ctx, siganRecord.S3Key)
	require.NoError(t, err)
	var archivedDoc models.CalibrationDocument
	require.NoError(t, json.Unmarshal(archived, &archivedDoc))
	assert.Equal(t, "2023-01-05T14:07:10.000Z", archivedDoc.CalibrationDatetime)

	url, err := s3Service.GenerateDownloadURL(ctx, siganRecord.S3Key)
	require.NoError(t, err)
	assert.Contains(t, url, tc.bucketName)

	// Corrections resolve from both active calibrations
	set, err := svc.Corrections("sensor01", 14e6, 1.5e9, -10)
	require.NoError(t, err)
	assert.InDelta(t, 840, set.Factors[calibration.FactorGainSigan], 1e-9)
	assert.InDelta(t, 830, set.Factors[calibration.FactorGainSensor], 1e-9)
	assert.InDelta(t, 1, set.Factors[calibration.FactorCompressionSensor], 1e-9)

	// A fresh service instance restores the same active set from the
	// database and answers identically
	restored := NewCorrectionService(repo, s3Service, calibration.StandardDefaults)
	require.NoError(t, restored.LoadActive(ctx))

	entry, ok := restored.Active("sensor01", KindSigan)
	require.True(t, ok)
	assert.Equal(t, siganRecord.ID, entry.Record.ID)
	entry, ok = restored.Active("sensor01", KindSensor)
	require.True(t, ok)
	assert.Equal(t, sensorRecord.ID, entry.Record.ID)

	restoredSet, err := restored.Corrections("sensor01", 14e6, 1.5e9, -10)
	require.NoError(t, err)
	assert.Equal(t, set.Factors, restoredSet.Factors)

	// Upload history lists newest first
	records, err := repo.ListBySensor(ctx, "sensor01")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, sensorRecord.ID, records[0].ID)
	assert.Equal(t, siganRecord.ID, records[1].ID)

	// GetLatest returns the newest upload for the kind, document included
	latestRecord, latestDoc, err := repo.GetLatest(ctx, "sensor01", KindSigan)
	require.NoError(t, err)
	assert.Equal(t, siganRecord.ID, latestRecord.ID)
	assert.Equal(t, "2023-01-05T14:07:10.000Z", latestDoc.CalibrationDatetime)

	// Deleting an archived document makes it unreadable
	require.NotEmpty(t, sensorRecord.S3Key)
	require.NoError(t, s3Service.DeleteDocument(ctx, sensorRecord.S3Key))
	_, err = s3Service.DownloadDocument(ctx, sensorRecord.S3Key)
	assert.Error(t, err)
}
