package repository_test

import (
	"context"
	"testing"
	"time"

	"go-medical-appointment/internal/domain/entity"
	domainRepo "go-medical-appointment/internal/domain/repository"
	"go-medical-appointment/internal/repository"
	"go-medical-appointment/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func orderAnalysis(t *testing.T, repo domainRepo.PatientAnalysisRepository, db *gorm.DB, patientID uuid.UUID, analysisID int, date time.Time) *entity.PatientAnalysis {
	t.Helper()
	pa := &entity.PatientAnalysis{
		PatientID:    patientID,
		AnalysisID:   analysisID,
		OrderedBy:    uuid.New(),
		AnalysisDate: date,
		Status:       entity.PatientAnalysisStatusPending,
	}
	require.NoError(t, repo.Create(db, pa))
	return pa
}

func TestAnalysisHistoryOrderingAndPendingResults(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewPatientAnalysisRepository()

	patient := testutil.CreatePatient(t, db, "Cara Patient")
	other := testutil.CreatePatient(t, db, "Dan Patient")
	cbc := testutil.CreateAnalysis(t, db, "CBC", "Complete blood count")
	lipid := testutil.CreateAnalysis(t, db, "LIPID", "Lipid panel")

	jan := time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2030, 2, 10, 0, 0, 0, 0, time.UTC)

	older := orderAnalysis(t, repo, db, patient.UserID, cbc.ID, jan)
	sameDayFirst := orderAnalysis(t, repo, db, patient.UserID, cbc.ID, feb)
	sameDaySecond := orderAnalysis(t, repo, db, patient.UserID, lipid.ID, feb)
	orderAnalysis(t, repo, db, other.UserID, cbc.ID, feb)

	require.NoError(t, repo.SaveResult(db, &entity.AnalysisResult{
		PatientAnalysisID: older.ID,
		Path:              "results/1/a.pdf",
		Interpretation:    "normal",
		RecordedBy:        uuid.New(),
	}))
	require.NoError(t, repo.MarkCompleted(db, older.ID))

	rows, err := repo.FindHistoryByPatientID(db, patient.UserID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// analysis_date DESC, then patient_analysis_id DESC
	assert.Equal(t, sameDaySecond.ID, rows[0].PatientAnalysisID)
	assert.Equal(t, sameDayFirst.ID, rows[1].PatientAnalysisID)
	assert.Equal(t, older.ID, rows[2].PatientAnalysisID)

	assert.Equal(t, "Lipid panel", rows[0].AnalysisName)
	assert.Nil(t, rows[0].ResultPath)
	assert.Equal(t, entity.AnalysisHistoryResults{}, rows[0].ToHistory().Results)

	require.NotNil(t, rows[2].ResultPath)
	assert.Equal(t, "results/1/a.pdf", *rows[2].ResultPath)
	assert.Equal(t, "normal", rows[2].ToHistory().Results.Interpretation)
}

func TestSaveResultReplacesPrevious(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewPatientAnalysisRepository()

	patient := testutil.CreatePatient(t, db, "Cara Patient")
	cbc := testutil.CreateAnalysis(t, db, "CBC", "Complete blood count")
	pa := orderAnalysis(t, repo, db, patient.UserID, cbc.ID, time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC))

	for _, path := range []string{"results/1/first.pdf", "results/1/second.pdf"} {
		require.NoError(t, repo.SaveResult(db, &entity.AnalysisResult{
			PatientAnalysisID: pa.ID,
			Path:              path,
			RecordedBy:        uuid.New(),
		}))
	}

	var count int64
	require.NoError(t, db.Model(&entity.AnalysisResult{}).Where("patient_analysis_id = ?", pa.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	stored, err := repo.FindByID(db, pa.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Result)
	assert.Equal(t, "results/1/second.pdf", stored.Result.Path)
	assert.Equal(t, "Complete blood count", stored.Analysis.Name)
}

func TestAnalysisCatalogUpsert(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewAnalysisRepository(db)
	ctx := context.Background()

	testutil.CreateAnalysis(t, db, "CBC", "Blood count")

	affected, err := repo.Upsert(ctx, []entity.Analysis{
		{Code: "CBC", Name: "Complete blood count", Price: decimal.RequireFromString("150.50")},
		{Code: "TSH", Name: "Thyroid stimulating hormone", Price: decimal.NewFromInt(90)},
	})
	require.NoError(t, err)
	assert.Positive(t, affected)

	analyses, total, err := repo.FindAll(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, analyses, 2)
	assert.Equal(t, "Complete blood count", analyses[0].Name)
	assert.True(t, analyses[0].Price.Equal(decimal.RequireFromString("150.5")))
}
