package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/delivery/http/handler"
	"go-medical-appointment/internal/delivery/http/middleware"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/usecase"
	"go-medical-appointment/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAnalysisUsecase struct {
	usecase.AnalysisUsecase
	mock.Mock
}

func (m *mockAnalysisUsecase) GetHistory(ctx context.Context, patientID uuid.UUID) (*dto.AnalysisHistoryResponse, error) {
	args := m.Called(patientID)
	resp, _ := args.Get(0).(*dto.AnalysisHistoryResponse)
	return resp, args.Error(1)
}

func TestAnalysisHandlerHistoryShape(t *testing.T) {
	uc := new(mockAnalysisUsecase)
	h := handler.NewAnalysisHandler(uc, validator.NewValidator())

	patientID := uuid.New()
	uc.On("GetHistory", patientID).Return(&dto.AnalysisHistoryResponse{
		PatientID: patientID,
		AnalysisHistory: []entity.AnalysisHistory{
			{
				Analysis:          entity.AnalysisHistoryAnalysis{Name: "Lipid panel"},
				PatientAnalysisID: 12,
				AnalysisDate:      entity.DateOf(time.Date(2030, 2, 10, 0, 0, 0, 0, time.UTC)),
			},
			{
				Analysis:          entity.AnalysisHistoryAnalysis{Name: "Complete blood count"},
				Results:           entity.AnalysisHistoryResults{Path: "results/3/a.pdf", Interpretation: "normal"},
				PatientAnalysisID: 3,
				AnalysisDate:      entity.DateOf(time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)),
			},
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/patients/me/analysis-history", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, patientID))
	rec := httptest.NewRecorder()
	h.GetMyHistory(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			AnalysisHistory []map[string]json.RawMessage `json:"analysisHistory"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data.AnalysisHistory, 2)

	pending := body.Data.AnalysisHistory[0]
	assert.JSONEq(t, `{"name":"Lipid panel"}`, string(pending["analysis"]))
	assert.JSONEq(t, `{"path":"","interpretation":""}`, string(pending["results"]))
	assert.JSONEq(t, `12`, string(pending["patient_analysis_id"]))
	assert.JSONEq(t, `"2030-02-10"`, string(pending["analysis_date"]))
	assert.JSONEq(t, `"2030-01-10"`, string(body.Data.AnalysisHistory[1]["analysis_date"]))
}

func TestAnalysisHandlerHistoryErrors(t *testing.T) {
	uc := new(mockAnalysisUsecase)
	h := handler.NewAnalysisHandler(uc, validator.NewValidator())

	router := mux.NewRouter()
	router.HandleFunc("/patients/{id}/analysis-history", h.GetPatientHistory)

	missing := uuid.New()
	uc.On("GetHistory", missing).Return(nil, usecase.ErrPatientNotFound)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/patients/"+missing.String()+"/analysis-history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/patients/42/analysis-history", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No identity in context
	rec = httptest.NewRecorder()
	h.GetMyHistory(rec, httptest.NewRequest(http.MethodGet, "/patients/me/analysis-history", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
