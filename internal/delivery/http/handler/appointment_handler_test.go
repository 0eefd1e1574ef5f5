package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/delivery/http/handler"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/service"
	"go-medical-appointment/internal/usecase"
	"go-medical-appointment/pkg/response"
	"go-medical-appointment/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAppointmentUsecase struct {
	usecase.AppointmentUsecase
	mock.Mock
}

func (m *mockAppointmentUsecase) Create(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*dto.AppointmentResponse)
	return resp, args.Error(1)
}

func (m *mockAppointmentUsecase) Cancel(ctx context.Context, id uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	args := m.Called(id, req)
	resp, _ := args.Get(0).(*dto.AppointmentResponse)
	return resp, args.Error(1)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func bookingBody(cost string) string {
	return `{
		"doctor_id": "` + uuid.NewString() + `",
		"start_time": "2030-01-07T09:00:00Z",
		"end_time": "2030-01-07T09:30:00Z",
		"cost": ` + cost + `
	}`
}

func TestAppointmentHandlerCreateCostCeiling(t *testing.T) {
	tests := []struct {
		name       string
		cost       string
		wantStatus int
	}{
		{"at ceiling", "100000", http.StatusCreated},
		{"at ceiling as string", `"100000.00"`, http.StatusCreated},
		{"cent over ceiling", "100000.01", http.StatusBadRequest},
		{"negative", "-5", http.StatusBadRequest},
		{"three decimals", "12.345", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := new(mockAppointmentUsecase)
			uc.On("Create", mock.Anything).Return(&dto.AppointmentResponse{ID: uuid.New(), Status: "scheduled"}, nil).Maybe()
			h := handler.NewAppointmentHandler(uc, validator.NewValidator())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(bookingBody(tt.cost)))
			rec := httptest.NewRecorder()
			h.Create(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeResponse(t, rec)
			if tt.wantStatus != http.StatusCreated {
				assert.Equal(t, "Validation failed", body.Message)
				assert.Contains(t, body.Error, "cost")
				uc.AssertNotCalled(t, "Create", mock.Anything)
				return
			}
			assert.True(t, body.Success)
		})
	}
}

func TestAppointmentHandlerCreateMissingCost(t *testing.T) {
	uc := new(mockAppointmentUsecase)
	h := handler.NewAppointmentHandler(uc, validator.NewValidator())

	body := `{"doctor_id": "` + uuid.NewString() + `", "start_time": "2030-01-07T09:00:00Z", "end_time": "2030-01-07T09:30:00Z"}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs, ok := decodeResponse(t, rec).Error.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "cost is required", errs["cost"])
}

func TestAppointmentHandlerCreateErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{service.ErrSlotTaken, http.StatusConflict},
		{usecase.ErrAppointmentOverlap, http.StatusConflict},
		{usecase.ErrDoctorNotFound, http.StatusNotFound},
		{usecase.ErrAppointmentInPast, http.StatusBadRequest},
		{entity.ErrCostExceedsCeiling, http.StatusBadRequest},
		{usecase.ErrForbidden, http.StatusForbidden},
		{usecase.ErrUnauthenticated, http.StatusUnauthorized},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			uc := new(mockAppointmentUsecase)
			uc.On("Create", mock.Anything).Return(nil, tt.err)
			h := handler.NewAppointmentHandler(uc, validator.NewValidator())

			rec := httptest.NewRecorder()
			h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(bookingBody("500"))))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAppointmentHandlerCancel(t *testing.T) {
	uc := new(mockAppointmentUsecase)
	h := handler.NewAppointmentHandler(uc, validator.NewValidator())

	router := mux.NewRouter()
	router.HandleFunc("/appointments/{id}/cancel", h.Cancel).Methods(http.MethodPost)

	id := uuid.New()
	uc.On("Cancel", id, &dto.CancelAppointmentRequest{}).Return(&dto.AppointmentResponse{ID: id, Status: "cancelled"}, nil).Once()
	uc.On("Cancel", id, &dto.CancelAppointmentRequest{Reason: "sick"}).Return(nil, usecase.ErrAppointmentAlreadyCancelled).Once()

	// Empty body
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/"+id.String()+"/cancel", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/"+id.String()+"/cancel", strings.NewReader(`{"reason":"sick"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/not-a-uuid/cancel", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	uc.AssertExpectations(t)
}

func TestAppointmentHandlerCostErrorNamesCeiling(t *testing.T) {
	uc := new(mockAppointmentUsecase)
	uc.On("Create", mock.Anything).Return(nil, entity.ErrCostExceedsCeiling)
	h := handler.NewAppointmentHandler(uc, validator.NewValidator())

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(bookingBody("500"))))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs, ok := decodeResponse(t, rec).Error.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "must not exceed "+decimal.NewFromInt(100000).String(), errs["cost"])
}
