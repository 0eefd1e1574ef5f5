package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/delivery/http/middleware"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/usecase"
	"go-medical-appointment/pkg/response"
	"go-medical-appointment/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// MaxResultFileSize caps uploaded result files.
const MaxResultFileSize = 10 << 20

type AnalysisHandler struct {
	analysisUsecase usecase.AnalysisUsecase
	validator       *validator.CustomValidator
}

func NewAnalysisHandler(analysisUsecase usecase.AnalysisUsecase, validator *validator.CustomValidator) *AnalysisHandler {
	return &AnalysisHandler{
		analysisUsecase: analysisUsecase,
		validator:       validator,
	}
}

// CreateAnalysis handles adding an analysis to the catalog
// @Summary Create analysis
// @Tags Analyses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateAnalysisRequest true "Create Analysis Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /analyses [post]
func (h *AnalysisHandler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	analysis, err := h.analysisUsecase.CreateAnalysis(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to create analysis")
		return
	}

	response.Success(w, http.StatusCreated, "Analysis created successfully", analysis)
}

// ListAnalyses handles listing the catalog
// @Summary List analyses
// @Tags Analyses
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Router /analyses [get]
func (h *AnalysisHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)

	analyses, total, err := h.analysisUsecase.ListAnalyses(r.Context(), page.Page, page.Limit)
	if err != nil {
		response.InternalServerError(w, "Failed to get analyses")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Analyses retrieved successfully", analyses, pageMeta(page, total))
}

func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid analysis ID", nil)
		return
	}

	analysis, err := h.analysisUsecase.GetAnalysis(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to get analysis")
		return
	}

	response.Success(w, http.StatusOK, "Analysis retrieved successfully", analysis)
}

func (h *AnalysisHandler) UpdateAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid analysis ID", nil)
		return
	}

	var req dto.UpdateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	analysis, err := h.analysisUsecase.UpdateAnalysis(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err, "Failed to update analysis")
		return
	}

	response.Success(w, http.StatusOK, "Analysis updated successfully", analysis)
}

func (h *AnalysisHandler) DeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid analysis ID", nil)
		return
	}

	if err := h.analysisUsecase.DeleteAnalysis(r.Context(), id); err != nil {
		h.writeError(w, err, "Failed to delete analysis")
		return
	}

	response.Success(w, http.StatusOK, "Analysis deleted successfully", nil)
}

// OrderAnalysis handles ordering an analysis for a patient
// @Summary Order analysis
// @Tags Patient Analyses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.OrderAnalysisRequest true "Order Analysis Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /patient-analyses [post]
func (h *AnalysisHandler) OrderAnalysis(w http.ResponseWriter, r *http.Request) {
	var req dto.OrderAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	ordered, err := h.analysisUsecase.OrderAnalysis(r.Context(), &req)
	if err != nil {
		h.writeError(w, err, "Failed to order analysis")
		return
	}

	response.Success(w, http.StatusCreated, "Analysis ordered successfully", ordered)
}

func (h *AnalysisHandler) GetPatientAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid patient analysis ID", nil)
		return
	}

	patientAnalysis, err := h.analysisUsecase.GetPatientAnalysis(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to get patient analysis")
		return
	}

	response.Success(w, http.StatusOK, "Patient analysis retrieved successfully", patientAnalysis)
}

// RecordResult handles recording a result path and interpretation
// @Summary Record analysis result
// @Tags Patient Analyses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Patient analysis ID"
// @Param request body dto.RecordResultRequest true "Record Result Request"
// @Success 200 {object} response.Response
// @Router /patient-analyses/{id}/result [put]
func (h *AnalysisHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid patient analysis ID", nil)
		return
	}

	var req dto.RecordResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.analysisUsecase.RecordResult(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err, "Failed to record result")
		return
	}

	response.Success(w, http.StatusOK, "Result recorded successfully", result)
}

// UploadResultFile handles a multipart result upload in the "file" field
// @Summary Upload analysis result file
// @Tags Patient Analyses
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Patient analysis ID"
// @Param file formData file true "PDF, PNG or JPEG result"
// @Param interpretation formData string false "Interpretation"
// @Success 200 {object} response.Response
// @Failure 413 {object} response.Response
// @Failure 415 {object} response.Response
// @Router /patient-analyses/{id}/result/file [post]
func (h *AnalysisHandler) UploadResultFile(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid patient analysis ID", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxResultFileSize+1<<20)
	if err := r.ParseMultipartForm(MaxResultFileSize); err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "Result file is too large or the form is malformed", nil)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "Missing file field", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxResultFileSize+1))
	if err != nil {
		response.BadRequest(w, "Failed to read file", nil)
		return
	}
	if len(data) > MaxResultFileSize {
		response.Error(w, http.StatusRequestEntityTooLarge, "Result file is too large", nil)
		return
	}

	result, err := h.analysisUsecase.UploadResultFile(r.Context(), id, data, r.FormValue("interpretation"))
	if err != nil {
		h.writeError(w, err, "Failed to upload result")
		return
	}

	response.Success(w, http.StatusOK, "Result uploaded successfully", result)
}

// DownloadResult handles issuing a presigned link to a stored result file
// @Summary Download analysis result
// @Tags Patient Analyses
// @Security BearerAuth
// @Produce json
// @Param id path int true "Patient analysis ID"
// @Success 200 {object} response.Response
// @Router /patient-analyses/{id}/result/download [get]
func (h *AnalysisHandler) DownloadResult(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid patient analysis ID", nil)
		return
	}

	link, err := h.analysisUsecase.DownloadResult(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to create download link")
		return
	}

	response.Success(w, http.StatusOK, "Download link created successfully", link)
}

// GetMyHistory handles the patient's own analysis history
// @Summary Get my analysis history
// @Tags Patient Analyses
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /patients/me/analysis-history [get]
func (h *AnalysisHandler) GetMyHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Invalid token")
		return
	}

	h.writeHistory(w, r, userID)
}

// GetPatientHistory handles a doctor or admin reading a patient's history
// @Summary Get patient analysis history
// @Tags Patient Analyses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Patient ID"
// @Success 200 {object} response.Response
// @Router /patients/{id}/analysis-history [get]
func (h *AnalysisHandler) GetPatientHistory(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid patient ID", nil)
		return
	}

	h.writeHistory(w, r, patientID)
}

func (h *AnalysisHandler) writeHistory(w http.ResponseWriter, r *http.Request, patientID uuid.UUID) {
	history, err := h.analysisUsecase.GetHistory(r.Context(), patientID)
	if err != nil {
		h.writeError(w, err, "Failed to get analysis history")
		return
	}

	response.Success(w, http.StatusOK, "Analysis history retrieved successfully", history)
}

func (h *AnalysisHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if writeAccessError(w, err) {
		return
	}

	switch err {
	case usecase.ErrAnalysisNotFound:
		response.NotFound(w, "Analysis not found")
	case usecase.ErrPatientAnalysisNotFound:
		response.NotFound(w, "Patient analysis not found")
	case usecase.ErrPatientNotFound:
		response.NotFound(w, "Patient not found")
	case usecase.ErrAppointmentNotFound:
		response.NotFound(w, "Appointment not found")
	case usecase.ErrResultNotRecorded:
		response.NotFound(w, err.Error())
	case usecase.ErrAnalysisCodeExists, usecase.ErrAnalysisInUse, usecase.ErrResultNotStored:
		response.Conflict(w, err.Error())
	case usecase.ErrAppointmentPatientMismatch, usecase.ErrInvalidDateFormat,
		entity.ErrCostNegative, entity.ErrCostExceedsCeiling, entity.ErrCostPrecision:
		response.BadRequest(w, err.Error(), nil)
	case usecase.ErrUnsupportedResultFile:
		response.Error(w, http.StatusUnsupportedMediaType, err.Error(), nil)
	case usecase.ErrResultStorageDisabled:
		response.Error(w, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		response.InternalServerError(w, fallback)
	}
}
