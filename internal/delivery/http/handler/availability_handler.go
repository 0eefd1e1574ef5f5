package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/usecase"
	"go-medical-appointment/pkg/response"
	"go-medical-appointment/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
	location            *time.Location
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase, validator *validator.CustomValidator, location *time.Location) *AvailabilityHandler {
	if location == nil {
		location = time.UTC
	}
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
		location:            location,
	}
}

// Create handles a doctor adding recurring working hours
// @Summary Add availability rule
// @Tags Availability
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateAvailabilityRequest true "Create Availability Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /doctors/me/availability [post]
func (h *AvailabilityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	availability, err := h.availabilityUsecase.Create(r.Context(), &req)
	if err != nil {
		if writeAccessError(w, err) {
			return
		}
		switch {
		case errors.Is(err, usecase.ErrInvalidRule),
			err == usecase.ErrInvalidDateFormat,
			err == usecase.ErrInvalidValidityPeriod:
			response.BadRequest(w, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to create availability")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Availability created successfully", availability)
}

// ListByDoctor handles listing a doctor's rules, expanded when from and to are given
// @Summary Get doctor availability
// @Tags Availability
// @Produce json
// @Param id path string true "Doctor ID"
// @Param from query string false "Range start (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Range end (RFC3339 or YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /doctors/{id}/availability [get]
func (h *AvailabilityHandler) ListByDoctor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID", nil)
		return
	}

	var from, to *time.Time
	query := r.URL.Query()
	if raw := query.Get("from"); raw != "" {
		t, err := usecase.ParseCalendarTime(raw, h.location)
		if err != nil {
			response.BadRequest(w, err.Error(), nil)
			return
		}
		from = &t
	}
	if raw := query.Get("to"); raw != "" {
		t, err := usecase.ParseCalendarTime(raw, h.location)
		if err != nil {
			response.BadRequest(w, err.Error(), nil)
			return
		}
		to = &t
	}

	availability, err := h.availabilityUsecase.ListByDoctor(r.Context(), doctorID, from, to)
	if err != nil {
		switch err {
		case usecase.ErrDoctorNotFound:
			response.NotFound(w, "Doctor not found")
		case usecase.ErrInvalidRange, usecase.ErrRangeTooLarge:
			response.BadRequest(w, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to get availability")
		}
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

func (h *AvailabilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid availability ID", nil)
		return
	}

	if err := h.availabilityUsecase.Delete(r.Context(), id); err != nil {
		if writeAccessError(w, err) {
			return
		}
		switch err {
		case usecase.ErrAvailabilityNotFound:
			response.NotFound(w, "Availability not found")
		case usecase.ErrAvailabilityNotOwned:
			response.Forbidden(w, err.Error())
		default:
			response.InternalServerError(w, "Failed to delete availability")
		}
		return
	}

	response.Success(w, http.StatusOK, "Availability deleted successfully", nil)
}
