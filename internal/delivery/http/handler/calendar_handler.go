package handler

import (
	"net/http"
	"strconv"

	"go-medical-appointment/internal/calendar"
	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/usecase"
	"go-medical-appointment/pkg/response"
	"go-medical-appointment/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type CalendarHandler struct {
	calendarUsecase usecase.CalendarUsecase
	validator       *validator.CustomValidator
}

func NewCalendarHandler(calendarUsecase usecase.CalendarUsecase, validator *validator.CustomValidator) *CalendarHandler {
	return &CalendarHandler{
		calendarUsecase: calendarUsecase,
		validator:       validator,
	}
}

// GetEvents handles the calendar's visible-range fetch
// @Summary Get calendar events
// @Tags Calendar
// @Security BearerAuth
// @Produce json
// @Param start query string true "Range start (RFC3339 or YYYY-MM-DD)"
// @Param end query string true "Range end, exclusive"
// @Param view query string false "dayGridMonth, timeGridWeek, timeGridDay or listWeek"
// @Param min_time query string false "Earliest visible time (HH:MM)"
// @Param max_time query string false "Latest visible time (HH:MM)"
// @Param doctor_id query string false "Doctor filter"
// @Param include_availability query bool false "Add availability as background events"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /calendar/events [get]
func (h *CalendarHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	query := dto.CalendarEventsQuery{
		Start:    values.Get("start"),
		End:      values.Get("end"),
		View:     values.Get("view"),
		MinTime:  values.Get("min_time"),
		MaxTime:  values.Get("max_time"),
		DoctorID: values.Get("doctor_id"),
	}
	if raw := values.Get("include_availability"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, "include_availability must be a boolean", nil)
			return
		}
		query.IncludeAvailability = include
	}

	if err := h.validator.Validate(&query); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	events, err := h.calendarUsecase.GetEvents(r.Context(), &query)
	if err != nil {
		h.writeError(w, err, "Failed to get calendar events")
		return
	}

	response.Success(w, http.StatusOK, "Calendar events retrieved successfully", events)
}

// GetEvent handles a click on a calendar event
// @Summary Get calendar event
// @Tags Calendar
// @Security BearerAuth
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /calendar/events/{id} [get]
func (h *CalendarHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid event ID", nil)
		return
	}

	event, err := h.calendarUsecase.GetEvent(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "Failed to get calendar event")
		return
	}

	response.Success(w, http.StatusOK, "Calendar event retrieved successfully", event)
}

// ExportICS handles the iCalendar feed
// @Summary Export appointments as iCalendar
// @Tags Calendar
// @Security BearerAuth
// @Produce text/calendar
// @Param start query string true "Range start"
// @Param end query string true "Range end"
// @Success 200 {string} string
// @Router /calendar/appointments.ics [get]
func (h *CalendarHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	start, end := values.Get("start"), values.Get("end")
	if start == "" || end == "" {
		response.BadRequest(w, "start and end are required", nil)
		return
	}

	body, err := h.calendarUsecase.ExportICS(r.Context(), start, end)
	if err != nil {
		h.writeError(w, err, "Failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="appointments.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (h *CalendarHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	if writeAccessError(w, err) {
		return
	}

	switch err {
	case usecase.ErrAppointmentNotFound:
		response.NotFound(w, "Event not found")
	case usecase.ErrInvalidCalendarDate, usecase.ErrInvalidCalendarView, usecase.ErrInvalidTimeBounds,
		usecase.ErrInvalidDoctorID, usecase.ErrInvalidRange, usecase.ErrRangeTooLarge,
		calendar.ErrInvalidClockTime:
		response.BadRequest(w, err.Error(), nil)
	default:
		response.InternalServerError(w, fallback)
	}
}
