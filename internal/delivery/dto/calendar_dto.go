package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalendarEventsQuery mirrors the widget's visible range and view settings.
type CalendarEventsQuery struct {
	Start               string `json:"start" validate:"required"`
	End                 string `json:"end" validate:"required"`
	View                string `json:"view" validate:"omitempty,calendar_view"`
	MinTime             string `json:"min_time" validate:"omitempty"`
	MaxTime             string `json:"max_time" validate:"omitempty"`
	DoctorID            string `json:"doctor_id" validate:"omitempty,uuid"`
	IncludeAvailability bool   `json:"include_availability"`
}

const (
	CalendarDisplayAuto       = "auto"
	CalendarDisplayBackground = "background"
)

// CalendarEvent is the event object consumed by the calendar widget.
type CalendarEvent struct {
	ID            string                      `json:"id"`
	Title         string                      `json:"title"`
	Start         time.Time                   `json:"start"`
	End           time.Time                   `json:"end"`
	AllDay        bool                        `json:"allDay"`
	Display       string                      `json:"display"`
	Color         string                      `json:"color,omitempty"`
	ExtendedProps *CalendarEventExtendedProps `json:"extendedProps,omitempty"`
}

type CalendarEventExtendedProps struct {
	AppointmentID uuid.UUID        `json:"appointment_id"`
	Status        string           `json:"status"`
	PatientName   string           `json:"patient_name,omitempty"`
	DoctorName    string           `json:"doctor_name,omitempty"`
	Cost          *decimal.Decimal `json:"cost,omitempty"`
	Reason        string           `json:"reason,omitempty"`
}

type CalendarEventsResponse struct {
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	View    string          `json:"view"`
	MinTime string          `json:"min_time,omitempty"`
	MaxTime string          `json:"max_time,omitempty"`
	Events  []CalendarEvent `json:"events"`
}
