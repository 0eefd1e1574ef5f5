package entity

import (
	"time"

	"github.com/google/uuid"
)

// CalendarView is the view mode reported by the calendar widget.
type CalendarView string

const (
	CalendarViewMonth CalendarView = "dayGridMonth"
	CalendarViewWeek  CalendarView = "timeGridWeek"
	CalendarViewDay   CalendarView = "timeGridDay"
	CalendarViewList  CalendarView = "listWeek"
)

const DefaultCalendarView = CalendarViewWeek

func (v CalendarView) Valid() bool {
	switch v {
	case CalendarViewMonth, CalendarViewWeek, CalendarViewDay, CalendarViewList:
		return true
	}
	return false
}

// TimeGrid reports whether the view renders a time axis, which is where the
// daily min/max time bounds apply.
func (v CalendarView) TimeGrid() bool {
	return v == CalendarViewWeek || v == CalendarViewDay
}

// ClockTime is a wall-clock offset from midnight.
type ClockTime time.Duration

// CalendarQuery is the visible range the widget asks for.
type CalendarQuery struct {
	Start               time.Time
	End                 time.Time
	View                CalendarView
	MinTime             *ClockTime
	MaxTime             *ClockTime
	DoctorID            *uuid.UUID
	IncludeAvailability bool
	Location            *time.Location
}
