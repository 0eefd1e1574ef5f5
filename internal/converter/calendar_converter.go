package converter

import (
	"fmt"

	"go-medical-appointment/internal/calendar"
	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/domain/entity"
)

var statusColors = map[entity.AppointmentStatus]string{
	entity.AppointmentStatusScheduled: "#f59e0b",
	entity.AppointmentStatusConfirmed: "#2563eb",
	entity.AppointmentStatusCompleted: "#16a34a",
	entity.AppointmentStatusCancelled: "#9ca3af",
}

const availabilityColor = "#d1fae5"

func AppointmentToCalendarEvent(a *entity.Appointment) dto.CalendarEvent {
	cost := a.Cost
	return dto.CalendarEvent{
		ID:      a.ID.String(),
		Title:   calendar.EventTitle(*a),
		Start:   a.StartTime,
		End:     a.EndTime,
		AllDay:  false,
		Display: dto.CalendarDisplayAuto,
		Color:   statusColors[a.Status],
		ExtendedProps: &dto.CalendarEventExtendedProps{
			AppointmentID: a.ID,
			Status:        string(a.Status),
			PatientName:   a.Patient.User.FullName,
			DoctorName:    a.Doctor.User.FullName,
			Cost:          &cost,
			Reason:        a.Reason,
		},
	}
}

// AvailabilityWindowToCalendarEvent renders a working-hours window as a
// background event.
func AvailabilityWindowToCalendarEvent(w entity.AvailabilityWindow) dto.CalendarEvent {
	return dto.CalendarEvent{
		ID:      fmt.Sprintf("availability-%d-%d", w.AvailabilityID, w.Start.Unix()),
		Title:   "Available",
		Start:   w.Start,
		End:     w.End,
		Display: dto.CalendarDisplayBackground,
		Color:   availabilityColor,
	}
}
