package calendar

import (
	"fmt"
	"time"

	"go-medical-appointment/internal/domain/entity"

	ical "github.com/arran4/golang-ical"
)

const (
	ProductID = "-//go-medical-appointment//appointments//EN"
	uidDomain = "clinic"
)

// EventUID is the stable iCalendar UID of an appointment.
func EventUID(appointment entity.Appointment) string {
	return fmt.Sprintf("%s@%s", appointment.ID, uidDomain)
}

// ExportICS renders appointments as a PUBLISH calendar, one VEVENT each.
func ExportICS(appointments []entity.Appointment, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, a := range appointments {
		event := cal.AddEvent(EventUID(a))
		event.SetDtStampTime(stamp.UTC())
		event.SetCreatedTime(a.CreatedAt.UTC())
		event.SetModifiedAt(a.UpdatedAt.UTC())
		event.SetStartAt(a.StartTime.UTC())
		event.SetEndAt(a.EndTime.UTC())
		event.SetSummary(EventTitle(a))
		if a.Reason != "" {
			event.SetDescription(a.Reason)
		}
		event.SetProperty(ical.ComponentPropertyStatus, string(icsStatus(a.Status)))
	}

	return cal.Serialize()
}

func icsStatus(status entity.AppointmentStatus) ical.ObjectStatus {
	switch status {
	case entity.AppointmentStatusConfirmed, entity.AppointmentStatusCompleted:
		return ical.ObjectStatusConfirmed
	case entity.AppointmentStatusCancelled:
		return ical.ObjectStatusCancelled
	default:
		return ical.ObjectStatusTentative
	}
}

// EventTitle names the appointment after the people involved when loaded.
func EventTitle(a entity.Appointment) string {
	patient := a.Patient.User.FullName
	doctor := a.Doctor.User.FullName
	switch {
	case patient != "" && doctor != "":
		return fmt.Sprintf("%s with Dr. %s", patient, doctor)
	case doctor != "":
		return "Appointment with Dr. " + doctor
	case patient != "":
		return "Appointment: " + patient
	default:
		return "Appointment"
	}
}
