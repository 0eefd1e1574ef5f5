package converter

import (
	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/domain/entity"
)

func AppointmentToResponse(a *entity.Appointment) *dto.AppointmentResponse {
	if a == nil {
		return nil
	}

	return &dto.AppointmentResponse{
		ID: a.ID,
		Patient: dto.AppointmentPartyResponse{
			ID:       a.PatientID,
			FullName: a.Patient.User.FullName,
		},
		Doctor: dto.AppointmentPartyResponse{
			ID:       a.DoctorID,
			FullName: a.Doctor.User.FullName,
		},
		Specialization: a.Doctor.Specialization,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		Cost:           a.Cost,
		Status:         string(a.Status),
		Reason:         a.Reason,
		Notes:          a.Notes,
		ReminderSentAt: a.ReminderSentAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = *AppointmentToResponse(&appointments[i])
	}
	return responses
}
