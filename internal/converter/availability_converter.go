package converter

import (
	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/domain/entity"
)

func AvailabilityToResponse(a *entity.DoctorAvailability) *dto.AvailabilityResponse {
	if a == nil {
		return nil
	}

	response := &dto.AvailabilityResponse{
		ID:              a.ID,
		DoctorID:        a.DoctorID,
		RRule:           a.RRule,
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
		ValidFrom:       a.ValidFrom.Format(dateLayout),
		CreatedAt:       a.CreatedAt,
	}
	if a.ValidUntil != nil {
		response.ValidUntil = a.ValidUntil.Format(dateLayout)
	}
	return response
}

func AvailabilitiesToResponses(rules []entity.DoctorAvailability) []dto.AvailabilityResponse {
	responses := make([]dto.AvailabilityResponse, len(rules))
	for i := range rules {
		responses[i] = *AvailabilityToResponse(&rules[i])
	}
	return responses
}

func AvailabilityWindowsToResponses(windows []entity.AvailabilityWindow) []dto.AvailabilityWindowResponse {
	responses := make([]dto.AvailabilityWindowResponse, len(windows))
	for i, w := range windows {
		responses[i] = dto.AvailabilityWindowResponse{
			AvailabilityID: w.AvailabilityID,
			Start:          w.Start,
			End:            w.End,
		}
	}
	return responses
}
