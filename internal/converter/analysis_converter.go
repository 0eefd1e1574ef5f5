package converter

import (
	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/domain/entity"
)

func AnalysisToResponse(a *entity.Analysis) *dto.AnalysisResponse {
	if a == nil {
		return nil
	}

	return &dto.AnalysisResponse{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Description: a.Description,
		Price:       a.Price,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func AnalysesToResponses(analyses []entity.Analysis) []dto.AnalysisResponse {
	responses := make([]dto.AnalysisResponse, len(analyses))
	for i := range analyses {
		responses[i] = *AnalysisToResponse(&analyses[i])
	}
	return responses
}

func PatientAnalysisToResponse(p *entity.PatientAnalysis) *dto.PatientAnalysisResponse {
	if p == nil {
		return nil
	}

	response := &dto.PatientAnalysisResponse{
		ID:            p.ID,
		PatientID:     p.PatientID,
		AppointmentID: p.AppointmentID,
		Analysis:      *AnalysisToResponse(&p.Analysis),
		AnalysisDate:  p.AnalysisDate.Format(dateLayout),
		Status:        string(p.Status),
	}
	if p.Result != nil {
		response.Result = &dto.AnalysisResultEntry{
			Path:           p.Result.Path,
			Interpretation: p.Result.Interpretation,
			RecordedAt:     p.Result.UpdatedAt,
		}
	}
	return response
}

// AnalysisHistoryRowsToHistory folds flat query rows into the history projection.
// The result is never nil so it encodes as an empty list.
func AnalysisHistoryRowsToHistory(rows []entity.AnalysisHistoryRow) []entity.AnalysisHistory {
	history := make([]entity.AnalysisHistory, len(rows))
	for i, row := range rows {
		history[i] = row.ToHistory()
	}
	return history
}
