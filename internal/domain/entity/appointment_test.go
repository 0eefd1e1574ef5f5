package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateCost(t *testing.T) {
	tests := []struct {
		cost string
		want error
	}{
		{"0", nil},
		{"150.5", nil},
		{"99999.99", nil},
		{"100000", nil},
		{"100000.00", nil},
		{"100000.01", ErrCostExceedsCeiling},
		{"1000000", ErrCostExceedsCeiling},
		{"-0.01", ErrCostNegative},
		{"12.345", ErrCostPrecision},
	}

	for _, tt := range tests {
		t.Run(tt.cost, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateCost(decimal.RequireFromString(tt.cost)))
		})
	}
}

func TestValidateWindow(t *testing.T) {
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateWindow(start, start.Add(30*time.Minute)))
	assert.NoError(t, ValidateWindow(start, start.Add(MaxAppointmentDuration)))
	assert.Equal(t, ErrInvalidTimeWindow, ValidateWindow(start, start))
	assert.Equal(t, ErrInvalidTimeWindow, ValidateWindow(start, start.Add(-time.Minute)))
	assert.Equal(t, ErrAppointmentTooLong, ValidateWindow(start, start.Add(MaxAppointmentDuration+time.Minute)))
}

func TestAppointmentTransitions(t *testing.T) {
	tests := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		ok   bool
	}{
		{AppointmentStatusScheduled, AppointmentStatusConfirmed, true},
		{AppointmentStatusScheduled, AppointmentStatusCancelled, true},
		{AppointmentStatusScheduled, AppointmentStatusCompleted, true},
		{AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{AppointmentStatusConfirmed, AppointmentStatusScheduled, false},
		{AppointmentStatusCompleted, AppointmentStatusCancelled, false},
		{AppointmentStatusCancelled, AppointmentStatusConfirmed, false},
		{AppointmentStatusCancelled, AppointmentStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			a := &Appointment{Status: tt.from}
			err := a.TransitionTo(tt.to)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, a.Status)
				return
			}
			assert.Equal(t, ErrInvalidTransition, err)
			assert.Equal(t, tt.from, a.Status)
		})
	}
}

func TestAppointmentInvolvesUser(t *testing.T) {
	a := &Appointment{PatientID: uuid.New(), DoctorID: uuid.New()}

	assert.True(t, a.InvolvesUser(a.PatientID))
	assert.True(t, a.InvolvesUser(a.DoctorID))
	assert.False(t, a.InvolvesUser(uuid.New()))
}

func TestAnalysisHistoryRowPendingHasEmptyResults(t *testing.T) {
	date := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
	path, note := "results/1/report.pdf", "within range"

	pending := AnalysisHistoryRow{PatientAnalysisID: 2, AnalysisDate: date, AnalysisName: "Lipid panel"}.ToHistory()
	assert.Equal(t, "Lipid panel", pending.Analysis.Name)
	assert.Equal(t, AnalysisHistoryResults{}, pending.Results)
	assert.Equal(t, 2, pending.PatientAnalysisID)
	assert.Equal(t, "2030-03-01", pending.AnalysisDate.String())

	done := AnalysisHistoryRow{PatientAnalysisID: 1, AnalysisDate: date, AnalysisName: "CBC", ResultPath: &path, Interpretation: &note}.ToHistory()
	assert.Equal(t, AnalysisHistoryResults{Path: path, Interpretation: note}, done.Results)
}
