package calendar

import (
	"strings"
	"testing"
	"time"

	"go-medical-appointment/internal/domain/entity"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, s string) *entity.ClockTime {
	t.Helper()
	c, err := ParseClockTime(s)
	require.NoError(t, err)
	return &c
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"08:00", 8 * time.Hour, true},
		{"17:30", 17*time.Hour + 30*time.Minute, true},
		{"07:15:30", 7*time.Hour + 15*time.Minute + 30*time.Second, true},
		{"24:00", 24 * time.Hour, true},
		{"24:30", 0, false},
		{"8am", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidClockTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(got))
		})
	}

	assert.Equal(t, "07:15", FormatClockTime(entity.ClockTime(7*time.Hour+15*time.Minute)))
}

func TestFormatClockTimeRoundTrips(t *testing.T) {
	for _, in := range []string{"00:00", "07:15", "07:15:30", "23:59:59", "24:00"} {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, in, FormatClockTime(*clock(t, in)))
		})
	}
}

func TestWithinDailyWindow(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	min := clock(t, "08:00")
	max := clock(t, "18:00")

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"inside", day.Add(9 * time.Hour), day.Add(10 * time.Hour), true},
		{"before open", day.Add(6 * time.Hour), day.Add(7 * time.Hour), false},
		{"ends at open", day.Add(7 * time.Hour), day.Add(8 * time.Hour), false},
		{"straddles open", day.Add(7*time.Hour + 30*time.Minute), day.Add(8*time.Hour + 30*time.Minute), true},
		{"after close", day.Add(19 * time.Hour), day.Add(20 * time.Hour), false},
		{"overnight into next morning", day.Add(23 * time.Hour), day.Add(33 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithinDailyWindow(tt.start, tt.end, min, max, time.UTC))
		})
	}

	assert.True(t, WithinDailyWindow(day.Add(2*time.Hour), day.Add(3*time.Hour), nil, nil, time.UTC))
}

func TestWithinDailyWindowUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	// 02:00 UTC is 09:00 local.
	start := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

	assert.True(t, WithinDailyWindow(start, start.Add(time.Hour), clock(t, "08:00"), clock(t, "12:00"), loc))
	assert.False(t, WithinDailyWindow(start, start.Add(time.Hour), clock(t, "08:00"), clock(t, "12:00"), time.UTC))
}

func TestExpandAvailabilityWeekly(t *testing.T) {
	doctorID := uuid.New()
	rule := entity.DoctorAvailability{
		ID:              7,
		DoctorID:        doctorID,
		RRule:           "FREQ=WEEKLY;BYDAY=MO,WE",
		StartTime:       "09:00",
		DurationMinutes: 240,
		ValidFrom:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	// Monday 2026-03-09 through Monday 2026-03-16 exclusive.
	windows, err := ExpandAvailability([]entity.DoctorAvailability{rule}, ExpandConfig{
		RangeStart: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), windows[0].Start.UTC())
	assert.Equal(t, time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC), windows[0].End.UTC())
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), windows[1].Start.UTC())
	assert.Equal(t, 7, windows[1].AvailabilityID)
	assert.Equal(t, doctorID, windows[1].DoctorID)
}

func TestExpandAvailabilityHonoursValidityAndCap(t *testing.T) {
	until := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	rule := entity.DoctorAvailability{
		ID:              1,
		RRule:           "FREQ=DAILY",
		StartTime:       "10:00",
		DurationMinutes: 60,
		ValidFrom:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		ValidUntil:      &until,
	}
	cfg := ExpandConfig{
		RangeStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	windows, err := ExpandAvailability([]entity.DoctorAvailability{rule}, cfg)
	require.NoError(t, err)
	assert.Len(t, windows, 3, "2nd through 4th of March inclusive")

	rule.ValidUntil = nil
	cfg.MaxOccurrencesPerRule = 5
	windows, err = ExpandAvailability([]entity.DoctorAvailability{rule}, cfg)
	require.NoError(t, err)
	assert.Len(t, windows, 5)
}

func TestExpandAvailabilityIncludesWindowStartedBeforeRange(t *testing.T) {
	rule := entity.DoctorAvailability{
		RRule:           "FREQ=DAILY",
		StartTime:       "22:00",
		DurationMinutes: 240,
		ValidFrom:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	windows, err := ExpandAvailability([]entity.DoctorAvailability{rule}, ExpandConfig{
		RangeStart: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, time.Date(2026, 3, 4, 22, 0, 0, 0, time.UTC), windows[0].Start.UTC())
}

func TestExpandAvailabilityRejectsBadRule(t *testing.T) {
	_, err := ExpandAvailability([]entity.DoctorAvailability{{
		RRule:           "FREQ=NEVER",
		StartTime:       "09:00",
		DurationMinutes: 30,
	}}, ExpandConfig{
		RangeStart: time.Now(),
		RangeEnd:   time.Now().Add(time.Hour),
	})
	assert.Error(t, err)
}

func TestExportICS(t *testing.T) {
	start := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	confirmed := entity.Appointment{
		ID:        uuid.New(),
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Status:    entity.AppointmentStatusConfirmed,
		Reason:    "Follow-up",
	}
	confirmed.Doctor.User.FullName = "House"
	confirmed.Patient.User.FullName = "Jane Roe"

	scheduled := entity.Appointment{
		ID:        uuid.New(),
		StartTime: start.Add(time.Hour),
		EndTime:   start.Add(2 * time.Hour),
		Status:    entity.AppointmentStatusScheduled,
	}

	out := ExportICS([]entity.Appointment{confirmed, scheduled}, start)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)
	assert.Equal(t, confirmed.ID.String()+"@clinic", events[0].Id())
	assert.Equal(t, "CONFIRMED", events[0].GetProperty(ical.ComponentPropertyStatus).Value)
	assert.Equal(t, "Jane Roe with Dr. House", events[0].GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "TENTATIVE", events[1].GetProperty(ical.ComponentPropertyStatus).Value)

	gotStart, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(gotStart))
}
