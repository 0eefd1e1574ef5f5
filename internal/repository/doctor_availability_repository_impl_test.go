package repository_test

import (
	"testing"
	"time"

	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/repository"
	"go-medical-appointment/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAvailabilityFindActiveInRange(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewDoctorAvailabilityRepository()

	ana := testutil.CreateDoctor(t, db, "Ana Doctor")
	ben := testutil.CreateDoctor(t, db, "Ben Doctor")

	until := date(2030, 1, 31)
	expired := date(2029, 12, 31)
	rules := []*entity.DoctorAvailability{
		{DoctorID: ana.UserID, RRule: "FREQ=WEEKLY;BYDAY=MO", StartTime: "09:00", DurationMinutes: 240, ValidFrom: date(2030, 1, 1), ValidUntil: &until},
		{DoctorID: ana.UserID, RRule: "FREQ=DAILY", StartTime: "14:00", DurationMinutes: 60, ValidFrom: date(2029, 1, 1), ValidUntil: &expired},
		{DoctorID: ana.UserID, RRule: "FREQ=WEEKLY;BYDAY=FR", StartTime: "08:00", DurationMinutes: 120, ValidFrom: date(2030, 3, 1)},
		{DoctorID: ben.UserID, RRule: "FREQ=WEEKLY;BYDAY=TU", StartTime: "10:00", DurationMinutes: 60, ValidFrom: date(2029, 6, 1)},
	}
	for _, rule := range rules {
		require.NoError(t, repo.Create(db, rule))
	}

	from, to := date(2030, 1, 6), date(2030, 1, 13)

	active, err := repo.FindActiveInRange(db, &ana.UserID, from, to)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, rules[0].ID, active[0].ID)

	everyone, err := repo.FindActiveInRange(db, nil, from, to)
	require.NoError(t, err)
	assert.Len(t, everyone, 2)

	// Open-ended rules stay active once started
	later, err := repo.FindActiveInRange(db, &ana.UserID, date(2030, 6, 1), date(2030, 6, 8))
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, rules[2].ID, later[0].ID)
}

func TestAvailabilityDeleteReportsAffectedRows(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewDoctorAvailabilityRepository()
	doctor := testutil.CreateDoctor(t, db, "Ana Doctor")

	rule := &entity.DoctorAvailability{DoctorID: doctor.UserID, RRule: "FREQ=DAILY", StartTime: "09:00", DurationMinutes: 30, ValidFrom: date(2030, 1, 1)}
	require.NoError(t, repo.Create(db, rule))

	affected, err := repo.Delete(db, rule.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	affected, err = repo.Delete(db, rule.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, affected)

	found, err := repo.FindByID(db, rule.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
