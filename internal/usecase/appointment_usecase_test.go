package usecase

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/repository"
	"go-medical-appointment/internal/service"
	"go-medical-appointment/internal/testutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type appointmentFixture struct {
	db        *gorm.DB
	usecase   *appointmentUsecase
	publisher *recordingPublisher
	doctor    *entity.DoctorProfile
	patient   *entity.PatientProfile
}

func newAppointmentFixture(t *testing.T, locker service.SlotLocker) *appointmentFixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := newTestLogger()
	if locker == nil {
		_, client := newTestRedis(t)
		locker = service.NewSlotLockService(db, client, log)
	}
	publisher := &recordingPublisher{}

	uc := NewAppointmentUsecase(
		db,
		log,
		repository.NewAppointmentRepository(),
		repository.NewDoctorProfileRepository(),
		repository.NewPatientProfileRepository(),
		newTestAuditService(log),
		locker,
		publisher,
	).(*appointmentUsecase)

	return &appointmentFixture{
		db:        db,
		usecase:   uc,
		publisher: publisher,
		doctor:    testutil.CreateDoctor(t, db, "Ana Doctor"),
		patient:   testutil.CreatePatient(t, db, "Cara Patient"),
	}
}

func (f *appointmentFixture) request(start time.Time, cost string) *dto.CreateAppointmentRequest {
	c := decimal.RequireFromString(cost)
	return &dto.CreateAppointmentRequest{
		DoctorID:  f.doctor.UserID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Cost:      &c,
		Reason:    "Follow-up",
	}
}

func slotNextWeek() time.Time {
	now := time.Now().UTC().AddDate(0, 0, 7)
	return time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, time.UTC)
}

func TestCreateAppointmentCostCeiling(t *testing.T) {
	f := newAppointmentFixture(t, nil)
	ctx := asUser(f.patient.UserID, entity.RoleIDPatient)
	start := slotNextWeek()

	tests := []struct {
		cost    string
		wantErr error
	}{
		{"100000", nil},
		{"100000.00", nil},
		{"0", nil},
		{"100000.01", entity.ErrCostExceedsCeiling},
		{"250000", entity.ErrCostExceedsCeiling},
		{"-0.01", entity.ErrCostNegative},
		{"10.005", entity.ErrCostPrecision},
	}

	for i, tt := range tests {
		t.Run(tt.cost, func(t *testing.T) {
			slot := start.Add(time.Duration(i) * time.Hour)
			got, err := f.usecase.Create(ctx, f.request(slot, tt.cost))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Cost.Equal(decimal.RequireFromString(tt.cost)))
			assert.Equal(t, string(entity.AppointmentStatusScheduled), got.Status)
			assert.Equal(t, f.patient.UserID, got.Patient.ID)
			assert.Equal(t, "Ana Doctor", got.Doctor.FullName)
		})
	}

	var stored int64
	require.NoError(t, f.db.Model(&entity.Appointment{}).Count(&stored).Error)
	assert.EqualValues(t, 3, stored)
}

func TestCreateAppointmentRejectsPastAndMissingCost(t *testing.T) {
	f := newAppointmentFixture(t, nil)
	ctx := asUser(f.patient.UserID, entity.RoleIDPatient)

	_, err := f.usecase.Create(ctx, f.request(time.Now().UTC().Add(-time.Hour), "100"))
	assert.ErrorIs(t, err, ErrAppointmentInPast)

	req := f.request(slotNextWeek(), "100")
	req.Cost = nil
	_, err = f.usecase.Create(ctx, req)
	assert.ErrorIs(t, err, ErrCostRequired)

	_, err = f.usecase.Create(asUser(uuid.New(), entity.RoleIDAdmin), f.request(slotNextWeek(), "100"))
	assert.ErrorIs(t, err, ErrPatientRequired)
}

func TestCreateAppointmentOverlapReleasesSlot(t *testing.T) {
	locker := new(mockSlotLocker)
	f := newAppointmentFixture(t, locker)
	ctx := asUser(f.patient.UserID, entity.RoleIDPatient)
	start := slotNextWeek()

	testutil.CreateAppointment(t, f.db, f.doctor.UserID, f.patient.UserID, start.Add(-15*time.Minute), 30*time.Minute, entity.AppointmentStatusConfirmed)

	locker.On("Acquire", f.doctor.UserID, start, mock.Anything).Return(nil).Once()
	locker.On("Release", f.doctor.UserID, start, mock.Anything).Return(nil).Once()

	_, err := f.usecase.Create(ctx, f.request(start, "500"))
	assert.ErrorIs(t, err, ErrAppointmentOverlap)
	locker.AssertExpectations(t)
	assert.Empty(t, f.publisher.Types())
}

func TestCreateAppointmentLocksParticipantsBeforeOverlapCheck(t *testing.T) {
	locker := new(mockSlotLocker)
	f := newAppointmentFixture(t, locker)
	start := slotNextWeek()

	var queries []string
	require.NoError(t, f.db.Callback().Query().Before("gorm:query").Register("test:record_queries", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Clauses["FOR"]; ok {
			queries = append(queries, "lock "+tx.Statement.Table)
			return
		}
		queries = append(queries, tx.Statement.Table)
	}))

	locker.On("Acquire", f.doctor.UserID, start, mock.Anything).Return(nil).Once()
	locker.On("Release", f.doctor.UserID, start, mock.Anything).Return(nil).Once()

	_, err := f.usecase.Create(asUser(f.patient.UserID, entity.RoleIDPatient), f.request(start, "500"))
	require.NoError(t, err)

	doctorLock := slices.Index(queries, "lock doctor_profiles")
	patientLock := slices.Index(queries, "lock patient_profiles")
	overlapCheck := slices.Index(queries, "appointments")
	require.NotEqual(t, -1, doctorLock)
	require.NotEqual(t, -1, patientLock)
	require.NotEqual(t, -1, overlapCheck)
	assert.Less(t, doctorLock, patientLock)
	assert.Less(t, patientLock, overlapCheck)
}

func TestCreateAppointmentExclusionViolationIsOverlap(t *testing.T) {
	locker := new(mockSlotLocker)
	f := newAppointmentFixture(t, locker)
	start := slotNextWeek()

	// A concurrent booking that committed between the overlap check and the
	// insert is rejected by the database exclusion constraint.
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:exclusion_violation", func(tx *gorm.DB) {
		if tx.Statement.Table == "appointments" {
			tx.AddError(&pgconn.PgError{Code: "23P01", ConstraintName: "excl_appointments_doctor_overlap"})
		}
	}))

	locker.On("Acquire", f.doctor.UserID, start, mock.Anything).Return(nil).Once()
	locker.On("Release", f.doctor.UserID, start, mock.Anything).Return(nil).Once()

	_, err := f.usecase.Create(asUser(f.patient.UserID, entity.RoleIDPatient), f.request(start, "500"))
	assert.ErrorIs(t, err, ErrAppointmentOverlap)
	locker.AssertExpectations(t)
	assert.Empty(t, f.publisher.Types())
}

func TestIsExclusionViolation(t *testing.T) {
	violation := &pgconn.PgError{Code: "23P01", ConstraintName: "excl_appointments_patient_overlap"}

	assert.True(t, isExclusionViolation(violation, "appointments"))
	assert.True(t, isExclusionViolation(fmt.Errorf("insert: %w", violation), "appointments"))
	assert.False(t, isExclusionViolation(violation, "analyses"))
	assert.False(t, isExclusionViolation(&pgconn.PgError{Code: "23505", ConstraintName: "excl_appointments_doctor_overlap"}, "appointments"))
	assert.False(t, isExclusionViolation(errors.New("boom"), "appointments"))
}

func TestCreateAppointmentSlotTaken(t *testing.T) {
	locker := new(mockSlotLocker)
	f := newAppointmentFixture(t, locker)
	start := slotNextWeek()

	locker.On("Acquire", f.doctor.UserID, start, mock.Anything).Return(service.ErrSlotTaken).Once()

	_, err := f.usecase.Create(asUser(f.patient.UserID, entity.RoleIDPatient), f.request(start, "500"))
	assert.ErrorIs(t, err, service.ErrSlotTaken)
	locker.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateAppointmentDoctorMustBookForSelf(t *testing.T) {
	f := newAppointmentFixture(t, nil)
	other := testutil.CreateDoctor(t, f.db, "Ben Doctor")

	req := f.request(slotNextWeek(), "500")
	req.PatientID = &f.patient.UserID

	_, err := f.usecase.Create(asUser(other.UserID, entity.RoleIDDoctor), req)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.usecase.Create(asUser(f.doctor.UserID, entity.RoleIDDoctor), req)
	require.NoError(t, err)
	assert.Equal(t, f.patient.UserID, got.Patient.ID)
}

func TestCreateAppointmentInactiveDoctor(t *testing.T) {
	f := newAppointmentFixture(t, nil)
	require.NoError(t, f.db.Model(&entity.User{}).Where("id = ?", f.doctor.UserID).Update("is_active", false).Error)

	_, err := f.usecase.Create(asUser(f.patient.UserID, entity.RoleIDPatient), f.request(slotNextWeek(), "500"))
	assert.ErrorIs(t, err, ErrDoctorInactive)
}

func TestCancelAppointment(t *testing.T) {
	locker := new(mockSlotLocker)
	f := newAppointmentFixture(t, locker)
	start := slotNextWeek()
	appointment := testutil.CreateAppointment(t, f.db, f.doctor.UserID, f.patient.UserID, start, time.Hour, entity.AppointmentStatusScheduled)

	patientCtx := asUser(f.patient.UserID, entity.RoleIDPatient)

	_, err := f.usecase.Confirm(patientCtx, appointment.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.usecase.Cancel(asUser(uuid.New(), entity.RoleIDPatient), appointment.ID, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	locker.On("Release", f.doctor.UserID, mock.MatchedBy(start.Equal), appointment.ID).Return(nil).Once()

	got, err := f.usecase.Cancel(patientCtx, appointment.ID, &dto.CancelAppointmentRequest{Reason: "Feeling better"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusCancelled), got.Status)
	assert.Equal(t, "Feeling better", got.Notes)
	locker.AssertExpectations(t)

	_, err = f.usecase.Cancel(patientCtx, appointment.ID, nil)
	assert.ErrorIs(t, err, ErrAppointmentAlreadyCancelled)

	_, err = f.usecase.Confirm(asUser(f.doctor.UserID, entity.RoleIDDoctor), appointment.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	assert.Equal(t, []string{entity.EventAppointmentCancelled}, f.publisher.Types())

	var audits int64
	require.NoError(t, f.db.Model(&entity.AuditLog{}).Where("action = ?", entity.AuditActionAppointmentCancel).Count(&audits).Error)
	assert.EqualValues(t, 1, audits)
}

func TestCompleteAppointment(t *testing.T) {
	f := newAppointmentFixture(t, nil)
	start := slotNextWeek()
	appointment := testutil.CreateAppointment(t, f.db, f.doctor.UserID, f.patient.UserID, start, time.Hour, entity.AppointmentStatusConfirmed)
	doctorCtx := asUser(f.doctor.UserID, entity.RoleIDDoctor)

	_, err := f.usecase.Complete(doctorCtx, appointment.ID, nil)
	assert.ErrorIs(t, err, ErrAppointmentNotStarted)

	f.usecase.now = func() time.Time { return start.Add(90 * time.Minute) }

	got, err := f.usecase.Complete(doctorCtx, appointment.ID, &dto.CompleteAppointmentRequest{Notes: "Prescribed rest"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.AppointmentStatusCompleted), got.Status)
	assert.Equal(t, "Prescribed rest", got.Notes)

	_, err = f.usecase.Cancel(doctorCtx, appointment.ID, nil)
	assert.True(t, errors.Is(err, entity.ErrInvalidTransition))
}

func TestListAppointmentsScopedToCaller(t *testing.T) {
	f := newAppointmentFixture(t, nil)
	other := testutil.CreatePatient(t, f.db, "Dan Patient")
	start := slotNextWeek()

	testutil.CreateAppointment(t, f.db, f.doctor.UserID, f.patient.UserID, start, time.Hour, entity.AppointmentStatusScheduled)
	testutil.CreateAppointment(t, f.db, f.doctor.UserID, other.UserID, start.Add(2*time.Hour), time.Hour, entity.AppointmentStatusScheduled)

	mine, err := f.usecase.List(asUser(f.patient.UserID, entity.RoleIDPatient), &dto.AppointmentListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, mine.Total)
	assert.Equal(t, dto.DefaultPageLimit, mine.Limit)

	doctors, err := f.usecase.List(asUser(f.doctor.UserID, entity.RoleIDDoctor), &dto.AppointmentListQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, doctors.Total)

	_, err = f.usecase.Get(asUser(other.UserID, entity.RoleIDPatient), mine.Appointments[0].ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
