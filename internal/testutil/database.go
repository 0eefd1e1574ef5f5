// Package testutil builds throwaway SQLite databases and fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"go-medical-appointment/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens an in-memory SQLite database private to t, migrated and
// seeded with the three roles.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared in-memory database alive and
	// serialises transactions.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.DoctorProfile{},
		&entity.PatientProfile{},
		&entity.DoctorAvailability{},
		&entity.Appointment{},
		&entity.Analysis{},
		&entity.PatientAnalysis{},
		&entity.AnalysisResult{},
		&entity.AuditLog{},
	))

	require.NoError(t, db.Create([]entity.Role{
		{ID: entity.RoleIDAdmin, RoleName: entity.RoleAdmin},
		{ID: entity.RoleIDDoctor, RoleName: entity.RoleDoctor},
		{ID: entity.RoleIDPatient, RoleName: entity.RolePatient},
	}).Error)

	return db
}

// CreateUser inserts an active user with the given role.
func CreateUser(t testing.TB, db *gorm.DB, roleID int, fullName string) *entity.User {
	t.Helper()
	user := &entity.User{
		RoleID:   roleID,
		Email:    strings.ToLower(strings.ReplaceAll(fullName, " ", ".")) + "+" + uuid.NewString()[:8] + "@clinic.test",
		Password: "x",
		FullName: fullName,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateDoctor inserts a doctor user and profile.
func CreateDoctor(t testing.TB, db *gorm.DB, fullName string) *entity.DoctorProfile {
	t.Helper()
	user := CreateUser(t, db, entity.RoleIDDoctor, fullName)
	profile := &entity.DoctorProfile{
		UserID:          user.ID,
		LicenseNumber:   "LIC-" + uuid.NewString()[:8],
		Specialization:  "General practice",
		ConsultationFee: decimal.NewFromInt(250),
	}
	require.NoError(t, db.Omit("User", "Availability").Create(profile).Error)
	profile.User = *user
	return profile
}

// CreatePatient inserts a patient user and profile.
func CreatePatient(t testing.TB, db *gorm.DB, fullName string) *entity.PatientProfile {
	t.Helper()
	user := CreateUser(t, db, entity.RoleIDPatient, fullName)
	profile := &entity.PatientProfile{
		UserID:      user.ID,
		NationalID:  "NID-" + uuid.NewString()[:8],
		DateOfBirth: time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		Gender:      "F",
	}
	require.NoError(t, db.Omit("User", "Appointments").Create(profile).Error)
	profile.User = *user
	return profile
}

// CreateAnalysis inserts a catalog entry.
func CreateAnalysis(t testing.TB, db *gorm.DB, code, name string) *entity.Analysis {
	t.Helper()
	analysis := &entity.Analysis{Code: code, Name: name, Price: decimal.NewFromInt(100)}
	require.NoError(t, db.Create(analysis).Error)
	return analysis
}

// CreateAppointment inserts an appointment with the given window and status.
func CreateAppointment(t testing.TB, db *gorm.DB, doctorID, patientID uuid.UUID, start time.Time, d time.Duration, status entity.AppointmentStatus) *entity.Appointment {
	t.Helper()
	appointment := &entity.Appointment{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		PatientID: patientID,
		StartTime: start.UTC(),
		EndTime:   start.Add(d).UTC(),
		Cost:      decimal.NewFromInt(500),
		Status:    status,
	}
	require.NoError(t, db.Omit("Patient", "Doctor").Create(appointment).Error)
	return appointment
}
