package repository

import (
	"errors"
	"time"

	"go-medical-appointment/internal/domain/entity"
	domainRepo "go-medical-appointment/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Omit("Patient", "Doctor").Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Preload("Patient.User").Preload("Doctor.User").
		Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindAll(db *gorm.DB, filter *entity.AppointmentFilter, limit, offset int) ([]entity.Appointment, int64, error) {
	var appointments []entity.Appointment
	var total int64

	if err := applyAppointmentFilter(db.Model(&entity.Appointment{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := applyAppointmentFilter(db.Preload("Patient.User").Preload("Doctor.User"), filter).
		Order("start_time DESC").
		Limit(limit).Offset(offset).
		Find(&appointments).Error
	if err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

// FindInRange returns appointments intersecting [filter.From, filter.To) ordered by start.
func (r *appointmentRepository) FindInRange(db *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := applyAppointmentFilter(db.Preload("Patient.User").Preload("Doctor.User"), filter).
		Order("start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// LockParticipants takes row locks on the doctor and patient profiles so that
// bookings for the same participant serialize until the transaction ends.
// The doctor row is always locked first.
func (r *appointmentRepository) LockParticipants(db *gorm.DB, doctorID, patientID uuid.UUID) error {
	var ids []string
	if err := db.Model(&entity.DoctorProfile{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", doctorID).
		Pluck("user_id", &ids).Error; err != nil {
		return err
	}
	return db.Model(&entity.PatientProfile{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", patientID).
		Pluck("user_id", &ids).Error
}

// HasOverlap reports whether an active appointment of the doctor or the patient
// intersects [start, end). Touching windows do not overlap.
func (r *appointmentRepository) HasOverlap(db *gorm.DB, doctorID, patientID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := db.Model(&entity.Appointment{}).
		Where("status IN ?", entity.ActiveAppointmentStatuses).
		Where("start_time < ? AND end_time > ?", end, start).
		Where("(doctor_id = ? OR patient_id = ?)", doctorID, patientID)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateStatus moves the appointment to `to` only while its status is one of `from`,
// writing any extra columns in the same statement.
// Returns affected rows: 0 means a concurrent transition won.
func (r *appointmentRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, to entity.AppointmentStatus, extra map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{"status": to}
	for column, value := range extra {
		updates[column] = value
	}
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// CompleteEnded marks every active appointment whose end is strictly before the
// cutoff as completed.
func (r *appointmentRepository) CompleteEnded(db *gorm.DB, before time.Time) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("status IN ? AND end_time < ?", entity.ActiveAppointmentStatuses, before).
		Update("status", entity.AppointmentStatusCompleted)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) FindDueForReminder(db *gorm.DB, from, to time.Time, limit int) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Preload("Patient.User").Preload("Doctor.User").
		Where("status IN ?", entity.ActiveAppointmentStatuses).
		Where("reminder_sent_at IS NULL").
		Where("start_time >= ? AND start_time < ?", from, to).
		Order("start_time ASC").
		Limit(limit).
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// MarkReminderSent stamps the reminder once; a second call affects no rows.
func (r *appointmentRepository) MarkReminderSent(db *gorm.DB, id uuid.UUID, at time.Time) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND reminder_sent_at IS NULL", id).
		Update("reminder_sent_at", at)
	return result.RowsAffected, result.Error
}

func applyAppointmentFilter(query *gorm.DB, filter *entity.AppointmentFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.PatientID != nil {
		query = query.Where("appointments.patient_id = ?", *filter.PatientID)
	}
	if filter.DoctorID != nil {
		query = query.Where("appointments.doctor_id = ?", *filter.DoctorID)
	}
	if filter.Status != "" {
		query = query.Where("appointments.status = ?", filter.Status)
	}
	if filter.ExcludeCancelled {
		query = query.Where("appointments.status <> ?", entity.AppointmentStatusCancelled)
	}
	// Range bounds select intersecting windows, not only those starting inside.
	if filter.To != nil {
		query = query.Where("appointments.start_time < ?", *filter.To)
	}
	if filter.From != nil {
		query = query.Where("appointments.end_time > ?", *filter.From)
	}
	return query
}
