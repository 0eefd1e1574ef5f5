package usecase

import (
	"context"
	"errors"
	"time"

	"go-medical-appointment/internal/converter"
	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/domain/repository"
	"go-medical-appointment/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound         = errors.New("appointment not found")
	ErrAppointmentAlreadyCancelled = errors.New("appointment is already cancelled")
	ErrAppointmentInPast           = errors.New("appointment must start in the future")
	ErrAppointmentOverlap          = errors.New("doctor or patient already has an appointment in this time window")
	ErrAppointmentNotStarted       = errors.New("appointment has not started yet")
	ErrDoctorInactive              = errors.New("doctor is not accepting appointments")
	ErrPatientRequired             = errors.New("patient_id is required")
	ErrCostRequired                = errors.New("cost is required")
)

type AppointmentUsecase interface {
	Create(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	List(ctx context.Context, query *dto.AppointmentListQuery) (*dto.AppointmentListResponse, error)
	Confirm(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error)
	Complete(ctx context.Context, id uuid.UUID, req *dto.CompleteAppointmentRequest) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	appointmentRepo    repository.AppointmentRepository
	doctorProfileRepo  repository.DoctorProfileRepository
	patientProfileRepo repository.PatientProfileRepository
	auditService       service.AuditService
	slotLocker         service.SlotLocker
	publisher          service.EventPublisher
	now                func() time.Time
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	patientProfileRepo repository.PatientProfileRepository,
	auditService service.AuditService,
	slotLocker service.SlotLocker,
	publisher service.EventPublisher,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:                 db,
		log:                log,
		appointmentRepo:    appointmentRepo,
		doctorProfileRepo:  doctorProfileRepo,
		patientProfileRepo: patientProfileRepo,
		auditService:       auditService,
		slotLocker:         slotLocker,
		publisher:          publisher,
		now:                time.Now,
	}
}

// Create books an appointment.
//
// Flow:
// 1. Resolve the patient from the caller's role
// 2. Validate window, start in the future and the cost ceiling
// 3. Doctor must exist and be active, patient must exist
// 4. Redis SET NX on doctor+start (cross-instance guard)
// 5. Overlap check and insert in one transaction
// 6. If the transaction fails -> compensate: release the slot lock
func (u *appointmentUsecase) Create(ctx context.Context, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	// Step 1: resolve patient
	var patientID uuid.UUID
	switch {
	case caller.IsPatient():
		patientID = caller.ID
	case caller.IsDoctor() && req.DoctorID != caller.ID:
		return nil, ErrForbidden
	case req.PatientID == nil || *req.PatientID == uuid.Nil:
		return nil, ErrPatientRequired
	default:
		patientID = *req.PatientID
	}

	// Step 2: domain checks, repeated here so non-HTTP callers hit them too
	start := req.StartTime.UTC()
	end := req.EndTime.UTC()
	if err := entity.ValidateWindow(start, end); err != nil {
		return nil, err
	}
	if !start.After(u.now()) {
		return nil, ErrAppointmentInPast
	}
	if req.Cost == nil {
		return nil, ErrCostRequired
	}
	cost := *req.Cost
	if err := entity.ValidateCost(cost); err != nil {
		return nil, err
	}

	// Step 3: parties
	doctor, err := u.doctorProfileRepo.FindByUserID(u.db.WithContext(ctx), req.DoctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", req.DoctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	if !doctor.User.Active() {
		return nil, ErrDoctorInactive
	}

	patient, err := u.patientProfileRepo.FindByUserID(ctx, u.db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	appointment := &entity.Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		StartTime: start,
		EndTime:   end,
		Cost:      cost,
		Status:    entity.AppointmentStatusScheduled,
		Reason:    req.Reason,
	}

	// Step 4: slot lock
	if err := u.slotLocker.Acquire(ctx, appointment.DoctorID, start, appointment.ID, service.LockTTL(end)); err != nil {
		if errors.Is(err, service.ErrSlotTaken) {
			return nil, service.ErrSlotTaken
		}
		return nil, err
	}

	// Step 5: persist
	if err := u.insert(ctx, caller, appointment); err != nil {
		// Step 6: COMPENSATE - free the slot since nothing was stored
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if releaseErr := u.slotLocker.Release(releaseCtx, appointment.DoctorID, start, appointment.ID); releaseErr != nil {
			u.log.Errorf("CRITICAL: Failed to release slot lock after DB failure for appointment %s: %+v", appointment.ID, releaseErr)
		}
		return nil, err
	}

	service.PublishAfterCommit(ctx, u.log, u.publisher, appointmentEvent(entity.EventAppointmentCreated, appointment))
	u.log.Infof("Appointment created: id=%s, doctor=%s, patient=%s, start=%s, cost=%s",
		appointment.ID, appointment.DoctorID, appointment.PatientID, start.Format(time.RFC3339), cost.StringFixed(2))

	appointment.Doctor = *doctor
	appointment.Patient = *patient
	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) insert(ctx context.Context, caller actor, appointment *entity.Appointment) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.appointmentRepo.LockParticipants(tx, appointment.DoctorID, appointment.PatientID); err != nil {
		u.log.Warnf("Failed to lock appointment participants: %+v", err)
		return err
	}

	overlap, err := u.appointmentRepo.HasOverlap(tx, appointment.DoctorID, appointment.PatientID, appointment.StartTime, appointment.EndTime, nil)
	if err != nil {
		u.log.Warnf("Failed to check appointment overlap: %+v", err)
		return err
	}
	if overlap {
		return ErrAppointmentOverlap
	}

	if err := u.appointmentRepo.Create(tx, appointment); err != nil {
		u.log.Errorf("Failed to insert appointment to DB: %+v", err)
		if isExclusionViolation(err, "appointments") {
			return ErrAppointmentOverlap
		}
		if isForeignKeyError(err, "doctor_id") {
			return ErrDoctorNotFound
		}
		if isForeignKeyError(err, "patient_id") {
			return ErrPatientNotFound
		}
		return err
	}

	if err := u.auditService.LogCreate(ctx, tx, &caller.ID, entity.AuditActionAppointmentCreate, "appointment", appointment.ID.String(), converter.AppointmentToResponse(appointment)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}
	return nil
}

func (u *appointmentUsecase) Get(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.findVisible(ctx, id)
	if err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(appointment), nil
}

// findVisible loads the appointment and applies the read access rule.
func (u *appointmentUsecase) findVisible(ctx context.Context, id uuid.UUID) (*entity.Appointment, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !caller.canView(appointment) {
		return nil, ErrForbidden
	}
	return appointment, nil
}

// List returns the caller's appointments: patients and doctors see their own,
// admins see all.
func (u *appointmentUsecase) List(ctx context.Context, query *dto.AppointmentListQuery) (*dto.AppointmentListResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	page := query.PageRequest.Normalize()
	filter := &entity.AppointmentFilter{
		Status: entity.AppointmentStatus(query.Status),
		From:   query.From,
		To:     query.To,
	}
	switch {
	case caller.IsPatient():
		filter.PatientID = &caller.ID
	case caller.IsDoctor():
		filter.DoctorID = &caller.ID
	}

	appointments, total, err := u.appointmentRepo.FindAll(u.db.WithContext(ctx), filter, page.Limit, page.Offset())
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        total,
		Page:         page.Page,
		Limit:        page.Limit,
	}, nil
}

// Confirm is done by the appointment's doctor or an admin.
func (u *appointmentUsecase) Confirm(ctx context.Context, id uuid.UUID) (*dto.AppointmentResponse, error) {
	return u.transition(ctx, id, entity.AppointmentStatusConfirmed, entity.AuditActionAppointmentConfirm, entity.EventAppointmentConfirmed, nil)
}

// Cancel frees the slot. Patients may cancel their own appointments.
func (u *appointmentUsecase) Cancel(ctx context.Context, id uuid.UUID, req *dto.CancelAppointmentRequest) (*dto.AppointmentResponse, error) {
	var extra map[string]interface{}
	if req != nil && req.Reason != "" {
		extra = map[string]interface{}{"notes": req.Reason}
	}

	response, err := u.transition(ctx, id, entity.AppointmentStatusCancelled, entity.AuditActionAppointmentCancel, entity.EventAppointmentCancelled, extra)
	if err != nil {
		return nil, err
	}

	// The row is already cancelled, so a failed release only delays reuse until the TTL.
	if err := u.slotLocker.Release(ctx, response.Doctor.ID, response.StartTime, response.ID); err != nil {
		u.log.Warnf("Failed to release slot lock for cancelled appointment %s: %+v", response.ID, err)
	}
	return response, nil
}

func (u *appointmentUsecase) Complete(ctx context.Context, id uuid.UUID, req *dto.CompleteAppointmentRequest) (*dto.AppointmentResponse, error) {
	var extra map[string]interface{}
	if req != nil && req.Notes != "" {
		extra = map[string]interface{}{"notes": req.Notes}
	}
	return u.transition(ctx, id, entity.AppointmentStatusCompleted, entity.AuditActionAppointmentDone, entity.EventAppointmentCompleted, extra)
}

func (u *appointmentUsecase) transition(
	ctx context.Context,
	id uuid.UUID,
	next entity.AppointmentStatus,
	auditAction string,
	eventType string,
	extra map[string]interface{},
) (*dto.AppointmentResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	appointment, err := u.appointmentRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	if !caller.canView(appointment) {
		return nil, ErrForbidden
	}
	// Only cancellation is open to the patient.
	if caller.IsPatient() && next != entity.AppointmentStatusCancelled {
		return nil, ErrForbidden
	}

	if appointment.IsCancelled() && next == entity.AppointmentStatusCancelled {
		return nil, ErrAppointmentAlreadyCancelled
	}
	if next == entity.AppointmentStatusCompleted && u.now().Before(appointment.StartTime) {
		return nil, ErrAppointmentNotStarted
	}

	oldValue := converter.AppointmentToResponse(appointment)
	from := appointment.Status
	if err := appointment.TransitionTo(next); err != nil {
		return nil, err
	}

	affected, err := u.appointmentRepo.UpdateStatus(tx, id, []entity.AppointmentStatus{from}, next, extra)
	if err != nil {
		u.log.Warnf("Failed to update appointment %s status: %+v", id, err)
		return nil, err
	}
	if affected == 0 {
		return nil, entity.ErrInvalidTransition
	}
	if notes, ok := extra["notes"].(string); ok {
		appointment.Notes = notes
	}

	newValue := converter.AppointmentToResponse(appointment)
	if err := u.auditService.LogUpdate(ctx, tx, &caller.ID, auditAction, "appointment", id.String(), oldValue, newValue); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	service.PublishAfterCommit(ctx, u.log, u.publisher, appointmentEvent(eventType, appointment))
	u.log.Infof("Appointment %s: %s -> %s by %s", id, from, next, caller.ID)

	return newValue, nil
}

func appointmentEvent(eventType string, a *entity.Appointment) entity.DomainEvent {
	return entity.NewDomainEvent(eventType, a.ID.String(), map[string]interface{}{
		"patient_id": a.PatientID.String(),
		"doctor_id":  a.DoctorID.String(),
		"start_time": a.StartTime.UTC().Format(time.RFC3339),
		"end_time":   a.EndTime.UTC().Format(time.RFC3339),
		"status":     string(a.Status),
		"cost":       a.Cost.StringFixed(2),
	})
}
