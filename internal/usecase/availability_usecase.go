package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-medical-appointment/internal/calendar"
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
	ErrAvailabilityNotFound  = errors.New("availability not found")
	ErrAvailabilityNotOwned  = errors.New("availability does not belong to you")
	ErrInvalidValidityPeriod = errors.New("valid_until must not be before valid_from")
	ErrInvalidRange          = errors.New("range end must be after range start")
	ErrRangeTooLarge         = errors.New("requested range exceeds the maximum allowed days")
	ErrInvalidRule           = errors.New("invalid availability rule")
)

type AvailabilityUsecase interface {
	Create(ctx context.Context, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to *time.Time) (*dto.DoctorAvailabilityResponse, error)
	Delete(ctx context.Context, id int) error
}

type availabilityUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	availabilityRepo  repository.DoctorAvailabilityRepository
	doctorProfileRepo repository.DoctorProfileRepository
	auditService      service.AuditService
	settings          CalendarSettings
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	availabilityRepo repository.DoctorAvailabilityRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
	auditService service.AuditService,
	settings CalendarSettings,
) AvailabilityUsecase {
	return &availabilityUsecase{
		db:                db,
		log:               log,
		availabilityRepo:  availabilityRepo,
		doctorProfileRepo: doctorProfileRepo,
		auditService:      auditService,
		settings:          settings.withDefaults(),
	}
}

// Create adds a recurring working-hours rule for the calling doctor.
func (u *availabilityUsecase) Create(ctx context.Context, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsDoctor() {
		return nil, ErrForbidden
	}

	validFrom, err := time.Parse(dateLayout, req.ValidFrom)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}

	availability := &entity.DoctorAvailability{
		DoctorID:        caller.ID,
		RRule:           req.RRule,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		ValidFrom:       validFrom,
	}

	if req.ValidUntil != "" {
		validUntil, err := time.Parse(dateLayout, req.ValidUntil)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		if validUntil.Before(validFrom) {
			return nil, ErrInvalidValidityPeriod
		}
		availability.ValidUntil = &validUntil
	}

	// Rejects rules rrule-go cannot anchor, e.g. a malformed clock time.
	if _, err := calendar.BuildRule(*availability, u.settings.Location); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.availabilityRepo.Create(tx, availability); err != nil {
		u.log.Warnf("Failed to create availability: %+v", err)
		return nil, err
	}

	response := converter.AvailabilityToResponse(availability)
	if err := u.auditService.LogCreate(ctx, tx, &caller.ID, entity.AuditActionAvailabilityCreate, "doctor_availability", response.DoctorID.String(), response); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return response, nil
}

// ListByDoctor returns the doctor's rules and, when a range is given, their
// concrete windows inside it.
func (u *availabilityUsecase) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to *time.Time) (*dto.DoctorAvailabilityResponse, error) {
	doctor, err := u.doctorProfileRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor profile: %+v", err)
		return nil, err
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}

	rules, err := u.availabilityRepo.FindByDoctorID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	response := &dto.DoctorAvailabilityResponse{
		DoctorID: doctorID,
		Rules:    converter.AvailabilitiesToResponses(rules),
	}

	if from == nil || to == nil {
		return response, nil
	}
	if err := u.settings.checkRange(*from, *to); err != nil {
		return nil, err
	}

	windows, err := calendar.ExpandAvailability(rules, calendar.ExpandConfig{
		RangeStart: *from,
		RangeEnd:   *to,
		Location:   u.settings.Location,
	})
	if err != nil {
		u.log.Warnf("Failed to expand availability for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	response.Windows = converter.AvailabilityWindowsToResponses(windows)

	return response, nil
}

func (u *availabilityUsecase) Delete(ctx context.Context, id int) error {
	caller, err := currentActor(ctx)
	if err != nil {
		return err
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	availability, err := u.availabilityRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find availability %d: %+v", id, err)
		return err
	}
	if availability == nil {
		return ErrAvailabilityNotFound
	}
	if availability.DoctorID != caller.ID && !caller.IsAdmin() {
		return ErrAvailabilityNotOwned
	}

	affected, err := u.availabilityRepo.Delete(tx, id)
	if err != nil {
		u.log.Warnf("Failed to delete availability %d: %+v", id, err)
		return err
	}
	if affected == 0 {
		return ErrAvailabilityNotFound
	}

	if err := u.auditService.LogDelete(ctx, tx, &caller.ID, entity.AuditActionAvailabilityDelete, "doctor_availability", availability.DoctorID.String(), converter.AvailabilityToResponse(availability)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	return nil
}
