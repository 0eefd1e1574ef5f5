package usecase

import (
	"context"
	"errors"

	"go-medical-appointment/internal/delivery/http/middleware"
	"go-medical-appointment/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("user not found in context")
	ErrForbidden       = errors.New("you don't have permission to access this resource")
)

// actor is the authenticated caller as set by the auth middleware.
type actor struct {
	ID     uuid.UUID
	RoleID int
}

func currentActor(ctx context.Context) (actor, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return actor{}, ErrUnauthenticated
	}
	roleID, ok := middleware.GetRoleIDFromContext(ctx)
	if !ok {
		return actor{}, ErrUnauthenticated
	}
	return actor{ID: userID, RoleID: roleID}, nil
}

func (a actor) IsAdmin() bool   { return a.RoleID == entity.RoleIDAdmin }
func (a actor) IsDoctor() bool  { return a.RoleID == entity.RoleIDDoctor }
func (a actor) IsPatient() bool { return a.RoleID == entity.RoleIDPatient }

// canView reports whether the caller may read the appointment.
func (a actor) canView(appointment *entity.Appointment) bool {
	return a.IsAdmin() || appointment.InvolvesUser(a.ID)
}

// canViewPatient reports whether the caller may read a patient's records.
// Doctors and admins see every patient; patients only themselves.
func (a actor) canViewPatient(patientID uuid.UUID) bool {
	return a.IsAdmin() || a.IsDoctor() || a.ID == patientID
}
