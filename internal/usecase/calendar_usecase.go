package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"go-medical-appointment/internal/calendar"
	"go-medical-appointment/internal/converter"
	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidCalendarDate = errors.New("start and end must be RFC3339 timestamps or YYYY-MM-DD dates")
	ErrInvalidCalendarView = errors.New("unknown calendar view")
	ErrInvalidTimeBounds   = errors.New("min_time must be before max_time")
	ErrInvalidDoctorID     = errors.New("invalid doctor ID")
)

const defaultMaxRangeDays = 62

// CalendarSettings bounds calendar queries and availability expansion.
type CalendarSettings struct {
	Location     *time.Location
	MaxRangeDays int
}

func (s CalendarSettings) withDefaults() CalendarSettings {
	if s.Location == nil {
		s.Location = time.UTC
	}
	if s.MaxRangeDays <= 0 {
		s.MaxRangeDays = defaultMaxRangeDays
	}
	return s
}

func (s CalendarSettings) checkRange(from, to time.Time) error {
	if !to.After(from) {
		return ErrInvalidRange
	}
	if to.Sub(from) > time.Duration(s.MaxRangeDays)*24*time.Hour {
		return ErrRangeTooLarge
	}
	return nil
}

// ParseCalendarTime accepts the widget's ISO timestamps and plain dates,
// the latter at midnight in loc.
func ParseCalendarTime(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidCalendarDate
}

type CalendarUsecase interface {
	GetEvents(ctx context.Context, query *dto.CalendarEventsQuery) (*dto.CalendarEventsResponse, error)
	GetEvent(ctx context.Context, appointmentID uuid.UUID) (*dto.CalendarEvent, error)
	ExportICS(ctx context.Context, start, end string) (string, error)
}

type calendarUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	appointmentRepo  repository.AppointmentRepository
	availabilityRepo repository.DoctorAvailabilityRepository
	settings         CalendarSettings
	now              func() time.Time
}

func NewCalendarUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	availabilityRepo repository.DoctorAvailabilityRepository,
	settings CalendarSettings,
) CalendarUsecase {
	return &calendarUsecase{
		db:               db,
		log:              log,
		appointmentRepo:  appointmentRepo,
		availabilityRepo: availabilityRepo,
		settings:         settings.withDefaults(),
		now:              time.Now,
	}
}

// GetEvents answers the widget's dates-set callback: every non-cancelled
// appointment visible to the caller in [start, end), optionally with the
// doctors' availability as background events.
func (u *calendarUsecase) GetEvents(ctx context.Context, query *dto.CalendarEventsQuery) (*dto.CalendarEventsResponse, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	q, err := u.parseQuery(query)
	if err != nil {
		return nil, err
	}

	filter := &entity.AppointmentFilter{
		From:             &q.Start,
		To:               &q.End,
		ExcludeCancelled: true,
	}
	availabilityDoctor := q.DoctorID
	switch {
	case caller.IsPatient():
		filter.PatientID = &caller.ID
	case caller.IsDoctor():
		filter.DoctorID = &caller.ID
		availabilityDoctor = &caller.ID
	default:
		filter.DoctorID = q.DoctorID
	}

	appointments, err := u.appointmentRepo.FindInRange(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to load calendar appointments: %+v", err)
		return nil, err
	}

	bounded := q.View.TimeGrid() && (q.MinTime != nil || q.MaxTime != nil)

	events := make([]dto.CalendarEvent, 0, len(appointments))
	for i := range appointments {
		a := &appointments[i]
		if bounded && !calendar.WithinDailyWindow(a.StartTime, a.EndTime, q.MinTime, q.MaxTime, q.Location) {
			continue
		}
		events = append(events, converter.AppointmentToCalendarEvent(a))
	}

	// A patient only sees availability of the doctor they are looking at.
	if q.IncludeAvailability && (availabilityDoctor != nil || caller.IsAdmin()) {
		windows, err := u.availabilityWindows(ctx, availabilityDoctor, q)
		if err != nil {
			return nil, err
		}
		for _, w := range windows {
			if bounded && !calendar.WithinDailyWindow(w.Start, w.End, q.MinTime, q.MaxTime, q.Location) {
				continue
			}
			events = append(events, converter.AvailabilityWindowToCalendarEvent(w))
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	response := &dto.CalendarEventsResponse{
		Start:  q.Start,
		End:    q.End,
		View:   string(q.View),
		Events: events,
	}
	if q.MinTime != nil {
		response.MinTime = calendar.FormatClockTime(*q.MinTime)
	}
	if q.MaxTime != nil {
		response.MaxTime = calendar.FormatClockTime(*q.MaxTime)
	}
	return response, nil
}

// GetEvent answers the widget's event-click callback.
func (u *calendarUsecase) GetEvent(ctx context.Context, appointmentID uuid.UUID) (*dto.CalendarEvent, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return nil, err
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !caller.canView(appointment) {
		return nil, ErrForbidden
	}

	event := converter.AppointmentToCalendarEvent(appointment)
	return &event, nil
}

// ExportICS renders the caller's appointments in [start, end) as an iCalendar
// document. Cancelled appointments are kept with STATUS:CANCELLED so
// subscribed clients drop them.
func (u *calendarUsecase) ExportICS(ctx context.Context, start, end string) (string, error) {
	caller, err := currentActor(ctx)
	if err != nil {
		return "", err
	}

	from, err := ParseCalendarTime(start, u.settings.Location)
	if err != nil {
		return "", err
	}
	to, err := ParseCalendarTime(end, u.settings.Location)
	if err != nil {
		return "", err
	}
	if err := u.settings.checkRange(from, to); err != nil {
		return "", err
	}

	filter := &entity.AppointmentFilter{From: &from, To: &to}
	switch {
	case caller.IsPatient():
		filter.PatientID = &caller.ID
	case caller.IsDoctor():
		filter.DoctorID = &caller.ID
	}

	appointments, err := u.appointmentRepo.FindInRange(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to load appointments for export: %+v", err)
		return "", err
	}

	return calendar.ExportICS(appointments, u.now().UTC()), nil
}

func (u *calendarUsecase) availabilityWindows(ctx context.Context, doctorID *uuid.UUID, q *entity.CalendarQuery) ([]entity.AvailabilityWindow, error) {
	rules, err := u.availabilityRepo.FindActiveInRange(u.db.WithContext(ctx), doctorID, q.Start, q.End)
	if err != nil {
		u.log.Warnf("Failed to load availability rules: %+v", err)
		return nil, err
	}

	windows, err := calendar.ExpandAvailability(rules, calendar.ExpandConfig{
		RangeStart: q.Start,
		RangeEnd:   q.End,
		Location:   q.Location,
	})
	if err != nil {
		u.log.Warnf("Failed to expand availability rules: %+v", err)
		return nil, err
	}
	return windows, nil
}

func (u *calendarUsecase) parseQuery(query *dto.CalendarEventsQuery) (*entity.CalendarQuery, error) {
	q := &entity.CalendarQuery{
		View:                entity.DefaultCalendarView,
		IncludeAvailability: query.IncludeAvailability,
		Location:            u.settings.Location,
	}

	var err error
	if q.Start, err = ParseCalendarTime(query.Start, q.Location); err != nil {
		return nil, err
	}
	if q.End, err = ParseCalendarTime(query.End, q.Location); err != nil {
		return nil, err
	}
	if err := u.settings.checkRange(q.Start, q.End); err != nil {
		return nil, err
	}

	if query.View != "" {
		q.View = entity.CalendarView(query.View)
		if !q.View.Valid() {
			return nil, ErrInvalidCalendarView
		}
	}

	if query.MinTime != "" {
		min, err := calendar.ParseClockTime(query.MinTime)
		if err != nil {
			return nil, err
		}
		q.MinTime = &min
	}
	if query.MaxTime != "" {
		max, err := calendar.ParseClockTime(query.MaxTime)
		if err != nil {
			return nil, err
		}
		q.MaxTime = &max
	}
	if q.MinTime != nil && q.MaxTime != nil && *q.MinTime >= *q.MaxTime {
		return nil, ErrInvalidTimeBounds
	}

	if query.DoctorID != "" {
		id, err := uuid.Parse(query.DoctorID)
		if err != nil {
			return nil, ErrInvalidDoctorID
		}
		q.DoctorID = &id
	}

	return q, nil
}
