package service

import (
	"context"
	"fmt"
	"time"

	"go-medical-appointment/config"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/domain/repository"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	reminderBatchSize = 100
	jobTimeout        = time.Minute
)

// AppointmentScheduler runs the periodic appointment jobs: the completion
// sweep and reminder dispatch.
type AppointmentScheduler struct {
	cron            *cron.Cron
	db              *gorm.DB
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	publisher       EventPublisher
	reminderLead    time.Duration
	now             func() time.Time
}

func NewAppointmentScheduler(
	cfg config.SchedulerConfig,
	db *gorm.DB,
	log *logrus.Logger,
	appointmentRepo repository.AppointmentRepository,
	publisher EventPublisher,
) (*AppointmentScheduler, error) {
	cronLogger := cron.PrintfLogger(log)
	s := &AppointmentScheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		db:              db,
		log:             log,
		appointmentRepo: appointmentRepo,
		publisher:       publisher,
		reminderLead:    cfg.ReminderLead,
		now:             time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.CompletionSpec, s.runCompletionSweep); err != nil {
		return nil, fmt.Errorf("invalid completion schedule %q: %w", cfg.CompletionSpec, err)
	}
	if _, err := s.cron.AddFunc(cfg.ReminderSpec, s.runReminders); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", cfg.ReminderSpec, err)
	}

	return s, nil
}

func (s *AppointmentScheduler) Start() {
	s.cron.Start()
	s.log.Infof("Appointment scheduler started with %d jobs", len(s.cron.Entries()))
}

// Stop halts the scheduler and waits for running jobs or ctx expiry.
func (s *AppointmentScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Appointment scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("Appointment scheduler stop timed out")
	}
}

// CompleteEndedAppointments marks active appointments whose end time passed.
func (s *AppointmentScheduler) CompleteEndedAppointments(ctx context.Context) (int64, error) {
	affected, err := s.appointmentRepo.CompleteEnded(s.db.WithContext(ctx), s.now().UTC())
	if err != nil {
		s.log.Warnf("Failed to complete ended appointments: %+v", err)
		return 0, err
	}
	if affected > 0 {
		s.log.Infof("Completed %d ended appointments", affected)
	}
	return affected, nil
}

// SendReminders publishes one reminder per appointment starting within the
// lead time. The row is stamped before publishing so concurrent instances
// never send the same reminder twice.
func (s *AppointmentScheduler) SendReminders(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.appointmentRepo.FindDueForReminder(s.db.WithContext(ctx), now, now.Add(s.reminderLead), reminderBatchSize)
	if err != nil {
		s.log.Warnf("Failed to find appointments due for reminder: %+v", err)
		return 0, err
	}

	sent := 0
	for _, appointment := range due {
		claimed, err := s.appointmentRepo.MarkReminderSent(s.db.WithContext(ctx), appointment.ID, now)
		if err != nil {
			s.log.Warnf("Failed to mark reminder for appointment %s: %+v", appointment.ID, err)
			continue
		}
		if claimed == 0 {
			continue
		}

		PublishAfterCommit(ctx, s.log, s.publisher, entity.NewDomainEvent(
			entity.EventAppointmentReminder,
			appointment.ID.String(),
			map[string]interface{}{
				"patient_id":    appointment.PatientID.String(),
				"doctor_id":     appointment.DoctorID.String(),
				"patient_email": appointment.Patient.User.Email,
				"start_time":    appointment.StartTime.UTC().Format(time.RFC3339),
			},
		))
		sent++
	}

	if sent > 0 {
		s.log.Infof("Sent %d appointment reminders", sent)
	}
	return sent, nil
}

func (s *AppointmentScheduler) runCompletionSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	_, _ = s.CompleteEndedAppointments(ctx)
}

func (s *AppointmentScheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	_, _ = s.SendReminders(ctx)
}
