package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go-medical-appointment/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrSlotTaken is returned when another appointment holds the doctor's start slot.
var ErrSlotTaken = errors.New("appointment slot is already taken")

// releaseSlotScript deletes the lock only when it still belongs to the caller,
// so a late cancel never frees a slot rebooked by someone else.
var releaseSlotScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const (
	RedisSlotKeyPrefix = "appointment:slot:"

	// Batch size for startup sync
	syncBatchSize = 500

	// Locks outlive the appointment end by this margin
	slotLockGrace = time.Minute
)

// SlotLocker reserves a doctor's start slot for one appointment.
type SlotLocker interface {
	Acquire(ctx context.Context, doctorID uuid.UUID, start time.Time, appointmentID uuid.UUID, ttl time.Duration) error
	Release(ctx context.Context, doctorID uuid.UUID, start time.Time, appointmentID uuid.UUID) error
}

// SlotLockService guards appointment creation across API instances with
// Redis SET NX locks keyed by doctor and start time.
type SlotLockService struct {
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger

	syncing atomic.Bool
}

func NewSlotLockService(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *SlotLockService {
	return &SlotLockService{
		db:          db,
		redisClient: redisClient,
		log:         log,
	}
}

func SlotKey(doctorID uuid.UUID, start time.Time) string {
	return fmt.Sprintf("%s%s:%d", RedisSlotKeyPrefix, doctorID, start.UTC().Unix())
}

// LockTTL keeps a slot reserved until shortly after the appointment ends.
func LockTTL(end time.Time) time.Duration {
	ttl := time.Until(end) + slotLockGrace
	if ttl < slotLockGrace {
		return slotLockGrace
	}
	return ttl
}

// Acquire stores the appointment ID under the slot key if the key is free.
func (s *SlotLockService) Acquire(ctx context.Context, doctorID uuid.UUID, start time.Time, appointmentID uuid.UUID, ttl time.Duration) error {
	key := SlotKey(doctorID, start)

	ok, err := s.redisClient.SetNX(ctx, key, appointmentID.String(), ttl).Result()
	if err != nil {
		s.log.Warnf("Failed to acquire slot lock %s: %+v", key, err)
		return fmt.Errorf("acquire slot lock %s: %w", key, err)
	}
	if !ok {
		return ErrSlotTaken
	}

	s.log.Debugf("Acquired slot lock %s for appointment %s", key, appointmentID)
	return nil
}

// Release frees the slot if appointmentID still owns it.
func (s *SlotLockService) Release(ctx context.Context, doctorID uuid.UUID, start time.Time, appointmentID uuid.UUID) error {
	key := SlotKey(doctorID, start)

	deleted, err := releaseSlotScript.Run(ctx, s.redisClient, []string{key}, appointmentID.String()).Int()
	if err != nil {
		s.log.Warnf("Failed Lua script releaseSlot %s: %+v", key, err)
		return fmt.Errorf("release slot lock %s: %w", key, err)
	}

	if deleted == 0 {
		s.log.Debugf("Slot lock %s not held by appointment %s", key, appointmentID)
	}
	return nil
}

// SyncOnStartup rebuilds slot locks for upcoming active appointments, so a
// Redis restart does not reopen booked slots. Should run before accepting traffic.
func (s *SlotLockService) SyncOnStartup(ctx context.Context) error {
	if !s.syncing.CompareAndSwap(false, true) {
		return nil
	}
	defer s.syncing.Store(false)

	s.log.Info("Starting slot lock re-sync from database...")
	startTime := time.Now()

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		s.log.Warnf("Redis is not available, skipping sync: %+v", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}

	now := time.Now().UTC()
	offset := 0
	totalSynced := 0

	for {
		var appointments []entity.Appointment
		err := s.db.WithContext(ctx).
			Select("id", "doctor_id", "start_time", "end_time").
			Where("status IN ? AND end_time > ?", entity.ActiveAppointmentStatuses, now).
			Order("id").
			Limit(syncBatchSize).
			Offset(offset).
			Find(&appointments).Error
		if err != nil {
			s.log.Errorf("Failed to query appointments at offset %d: %+v", offset, err)
			return fmt.Errorf("query appointments at offset %d: %w", offset, err)
		}

		if len(appointments) == 0 {
			break
		}

		// One pipeline per batch keeps memory bounded.
		pipe := s.redisClient.Pipeline()
		for _, a := range appointments {
			pipe.SetNX(ctx, SlotKey(a.DoctorID, a.StartTime), a.ID.String(), LockTTL(a.EndTime))
		}
		if _, err := pipe.Exec(ctx); err != nil {
			s.log.Errorf("Failed to execute pipeline for batch at offset %d: %+v", offset, err)
			return fmt.Errorf("pipeline exec at offset %d: %w", offset, err)
		}

		totalSynced += len(appointments)
		if len(appointments) < syncBatchSize {
			break
		}
		offset += syncBatchSize

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	s.log.Infof("Slot lock re-sync completed: %d appointments synced in %v", totalSynced, time.Since(startTime))
	return nil
}
