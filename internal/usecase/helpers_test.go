package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"go-medical-appointment/internal/delivery/http/middleware"
	"go-medical-appointment/internal/domain/entity"
	"go-medical-appointment/internal/repository"
	"go-medical-appointment/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func newTestAuditService(log *logrus.Logger) service.AuditService {
	return service.NewAuditService(log, repository.NewAuditLogRepository())
}

// asUser returns a context carrying the identity the auth middleware would set.
func asUser(userID uuid.UUID, roleID int) context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, userID)
	return context.WithValue(ctx, middleware.RoleIDKey, roleID)
}

type mockSlotLocker struct {
	mock.Mock
}

func (m *mockSlotLocker) Acquire(ctx context.Context, doctorID uuid.UUID, start time.Time, appointmentID uuid.UUID, ttl time.Duration) error {
	return m.Called(doctorID, start, appointmentID).Error(0)
}

func (m *mockSlotLocker) Release(ctx context.Context, doctorID uuid.UUID, start time.Time, appointmentID uuid.UUID) error {
	return m.Called(doctorID, start, appointmentID).Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event entity.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}
