package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"go-medical-appointment/internal/domain/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
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

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event entity.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Events() []entity.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.DomainEvent(nil), p.events...)
}
