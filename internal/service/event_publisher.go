package service

import (
	"context"

	"go-medical-appointment/internal/domain/entity"

	"github.com/sirupsen/logrus"
)

// EventPublisher delivers domain events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.DomainEvent) error
}

// PublishAfterCommit sends the event and only logs on failure; the state
// change it describes is already durable.
func PublishAfterCommit(ctx context.Context, log *logrus.Logger, publisher EventPublisher, event entity.DomainEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warnf("Failed to publish %s for %s: %+v", event.Type, event.AggregateID, err)
	}
}
