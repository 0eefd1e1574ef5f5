// Package messaging publishes domain events to the message broker.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-medical-appointment/config"
	"go-medical-appointment/internal/domain/entity"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 10 * time.Second

// KafkaPublisher writes events keyed by aggregate ID so events of the same
// appointment land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *logrus.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		log: log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event entity.DomainEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Type, err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write event %s: %w", event.Type, err)
	}

	p.log.Debugf("Published %s for %s", event.Type, event.AggregateID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	log *logrus.Logger
}

func NewLogPublisher(log *logrus.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, event entity.DomainEvent) error {
	p.log.WithFields(logrus.Fields{
		"event_type":   event.Type,
		"aggregate_id": event.AggregateID,
	}).Info("Domain event")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
