package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"
)

// Publisher emits domain events. Implementations must tolerate concurrent
// callers.
type Publisher interface {
	PublishInterventionDetected(ctx context.Context, event InterventionDetectedEvent) error
	PublishSavingsConfirmed(ctx context.Context, event SavingsConfirmedEvent) error
	Close() error
}

// KafkaPublisher writes events to Kafka through a synchronous producer.
// Messages are keyed by user ID so per-user ordering is preserved.
type KafkaPublisher struct {
	producer          sarama.SyncProducer
	interventionTopic string
	savingsTopic      string
}

// NewKafkaPublisher connects a sync producer to the given brokers.
func NewKafkaPublisher(brokers []string, interventionTopic, savingsTopic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}

	return &KafkaPublisher{
		producer:          producer,
		interventionTopic: interventionTopic,
		savingsTopic:      savingsTopic,
	}, nil
}

func (p *KafkaPublisher) PublishInterventionDetected(ctx context.Context, event InterventionDetectedEvent) error {
	return p.send(ctx, p.interventionTopic, event.Data.UserID, event.EventType, event)
}

func (p *KafkaPublisher) PublishSavingsConfirmed(ctx context.Context, event SavingsConfirmedEvent) error {
	return p.send(ctx, p.savingsTopic, event.Data.UserID, event.EventType, event)
}

// Close flushes and shuts down the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

func (p *KafkaPublisher) send(ctx context.Context, topic, key, eventType string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	log.Debug().
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("event published")
	return nil
}

// NopPublisher drops every event. Used when Kafka is not configured.
type NopPublisher struct{}

// NewNopPublisher returns a publisher that discards events.
func NewNopPublisher() NopPublisher { return NopPublisher{} }

func (NopPublisher) PublishInterventionDetected(context.Context, InterventionDetectedEvent) error {
	return nil
}

func (NopPublisher) PublishSavingsConfirmed(context.Context, SavingsConfirmedEvent) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
