package repository

import (
	"context"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	pkgkafka "TradeGate/pkg/kafka"
)

// KafkaDecisionPublisher exports admission outcomes to Kafka, keyed by
// symbol so the history topic stays ordered per market.
type KafkaDecisionPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaDecisionPublisher creates a Kafka-backed decision publisher.
func NewKafkaDecisionPublisher(producer *pkgkafka.Producer, topic string) repository.DecisionPublisher {
	return &KafkaDecisionPublisher{producer: producer, topic: topic}
}

func (p *KafkaDecisionPublisher) PublishDecision(ctx context.Context, ev *models.DecisionEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaDecisionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopDecisionPublisher discards decision events. Used when the Kafka
// export is disabled in config.
type NopDecisionPublisher struct{}

func (NopDecisionPublisher) PublishDecision(context.Context, *models.DecisionEvent) error {
	return nil
}

func (NopDecisionPublisher) Close() error { return nil }
