// Package events publishes calendar change notifications.
package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/workpulse/work-pulse/internal/domain"
	"github.com/workpulse/work-pulse/pkg/kafka"
	"github.com/workpulse/work-pulse/pkg/logger"
)

// Publisher announces event writes to other services
type Publisher interface {
	Publish(ctx context.Context, change domain.EventChange) error
}

// messageProducer is the subset of kafka.Producer used here
type messageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher writes changes to the calendar topic keyed by tenant, so a tenant's
// changes stay ordered within one partition
type KafkaPublisher struct {
	producer messageProducer
	source   string
}

// NewKafkaPublisher creates a KafkaPublisher; source is sent as the "source" header
func NewKafkaPublisher(producer messageProducer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

// Publish sends change
func (p *KafkaPublisher) Publish(ctx context.Context, change domain.EventChange) error {
	return p.producer.Publish(ctx, kafka.Message{
		Key:   change.TenantID,
		Value: change,
		Headers: map[string]string{
			"event_type": string(change.Type),
			"source":     p.source,
		},
	})
}

// NoopPublisher drops every change; used when Kafka is disabled
type NoopPublisher struct {
	log *logger.Logger
}

// NewNoopPublisher creates a NoopPublisher
func NewNoopPublisher(log *logger.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

// Publish logs change at debug level
func (p *NoopPublisher) Publish(ctx context.Context, change domain.EventChange) error {
	p.log.Debug("change publication disabled",
		zap.String("type", string(change.Type)),
		zap.String("tenant_id", change.TenantID),
		zap.String("event_id", change.EventID),
	)
	return nil
}

