package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/workpulse/work-pulse/pkg/config"
)

// ProducerConfig holds Kafka producer settings
type ProducerConfig struct {
	Brokers        []string
	ClientID       string
	Topic          string
	ProduceTimeout time.Duration
}

// FromAppConfig maps application kafka settings onto a producer config
func FromAppConfig(c config.KafkaConfig) *ProducerConfig {
	return &ProducerConfig{
		Brokers:        c.Brokers,
		ClientID:       c.ClientID,
		Topic:          c.Topic,
		ProduceTimeout: 10 * time.Second,
	}
}

// Validate checks required fields
func (c *ProducerConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka brokers are required")
	}
	if c.Topic == "" {
		return errors.New("kafka topic is required")
	}
	return nil
}

// Message is a keyed record with optional headers
type Message struct {
	Key     string
	Value   any
	Headers map[string]string
}

// Producer publishes JSON records to a single default topic
type Producer struct {
	client  *kgo.Client
	topic   string
	timeout time.Duration
}

// NewProducer creates a franz-go client and verifies broker connectivity
func NewProducer(ctx context.Context, cfg *ProducerConfig) (*Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
		kgo.RecordRetries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach kafka brokers: %w", err)
	}

	timeout := cfg.ProduceTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Producer{client: client, topic: cfg.Topic, timeout: timeout}, nil
}

// NewRecord encodes msg into a record for topic
func NewRecord(topic string, msg Message) (*kgo.Record, error) {
	value, err := json.Marshal(msg.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode kafka message: %w", err)
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(msg.Key),
		Value: value,
	}
	for k, v := range msg.Headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	return record, nil
}

// Publish produces msg synchronously to the default topic
func (p *Producer) Publish(ctx context.Context, msg Message) error {
	record, err := NewRecord(p.topic, msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", p.topic, err)
	}
	return nil
}

// Ping checks broker connectivity
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and closes the client
func (p *Producer) Close(ctx context.Context) {
	_ = p.client.Flush(ctx)
	p.client.Close()
}
