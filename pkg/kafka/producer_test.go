package kafka

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workpulse/work-pulse/pkg/config"
)

func TestProducerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProducerConfig
		wantErr bool
	}{
		{"valid", ProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "calendar.events"}, false},
		{"no brokers", ProducerConfig{Topic: "calendar.events"}, true},
		{"no topic", ProducerConfig{Brokers: []string{"localhost:9092"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.KafkaConfig{
		Brokers:  []string{"a:9092", "b:9092"},
		ClientID: "work-pulse",
		Topic:    "calendar.events",
	})

	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
	assert.Equal(t, "calendar.events", cfg.Topic)
	assert.Equal(t, 10*time.Second, cfg.ProduceTimeout)
}

func TestNewRecord(t *testing.T) {
	record, err := NewRecord("calendar.events", Message{
		Key:     "tenant-1",
		Value:   map[string]any{"type": "event.created", "version": 3},
		Headers: map[string]string{"content-type": "application/json"},
	})
	require.NoError(t, err)

	assert.Equal(t, "calendar.events", record.Topic)
	assert.Equal(t, "tenant-1", string(record.Key))
	require.Len(t, record.Headers, 1)
	assert.Equal(t, "content-type", record.Headers[0].Key)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	assert.Equal(t, "event.created", decoded["type"])
	assert.Equal(t, float64(3), decoded["version"])
}

func TestNewRecord_Unencodable(t *testing.T) {
	_, err := NewRecord("calendar.events", Message{Key: "k", Value: make(chan int)})
	assert.Error(t, err)
}

func TestNewProducer_InvalidConfig(t *testing.T) {
	_, err := NewProducer(context.Background(), &ProducerConfig{})
	assert.Error(t, err)
}

func TestProducer_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	brokers := "localhost:9092"
	if b := os.Getenv("TEST_KAFKA_BROKERS"); b != "" {
		brokers = b
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	producer, err := NewProducer(ctx, &ProducerConfig{
		Brokers:  strings.Split(brokers, ","),
		ClientID: "work-pulse-test",
		Topic:    "calendar.events.test",
	})
	require.NoError(t, err)
	defer producer.Close(ctx)

	err = producer.Publish(ctx, Message{Key: "tenant-it", Value: map[string]string{"type": "event.created"}})
	assert.NoError(t, err)
}
