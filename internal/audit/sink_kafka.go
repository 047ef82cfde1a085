package audit

import (
	"context"
	"encoding/json"
	"fmt"
)

// RecordProducer is the slice of the Kafka producer the sink needs.
type RecordProducer interface {
	Produce(ctx context.Context, topic string, key, value []byte)
}

// KafkaSink serializes events as JSON keyed by website ID so all events for
// one website land in the same partition, preserving their order.
type KafkaSink struct {
	producer RecordProducer
	topic    string
}

func NewKafkaSink(producer RecordProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	s.producer.Produce(ctx, s.topic, []byte(event.WebsiteID.String()), value)
	return nil
}
