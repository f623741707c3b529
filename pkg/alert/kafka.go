package alert

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter defines the interface for a Kafka message writer.
// This allows for easy mocking in unit tests.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes alerts as JSON messages to a Kafka topic, keyed
// by location name so per-location ordering is preserved.
type KafkaNotifier struct {
	writer KafkaWriter
}

// NewKafkaNotifier creates a notifier publishing to the given broker and
// topic.
func NewKafkaNotifier(broker, topic string) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		// The monitor runs unattended; a broker hiccup should not wedge a
		// check cycle behind long retries.
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaNotifier{writer: writer}
}

// Notify publishes a single alert.
func (n *KafkaNotifier) Notify(ctx context.Context, a Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(a.Location),
		Value: data,
	}); err != nil {
		return err
	}
	log.Printf("Published alert for %q: %d minute delay", a.Location, a.DelayMinutes)
	return nil
}

// Close releases the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
