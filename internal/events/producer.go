package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// SearchCompleted is published after every search cycle so downstream
// consumers (notifications, analytics) can react to fresh results.
type SearchCompleted struct {
	PreferenceID  string    `json:"preference_id"`
	DepartureCity string    `json:"departure_city"`
	RoutesFound   int       `json:"routes_found"`
	FlightsSaved  int       `json:"flights_saved"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Producer publishes search events to a Kafka topic.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer constructs a Producer for the given brokers and topic.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish writes a SearchCompleted event keyed by preference id.
func (p *Producer) Publish(ctx context.Context, event SearchCompleted) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling search event for preference %s: %w", event.PreferenceID, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.PreferenceID),
		Value: value,
		Time:  event.CompletedAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing search event for preference %s: %w", event.PreferenceID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
