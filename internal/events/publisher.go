package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventPublisher is the outbound side of the event pipeline. Implementations
// must be safe for concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}

// metadata key carrying the event type on the wire
const eventTypeMetadataKey = "event_type"

type watermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

// NewEventPublisher wraps any watermill publisher (gochannel in-process,
// Kafka in production) behind the EventPublisher interface.
func NewEventPublisher(publisher message.Publisher, logger *slog.Logger) EventPublisher {
	return &watermillPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *watermillPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set(eventTypeMetadataKey, event.Type)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s to %s: %w", event.Type, topic, err)
	}

	p.logger.Debug("event published",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", topic)

	return nil
}

func (p *watermillPublisher) Close() error {
	return p.publisher.Close()
}

// NewGoChannelPubSub creates the in-process transport. The returned value is
// both a message.Publisher and a message.Subscriber.
func NewGoChannelPubSub(logger *slog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)
}

// NewKafkaPublisher creates the production publisher.
func NewKafkaPublisher(brokers []string, logger *slog.Logger) (message.Publisher, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return publisher, nil
}

// UnmarshalEvent decodes an envelope from a watermill message payload.
func UnmarshalEvent(msg *message.Message) (*Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

// DecodeEventData re-marshals the envelope's Data into a typed struct. The
// envelope is decoded as map[string]interface{} first, so a round trip is the
// simplest safe conversion.
func DecodeEventData(event *Event, dest interface{}) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to re-marshal event data: %w", err)
	}
	return json.Unmarshal(raw, dest)
}
