package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicCart  = "cart_events"
	TopicUser  = "user_events"
	TopicOrder = "order_events"
)

const (
	CartItemAdded   = "cart.item_added"
	CartItemUpdated = "cart.item_updated"
	CartItemRemoved = "cart.item_removed"
	CartCleared     = "cart.cleared"
	UserLoggedIn    = "user.logged_in"
	UserLoggedOut   = "user.logged_out"
	UserRegistered  = "user.registered"
	SessionExpired  = "user.session_expired"
	OrderPlaced     = "order.placed"
)

type Event struct {
	Type      string         `json:"type"`
	VisitorID string         `json:"visitor_id"`
	UserEmail string         `json:"user_email,omitempty"`
	At        time.Time      `json:"at"`
	Data      map[string]any `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, ev Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w   messageWriter
	now func() time.Time
}

// NewKafkaPublisher writes asynchronously; delivery failures are logged by
// the writer's completion hook and never reach the request path.
func NewKafkaPublisher(brokers []string, log *slog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		Async:                  true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Error("kafka_delivery_error", "messages", len(msgs), "error", err)
			}
		},
	}
	return &KafkaPublisher{w: w, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, ev Event) error {
	if ev.At.IsZero() {
		ev.At = p.now().UTC()
	}
	msg, err := message(topic, key, ev)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func message(topic, key string, ev Event) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: marshal %s: %w", ev.Type, err)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}, nil
}

type Noop struct{}

func (Noop) Publish(context.Context, string, string, Event) error { return nil }
func (Noop) Close() error                                         { return nil }
