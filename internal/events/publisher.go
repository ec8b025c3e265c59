// Package events delivers reservation events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/room-reservations/internal/logging"
)

// Channel is the subset of *amqp.Channel used by Publisher.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Envelope wraps every published payload.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher publishes JSON envelopes routed by event type.
type Publisher struct {
	mu       sync.Mutex
	channel  Channel
	conn     io.Closer
	exchange string
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

// Options configures NewPublisher.
type Options struct {
	Now    func() time.Time
	NewID  func() string
	Logger *slog.Logger
}

// NewPublisher declares exchange as a durable topic exchange on channel.
func NewPublisher(channel Channel, exchange string, opts Options) (*Publisher, error) {
	if err := channel.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Publisher{
		channel:  channel,
		exchange: exchange,
		now:      opts.Now,
		newID:    opts.NewID,
		logger:   opts.Logger,
	}, nil
}

// Dial connects to the broker at url and returns a publisher on a fresh channel.
func Dial(url, exchange string, opts Options) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewPublisher(ch, exchange, opts)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// Publish implements application.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) error {
	envelope := Envelope{
		ID:         p.newID(),
		Type:       eventType,
		OccurredAt: p.now().UTC(),
		Payload:    payload,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, eventType, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    envelope.ID,
		Timestamp:    envelope.OccurredAt,
		Type:         eventType,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	loggerFor(ctx, p.logger).DebugContext(ctx, "event published", "event_type", eventType, "event_id", envelope.ID)
	return nil
}

// Close releases the channel and, when dialed, the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct {
	Logger *slog.Logger
}

// Publish implements application.EventPublisher.
func (p LogPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	loggerFor(ctx, p.Logger).InfoContext(ctx, "event", "event_type", eventType, "payload", payload)
	return nil
}

// Close is a no-op.
func (LogPublisher) Close() error { return nil }

func loggerFor(ctx context.Context, base *slog.Logger) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	if base != nil {
		return base
	}
	return slog.Default()
}
