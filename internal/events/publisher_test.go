package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publishedMessage struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type channelStub struct {
	declared   []string
	kinds      []string
	durable    bool
	published  []publishedMessage
	declareErr error
	publishErr error
	closed     bool
}

func (c *channelStub) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if c.declareErr != nil {
		return c.declareErr
	}
	c.declared = append(c.declared, name)
	c.kinds = append(c.kinds, kind)
	c.durable = durable
	return nil
}

func (c *channelStub) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.published = append(c.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *channelStub) Close() error {
	c.closed = true
	return nil
}

func TestPublisher(t *testing.T) {
	now := time.Date(2024, time.March, 11, 8, 30, 0, 0, time.UTC)
	opts := Options{Now: func() time.Time { return now }, NewID: func() string { return "evt-1" }}

	t.Run("declares a durable topic exchange", func(t *testing.T) {
		ch := &channelStub{}
		if _, err := NewPublisher(ch, "reservas.events", opts); err != nil {
			t.Fatalf("NewPublisher returned error: %v", err)
		}
		if len(ch.declared) != 1 || ch.declared[0] != "reservas.events" || ch.kinds[0] != "topic" || !ch.durable {
			t.Fatalf("unexpected declaration %+v", ch)
		}
	})

	t.Run("publishes an envelope routed by event type", func(t *testing.T) {
		ch := &channelStub{}
		p, err := NewPublisher(ch, "reservas.events", opts)
		if err != nil {
			t.Fatalf("NewPublisher returned error: %v", err)
		}
		if err := p.Publish(context.Background(), "reservation.created", map[string]string{"room_id": "room-1"}); err != nil {
			t.Fatalf("Publish returned error: %v", err)
		}
		if len(ch.published) != 1 {
			t.Fatalf("expected one message, got %d", len(ch.published))
		}
		got := ch.published[0]
		if got.exchange != "reservas.events" || got.key != "reservation.created" {
			t.Fatalf("unexpected routing %+v", got)
		}
		if got.msg.DeliveryMode != amqp.Persistent || got.msg.MessageId != "evt-1" || got.msg.ContentType != "application/json" {
			t.Fatalf("unexpected publishing %+v", got.msg)
		}
		var envelope struct {
			ID         string            `json:"id"`
			Type       string            `json:"type"`
			OccurredAt time.Time         `json:"occurred_at"`
			Payload    map[string]string `json:"payload"`
		}
		if err := json.Unmarshal(got.msg.Body, &envelope); err != nil {
			t.Fatalf("body is not JSON: %v", err)
		}
		if envelope.ID != "evt-1" || envelope.Type != "reservation.created" || !envelope.OccurredAt.Equal(now) || envelope.Payload["room_id"] != "room-1" {
			t.Fatalf("unexpected envelope %+v", envelope)
		}
	})

	t.Run("wraps broker errors", func(t *testing.T) {
		boom := errors.New("channel closed")
		ch := &channelStub{}
		p, err := NewPublisher(ch, "x", opts)
		if err != nil {
			t.Fatalf("NewPublisher returned error: %v", err)
		}
		ch.publishErr = boom
		if err := p.Publish(context.Background(), "reservation.cancelled", nil); !errors.Is(err, boom) {
			t.Fatalf("expected wrapped broker error, got %v", err)
		}
		if _, err := NewPublisher(&channelStub{declareErr: boom}, "x", opts); !errors.Is(err, boom) {
			t.Fatalf("expected declare error, got %v", err)
		}
	})

	t.Run("close releases the channel", func(t *testing.T) {
		ch := &channelStub{}
		p, err := NewPublisher(ch, "x", opts)
		if err != nil {
			t.Fatalf("NewPublisher returned error: %v", err)
		}
		if err := p.Close(); err != nil || !ch.closed {
			t.Fatalf("expected channel to be closed, err=%v", err)
		}
	})
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := LogPublisher{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	if err := p.Publish(context.Background(), "reservation.checked_in", map[string]string{"id": "r1"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "reservation.checked_in") {
		t.Fatalf("expected event type in log output, got %q", buf.String())
	}
}
