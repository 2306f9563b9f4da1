package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	uuid "github.com/gofrs/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/qolzam/telar/apps/comments/internal/broker"
	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
)

// AMQPPublisher publishes events as persistent JSON messages on a topic exchange
type AMQPPublisher struct {
	conn     *broker.Connection
	exchange string

	mu sync.Mutex
	ch *amqp.Channel
}

// NewAMQPPublisher declares the exchange and opens the publishing channel
func NewAMQPPublisher(conn *broker.Connection, exchange string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{conn: conn, exchange: exchange}
	if _, err := p.channel(); err != nil {
		return nil, err
	}
	return p, nil
}

// channel must be called with p.mu held, or before p is shared
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := broker.DeclareTopicExchange(ch, p.exchange); err != nil {
		ch.Close()
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

// Publish sends event with routingKey. Marshalling failures are permanent.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to marshal event: %w", err))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.Must(uuid.NewV4()).String(),
		CorrelationId: event.RequestID,
		Timestamp:     time.Now().UTC(),
		Type:          event.EventType,
		Body:          body,
	})
}

// Close closes the publishing channel. The connection is owned by the caller.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		return nil
	}
	return p.ch.Close()
}

// LogPublisher writes events to the debug log. It is used when the broker is disabled.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, routingKey string, event Event) error {
	log.Debug("Event %s (comment=%s post=%s request=%s)", routingKey, event.CommentID, event.PostID, event.RequestID)
	return nil
}

func (LogPublisher) Close() error { return nil }
