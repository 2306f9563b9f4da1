// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
)

// ErrConnectionClosed is returned when the broker connection is gone
var ErrConnectionClosed = errors.New("broker connection closed")

// ExchangeKindTopic is the exchange kind used for routing-key dispatch
const ExchangeKindTopic = "topic"

// Connection wraps a RabbitMQ connection shared by publishers and consumers
type Connection struct {
	mu   sync.RWMutex
	conn *amqp.Connection
}

// DialConfig controls the initial connection attempts
type DialConfig struct {
	URI            string
	MaxElapsedTime time.Duration
}

// Dial connects to the broker, retrying with exponential backoff until
// MaxElapsedTime passes or ctx is cancelled
func Dial(ctx context.Context, config DialConfig) (*Connection, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = config.MaxElapsedTime
	if policy.MaxElapsedTime <= 0 {
		policy.MaxElapsedTime = 30 * time.Second
	}

	var conn *amqp.Connection
	operation := func() error {
		var err error
		conn, err = amqp.Dial(config.URI)
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("Broker dial failed, retrying in %v: %v", wait, err)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	log.Info("Connected to broker")
	return &Connection{conn: conn}, nil
}

// Channel opens a new channel on the connection
func (c *Connection) Channel() (*amqp.Channel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil || c.conn.IsClosed() {
		return nil, ErrConnectionClosed
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return ch, nil
}

// DeclareTopicExchange declares a durable topic exchange on ch
func DeclareTopicExchange(ch *amqp.Channel, name string) error {
	if err := ch.ExchangeDeclare(name, ExchangeKindTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", name, err)
	}
	return nil
}

// DeclareBoundQueue declares a durable queue and binds it to exchange with routingKey
func DeclareBoundQueue(ch *amqp.Channel, queue, exchange, routingKey string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to %s/%s: %w", queue, exchange, routingKey, err)
	}
	return nil
}

// HealthCheck reports whether the connection is still open
func (c *Connection) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn == nil || c.conn.IsClosed() {
		return ErrConnectionClosed
	}
	return nil
}

// Close closes the underlying connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}
