package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/internal/broker"
	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
)

// ServerConfig configures the broker RPC server
type ServerConfig struct {
	Exchange string
	Prefetch int
}

// Server consumes one queue per operation and replies to each request's ReplyTo queue
type Server struct {
	conn    *broker.Connection
	config  ServerConfig
	handler *Handler
}

// NewServer creates a Server over an established broker connection
func NewServer(conn *broker.Connection, config ServerConfig, handler *Handler) *Server {
	if config.Exchange == "" {
		config.Exchange = "comments"
	}
	return &Server{conn: conn, config: config, handler: handler}
}

// Run declares the topology and serves requests until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ch, err := s.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := broker.DeclareTopicExchange(ch, s.config.Exchange); err != nil {
		return err
	}
	if s.config.Prefetch > 0 {
		if err := ch.Qos(s.config.Prefetch, 0, false); err != nil {
			return fmt.Errorf("failed to set prefetch: %w", err)
		}
	}

	for _, op := range Operations {
		if err := broker.DeclareBoundQueue(ch, QueueName(op), s.config.Exchange, RoutingKey(op)); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, op := range Operations {
		op := op
		g.Go(func() error {
			return broker.Consume(gctx, ch, QueueName(op), func(ctx context.Context, d amqp.Delivery) {
				s.serve(ctx, ch, op, d)
			})
		})
	}

	log.Info("RPC server consuming %d operations on exchange %s", len(Operations), s.config.Exchange)
	return g.Wait()
}

func (s *Server) serve(ctx context.Context, ch *amqp.Channel, op string, d amqp.Delivery) {
	resp := s.handler.Handle(ctx, op, d.Body)

	if d.ReplyTo != "" {
		body, err := json.Marshal(resp)
		if err != nil {
			body, _ = json.Marshal(failure(commentErrors.Internal("failed to encode response", err), resp.RequestID))
		}

		err = ch.PublishWithContext(ctx, "", d.ReplyTo, false, false, amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: d.CorrelationId,
			Body:          body,
		})
		if err != nil {
			log.Error("RPC %s: failed to reply to %s: %v", op, d.ReplyTo, err)
			_ = d.Nack(false, false)
			return
		}
	}

	if err := d.Ack(false); err != nil {
		log.Warn("RPC %s: failed to ack delivery: %v", op, err)
	}
}
