// Package subscribers consumes events published by other services.
package subscribers

import (
	"context"
	"encoding/json"

	"github.com/gofrs/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/comments/services"
	"github.com/qolzam/telar/apps/comments/comments/validation"
	"github.com/qolzam/telar/apps/comments/internal/broker"
	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
)

const (
	PostDeletedRoutingKey = "post.deleted"
	PostDeletedQueue      = "comments.post-deleted"
)

// PostDeletedMessage is published by the posts service when a post is removed
type PostDeletedMessage struct {
	PostID    string `json:"postId"`
	RequestID string `json:"requestId,omitempty"`
}

// PostEvents cascades post lifecycle events into the comment store
type PostEvents struct {
	service services.CommentService
}

func NewPostEvents(service services.CommentService) *PostEvents {
	return &PostEvents{service: service}
}

// HandlePostDeleted soft-deletes every live comment of the post in the message
func (p *PostEvents) HandlePostDeleted(ctx context.Context, body []byte) error {
	var msg PostDeletedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return commentErrors.InvalidArgument("invalid post.deleted payload").WithDetails(err.Error())
	}

	postID, err := validation.ParseUUID("postId", msg.PostID)
	if err != nil {
		return commentErrors.InvalidArgument(err.Error())
	}

	requestID := msg.RequestID
	if requestID == "" {
		requestID = uuid.Must(uuid.NewV4()).String()
	}
	ctx = log.WithRequestID(ctx, requestID)

	count, err := p.service.CascadeDeleteByPost(ctx, postID, requestID)
	if err != nil {
		return err
	}

	log.DebugWithContext(ctx, "post.deleted handled for %s (%d comments)", postID, count)
	return nil
}

// Run binds the post.deleted queue on exchange and consumes it until ctx is cancelled.
// Malformed messages are dropped. Failed cascades are requeued once.
func (p *PostEvents) Run(ctx context.Context, conn *broker.Connection, exchange string) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := broker.DeclareTopicExchange(ch, exchange); err != nil {
		return err
	}
	if err := broker.DeclareBoundQueue(ch, PostDeletedQueue, exchange, PostDeletedRoutingKey); err != nil {
		return err
	}

	log.Info("Subscribed to %s on exchange %s", PostDeletedRoutingKey, exchange)
	return broker.Consume(ctx, ch, PostDeletedQueue, func(ctx context.Context, d amqp.Delivery) {
		err := p.HandlePostDeleted(ctx, d.Body)
		switch {
		case err == nil:
			_ = d.Ack(false)
		case commentErrors.Kind(err) == commentErrors.ErrInvalidArgument:
			log.Warn("Dropping post.deleted message: %v", err)
			_ = d.Nack(false, false)
		default:
			log.Error("post.deleted cascade failed (redelivered=%t): %v", d.Redelivered, err)
			_ = d.Nack(false, !d.Redelivered)
		}
	})
}
