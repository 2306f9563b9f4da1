// Package events builds and dispatches the domain events emitted after comment mutations.
package events

import (
	"context"
	"time"

	uuid "github.com/gofrs/uuid"

	"github.com/qolzam/telar/apps/comments/comments/models"
)

// Event types, also used as broker routing keys
const (
	EventCommentCreated      = "comment.created"
	EventCommentUpdated      = "comment.updated"
	EventCommentDeleted      = "comment.deleted"
	EventCommentRestored     = "comment.restored"
	EventCommentLiked        = "comment.liked"
	EventCommentUnliked      = "comment.unliked"
	EventCommentsBulkDeleted = "comments.bulk_deleted"
)

// Event is the outbound record of one successful mutation
type Event struct {
	EventType string                 `json:"eventType"`
	CommentID string                 `json:"commentId"`
	PostID    string                 `json:"postId"`
	AuthorID  string                 `json:"authorId"`
	Timestamp string                 `json:"timestamp"`
	RequestID string                 `json:"requestId,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Publisher delivers an event to the outbound channel under a routing key
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event Event) error
	Close() error
}

// Notifier is called by the comment service after each committed mutation.
// Implementations must not block the caller and must not return delivery errors.
type Notifier interface {
	CommentCreated(comment *models.Comment, requestID string)
	CommentUpdated(comment *models.Comment, requestID string)
	CommentDeleted(comment *models.Comment, requestID string)
	CommentRestored(comment *models.Comment, requestID string)
	CommentLiked(comment *models.Comment, likedBy uuid.UUID, requestID string)
	CommentUnliked(comment *models.Comment, unlikedBy uuid.UUID, requestID string)
	CommentsBulkDeleted(postID uuid.UUID, count int64, requestID string)
}

// NewCommentEvent builds an event about a single comment
func NewCommentEvent(eventType string, comment *models.Comment, requestID string, payload map[string]interface{}) Event {
	return Event{
		EventType: eventType,
		CommentID: comment.CommentID.String(),
		PostID:    comment.PostID.String(),
		AuthorID:  comment.AuthorID.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RequestID: requestID,
		Payload:   payload,
	}
}

// NewBulkDeletedEvent builds the aggregate event for a cascade delete
func NewBulkDeletedEvent(postID uuid.UUID, count int64, requestID string) Event {
	return Event{
		EventType: EventCommentsBulkDeleted,
		PostID:    postID.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RequestID: requestID,
		Payload:   map[string]interface{}{"count": count},
	}
}

func createdPayload(comment *models.Comment) map[string]interface{} {
	var parent interface{}
	if comment.ParentCommentID != nil {
		parent = comment.ParentCommentID.String()
	}
	return map[string]interface{}{
		"parentCommentId": parent,
		"content":         comment.Content,
	}
}

// NopNotifier discards every event
type NopNotifier struct{}

func (NopNotifier) CommentCreated(*models.Comment, string)            {}
func (NopNotifier) CommentUpdated(*models.Comment, string)            {}
func (NopNotifier) CommentDeleted(*models.Comment, string)            {}
func (NopNotifier) CommentRestored(*models.Comment, string)           {}
func (NopNotifier) CommentLiked(*models.Comment, uuid.UUID, string)   {}
func (NopNotifier) CommentUnliked(*models.Comment, uuid.UUID, string) {}
func (NopNotifier) CommentsBulkDeleted(uuid.UUID, int64, string)      {}
