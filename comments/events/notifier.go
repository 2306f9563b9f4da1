package events

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	uuid "github.com/gofrs/uuid"

	"github.com/qolzam/telar/apps/comments/comments/models"
	"github.com/qolzam/telar/apps/comments/internal/observability"
	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
)

// NotifierConfig bounds the in-process queue and the publish retries
type NotifierConfig struct {
	Buffer               int
	MaxRetries           int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	PublishTimeout       time.Duration
}

// DefaultNotifierConfig returns the configuration used when values are unset
func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		Buffer:               1024,
		MaxRetries:           5,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		PublishTimeout:       5 * time.Second,
	}
}

// AsyncNotifier counts each event synchronously, queues it, and publishes it
// from a single background worker with bounded exponential backoff.
// Delivery is best effort: overflow and exhausted retries are logged and counted.
type AsyncNotifier struct {
	publisher Publisher
	metrics   *observability.Metrics
	config    NotifierConfig

	queue     chan Event
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// NewAsyncNotifier starts the publish worker
func NewAsyncNotifier(publisher Publisher, metrics *observability.Metrics, config NotifierConfig) *AsyncNotifier {
	defaults := DefaultNotifierConfig()
	if config.Buffer <= 0 {
		config.Buffer = defaults.Buffer
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryInitialInterval <= 0 {
		config.RetryInitialInterval = defaults.RetryInitialInterval
	}
	if config.RetryMaxInterval <= 0 {
		config.RetryMaxInterval = defaults.RetryMaxInterval
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = defaults.PublishTimeout
	}

	n := &AsyncNotifier{
		publisher: publisher,
		metrics:   metrics,
		config:    config,
		queue:     make(chan Event, config.Buffer),
		done:      make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *AsyncNotifier) CommentCreated(comment *models.Comment, requestID string) {
	n.emit(NewCommentEvent(EventCommentCreated, comment, requestID, createdPayload(comment)))
}

func (n *AsyncNotifier) CommentUpdated(comment *models.Comment, requestID string) {
	n.emit(NewCommentEvent(EventCommentUpdated, comment, requestID, map[string]interface{}{
		"content": comment.Content,
	}))
}

func (n *AsyncNotifier) CommentDeleted(comment *models.Comment, requestID string) {
	n.emit(NewCommentEvent(EventCommentDeleted, comment, requestID, nil))
}

func (n *AsyncNotifier) CommentRestored(comment *models.Comment, requestID string) {
	n.emit(NewCommentEvent(EventCommentRestored, comment, requestID, nil))
}

func (n *AsyncNotifier) CommentLiked(comment *models.Comment, likedBy uuid.UUID, requestID string) {
	n.emit(NewCommentEvent(EventCommentLiked, comment, requestID, map[string]interface{}{
		"likedBy":    likedBy.String(),
		"likesCount": comment.LikesCount,
	}))
}

func (n *AsyncNotifier) CommentUnliked(comment *models.Comment, unlikedBy uuid.UUID, requestID string) {
	n.emit(NewCommentEvent(EventCommentUnliked, comment, requestID, map[string]interface{}{
		"unlikedBy":  unlikedBy.String(),
		"likesCount": comment.LikesCount,
	}))
}

func (n *AsyncNotifier) CommentsBulkDeleted(postID uuid.UUID, count int64, requestID string) {
	n.emit(NewBulkDeletedEvent(postID, count, requestID))
}

func (n *AsyncNotifier) emit(event Event) {
	n.metrics.IncEvent(event.EventType)

	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		log.Warn("Event %s for comment %s dropped: notifier closed", event.EventType, event.CommentID)
		n.metrics.IncPublishFailure(event.EventType)
		return
	}

	select {
	case n.queue <- event:
	default:
		log.Error("Event %s for comment %s dropped: queue full (%d)", event.EventType, event.CommentID, n.config.Buffer)
		n.metrics.IncPublishFailure(event.EventType)
		log.DumpDebug("Dropped event", event)
	}
}

func (n *AsyncNotifier) run() {
	defer close(n.done)
	for event := range n.queue {
		n.publish(event)
	}
}

func (n *AsyncNotifier) publish(event Event) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = n.config.RetryInitialInterval
	policy.MaxInterval = n.config.RetryMaxInterval
	policy.MaxElapsedTime = 0

	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), n.config.PublishTimeout)
		defer cancel()
		return n.publisher.Publish(ctx, event.EventType, event)
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("Publishing %s failed, retrying in %v: %v", event.EventType, wait, err)
	}

	err := backoff.RetryNotify(operation, backoff.WithMaxRetries(policy, uint64(n.config.MaxRetries)), notify)
	if err != nil {
		log.Error("Event %s for comment %s dropped after %d retries: %v", event.EventType, event.CommentID, n.config.MaxRetries, err)
		n.metrics.IncPublishFailure(event.EventType)
		log.DumpDebug("Dropped event", event)
	}
}

// Close stops accepting events and waits for queued ones to be published or dropped
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		n.closed = true
		close(n.queue)
		n.mu.Unlock()
	})

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
