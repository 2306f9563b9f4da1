package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/comments/events"
	"github.com/qolzam/telar/apps/comments/comments/models"
	"github.com/qolzam/telar/apps/comments/comments/repository"
	"github.com/qolzam/telar/apps/comments/comments/services"
	"github.com/qolzam/telar/apps/comments/internal/cache"
	"github.com/qolzam/telar/apps/comments/internal/observability"
	"github.com/qolzam/telar/apps/comments/internal/types"
)

// recordingNotifier keeps the event types it was handed, in order
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	likes  []int64
}

func (r *recordingNotifier) record(eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func (r *recordingNotifier) CommentCreated(*models.Comment, string) {
	r.record(events.EventCommentCreated)
}
func (r *recordingNotifier) CommentUpdated(*models.Comment, string) {
	r.record(events.EventCommentUpdated)
}
func (r *recordingNotifier) CommentDeleted(*models.Comment, string) {
	r.record(events.EventCommentDeleted)
}
func (r *recordingNotifier) CommentRestored(*models.Comment, string) {
	r.record(events.EventCommentRestored)
}
func (r *recordingNotifier) CommentLiked(c *models.Comment, _ uuid.UUID, _ string) {
	r.record(events.EventCommentLiked)
	r.mu.Lock()
	r.likes = append(r.likes, c.LikesCount)
	r.mu.Unlock()
}
func (r *recordingNotifier) CommentUnliked(c *models.Comment, _ uuid.UUID, _ string) {
	r.record(events.EventCommentUnliked)
	r.mu.Lock()
	r.likes = append(r.likes, c.LikesCount)
	r.mu.Unlock()
}
func (r *recordingNotifier) CommentsBulkDeleted(uuid.UUID, int64, string) {
	r.record(events.EventCommentsBulkDeleted)
}

func (r *recordingNotifier) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newScenario(t *testing.T) (services.CommentService, *recordingNotifier) {
	t.Helper()

	cfg := cache.DefaultCacheConfig()
	cfg.Enabled = true
	cfg.Prefix = "scenario_" + uuid.Must(uuid.NewV4()).String()
	cfg.TTL = time.Minute
	mem := cache.NewMemoryCache(cfg)
	t.Cleanup(func() { mem.Close() })

	notifier := &recordingNotifier{}
	svc := services.NewCommentService(
		repository.NewMemoryCommentRepository(),
		notifier,
		nil,
		cache.NewGenericCacheService(mem, cfg),
		observability.NewMetrics(),
	)
	return svc, notifier
}

func caller() types.CallerContext {
	return types.CallerContext{UserID: uuid.Must(uuid.NewV4()), RequestID: uuid.Must(uuid.NewV4()).String()}
}

func TestScenario_LikeUnlikeDeleteRestore(t *testing.T) {
	svc, notifier := newScenario(t)
	ctx := context.Background()
	author := caller()

	created, err := svc.Create(ctx, &models.CreateCommentRequest{
		PostID:  uuid.Must(uuid.NewV4()).String(),
		Content: "first!",
	}, author)
	require.NoError(t, err)
	assert.Equal(t, int64(0), created.LikesCount)
	assert.False(t, created.IsDeleted)

	// Prime the cache so the mutations below must invalidate it
	_, err = svc.FindByID(ctx, created.CommentID)
	require.NoError(t, err)

	liked, err := svc.Like(ctx, created.CommentID, caller())
	require.NoError(t, err)
	assert.Equal(t, int64(1), liked.LikesCount)

	fetched, err := svc.FindByID(ctx, created.CommentID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetched.LikesCount)

	unliked, err := svc.Unlike(ctx, created.CommentID, caller())
	require.NoError(t, err)
	assert.Equal(t, int64(0), unliked.LikesCount)

	again, err := svc.Unlike(ctx, created.CommentID, caller())
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.LikesCount)

	require.NoError(t, svc.Remove(ctx, created.CommentID, author))

	deleted, err := svc.FindByID(ctx, created.CommentID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	require.NotNil(t, deleted.DeletedBy)
	assert.Equal(t, author.UserID, *deleted.DeletedBy)
	assert.Equal(t, models.DeletedContentPlaceholder, deleted.ToResponse().Content)

	err = svc.Remove(ctx, created.CommentID, author)
	assert.ErrorIs(t, err, commentErrors.ErrConflict)

	_, err = svc.Like(ctx, created.CommentID, caller())
	assert.ErrorIs(t, err, commentErrors.ErrForbidden)

	restored, err := svc.Restore(ctx, created.CommentID, author)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)
	assert.Equal(t, "first!", restored.Content)

	_, err = svc.Restore(ctx, created.CommentID, author)
	assert.ErrorIs(t, err, commentErrors.ErrConflict)

	assert.Equal(t, []string{
		events.EventCommentCreated,
		events.EventCommentLiked,
		events.EventCommentUnliked,
		events.EventCommentUnliked,
		events.EventCommentDeleted,
		events.EventCommentRestored,
	}, notifier.recorded())
	assert.Equal(t, []int64{1, 0, 0}, notifier.likes)
}

func TestScenario_TwoPagesNewestFirst(t *testing.T) {
	svc, _ := newScenario(t)
	ctx := context.Background()
	postID := uuid.Must(uuid.NewV4()).String()

	var ids []uuid.UUID
	for _, content := range []string{"one", "two", "three"} {
		c, err := svc.Create(ctx, &models.CreateCommentRequest{PostID: postID, Content: content}, caller())
		require.NoError(t, err)
		ids = append(ids, c.CommentID)
		time.Sleep(2 * time.Millisecond)
	}

	first, err := svc.ListByPost(ctx, &models.ListCommentsQuery{PostID: postID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, ids[2], first.Items[0].CommentID)
	assert.Equal(t, ids[1], first.Items[1].CommentID)
	assert.Equal(t, int64(3), first.TotalCount)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListByPost(ctx, &models.ListCommentsQuery{PostID: postID, Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, ids[0], second.Items[0].CommentID)
	assert.Empty(t, second.NextCursor)
}

func TestScenario_CascadeDeleteByPost(t *testing.T) {
	svc, notifier := newScenario(t)
	ctx := context.Background()
	postID := uuid.Must(uuid.NewV4())
	otherPost := uuid.Must(uuid.NewV4())

	var first *models.Comment
	for i := 0; i < 3; i++ {
		c, err := svc.Create(ctx, &models.CreateCommentRequest{PostID: postID.String(), Content: "bye"}, caller())
		require.NoError(t, err)
		if first == nil {
			first = c
		}
	}
	_, err := svc.Create(ctx, &models.CreateCommentRequest{PostID: otherPost.String(), Content: "stay"}, caller())
	require.NoError(t, err)

	// Cached before the cascade, must read as deleted after it
	_, err = svc.FindByID(ctx, first.CommentID)
	require.NoError(t, err)

	count, err := svc.CascadeDeleteByPost(ctx, postID, "req-cascade")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	again, err := svc.CascadeDeleteByPost(ctx, postID, "req-cascade")
	require.NoError(t, err)
	assert.Zero(t, again)

	fetched, err := svc.FindByID(ctx, first.CommentID)
	require.NoError(t, err)
	assert.True(t, fetched.IsDeleted)

	page, err := svc.ListByPost(ctx, &models.ListCommentsQuery{PostID: postID.String()})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.TotalCount)

	other, err := svc.ListByPost(ctx, &models.ListCommentsQuery{PostID: otherPost.String()})
	require.NoError(t, err)
	assert.Len(t, other.Items, 1)

	bulk := 0
	for _, e := range notifier.recorded() {
		if e == events.EventCommentsBulkDeleted {
			bulk++
		}
	}
	assert.Equal(t, 1, bulk)
}

func TestScenario_RepliesAndAuthorCount(t *testing.T) {
	svc, _ := newScenario(t)
	ctx := context.Background()
	author := caller()
	postID := uuid.Must(uuid.NewV4())

	root, err := svc.Create(ctx, &models.CreateCommentRequest{PostID: postID.String(), Content: "root"}, author)
	require.NoError(t, err)

	parent := root.CommentID.String()
	for _, content := range []string{"r1", "r2"} {
		_, err := svc.Create(ctx, &models.CreateCommentRequest{PostID: postID.String(), ParentCommentID: &parent, Content: content}, author)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	replies, err := svc.ListReplies(ctx, postID, root.CommentID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "r1", replies[0].Content)
	assert.Equal(t, "r2", replies[1].Content)

	count, err := svc.CountByAuthor(ctx, author.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestScenario_ConcurrentLikes(t *testing.T) {
	svc, _ := newScenario(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, &models.CreateCommentRequest{PostID: uuid.Must(uuid.NewV4()).String(), Content: "popular"}, caller())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Like(ctx, c.CommentID, caller())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	fetched, err := svc.FindByID(ctx, c.CommentID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), fetched.LikesCount)
}

// racingRepository runs afterFind once, right after a FindByID has read its row
type racingRepository struct {
	repository.CommentRepository
	afterFind func()
}

func (r *racingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	comment, err := r.CommentRepository.FindByID(ctx, id)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return comment, err
}

func TestScenario_ReadRacingWriteDoesNotLeaveStaleCache(t *testing.T) {
	ctx := context.Background()
	cfg := cache.DefaultCacheConfig()
	cfg.Enabled = true
	cfg.Prefix = "race_" + uuid.Must(uuid.NewV4()).String()
	cfg.TTL = time.Minute
	mem := cache.NewMemoryCache(cfg)
	t.Cleanup(func() { mem.Close() })

	repo := &racingRepository{CommentRepository: repository.NewMemoryCommentRepository()}
	svc := services.NewCommentService(repo, nil, nil, cache.NewGenericCacheService(mem, cfg), nil)
	author := caller()

	created, err := svc.Create(ctx, &models.CreateCommentRequest{
		PostID:  uuid.Must(uuid.NewV4()).String(),
		Content: "before",
	}, author)
	require.NoError(t, err)

	edited := "after"
	repo.afterFind = func() {
		_, err := svc.Update(ctx, created.CommentID, &models.UpdateCommentRequest{Content: &edited}, author)
		require.NoError(t, err)
	}

	// This read loaded the row before the update landed
	first, err := svc.FindByID(ctx, created.CommentID)
	require.NoError(t, err)
	assert.Equal(t, "before", first.Content)

	second, err := svc.FindByID(ctx, created.CommentID)
	require.NoError(t, err)
	assert.Equal(t, "after", second.Content)
}
