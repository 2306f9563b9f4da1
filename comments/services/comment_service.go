package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid"

	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/comments/events"
	"github.com/qolzam/telar/apps/comments/comments/models"
	"github.com/qolzam/telar/apps/comments/comments/pagination"
	commentRepository "github.com/qolzam/telar/apps/comments/comments/repository"
	"github.com/qolzam/telar/apps/comments/comments/sanitize"
	"github.com/qolzam/telar/apps/comments/comments/validation"
	"github.com/qolzam/telar/apps/comments/internal/cache"
	"github.com/qolzam/telar/apps/comments/internal/observability"
	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
	"github.com/qolzam/telar/apps/comments/internal/types"
)

const commentCacheKeyPrefix = "comment:"

// commentService implements CommentService on top of a CommentRepository
type commentService struct {
	commentRepo  commentRepository.CommentRepository
	pager        *pagination.Engine
	sanitizer    sanitize.Sanitizer
	notifier     events.Notifier
	cacheService *cache.GenericCacheService
	metrics      *observability.Metrics
	now          func() time.Time

	// invalidations counts cache invalidations so a read that raced a write
	// can drop the stale entry it cached
	invalidations atomic.Uint64
}

// NewCommentService wires the comment service with its dependencies.
// cacheService and metrics may be nil. A nil notifier discards events.
func NewCommentService(
	commentRepo commentRepository.CommentRepository,
	notifier events.Notifier,
	sanitizer sanitize.Sanitizer,
	cacheService *cache.GenericCacheService,
	metrics *observability.Metrics,
) CommentService {
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	if sanitizer == nil {
		sanitizer = sanitize.New()
	}
	return &commentService{
		commentRepo:  commentRepo,
		pager:        pagination.NewEngine(commentRepo),
		sanitizer:    sanitizer,
		notifier:     notifier,
		cacheService: cacheService,
		metrics:      metrics,
		now:          utcNow,
	}
}

// utcNow truncates to microseconds, the resolution PostgreSQL keeps
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func commentCacheKey(commentID uuid.UUID) string {
	return commentCacheKeyPrefix + commentID.String()
}

func (s *commentService) getCachedComment(ctx context.Context, commentID uuid.UUID) *models.Comment {
	if !s.cacheService.IsEnabled() {
		return nil
	}

	var comment models.Comment
	if err := s.cacheService.GetCached(ctx, commentCacheKey(commentID), &comment); err != nil {
		return nil
	}
	return &comment
}

func (s *commentService) cacheComment(ctx context.Context, comment *models.Comment) {
	if !s.cacheService.IsEnabled() || comment == nil {
		return
	}
	if err := s.cacheService.CacheData(ctx, commentCacheKey(comment.CommentID), comment); err != nil {
		log.WarnWithContext(ctx, "Caching comment %s failed: %v", comment.CommentID, err)
	}
}

func (s *commentService) invalidateComment(ctx context.Context, commentID uuid.UUID) {
	if !s.cacheService.IsEnabled() {
		return
	}
	s.invalidations.Add(1)
	if err := s.cacheService.InvalidateKey(ctx, commentCacheKey(commentID)); err != nil {
		log.WarnWithContext(ctx, "Cache invalidation failed for comment %s: %v", commentID, err)
	}
}

func (s *commentService) invalidateAllComments(ctx context.Context) {
	if !s.cacheService.IsEnabled() {
		return
	}
	s.invalidations.Add(1)
	if err := s.cacheService.InvalidatePattern(ctx, commentCacheKeyPrefix+"*"); err != nil {
		log.WarnWithContext(ctx, "Cache invalidation failed for all comments: %v", err)
	}
}

// storeError keeps NotFound and hides anything else behind Internal
func storeError(commentID uuid.UUID, action string, err error) error {
	if errors.Is(err, commentErrors.ErrNotFound) {
		return notFound(commentID)
	}
	return commentErrors.Internal(fmt.Sprintf("failed to %s", action), err)
}

func notFound(commentID uuid.UUID) error {
	return commentErrors.NotFound(fmt.Sprintf("Comment with ID %s not found", commentID))
}

func requireUser(caller types.CallerContext) error {
	if !caller.HasUser() {
		return commentErrors.Forbidden("User ID is required")
	}
	return nil
}

// load fetches a comment for a mutation, bypassing the cache
func (s *commentService) load(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, storeError(commentID, "find comment", err)
	}
	return comment, nil
}

// sanitizeContent returns the text that gets stored. Escaping can lengthen it,
// so the length limit is checked again on the result.
func (s *commentService) sanitizeContent(raw string) (string, error) {
	content := s.sanitizer.Sanitize(raw)
	if content == "" {
		return "", commentErrors.InvalidArgument("content is empty after sanitization")
	}
	if utf8.RuneCountInString(content) > validation.MaxContentLength {
		return "", commentErrors.InvalidArgument(fmt.Sprintf("content must be at most %d characters after sanitization", validation.MaxContentLength))
	}
	return content, nil
}

// Create sanitizes and stores a new root comment or reply
func (s *commentService) Create(ctx context.Context, req *models.CreateCommentRequest, caller types.CallerContext) (*models.Comment, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveCreation(time.Since(start)) }()

	if err := validation.ValidateCreateCommentRequest(req); err != nil {
		return nil, commentErrors.InvalidArgument(err.Error())
	}

	postID, _ := uuid.FromString(req.PostID)

	authorID := caller.UserID
	if req.AuthorID != "" {
		authorID, _ = uuid.FromString(req.AuthorID)
	}
	if authorID == uuid.Nil {
		return nil, commentErrors.InvalidArgument("authorId is required")
	}

	var parentID *uuid.UUID
	if req.ParentCommentID != nil {
		id, _ := uuid.FromString(*req.ParentCommentID)
		parentID = &id
	}

	content, err := s.sanitizeContent(req.Content)
	if err != nil {
		return nil, err
	}

	commentID, err := uuid.NewV4()
	if err != nil {
		return nil, commentErrors.Internal("failed to generate comment ID", err)
	}

	now := s.now()
	comment := &models.Comment{
		CommentID:       commentID,
		PostID:          postID,
		ParentCommentID: parentID,
		AuthorID:        authorID,
		Content:         content,
		LikesCount:      0,
		IsDeleted:       false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.commentRepo.Create(context.WithoutCancel(ctx), comment); err != nil {
		return nil, commentErrors.Internal("failed to create comment", err)
	}

	log.InfoWithContext(ctx, "Comment %s created on post %s", comment.CommentID, comment.PostID)
	s.notifier.CommentCreated(comment, caller.RequestID)
	return comment, nil
}

// FindByID returns a comment, deleted or not, through the read-through cache
func (s *commentService) FindByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	if cached := s.getCachedComment(ctx, commentID); cached != nil {
		return cached, nil
	}

	seen := s.invalidations.Load()
	comment, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}

	s.cacheComment(ctx, comment)
	if s.invalidations.Load() != seen {
		// a write landed after the load; what was just cached may predate it
		s.invalidateComment(ctx, commentID)
	}
	return comment, nil
}

// ListByPost returns one cursor page of a post's non-deleted comments
func (s *commentService) ListByPost(ctx context.Context, query *models.ListCommentsQuery) (*models.CommentPage, error) {
	if err := validation.NormalizeListQuery(query); err != nil {
		return nil, commentErrors.InvalidArgument(err.Error())
	}
	postID, _ := uuid.FromString(query.PostID)

	page, err := s.pager.Page(ctx, postID, query.Cursor, query.Limit, query.Sort)
	if err != nil {
		if commentErrors.Kind(err) == commentErrors.ErrInternal {
			return nil, commentErrors.Internal("failed to list comments", err)
		}
		return nil, err
	}
	return page, nil
}

// ListReplies returns the non-deleted direct replies of a comment, oldest first
func (s *commentService) ListReplies(ctx context.Context, postID, parentID uuid.UUID) ([]models.Comment, error) {
	replies, err := s.commentRepo.FindReplies(ctx, postID, parentID)
	if err != nil {
		return nil, commentErrors.Internal("failed to list replies", err)
	}
	return replies, nil
}

// CountByAuthor counts the non-deleted comments of an author
func (s *commentService) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	count, err := s.commentRepo.CountByAuthor(ctx, authorID)
	if err != nil {
		return 0, commentErrors.Internal("failed to count comments", err)
	}
	return count, nil
}

// Update replaces the content of the caller's own live comment
func (s *commentService) Update(ctx context.Context, commentID uuid.UUID, req *models.UpdateCommentRequest, caller types.CallerContext) (*models.Comment, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	if err := validation.ValidateUpdateCommentRequest(req); err != nil {
		return nil, commentErrors.InvalidArgument(err.Error())
	}

	comment, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != caller.UserID {
		return nil, commentErrors.Forbidden("You can only edit your own comments")
	}
	if comment.IsDeleted {
		return nil, commentErrors.Forbidden("Cannot edit deleted comments")
	}

	content := comment.Content
	if req.Content != nil {
		content, err = s.sanitizeContent(*req.Content)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.commentRepo.UpdateContent(context.WithoutCancel(ctx), commentID, content, s.now())
	if err != nil {
		return nil, storeError(commentID, "update comment", err)
	}

	s.invalidateComment(ctx, commentID)
	s.notifier.CommentUpdated(updated, caller.RequestID)
	return updated, nil
}

// Remove soft-deletes a comment. Authors and moderators may remove.
func (s *commentService) Remove(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) error {
	if err := requireUser(caller); err != nil {
		return err
	}

	comment, err := s.load(ctx, commentID)
	if err != nil {
		return err
	}
	if !caller.IsModerator && comment.AuthorID != caller.UserID {
		return commentErrors.Forbidden("You can only delete your own comments")
	}
	if comment.IsDeleted {
		return commentErrors.Conflict("Comment is already deleted")
	}

	deleted, err := s.commentRepo.SoftDelete(context.WithoutCancel(ctx), commentID, caller.UserID, s.now())
	if err != nil {
		return storeError(commentID, "delete comment", err)
	}

	log.InfoWithContext(ctx, "Comment %s deleted by %s (moderator=%t)", commentID, caller.UserID, caller.IsModerator)
	s.invalidateComment(ctx, commentID)
	s.notifier.CommentDeleted(deleted, caller.RequestID)
	return nil
}

// Restore brings back the caller's own deleted comment
func (s *commentService) Restore(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}

	comment, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != caller.UserID {
		return nil, commentErrors.Forbidden("You can only restore your own comments")
	}
	if !comment.IsDeleted {
		return nil, commentErrors.Conflict("Comment is not deleted")
	}

	restored, err := s.commentRepo.Restore(context.WithoutCancel(ctx), commentID, s.now())
	if err != nil {
		return nil, storeError(commentID, "restore comment", err)
	}

	s.invalidateComment(ctx, commentID)
	s.notifier.CommentRestored(restored, caller.RequestID)
	return restored, nil
}

// Like adds one like to a live comment
func (s *commentService) Like(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}

	comment, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted {
		return nil, commentErrors.Forbidden("Cannot like deleted comments")
	}

	liked, err := s.commentRepo.IncrementLikes(context.WithoutCancel(ctx), commentID)
	if err != nil {
		return nil, storeError(commentID, "like comment", err)
	}

	s.invalidateComment(ctx, commentID)
	s.notifier.CommentLiked(liked, caller.UserID, caller.RequestID)
	return liked, nil
}

// Unlike removes one like; a comment with no likes is returned unchanged
func (s *commentService) Unlike(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}

	if _, err := s.load(ctx, commentID); err != nil {
		return nil, err
	}

	unliked, err := s.commentRepo.DecrementLikes(context.WithoutCancel(ctx), commentID)
	if err != nil {
		return nil, storeError(commentID, "unlike comment", err)
	}

	s.invalidateComment(ctx, commentID)
	s.notifier.CommentUnliked(unliked, caller.UserID, caller.RequestID)
	return unliked, nil
}

// CascadeDeleteByPost soft-deletes every live comment of a deleted post
func (s *commentService) CascadeDeleteByPost(ctx context.Context, postID uuid.UUID, requestID string) (int64, error) {
	if postID == uuid.Nil {
		return 0, commentErrors.InvalidArgument("postId is required")
	}

	count, err := s.commentRepo.SoftDeleteByPost(context.WithoutCancel(ctx), postID, s.now())
	if err != nil {
		return 0, commentErrors.Internal("failed to delete comments of post", err)
	}

	if count > 0 {
		log.InfoWithContext(ctx, "Soft-deleted %d comments of post %s", count, postID)
		s.invalidateAllComments(ctx)
		s.notifier.CommentsBulkDeleted(postID, count, requestID)
	}
	return count, nil
}

// Ping checks the comment store
func (s *commentService) Ping(ctx context.Context) error {
	return s.commentRepo.Ping(ctx)
}
