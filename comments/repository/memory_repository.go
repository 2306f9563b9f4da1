package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/comments/models"
	"github.com/qolzam/telar/apps/comments/comments/pagination"
)

// memoryCommentRepository keeps comments in process memory.
// Ordering matches the PostgreSQL store: (created_at, id) with ids compared as strings.
type memoryCommentRepository struct {
	mu       sync.RWMutex
	comments map[uuid.UUID]*models.Comment
}

// NewMemoryCommentRepository creates an in-memory comment store
func NewMemoryCommentRepository() CommentRepository {
	return &memoryCommentRepository{
		comments: make(map[uuid.UUID]*models.Comment),
	}
}

func (r *memoryCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.comments[comment.CommentID]; exists {
		return fmt.Errorf("failed to create comment: duplicate id %s", comment.CommentID)
	}
	r.comments[comment.CommentID] = clone(comment)
	return nil
}

func (r *memoryCommentRepository) FindByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comment, ok := r.comments[commentID]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", commentID, commentErrors.ErrNotFound)
	}
	return clone(comment), nil
}

func (r *memoryCommentRepository) FindPage(ctx context.Context, query pagination.PageQuery) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.filter(func(c *models.Comment) bool {
		if c.PostID != query.PostID || c.IsDeleted {
			return false
		}
		if query.After == nil {
			return true
		}
		cmp := compareKey(c.CreatedAt, c.CommentID, query.After.CreatedAt, query.After.ID)
		if query.Descending {
			return cmp < 0
		}
		return cmp > 0
	})

	sort.Slice(matches, func(i, j int) bool {
		cmp := compareKey(matches[i].CreatedAt, matches[i].CommentID, matches[j].CreatedAt, matches[j].CommentID)
		if query.Descending {
			return cmp > 0
		}
		return cmp < 0
	})

	if query.Limit > 0 && len(matches) > query.Limit {
		matches = matches[:query.Limit]
	}
	return matches, nil
}

func (r *memoryCommentRepository) CountActiveByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.filter(func(c *models.Comment) bool {
		return c.PostID == postID && !c.IsDeleted
	}))), nil
}

func (r *memoryCommentRepository) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.filter(func(c *models.Comment) bool {
		return c.AuthorID == authorID && !c.IsDeleted
	}))), nil
}

func (r *memoryCommentRepository) FindReplies(ctx context.Context, postID, parentID uuid.UUID) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	replies := r.filter(func(c *models.Comment) bool {
		return c.PostID == postID && !c.IsDeleted &&
			c.ParentCommentID != nil && *c.ParentCommentID == parentID
	})
	sort.Slice(replies, func(i, j int) bool {
		return compareKey(replies[i].CreatedAt, replies[i].CommentID, replies[j].CreatedAt, replies[j].CommentID) < 0
	})
	return replies, nil
}

func (r *memoryCommentRepository) UpdateContent(ctx context.Context, commentID uuid.UUID, content string, updatedAt time.Time) (*models.Comment, error) {
	return r.mutate(commentID, func(c *models.Comment) {
		c.Content = content
		c.UpdatedAt = updatedAt
	})
}

func (r *memoryCommentRepository) SoftDelete(ctx context.Context, commentID, deletedBy uuid.UUID, at time.Time) (*models.Comment, error) {
	return r.mutate(commentID, func(c *models.Comment) {
		c.IsDeleted = true
		c.DeletedAt = &at
		c.DeletedBy = &deletedBy
		c.UpdatedAt = at
	})
}

func (r *memoryCommentRepository) Restore(ctx context.Context, commentID uuid.UUID, at time.Time) (*models.Comment, error) {
	return r.mutate(commentID, func(c *models.Comment) {
		c.IsDeleted = false
		c.DeletedAt = nil
		c.DeletedBy = nil
		c.UpdatedAt = at
	})
}

func (r *memoryCommentRepository) IncrementLikes(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	return r.mutate(commentID, func(c *models.Comment) {
		c.LikesCount++
	})
}

func (r *memoryCommentRepository) DecrementLikes(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	return r.mutate(commentID, func(c *models.Comment) {
		if c.LikesCount > 0 {
			c.LikesCount--
		}
	})
}

func (r *memoryCommentRepository) SoftDeleteByPost(ctx context.Context, postID uuid.UUID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for _, c := range r.comments {
		if c.PostID == postID && !c.IsDeleted {
			deletedAt := at
			c.IsDeleted = true
			c.DeletedAt = &deletedAt
			c.UpdatedAt = at
			affected++
		}
	}
	return affected, nil
}

func (r *memoryCommentRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *memoryCommentRepository) mutate(commentID uuid.UUID, apply func(c *models.Comment)) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	comment, ok := r.comments[commentID]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", commentID, commentErrors.ErrNotFound)
	}
	apply(comment)
	return clone(comment), nil
}

// filter must be called with the lock held
func (r *memoryCommentRepository) filter(keep func(c *models.Comment) bool) []models.Comment {
	result := []models.Comment{}
	for _, c := range r.comments {
		if keep(c) {
			result = append(result, *clone(c))
		}
	}
	return result
}

func compareKey(aTime time.Time, aID uuid.UUID, bTime time.Time, bID uuid.UUID) int {
	switch {
	case aTime.Before(bTime):
		return -1
	case aTime.After(bTime):
		return 1
	}

	as, bs := aID.String(), bID.String()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func clone(c *models.Comment) *models.Comment {
	copied := *c
	if c.ParentCommentID != nil {
		parent := *c.ParentCommentID
		copied.ParentCommentID = &parent
	}
	if c.DeletedAt != nil {
		deletedAt := *c.DeletedAt
		copied.DeletedAt = &deletedAt
	}
	if c.DeletedBy != nil {
		deletedBy := *c.DeletedBy
		copied.DeletedBy = &deletedBy
	}
	return &copied
}
