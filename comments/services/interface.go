package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/comments/comments/models"
	"github.com/qolzam/telar/apps/comments/internal/types"
)

// CommentService defines the interface for comment operations.
// Errors carry a kind from the comments errors package.
type CommentService interface {
	// Create operations
	Create(ctx context.Context, req *models.CreateCommentRequest, caller types.CallerContext) (*models.Comment, error)

	// Read operations
	FindByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)
	ListByPost(ctx context.Context, query *models.ListCommentsQuery) (*models.CommentPage, error)
	ListReplies(ctx context.Context, postID, parentID uuid.UUID) ([]models.Comment, error)
	CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)

	// Update operations
	Update(ctx context.Context, commentID uuid.UUID, req *models.UpdateCommentRequest, caller types.CallerContext) (*models.Comment, error)
	Like(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error)
	Unlike(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error)

	// Delete operations
	Remove(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) error
	Restore(ctx context.Context, commentID uuid.UUID, caller types.CallerContext) (*models.Comment, error)
	CascadeDeleteByPost(ctx context.Context, postID uuid.UUID, requestID string) (int64, error)

	// Ping checks the backing store
	Ping(ctx context.Context) error
}
