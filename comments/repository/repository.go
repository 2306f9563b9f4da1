// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid"

	"github.com/qolzam/telar/apps/comments/comments/models"
	"github.com/qolzam/telar/apps/comments/comments/pagination"
)

// CommentRepository defines the interface for comment-specific storage operations.
// Lookups of a missing comment return an error matching errors.ErrNotFound.
type CommentRepository interface {
	pagination.Source

	// Create inserts a new comment
	Create(ctx context.Context, comment *models.Comment) error

	// FindByID retrieves a comment by its ID, deleted or not
	FindByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)

	// FindReplies returns the non-deleted direct replies of a comment, oldest first
	FindReplies(ctx context.Context, postID, parentID uuid.UUID) ([]models.Comment, error)

	// CountByAuthor counts non-deleted comments written by an author
	CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error)

	// UpdateContent replaces the content and bumps updated_at
	UpdateContent(ctx context.Context, commentID uuid.UUID, content string, updatedAt time.Time) (*models.Comment, error)

	// SoftDelete marks a comment deleted by deletedBy at the given time
	SoftDelete(ctx context.Context, commentID, deletedBy uuid.UUID, at time.Time) (*models.Comment, error)

	// Restore clears the deletion fields of a comment
	Restore(ctx context.Context, commentID uuid.UUID, at time.Time) (*models.Comment, error)

	// IncrementLikes atomically adds one like
	IncrementLikes(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)

	// DecrementLikes atomically removes one like; at zero the comment is returned unchanged
	DecrementLikes(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)

	// SoftDeleteByPost marks every non-deleted comment of a post deleted in one write
	SoftDeleteByPost(ctx context.Context, postID uuid.UUID, at time.Time) (int64, error)

	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}
