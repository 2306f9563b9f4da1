// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"

	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/comments/models"
	"github.com/qolzam/telar/apps/comments/comments/pagination"
	"github.com/qolzam/telar/apps/comments/internal/database/postgres"
)

const commentColumns = `id, post_id, parent_comment_id, author_id, content, likes_count,
	is_deleted, deleted_at, deleted_by, created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// postgresCommentRepository implements CommentRepository using sqlx and squirrel
type postgresCommentRepository struct {
	client *postgres.Client
}

// NewPostgresCommentRepository creates a new PostgreSQL repository for comments
func NewPostgresCommentRepository(client *postgres.Client) CommentRepository {
	return &postgresCommentRepository{client: client}
}

func (r *postgresCommentRepository) db() *sqlx.DB {
	return r.client.DB()
}

// Create inserts a new comment
func (r *postgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (
			id, post_id, parent_comment_id, author_id, content, likes_count,
			is_deleted, deleted_at, deleted_by, created_at, updated_at
		) VALUES (
			:id, :post_id, :parent_comment_id, :author_id, :content, :likes_count,
			:is_deleted, :deleted_at, :deleted_by, :created_at, :updated_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db(), query, comment); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// FindByID retrieves a comment by its ID
func (r *postgresCommentRepository) FindByID(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	var comment models.Comment
	if err := sqlx.GetContext(ctx, r.db(), &comment, query, commentID); err != nil {
		return nil, notFoundOr(err, commentID, "failed to find comment by ID")
	}

	return normalize(&comment), nil
}

// FindPage retrieves one keyset window of non-deleted comments for a post
func (r *postgresCommentRepository) FindPage(ctx context.Context, query pagination.PageQuery) ([]models.Comment, error) {
	builder := psql.Select(commentColumns).
		From("comments").
		Where(sq.Eq{"post_id": query.PostID.String(), "is_deleted": false})

	order := "ASC"
	if query.Descending {
		order = "DESC"
	}

	if query.After != nil {
		comparator := ">"
		if query.Descending {
			comparator = "<"
		}
		builder = builder.Where(
			sq.Expr("(created_at, id) "+comparator+" (?::timestamptz, ?::uuid)", query.After.CreatedAt, query.After.ID.String()),
		)
	}

	builder = builder.
		OrderBy("created_at "+order, "id "+order).
		Limit(uint64(query.Limit))

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build page query: %w", err)
	}

	var comments []models.Comment
	if err := sqlx.SelectContext(ctx, r.db(), &comments, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("failed to find comments page: %w", err)
	}

	return normalizeAll(comments), nil
}

// CountActiveByPost counts non-deleted comments of a post
func (r *postgresCommentRepository) CountActiveByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	return r.count(ctx, sq.Eq{"post_id": postID.String(), "is_deleted": false})
}

// CountByAuthor counts non-deleted comments written by an author
func (r *postgresCommentRepository) CountByAuthor(ctx context.Context, authorID uuid.UUID) (int64, error) {
	return r.count(ctx, sq.Eq{"author_id": authorID.String(), "is_deleted": false})
}

func (r *postgresCommentRepository) count(ctx context.Context, where sq.Eq) (int64, error) {
	sqlStr, args, err := psql.Select("COUNT(*)").From("comments").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := sqlx.GetContext(ctx, r.db(), &count, sqlStr, args...); err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return count, nil
}

// FindReplies returns the non-deleted direct replies of a comment, oldest first
func (r *postgresCommentRepository) FindReplies(ctx context.Context, postID, parentID uuid.UUID) ([]models.Comment, error) {
	sqlStr, args, err := psql.Select(commentColumns).
		From("comments").
		Where(sq.Eq{
			"post_id":           postID.String(),
			"parent_comment_id": parentID.String(),
			"is_deleted":        false,
		}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build replies query: %w", err)
	}

	var comments []models.Comment
	if err := sqlx.SelectContext(ctx, r.db(), &comments, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("failed to find replies: %w", err)
	}

	return normalizeAll(comments), nil
}

// UpdateContent replaces the content and bumps updated_at
func (r *postgresCommentRepository) UpdateContent(ctx context.Context, commentID uuid.UUID, content string, updatedAt time.Time) (*models.Comment, error) {
	query := `UPDATE comments SET content = $1, updated_at = $2 WHERE id = $3 RETURNING ` + commentColumns
	return r.updateReturning(ctx, commentID, "failed to update comment", query, content, updatedAt, commentID)
}

// SoftDelete marks a comment deleted
func (r *postgresCommentRepository) SoftDelete(ctx context.Context, commentID, deletedBy uuid.UUID, at time.Time) (*models.Comment, error) {
	query := `UPDATE comments SET is_deleted = TRUE, deleted_at = $1, deleted_by = $2, updated_at = $1
		WHERE id = $3 RETURNING ` + commentColumns
	return r.updateReturning(ctx, commentID, "failed to delete comment", query, at, deletedBy, commentID)
}

// Restore clears the deletion fields of a comment
func (r *postgresCommentRepository) Restore(ctx context.Context, commentID uuid.UUID, at time.Time) (*models.Comment, error) {
	query := `UPDATE comments SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL, updated_at = $1
		WHERE id = $2 RETURNING ` + commentColumns
	return r.updateReturning(ctx, commentID, "failed to restore comment", query, at, commentID)
}

// IncrementLikes atomically adds one like
func (r *postgresCommentRepository) IncrementLikes(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	query := `UPDATE comments SET likes_count = likes_count + 1 WHERE id = $1 RETURNING ` + commentColumns
	return r.updateReturning(ctx, commentID, "failed to increment likes", query, commentID)
}

// DecrementLikes atomically removes one like, guarded so the counter never goes negative
func (r *postgresCommentRepository) DecrementLikes(ctx context.Context, commentID uuid.UUID) (*models.Comment, error) {
	query := `UPDATE comments SET likes_count = likes_count - 1 WHERE id = $1 AND likes_count > 0 RETURNING ` + commentColumns

	comment, err := r.updateReturning(ctx, commentID, "failed to decrement likes", query, commentID)
	if errors.Is(err, commentErrors.ErrNotFound) {
		// Either the comment is missing or the counter is already zero
		return r.FindByID(ctx, commentID)
	}
	return comment, err
}

// SoftDeleteByPost marks every non-deleted comment of a post deleted
func (r *postgresCommentRepository) SoftDeleteByPost(ctx context.Context, postID uuid.UUID, at time.Time) (int64, error) {
	query := `UPDATE comments SET is_deleted = TRUE, deleted_at = $1, updated_at = $1 WHERE post_id = $2 AND is_deleted = FALSE`

	result, err := r.db().ExecContext(ctx, query, at, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments by post ID: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// Ping checks that the database is reachable
func (r *postgresCommentRepository) Ping(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}

func (r *postgresCommentRepository) updateReturning(ctx context.Context, commentID uuid.UUID, action, query string, args ...interface{}) (*models.Comment, error) {
	var comment models.Comment
	if err := sqlx.GetContext(ctx, r.db(), &comment, query, args...); err != nil {
		return nil, notFoundOr(err, commentID, action)
	}
	return normalize(&comment), nil
}

func notFoundOr(err error, commentID uuid.UUID, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("comment %s: %w", commentID, commentErrors.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// normalize converts driver timestamps to UTC so values compare equal across stores
func normalize(comment *models.Comment) *models.Comment {
	comment.CreatedAt = comment.CreatedAt.UTC()
	comment.UpdatedAt = comment.UpdatedAt.UTC()
	if comment.DeletedAt != nil {
		deletedAt := comment.DeletedAt.UTC()
		comment.DeletedAt = &deletedAt
	}
	return comment
}

func normalizeAll(comments []models.Comment) []models.Comment {
	if comments == nil {
		return []models.Comment{}
	}
	for i := range comments {
		normalize(&comments[i])
	}
	return comments
}
