package pagination

import (
	"context"
	"fmt"

	uuid "github.com/gofrs/uuid"

	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/comments/models"
)

// PageQuery asks a Source for up to Limit non-deleted comments of a post,
// ordered by (createdAt, commentId) and strictly after the After position.
type PageQuery struct {
	PostID     uuid.UUID
	After      *Cursor
	Descending bool
	Limit      int
}

// Source is the slice of the comment store the engine pages over
type Source interface {
	FindPage(ctx context.Context, query PageQuery) ([]models.Comment, error)
	CountActiveByPost(ctx context.Context, postID uuid.UUID) (int64, error)
}

// Engine computes cursor-paginated windows over a Source
type Engine struct {
	source Source
}

// NewEngine creates a new pagination engine
func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// Page returns up to limit comments after cursor plus the cursor for the next page.
// limit and sort are expected to be normalized by the caller.
func (e *Engine) Page(ctx context.Context, postID uuid.UUID, cursor string, limit int, sort string) (*models.CommentPage, error) {
	if limit < 1 {
		return nil, commentErrors.InvalidArgument("limit must be positive")
	}

	query := PageQuery{
		PostID:     postID,
		Descending: sort != models.SortAsc,
		Limit:      limit + 1,
	}

	if cursor != "" {
		decoded, err := Decode(cursor)
		if err != nil {
			return nil, commentErrors.InvalidArgument("invalid cursor").WithDetails(err.Error())
		}
		query.After = &decoded
	}

	rows, err := e.source.FindPage(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comment page: %w", err)
	}

	total, err := e.source.CountActiveByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	page := &models.CommentPage{TotalCount: total}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		page.NextCursor = Encode(NewCursor(last.CreatedAt, last.CommentID))
	}
	page.Items = rows

	return page, nil
}
