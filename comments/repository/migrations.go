package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// commentsSchemaSQL creates the comments table and the indexes the list and reply queries use
const commentsSchemaSQL = `
	CREATE TABLE IF NOT EXISTS comments (
		id UUID PRIMARY KEY,
		post_id UUID NOT NULL,
		parent_comment_id UUID,
		author_id UUID NOT NULL,
		content TEXT NOT NULL,
		likes_count BIGINT NOT NULL DEFAULT 0 CHECK (likes_count >= 0),
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		deleted_at TIMESTAMPTZ,
		deleted_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments(post_id, created_at, id);
	CREATE INDEX IF NOT EXISTS idx_comments_post_parent ON comments(post_id, parent_comment_id);
	CREATE INDEX IF NOT EXISTS idx_comments_author ON comments(author_id);
`

// Migrate applies the comments schema. It is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, commentsSchemaSQL); err != nil {
		return fmt.Errorf("failed to apply comments migration: %w", err)
	}
	return nil
}
