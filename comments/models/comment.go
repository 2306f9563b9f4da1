package models

import (
	"time"

	uuid "github.com/gofrs/uuid"
)

// DeletedContentPlaceholder replaces the content of soft-deleted comments in responses
const DeletedContentPlaceholder = "[deleted]"

// Sort directions for listing
const (
	SortDesc = "desc"
	SortAsc  = "asc"
)

// Comment represents the complete comment entity in the database
type Comment struct {
	CommentID       uuid.UUID  `json:"commentId" db:"id"`
	PostID          uuid.UUID  `json:"postId" db:"post_id"`
	ParentCommentID *uuid.UUID `json:"parentCommentId,omitempty" db:"parent_comment_id"`
	AuthorID        uuid.UUID  `json:"authorId" db:"author_id"`
	Content         string     `json:"content" db:"content"`
	LikesCount      int64      `json:"likesCount" db:"likes_count"`
	IsDeleted       bool       `json:"isDeleted" db:"is_deleted"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
	DeletedBy       *uuid.UUID `json:"deletedBy,omitempty" db:"deleted_by"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// CreateCommentRequest represents the request payload for creating a comment.
// AuthorID falls back to the caller identity when omitted.
type CreateCommentRequest struct {
	PostID          string  `json:"postId"`
	ParentCommentID *string `json:"parentCommentId,omitempty"`
	Content         string  `json:"content"`
	AuthorID        string  `json:"authorId,omitempty"`
}

// UpdateCommentRequest represents the request payload for updating a comment.
// A nil Content leaves the stored content unchanged.
type UpdateCommentRequest struct {
	Content *string `json:"content,omitempty"`
}

// ListCommentsQuery represents the query parameters for listing comments of a post
type ListCommentsQuery struct {
	PostID string `json:"postId" schema:"postId"`
	Cursor string `json:"cursor,omitempty" schema:"cursor"`
	Limit  int    `json:"limit,omitempty" schema:"limit"`
	Sort   string `json:"sort,omitempty" schema:"sort"`
}

// CommentPage is one window of a post's comments
type CommentPage struct {
	Items      []Comment
	NextCursor string
	TotalCount int64
}

// CommentResponse represents the response format for comment data
type CommentResponse struct {
	CommentID       string  `json:"commentId"`
	PostID          string  `json:"postId"`
	ParentCommentID *string `json:"parentCommentId,omitempty"`
	AuthorID        string  `json:"authorId"`
	Content         string  `json:"content"`
	LikesCount      int64   `json:"likesCount"`
	IsDeleted       bool    `json:"isDeleted"`
	DeletedAt       *string `json:"deletedAt,omitempty"`
	DeletedBy       *string `json:"deletedBy,omitempty"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

// PaginatedComments represents the response for listing comments
type PaginatedComments struct {
	Items      []CommentResponse `json:"items"`
	NextCursor *string           `json:"nextCursor,omitempty"`
	TotalCount int64             `json:"totalCount"`
}

// AuthorCommentCount is the number of live comments written by an author
type AuthorCommentCount struct {
	AuthorID string `json:"authorId"`
	Count    int64  `json:"count"`
}

// ToResponse maps a stored comment to its presentation form
func (c *Comment) ToResponse() CommentResponse {
	resp := CommentResponse{
		CommentID:  c.CommentID.String(),
		PostID:     c.PostID.String(),
		AuthorID:   c.AuthorID.String(),
		Content:    c.Content,
		LikesCount: c.LikesCount,
		IsDeleted:  c.IsDeleted,
		CreatedAt:  formatTime(c.CreatedAt),
		UpdatedAt:  formatTime(c.UpdatedAt),
	}

	if c.IsDeleted {
		resp.Content = DeletedContentPlaceholder
	}
	if c.ParentCommentID != nil {
		parent := c.ParentCommentID.String()
		resp.ParentCommentID = &parent
	}
	if c.DeletedAt != nil {
		deletedAt := formatTime(*c.DeletedAt)
		resp.DeletedAt = &deletedAt
	}
	if c.DeletedBy != nil {
		deletedBy := c.DeletedBy.String()
		resp.DeletedBy = &deletedBy
	}
	return resp
}

// ToResponses maps a slice of comments, never returning nil
func ToResponses(comments []Comment) []CommentResponse {
	responses := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, comments[i].ToResponse())
	}
	return responses
}

// ToPaginatedResponse maps a page to its presentation form
func (p *CommentPage) ToPaginatedResponse() PaginatedComments {
	resp := PaginatedComments{
		Items:      ToResponses(p.Items),
		TotalCount: p.TotalCount,
	}
	if p.NextCursor != "" {
		cursor := p.NextCursor
		resp.NextCursor = &cursor
	}
	return resp
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
