package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/telar/apps/comments/comments/models"
)

const (
	MaxContentLength = 4000
	DefaultLimit     = 20
	MinLimit         = 1
	MaxLimit         = 100
)

// ParseUUID parses a required UUID field
func ParseUUID(field, value string) (uuid.UUID, error) {
	if strings.TrimSpace(value) == "" {
		return uuid.Nil, fmt.Errorf("%s is required", field)
	}

	id, err := uuid.FromString(value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s must be a valid UUID", field)
	}
	return id, nil
}

// ValidateContent checks the raw content length in characters
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty or whitespace only")
	}

	if utf8.RuneCountInString(content) > MaxContentLength {
		return fmt.Errorf("content must be at most %d characters", MaxContentLength)
	}

	return nil
}

// ValidateCreateCommentRequest validates the create comment request
func ValidateCreateCommentRequest(req *models.CreateCommentRequest) error {
	if req == nil {
		return fmt.Errorf("request is required")
	}

	if _, err := ParseUUID("postId", req.PostID); err != nil {
		return err
	}

	if req.ParentCommentID != nil {
		if _, err := ParseUUID("parentCommentId", *req.ParentCommentID); err != nil {
			return fmt.Errorf("parentCommentId, if provided, must be a valid UUID")
		}
	}

	if req.AuthorID != "" {
		if _, err := ParseUUID("authorId", req.AuthorID); err != nil {
			return err
		}
	}

	return ValidateContent(req.Content)
}

// ValidateUpdateCommentRequest validates update comment request
func ValidateUpdateCommentRequest(req *models.UpdateCommentRequest) error {
	if req == nil {
		return fmt.Errorf("request is required")
	}

	if req.Content == nil {
		return nil
	}

	return ValidateContent(*req.Content)
}

// NormalizeListQuery validates the list query and applies defaults in place
func NormalizeListQuery(query *models.ListCommentsQuery) error {
	if query == nil {
		return fmt.Errorf("query is required")
	}

	if _, err := ParseUUID("postId", query.PostID); err != nil {
		return err
	}

	switch {
	case query.Limit == 0:
		query.Limit = DefaultLimit
	case query.Limit < MinLimit:
		query.Limit = MinLimit
	case query.Limit > MaxLimit:
		query.Limit = MaxLimit
	}

	query.Sort = strings.ToLower(strings.TrimSpace(query.Sort))
	switch query.Sort {
	case "":
		query.Sort = models.SortDesc
	case models.SortDesc, models.SortAsc:
	default:
		return fmt.Errorf("sort must be 'asc' or 'desc'")
	}

	return nil
}
