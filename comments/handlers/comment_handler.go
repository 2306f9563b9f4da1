package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/schema"

	"github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/comments/models"
	"github.com/qolzam/telar/apps/comments/comments/services"
	"github.com/qolzam/telar/apps/comments/comments/validation"
	"github.com/qolzam/telar/apps/comments/internal/middleware/identity"
	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
)

// CommentHandler handles all comment-related HTTP requests
type CommentHandler struct {
	commentService services.CommentService
	queryDecoder   *schema.Decoder
}

// NewCommentHandler creates a new CommentHandler with injected dependencies
func NewCommentHandler(commentService services.CommentService) *CommentHandler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &CommentHandler{
		commentService: commentService,
		queryDecoder:   decoder,
	}
}

// CreateComment handles comment creation
func (h *CommentHandler) CreateComment(c *fiber.Ctx) error {
	var req models.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "Invalid request body", err.Error())
	}

	comment, err := h.commentService.Create(c.UserContext(), &req, identity.GetCaller(c))
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return respond(c, fiber.StatusCreated, comment.ToResponse())
}

// ListComments handles retrieving one cursor page of a post's comments
func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	values := url.Values{}
	for key, value := range c.Queries() {
		values.Set(key, value)
	}

	var query models.ListCommentsQuery
	if err := h.queryDecoder.Decode(&query, values); err != nil {
		return errors.HandleValidationError(c, "Invalid query parameters", err.Error())
	}

	page, err := h.commentService.ListByPost(c.UserContext(), &query)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return respond(c, fiber.StatusOK, page.ToPaginatedResponse())
}

// GetComment handles retrieving a single comment
func (h *CommentHandler) GetComment(c *fiber.Ctx) error {
	commentID, err := validation.ParseUUID("commentId", c.Params("commentId"))
	if err != nil {
		return errors.HandleValidationError(c, err.Error())
	}

	comment, err := h.commentService.FindByID(c.UserContext(), commentID)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return respond(c, fiber.StatusOK, comment.ToResponse())
}

// GetReplies handles retrieving the direct replies of a comment
func (h *CommentHandler) GetReplies(c *fiber.Ctx) error {
	parentID, err := validation.ParseUUID("commentId", c.Params("commentId"))
	if err != nil {
		return errors.HandleValidationError(c, err.Error())
	}
	postID, err := validation.ParseUUID("postId", c.Query("postId"))
	if err != nil {
		return errors.HandleValidationError(c, err.Error())
	}

	replies, err := h.commentService.ListReplies(c.UserContext(), postID, parentID)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return respond(c, fiber.StatusOK, models.ToResponses(replies))
}

// CountByAuthor handles counting an author's non-deleted comments
func (h *CommentHandler) CountByAuthor(c *fiber.Ctx) error {
	authorID, err := validation.ParseUUID("authorId", c.Params("authorId"))
	if err != nil {
		return errors.HandleValidationError(c, err.Error())
	}

	count, err := h.commentService.CountByAuthor(c.UserContext(), authorID)
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return respond(c, fiber.StatusOK, models.AuthorCommentCount{AuthorID: authorID.String(), Count: count})
}

// UpdateComment handles comment update
func (h *CommentHandler) UpdateComment(c *fiber.Ctx) error {
	commentID, err := validation.ParseUUID("commentId", c.Params("commentId"))
	if err != nil {
		return errors.HandleValidationError(c, err.Error())
	}

	var req models.UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.HandleValidationError(c, "Invalid request body", err.Error())
	}

	comment, err := h.commentService.Update(c.UserContext(), commentID, &req, identity.GetCaller(c))
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return respond(c, fiber.StatusOK, comment.ToResponse())
}

// DeleteComment handles soft deletion by the author or a moderator
func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	commentID, err := validation.ParseUUID("commentId", c.Params("commentId"))
	if err != nil {
		return errors.HandleValidationError(c, err.Error())
	}

	caller := identity.GetCaller(c)
	if err := h.commentService.Remove(c.UserContext(), commentID, caller); err != nil {
		return errors.HandleServiceError(c, err)
	}

	log.DebugWithContext(c.UserContext(), "Comment %s removed via HTTP", commentID)
	return c.SendStatus(fiber.StatusNoContent)
}

// LikeComment handles adding a like
func (h *CommentHandler) LikeComment(c *fiber.Ctx) error {
	commentID, err := validation.ParseUUID("commentId", c.Params("commentId"))
	if err != nil {
		return errors.HandleValidationError(c, err.Error())
	}

	comment, err := h.commentService.Like(c.UserContext(), commentID, identity.GetCaller(c))
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return respond(c, fiber.StatusOK, comment.ToResponse())
}

// UnlikeComment handles removing a like
func (h *CommentHandler) UnlikeComment(c *fiber.Ctx) error {
	commentID, err := validation.ParseUUID("commentId", c.Params("commentId"))
	if err != nil {
		return errors.HandleValidationError(c, err.Error())
	}

	comment, err := h.commentService.Unlike(c.UserContext(), commentID, identity.GetCaller(c))
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return respond(c, fiber.StatusOK, comment.ToResponse())
}

// RestoreComment handles restoring the caller's deleted comment
func (h *CommentHandler) RestoreComment(c *fiber.Ctx) error {
	commentID, err := validation.ParseUUID("commentId", c.Params("commentId"))
	if err != nil {
		return errors.HandleValidationError(c, err.Error())
	}

	comment, err := h.commentService.Restore(c.UserContext(), commentID, identity.GetCaller(c))
	if err != nil {
		return errors.HandleServiceError(c, err)
	}

	return respond(c, fiber.StatusOK, comment.ToResponse())
}
