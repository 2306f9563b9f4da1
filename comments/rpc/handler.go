package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	commentErrors "github.com/qolzam/telar/apps/comments/comments/errors"
	"github.com/qolzam/telar/apps/comments/comments/models"
	"github.com/qolzam/telar/apps/comments/comments/services"
	"github.com/qolzam/telar/apps/comments/comments/validation"
	"github.com/qolzam/telar/apps/comments/internal/observability"
	"github.com/qolzam/telar/apps/comments/internal/pkg/log"
	"github.com/qolzam/telar/apps/comments/internal/types"
)

type operation func(ctx context.Context, body []byte) (interface{}, error)

// Handler decodes RPC requests, calls the comment service and builds reply envelopes
type Handler struct {
	service    services.CommentService
	metrics    *observability.Metrics
	operations map[string]operation
}

// NewHandler creates a Handler. metrics may be nil.
func NewHandler(service services.CommentService, metrics *observability.Metrics) *Handler {
	h := &Handler{service: service, metrics: metrics}
	h.operations = map[string]operation{
		OpCreate:  h.create,
		OpGetAll:  h.getAll,
		OpGet:     h.get,
		OpUpdate:  h.update,
		OpDelete:  h.remove,
		OpLike:    h.like,
		OpUnlike:  h.unlike,
		OpRestore: h.restore,
	}
	return h
}

// Handle runs one operation and never fails: errors and panics become a failed Response
func (h *Handler) Handle(ctx context.Context, op string, body []byte) (resp Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.ErrorWithContext(ctx, "RPC %s panicked: %v", op, r)
			resp = failure(commentErrors.Internal("rpc handler panicked", fmt.Errorf("%v", r)), resp.RequestID)
		}
		h.metrics.ObserveRPC(op, time.Since(start))
	}()

	// Only the request ID is read here, best-effort. Each operation decodes
	// the full payload and rejects malformed JSON itself.
	var envelope Request
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Debug("RPC %s: request ID not readable: %v", op, err)
	}
	requestID := envelope.RequestID
	if requestID == "" {
		requestID = uuid.Must(uuid.NewV4()).String()
	}
	resp.RequestID = requestID
	ctx = log.WithRequestID(ctx, requestID)

	handler, ok := h.operations[op]
	if !ok {
		return failure(commentErrors.InvalidArgument(fmt.Sprintf("unknown operation %q", op)), requestID)
	}

	data, err := handler(ctx, body)
	if err != nil {
		if commentErrors.Kind(err) == commentErrors.ErrInternal {
			log.ErrorWithContext(ctx, "RPC %s failed: %v", op, err)
			log.DumpDebug(fmt.Sprintf("RPC %s request", op), string(body))
		} else {
			log.DebugWithContext(ctx, "RPC %s rejected: %v", op, err)
		}
		return failure(err, requestID)
	}

	return Response{Success: true, Data: data, RequestID: requestID}
}

func failure(err error, requestID string) Response {
	return Response{
		Success: false,
		Error: &ResponseError{
			Code:    commentErrors.Code(err),
			Message: commentErrors.Message(err),
		},
		RequestID: requestID,
	}
}

func decode(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return commentErrors.InvalidArgument("invalid request payload").WithDetails(err.Error())
	}
	return nil
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := validation.ParseUUID(field, value)
	if err != nil {
		return uuid.Nil, commentErrors.InvalidArgument(err.Error())
	}
	return id, nil
}

// callerFor builds the caller context from the request's identity fields
func callerFor(ctx context.Context, userID string, isModerator bool) (types.CallerContext, error) {
	caller := types.CallerContext{IsModerator: isModerator, RequestID: log.RequestIDFromContext(ctx)}
	if userID == "" {
		return caller, nil
	}
	id, err := parseID("userId", userID)
	if err != nil {
		return caller, err
	}
	caller.UserID = id
	return caller, nil
}

func (h *Handler) create(ctx context.Context, body []byte) (interface{}, error) {
	var req CreateCommentRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}

	comment, err := h.service.Create(ctx, &models.CreateCommentRequest{
		PostID:          req.PostID,
		ParentCommentID: req.ParentCommentID,
		Content:         req.Content,
		AuthorID:        req.AuthorID,
	}, types.Anonymous(log.RequestIDFromContext(ctx)))
	if err != nil {
		return nil, err
	}
	return comment.ToResponse(), nil
}

func (h *Handler) getAll(ctx context.Context, body []byte) (interface{}, error) {
	var req GetCommentsRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}

	page, err := h.service.ListByPost(ctx, &models.ListCommentsQuery{
		PostID: req.PostID,
		Cursor: req.Cursor,
		Limit:  req.Limit,
		Sort:   req.Sort,
	})
	if err != nil {
		return nil, err
	}
	return page.ToPaginatedResponse(), nil
}

func (h *Handler) get(ctx context.Context, body []byte) (interface{}, error) {
	var req GetCommentRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	commentID, err := parseID("commentId", req.CommentID)
	if err != nil {
		return nil, err
	}

	comment, err := h.service.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return comment.ToResponse(), nil
}

func (h *Handler) update(ctx context.Context, body []byte) (interface{}, error) {
	var req UpdateCommentRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	commentID, err := parseID("commentId", req.CommentID)
	if err != nil {
		return nil, err
	}
	caller, err := callerFor(ctx, req.UserID, false)
	if err != nil {
		return nil, err
	}

	comment, err := h.service.Update(ctx, commentID, &models.UpdateCommentRequest{Content: req.Content}, caller)
	if err != nil {
		return nil, err
	}
	return comment.ToResponse(), nil
}

func (h *Handler) remove(ctx context.Context, body []byte) (interface{}, error) {
	var req DeleteCommentRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	commentID, err := parseID("commentId", req.CommentID)
	if err != nil {
		return nil, err
	}
	caller, err := callerFor(ctx, req.UserID, req.IsModerator)
	if err != nil {
		return nil, err
	}

	if err := h.service.Remove(ctx, commentID, caller); err != nil {
		return nil, err
	}
	return nil, nil
}

// action decodes the shared like/unlike/restore payload
func (h *Handler) action(ctx context.Context, body []byte) (uuid.UUID, types.CallerContext, error) {
	var req CommentActionRequest
	if err := decode(body, &req); err != nil {
		return uuid.Nil, types.CallerContext{}, err
	}
	commentID, err := parseID("commentId", req.CommentID)
	if err != nil {
		return uuid.Nil, types.CallerContext{}, err
	}
	caller, err := callerFor(ctx, req.UserID, false)
	return commentID, caller, err
}

func (h *Handler) like(ctx context.Context, body []byte) (interface{}, error) {
	commentID, caller, err := h.action(ctx, body)
	if err != nil {
		return nil, err
	}
	comment, err := h.service.Like(ctx, commentID, caller)
	if err != nil {
		return nil, err
	}
	return comment.ToResponse(), nil
}

func (h *Handler) unlike(ctx context.Context, body []byte) (interface{}, error) {
	commentID, caller, err := h.action(ctx, body)
	if err != nil {
		return nil, err
	}
	comment, err := h.service.Unlike(ctx, commentID, caller)
	if err != nil {
		return nil, err
	}
	return comment.ToResponse(), nil
}

func (h *Handler) restore(ctx context.Context, body []byte) (interface{}, error) {
	commentID, caller, err := h.action(ctx, body)
	if err != nil {
		return nil, err
	}
	comment, err := h.service.Restore(ctx, commentID, caller)
	if err != nil {
		return nil, err
	}
	return comment.ToResponse(), nil
}
