// Package rpc exposes the comment service over request/reply messages on the broker.
package rpc

// Operations served over the broker. Each is consumed from queue
// "comments.rpc.<op>" bound to routing key "comment.<op>".
const (
	OpCreate  = "create"
	OpGetAll  = "getAll"
	OpGet     = "get"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpLike    = "like"
	OpUnlike  = "unlike"
	OpRestore = "restore"
)

// Operations lists every served operation
var Operations = []string{OpCreate, OpGetAll, OpGet, OpUpdate, OpDelete, OpLike, OpUnlike, OpRestore}

// RoutingKey returns the routing key of an operation
func RoutingKey(op string) string {
	return "comment." + op
}

// QueueName returns the queue consumed for an operation
func QueueName(op string) string {
	return "comments.rpc." + op
}

// Request carries the fields common to every RPC request
type Request struct {
	RequestID string `json:"requestId,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type CreateCommentRequest struct {
	Request
	PostID          string  `json:"postId"`
	ParentCommentID *string `json:"parentCommentId,omitempty"`
	Content         string  `json:"content"`
	AuthorID        string  `json:"authorId"`
}

type GetCommentsRequest struct {
	Request
	PostID string `json:"postId"`
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Sort   string `json:"sort,omitempty"`
}

type GetCommentRequest struct {
	Request
	CommentID string `json:"commentId"`
}

type UpdateCommentRequest struct {
	Request
	CommentID string  `json:"commentId"`
	Content   *string `json:"content,omitempty"`
	UserID    string  `json:"userId"`
}

type DeleteCommentRequest struct {
	Request
	CommentID   string `json:"commentId"`
	UserID      string `json:"userId"`
	IsModerator bool   `json:"isModerator,omitempty"`
}

// CommentActionRequest is the payload of like, unlike and restore
type CommentActionRequest struct {
	Request
	CommentID string `json:"commentId"`
	UserID    string `json:"userId"`
}

// Response is the reply envelope. It is returned for every request, including failures.
type Response struct {
	Success   bool           `json:"success"`
	Data      interface{}    `json:"data,omitempty"`
	Error     *ResponseError `json:"error,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}

// ResponseError carries the stable error code and client-facing message
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
