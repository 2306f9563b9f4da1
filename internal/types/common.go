package types

import (
	uuid "github.com/gofrs/uuid"
)

// HTTP Header Constants
const (
	HeaderUserID      = "X-User-Id"
	HeaderIsModerator = "X-Is-Moderator"
	HeaderRequestID   = "X-Request-Id"
	HeaderContentType = "Content-Type"
)

// CallerCtxName is the fiber Locals key holding the CallerContext
const CallerCtxName = "caller"

// CallerContext carries the identity of whoever issued a request.
//
// The values are taken from transport side-channels (HTTP headers or RPC
// envelope fields) and are not verified here. Verifying identity belongs
// upstream of the transport adapters; the comment service trusts what it is
// handed.
type CallerContext struct {
	UserID      uuid.UUID
	IsModerator bool
	RequestID   string
}

// HasUser reports whether a caller identity was supplied
func (c CallerContext) HasUser() bool {
	return c.UserID != uuid.Nil
}

// Anonymous returns a caller context carrying only a request id
func Anonymous(requestID string) CallerContext {
	return CallerContext{RequestID: requestID}
}
