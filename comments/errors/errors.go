package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Error kinds shared by the HTTP and broker transports
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRateLimited     = errors.New("rate limited")
	ErrInternal        = errors.New("internal error")
)

// Stable code strings carried on both transports
const (
	CodeNotFound        = "NotFound"
	CodeForbidden       = "Forbidden"
	CodeConflict        = "Conflict"
	CodeInvalidArgument = "InvalidArgument"
	CodeRateLimited     = "RateLimited"
	CodeInternal        = "Internal"
)

// CommentError represents a comment service error with additional context
type CommentError struct {
	Kind    error
	Message string
	Details string
	Cause   error
}

func (e *CommentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", Code(e.Kind), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", Code(e.Kind), e.Message)
}

// Is lets errors.Is match a CommentError against its kind
func (e *CommentError) Is(target error) bool {
	return e.Kind == target
}

func (e *CommentError) Unwrap() error {
	return e.Cause
}

// New creates a CommentError of the given kind
func New(kind error, message string) *CommentError {
	return &CommentError{Kind: kind, Message: message}
}

// Wrap creates a CommentError of the given kind around a cause
func Wrap(kind error, message string, cause error) *CommentError {
	return &CommentError{Kind: kind, Message: message, Cause: cause}
}

func NotFound(message string) *CommentError        { return New(ErrNotFound, message) }
func Forbidden(message string) *CommentError       { return New(ErrForbidden, message) }
func Conflict(message string) *CommentError        { return New(ErrConflict, message) }
func InvalidArgument(message string) *CommentError { return New(ErrInvalidArgument, message) }

// Internal wraps an unexpected store or system failure
func Internal(message string, cause error) *CommentError {
	return Wrap(ErrInternal, message, cause)
}

// WithDetails attaches details to the error
func (e *CommentError) WithDetails(details string) *CommentError {
	e.Details = details
	return e
}

// Kind returns the error kind for err. Unknown errors are Internal.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrForbidden, ErrConflict, ErrInvalidArgument, ErrRateLimited} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

// Code returns the stable code string for an error kind or any wrapping error
func Code(err error) string {
	switch Kind(err) {
	case ErrNotFound:
		return CodeNotFound
	case ErrForbidden:
		return CodeForbidden
	case ErrConflict:
		return CodeConflict
	case ErrInvalidArgument:
		return CodeInvalidArgument
	case ErrRateLimited:
		return CodeRateLimited
	default:
		return CodeInternal
	}
}

// StatusCode maps an error to its HTTP status
func StatusCode(err error) int {
	switch Kind(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	case ErrInvalidArgument:
		return http.StatusBadRequest
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Internal errors never leak their cause.
func Message(err error) string {
	var ce *CommentError
	if errors.As(err, &ce) && Kind(err) != ErrInternal {
		return ce.Message
	}

	switch Kind(err) {
	case ErrNotFound:
		return "Comment not found"
	case ErrInternal:
		return "An unexpected error occurred"
	default:
		return err.Error()
	}
}

// ErrorResponse represents the standardized error response format
type ErrorResponse struct {
	StatusCode int         `json:"statusCode"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

// NewErrorResponse builds the HTTP error envelope for err
func NewErrorResponse(err error) ErrorResponse {
	response := ErrorResponse{
		StatusCode: StatusCode(err),
		Code:       Code(err),
		Message:    Message(err),
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}

	var ce *CommentError
	if errors.As(err, &ce) && ce.Details != "" {
		response.Details = ce.Details
	}
	return response
}

// HandleServiceError writes the error envelope for a service error
func HandleServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	response := NewErrorResponse(err)
	return c.Status(response.StatusCode).JSON(response)
}

// HandleValidationError handles validation errors with 400 Bad Request
func HandleValidationError(c *fiber.Ctx, message string, details ...string) error {
	err := InvalidArgument(message)
	if len(details) > 0 {
		err.WithDetails(details[0])
	}
	return HandleServiceError(c, err)
}

// HandleForbiddenError returns an error for forbidden access
func HandleForbiddenError(c *fiber.Ctx, message string) error {
	return HandleServiceError(c, Forbidden(message))
}
