package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrMailboxNotFound indicates the mailbox was not found
	ErrMailboxNotFound = errors.New("mailbox not found")

	// ErrAliasNotFound indicates the alias was not found
	ErrAliasNotFound = errors.New("alias not found")

	// ErrMessageNotFound indicates the message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrAttachmentNotFound indicates the attachment was not found
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")

	// Routing-specific errors

	// ErrInvalidAddress indicates the address could not be parsed
	ErrInvalidAddress = errors.New("invalid email address")

	// ErrUnsupportedDomain indicates the address is not on a supported domain
	ErrUnsupportedDomain = errors.New("unsupported domain")

	// ErrLoopDetected indicates a forwarding configuration would cycle
	ErrLoopDetected = errors.New("forwarding loop detected")

	// ErrMaxDepthExceeded indicates a forwarding chain is too deep
	ErrMaxDepthExceeded = errors.New("forwarding chain too deep")

	// ErrDirectoryUnavailable indicates an alias/mailbox lookup failed
	ErrDirectoryUnavailable = errors.New("directory unavailable")

	// ErrRouteMismatch indicates a message is not addressed to the mailbox
	// it was about to be stored under
	ErrRouteMismatch = errors.New("route validation mismatch")

	// ErrRateLimited indicates the outbound rate gate refused the send
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Error codes for API responses
const (
	CodeNotFound             = "NOT_FOUND"
	CodeDuplicateEntry       = "DUPLICATE_ENTRY"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeInternalError        = "INTERNAL_ERROR"
	CodeInvalidAddress       = "INVALID_ADDRESS"
	CodeUnsupportedDomain    = "UNSUPPORTED_DOMAIN"
	CodeLoopDetected         = "LOOP_DETECTED"
	CodeMaxDepthExceeded     = "MAX_DEPTH_EXCEEDED"
	CodeDirectoryUnavailable = "DIRECTORY_UNAVAILABLE"
	CodeRouteMismatch        = "ROUTE_MISMATCH"
	CodeRateLimited          = "RATE_LIMITED"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMailboxNotFound) ||
		errors.Is(err, ErrAliasNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrAttachmentNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRoutingRejection checks if the error is one of the routing validation
// rejections that should surface to users as actionable messages.
func IsRoutingRejection(err error) bool {
	return errors.Is(err, ErrLoopDetected) ||
		errors.Is(err, ErrMaxDepthExceeded) ||
		errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrUnsupportedDomain)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrInvalidAddress):
		return CodeInvalidAddress
	case errors.Is(err, ErrUnsupportedDomain):
		return CodeUnsupportedDomain
	case errors.Is(err, ErrLoopDetected):
		return CodeLoopDetected
	case errors.Is(err, ErrMaxDepthExceeded):
		return CodeMaxDepthExceeded
	case errors.Is(err, ErrDirectoryUnavailable):
		return CodeDirectoryUnavailable
	case errors.Is(err, ErrRouteMismatch):
		return CodeRouteMismatch
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternalError
	}
}
