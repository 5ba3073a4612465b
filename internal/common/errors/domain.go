package commonerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "VALIDATION"
	CategoryNotFound   ErrorCategory = "NOT_FOUND"
	CategoryConflict   ErrorCategory = "CONFLICT"
	CategoryRateLimit  ErrorCategory = "RATE_LIMIT"
	CategoryInternal   ErrorCategory = "INTERNAL"
	CategoryExternal   ErrorCategory = "EXTERNAL"
)

type DomainError interface {
	error
	Code() string
	Category() ErrorCategory
	HTTPStatus() int
	Message() string
	TraceID() string
	Unwrap() error
	WithCause(cause error) DomainError
	WithTraceID(traceID string) DomainError
}

type domainError struct {
	code     string
	category ErrorCategory
	status   int
	message  string
	traceID  string
	cause    error
}

func (e *domainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *domainError) Code() string {
	return e.code
}

func (e *domainError) Category() ErrorCategory {
	return e.category
}

func (e *domainError) HTTPStatus() int {
	return e.status
}

func (e *domainError) Message() string {
	return e.message
}

func (e *domainError) TraceID() string {
	return e.traceID
}

func (e *domainError) Unwrap() error {
	return e.cause
}

// Is matches by code so wrapped copies produced by WithCause still satisfy errors.Is against the sentinel.
func (e *domainError) Is(target error) bool {
	var other *domainError
	if errors.As(target, &other) {
		return other.code == e.code
	}
	return false
}

func (e *domainError) WithCause(cause error) DomainError {
	clone := *e
	clone.cause = cause
	return &clone
}

func (e *domainError) WithTraceID(traceID string) DomainError {
	clone := *e
	clone.traceID = traceID
	return &clone
}

func NewDomainError(code string, category ErrorCategory, status int, message string) DomainError {
	return &domainError{
		code:     code,
		category: category,
		status:   status,
		message:  message,
	}
}

func IsDomainError(err error) bool {
	var de DomainError
	return errors.As(err, &de)
}

func AsDomainError(err error) (DomainError, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

var (
	ErrInvalidConfig = NewDomainError(
		"INVALID_CONFIG",
		CategoryValidation,
		http.StatusInternalServerError,
		"invalid configuration",
	)

	ErrInvalidPayload = NewDomainError(
		"INVALID_PAYLOAD",
		CategoryValidation,
		http.StatusBadRequest,
		"invalid payload",
	)

	ErrInvalidJSON = NewDomainError(
		"INVALID_JSON",
		CategoryValidation,
		http.StatusBadRequest,
		"request body is not valid JSON",
	)

	ErrUnknownMessageType = NewDomainError(
		"UNKNOWN_MESSAGE_TYPE",
		CategoryValidation,
		http.StatusBadRequest,
		"unknown message type",
	)

	ErrConnectionNotFound = NewDomainError(
		"CONNECTION_NOT_FOUND",
		CategoryNotFound,
		http.StatusNotFound,
		"connection not found",
	)

	ErrConnectionClosed = NewDomainError(
		"CONNECTION_CLOSED",
		CategoryExternal,
		http.StatusGone,
		"connection closed",
	)

	ErrSendBufferFull = NewDomainError(
		"SEND_BUFFER_FULL",
		CategoryExternal,
		http.StatusServiceUnavailable,
		"connection send buffer is full",
	)

	ErrRegistryInconsistent = NewDomainError(
		"REGISTRY_INCONSISTENT",
		CategoryInternal,
		http.StatusInternalServerError,
		"connection registry index is inconsistent",
	)

	ErrQueueFull = NewDomainError(
		"QUEUE_FULL",
		CategoryExternal,
		http.StatusServiceUnavailable,
		"event queue is full",
	)

	ErrRateLimited = NewDomainError(
		"RATE_LIMITED",
		CategoryRateLimit,
		http.StatusTooManyRequests,
		"rate limit exceeded",
	)

	ErrInternalError = NewDomainError(
		"INTERNAL_ERROR",
		CategoryInternal,
		http.StatusInternalServerError,
		"internal server error",
	)

	ErrMarshalError = NewDomainError(
		"MARSHAL_ERROR",
		CategoryInternal,
		http.StatusInternalServerError,
		"failed to marshal data",
	)
)
