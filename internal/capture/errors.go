package capture

import (
	"errors"
	"fmt"
)

// Error codes for capture operations.
const (
	ErrCodeOpenFailed        = "OPEN_FAILED"
	ErrCodeQueryFailed       = "QUERY_FAILED"
	ErrCodeUnsupportedDevice = "UNSUPPORTED_DEVICE"
	ErrCodeFormatFailed      = "FORMAT_FAILED"
	ErrCodeAllocFailed       = "ALLOC_FAILED"
	ErrCodeUnsupportedIO     = "UNSUPPORTED_IO"
	ErrCodeMapFailed         = "MAP_FAILED"
	ErrCodeQueueFailed       = "QUEUE_FAILED"
	ErrCodeStreamOnFailed    = "STREAM_ON_FAILED"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeWaitFailed        = "WAIT_FAILED"
	ErrCodeDequeueFailed     = "DEQUEUE_FAILED"
	ErrCodeStreamOffFailed   = "STREAM_OFF_FAILED"
	ErrCodeEncodeFailed      = "ENCODE_FAILED"
	ErrCodeWriteFailed       = "WRITE_FAILED"
)

// Error represents a capture-specific error with a code naming the
// failed operation.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a capture error with the given code.
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsTimeout reports whether err is a capture timeout. Timeouts are an
// expected operational condition (device not ready), not a defect.
func IsTimeout(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeTimeout
	}
	return false
}
