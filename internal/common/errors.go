package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure taxonomy for a submission. Callers classify with errors.Is and
// decide whether a resubmission makes sense.
var (
	// ErrTransport covers network/service unavailability; retryable by the operator.
	ErrTransport = errors.New("transport error")
	// ErrProcessingFailed means the remote service could not process an
	// uploaded document; the document must be resubmitted.
	ErrProcessingFailed = errors.New("document processing failed")
	// ErrTimeout means polling exceeded its bound; retryable.
	ErrTimeout = errors.New("timed out waiting for documents")
	// ErrEmptyResponse means the extraction call returned no text.
	ErrEmptyResponse = errors.New("empty extraction response")
	// ErrMalformedResponse means no JSON value could be isolated from the
	// extraction output; often transient model variance, retryable.
	ErrMalformedResponse = errors.New("malformed extraction response")
	// ErrValidation means the extraction output is structurally present but
	// missing mandatory fields; surfaced to the operator, never defaulted.
	ErrValidation = errors.New("validation failed")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
