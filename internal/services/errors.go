package services

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindMissingParameter    ErrorKind = "MissingParameter"
	KindInvalidIdentifier   ErrorKind = "InvalidIdentifier"
	KindNotFound            ErrorKind = "NotFound"
	KindForbidden           ErrorKind = "Forbidden"
	KindEmptyContent        ErrorKind = "EmptyContent"
	KindUnsupportedFile     ErrorKind = "UnsupportedFile"
	KindUpstreamUnavailable ErrorKind = "UpstreamServiceUnavailable"
	KindPersistenceFailure  ErrorKind = "PersistenceFailure"
	KindConversionFailure   ErrorKind = "ConversionFailure"
)

// PipelineError is the error type returned across the service boundary.
// Message is safe to show to the caller, Err carries the internal cause.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewPipelineError(kind ErrorKind, message string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: cause}
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first PipelineError in err's chain, or ""
// when there is none.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// PublicMessage returns the caller-facing message for err.
func PublicMessage(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "Internal server error"
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
