package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed prediction call
type ErrorKind int

const (
	KindTimeout ErrorKind = iota + 1
	KindServer
	KindValidation
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// PredictionError is the only error type returned by ModelClient.Predict.
// Exactly one Kind applies to any failure.
type PredictionError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *PredictionError) Error() string {
	return e.Message
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of a PredictionError anywhere in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// ErrServiceUnavailable is returned by CheckHealth for every kind of failure
var ErrServiceUnavailable = errors.New("model service is not available")

func newTimeoutError(err error) *PredictionError {
	return &PredictionError{
		Kind:    KindTimeout,
		Message: "request timeout - model inference took too long",
		Err:     err,
	}
}

func newServerError(status int, message string) *PredictionError {
	if message == "" {
		message = "unexpected backend error"
	}
	return &PredictionError{Kind: KindServer, Message: message, StatusCode: status}
}

func newValidationError(status int, message string) *PredictionError {
	return &PredictionError{Kind: KindValidation, Message: message, StatusCode: status}
}

func newNetworkError(err error) *PredictionError {
	return &PredictionError{
		Kind:    KindNetwork,
		Message: fmt.Sprintf("network error: %v", err),
		Err:     err,
	}
}
