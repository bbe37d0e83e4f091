package services

import (
	"fmt"
	"net/http"
)

// GatewayErrorKind classifies why a gateway request ended without an answer.
type GatewayErrorKind string

const (
	KindInvalidRequest     GatewayErrorKind = "invalid-request"
	KindRateLimited        GatewayErrorKind = "rate-limited"
	KindModelFailure       GatewayErrorKind = "model-failure"
	KindInvalidModelOutput GatewayErrorKind = "invalid-model-output"
	KindUnsafeQuery        GatewayErrorKind = "unsafe-query"
	KindExecutionFailure   GatewayErrorKind = "execution-failure"
)

// Caller-visible messages.
const (
	msgInvalidTable       = "Invalid table parameter"
	msgMessageRequired    = "message is required"
	msgRateLimited        = "El servicio de IA está saturado. Intenta de nuevo en unos segundos."
	msgInvalidModelOutput = "Invalid format from AI"
	msgExecutionFailure   = "Error al ejecutar la consulta."
)

// GatewayError carries the HTTP status and a message that is safe to return.
// Err keeps the underlying cause for logs.
type GatewayError struct {
	Kind    GatewayErrorKind
	Status  int
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func newGatewayError(kind GatewayErrorKind, message string, err error) *GatewayError {
	return &GatewayError{Kind: kind, Status: statusForKind(kind), Message: message, Err: err}
}

func statusForKind(kind GatewayErrorKind) int {
	switch kind {
	case KindInvalidRequest, KindUnsafeQuery:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the message followed by the cause, for logging.
func (e *GatewayError) Detail() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}
