// Package domainerrors carries coded errors across service boundaries.
//
// Services return *Error values (optionally wrapping an infrastructure cause) so
// transports can map them to status codes without string matching. Stores
// return sentinel errors from pkg/platform/sentinel instead; services translate
// those into a Code.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// Generic codes shared by every service.
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInternal           Code = "internal_error"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// CodeUnauthenticated means the request carries no valid caller identity.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeUnauthorized means the caller or the delegating signer lacks the required role.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidSignature means a delegation signature is malformed or does not recover.
	CodeInvalidSignature Code = "invalid_signature"
	// CodeNotOwner means the transfer source does not own the record.
	CodeNotOwner Code = "not_owner"
	// CodeInvalidAmount means a batch size is zero or above the configured limit.
	CodeInvalidAmount Code = "invalid_amount"
	// CodeLengthMismatch means parallel batch inputs differ in length.
	CodeLengthMismatch Code = "length_mismatch"
	// CodeReplayed means a delegation was already consumed by the replay guard.
	CodeReplayed Code = "signature_replayed"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
// Wrapping a nil error returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// GetCode returns the outermost code in the chain, or CodeInternal when the
// chain carries none.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// ToHTTPStatus maps a code to the HTTP status used by the transport layer.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeInvalidAmount, CodeLengthMismatch, CodeInvalidSignature:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotOwner, CodeConflict, CodeReplayed, CodeInvariantViolation:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
