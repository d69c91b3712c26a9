package oidc

import (
	"errors"
	"fmt"
)

// ErrorCode represents verifier error categories.
type ErrorCode string

const (
	ErrCodeInvalidToken     ErrorCode = "invalid_token"
	ErrCodeInvalidAlgorithm ErrorCode = "invalid_algorithm"
	ErrCodeUnknownKey       ErrorCode = "unknown_key"
	ErrCodeExpired          ErrorCode = "token_expired"
	ErrCodeNotYetValid      ErrorCode = "token_not_yet_valid"
	ErrCodeInvalidIssuer    ErrorCode = "invalid_issuer"
	ErrCodeInvalidAudience  ErrorCode = "invalid_audience"
	ErrCodeJWKSUnavailable  ErrorCode = "jwks_unavailable"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeInvalidToken:     "Invalid token",
	ErrCodeInvalidAlgorithm: "Invalid signing algorithm",
	ErrCodeUnknownKey:       "Unknown signing key",
	ErrCodeExpired:          "Token expired",
	ErrCodeNotYetValid:      "Token not yet valid",
	ErrCodeInvalidIssuer:    "Invalid issuer",
	ErrCodeInvalidAudience:  "Invalid audience",
	ErrCodeJWKSUnavailable:  "JWKS unavailable",
}

// ErrJWKSRateLimited is wrapped when an unknown key id would need a key set
// refetch but the refetch budget is spent.
var ErrJWKSRateLimited = errors.New("jwks refetch rate limit exceeded")

// Error wraps verifier errors with a stable code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code ErrorCode, err error) error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg, Err: err}
}
