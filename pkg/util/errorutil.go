package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable error codes surfaced to API callers.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeDuplicateEmail      = "DUPLICATE_EMAIL"
	CodeUnknownToken        = "UNKNOWN_TOKEN"
	CodeTokenInvalid        = "TOKEN_INVALID"
	CodeMissingCredential   = "MISSING_CREDENTIAL"
	CodeMalformedCredential = "MALFORMED_CREDENTIAL"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	CodeInternalError       = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewDuplicateEmail rejects registration of an email that already owns an identity.
func NewDuplicateEmail(email string) error {
	return NewDomainError(CodeDuplicateEmail, "email already registered", http.StatusBadRequest,
		map[string]any{"email": email})
}

// NewUnknownToken signals a refresh token with no entry in the token table.
func NewUnknownToken(message string) error {
	return NewDomainError(CodeUnknownToken, message, http.StatusUnauthorized, nil)
}

// NewTokenInvalid covers bad signature, wrong algorithm, and expiry.
func NewTokenInvalid(message string) error {
	return NewDomainError(CodeTokenInvalid, message, http.StatusUnauthorized, nil)
}

func NewMissingCredential() error {
	return NewDomainError(CodeMissingCredential, "authorization header missing", http.StatusUnauthorized, nil)
}

func NewMalformedCredential() error {
	return NewDomainError(CodeMalformedCredential, "authorization header malformed", http.StatusUnauthorized, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewIdentityNotFound signals a token whose subject no longer resolves to a
// registered identity.
func NewIdentityNotFound(email string) error {
	return NewDomainError(CodeIdentityNotFound, "identity no longer known", http.StatusUnauthorized,
		map[string]any{"email": email})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
