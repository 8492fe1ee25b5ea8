package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors. Rejected operations carry a
// specific, actionable reason rather than a generic failure.
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
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewDuplicateActive reports a violated uniqueness-of-active-record rule
// (invite, reset code, assignment).
func NewDuplicateActive(message string, details map[string]any) error {
	return NewDomainError("DUPLICATE_ACTIVE", message, http.StatusConflict, details)
}

// NewExpired reports a time-bounded token past its window.
func NewExpired(message string) error {
	return NewDomainError("EXPIRED", message, http.StatusBadRequest, nil)
}

// NewAlreadyUsed reports a one-time token redeemed twice.
func NewAlreadyUsed(message string) error {
	return NewDomainError("ALREADY_USED", message, http.StatusConflict, nil)
}

// NewIneligibleAssignee reports a role/category/capacity mismatch during
// ticket assignment.
func NewIneligibleAssignee(message string, details map[string]any) error {
	return NewDomainError("INELIGIBLE_ASSIGNEE", message, http.StatusUnprocessableEntity, details)
}

// NewProofRequired reports a resolution missing mandatory evidence.
func NewProofRequired(message string) error {
	return NewDomainError("PROOF_REQUIRED", message, http.StatusBadRequest, nil)
}

// NewInvalidState reports an operation not valid for the current ticket
// status.
func NewInvalidState(message string, details map[string]any) error {
	return NewDomainError("INVALID_STATE", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
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
	if errors.Is(err, sql.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
