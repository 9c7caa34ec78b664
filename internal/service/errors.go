// Package service holds the purchase core: the availability ledger, the
// purchase validator, the transaction manager that commits purchases with
// a unique verification code, the audit log and the read models built on
// top of them.  Services depend on store.Store and never on a concrete
// database.
package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks a rejected purchase input.  It is always wrapped
	// by a *ValidationError carrying the field list.
	ErrValidation = errors.New("validation failed")

	// ErrSoldOutDuringCommit is returned when a purchase passed the advisory
	// check but a concurrent purchase took the last ticket before commit.
	ErrSoldOutDuringCommit = fmt.Errorf("%w: sold out during commit", ErrValidation)

	// ErrForbidden is returned when the actor lacks the capability an
	// operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrEmptyCode and ErrInvalidCodeFormat are verification lookup outcomes
	// that never reach the database.
	ErrEmptyCode         = errors.New("verification code is empty")
	ErrInvalidCodeFormat = errors.New("verification code has an invalid format")
)

// Field error codes.
const (
	CodeRequired             = "required"
	CodeInvalidEmail         = "invalid_email"
	CodeNotFound             = "not_found"
	CodeDuplicatePerformance = "duplicate_performance"
	CodeSoldOut              = "sold_out"
)

// FieldError describes why one input field was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the structured outcome of validating a purchase.
type ValidationResult struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// OK reports whether no field was rejected.
func (r *ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Has reports whether field was rejected with code.
func (r *ValidationResult) Has(field, code string) bool {
	for _, fe := range r.Errors {
		if fe.Field == field && fe.Code == code {
			return true
		}
	}
	return false
}

func (r *ValidationResult) add(field, code, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Code: code, Message: msg})
}

// Err converts a failed result into a *ValidationError wrapping
// ErrValidation.  It returns nil when the result is OK.
func (r *ValidationResult) Err() error {
	return r.errWith(ErrValidation)
}

func (r *ValidationResult) errWith(cause error) error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Fields: r.Errors, cause: cause}
}

// ValidationError carries the rejected fields of a purchase.
type ValidationError struct {
	Fields []FieldError
	cause  error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Code)
	}
	return e.cause.Error() + " (" + strings.Join(parts, ", ") + ")"
}

func (e *ValidationError) Unwrap() error { return e.cause }
