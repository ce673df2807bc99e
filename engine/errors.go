// ABOUTME: Error taxonomy for lifecycle operations
// ABOUTME: Maps store and workflow failures onto categorized, coded errors and a wire envelope
package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/harperreed/studiocrm/db"
	"github.com/harperreed/studiocrm/workflow"
)

// Category groups error codes for callers that only care about the broad outcome.
type Category string

const (
	CategoryConflict   Category = "conflict"
	CategoryValidation Category = "validation"
	CategoryNotFound   Category = "not_found"
	CategoryServer     Category = "server"
)

// Code is the stable machine-readable error identifier.
type Code string

const (
	CodeConflict          Code = "CONFLICT_DETECTED"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeAlreadyConverted  Code = "ALREADY_CONVERTED"
	CodeInvalidState      Code = "INVALID_STATE"
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION_FAILED"
	CodeServer            Code = "SERVER_ERROR"
)

// Error is returned by every Engine operation that fails.
type Error struct {
	Category    Category
	Code        Code
	Message     string
	FieldErrors map[string]string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so errors.Is(err, ErrConflict)
// works for every conflict regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrConflict          = &Error{Category: CategoryConflict, Code: CodeConflict, Message: "record was modified since it was loaded"}
	ErrInvalidTransition = &Error{Category: CategoryValidation, Code: CodeInvalidTransition, Message: "status change is not allowed"}
	ErrAlreadyConverted  = &Error{Category: CategoryValidation, Code: CodeAlreadyConverted, Message: "lead was already converted"}
	ErrInvalidState      = &Error{Category: CategoryValidation, Code: CodeInvalidState, Message: "operation is not allowed in the current state"}
	ErrNotFound          = &Error{Category: CategoryNotFound, Code: CodeNotFound, Message: "record not found"}
	ErrValidation        = &Error{Category: CategoryValidation, Code: CodeValidation, Message: "validation failed"}
	ErrServer            = &Error{Category: CategoryServer, Code: CodeServer, Message: "server error"}
)

func newError(base *Error, format string, args ...interface{}) *Error {
	return &Error{
		Category: base.Category,
		Code:     base.Code,
		Message:  fmt.Sprintf(format, args...),
	}
}

func validationError(fields map[string]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msg := "validation failed"
	if len(keys) > 0 {
		msg = fmt.Sprintf("validation failed: %s %s", keys[0], fields[keys[0]])
	}
	return &Error{
		Category:    CategoryValidation,
		Code:        CodeValidation,
		Message:     msg,
		FieldErrors: fields,
	}
}

// translate converts lower-layer errors about one kind of record into *Error.
// Errors that already are *Error pass through untouched.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, db.ErrNotFound):
		return &Error{Category: CategoryNotFound, Code: CodeNotFound, Message: what + " not found", Err: err}
	case errors.Is(err, db.ErrVersionMismatch):
		return &Error{Category: CategoryConflict, Code: CodeConflict, Message: what + " was modified since it was loaded", Err: err}
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrUnknownStatus):
		return &Error{Category: CategoryValidation, Code: CodeInvalidTransition, Message: err.Error(), Err: err}
	}
	return &Error{Category: CategoryServer, Code: CodeServer, Message: "storage failure on " + what, Err: err}
}

// Envelope is the serializable form of an Error.
type Envelope struct {
	Category    Category          `json:"category"`
	Code        Code              `json:"code"`
	Message     string            `json:"message"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// ToEnvelope renders any error as an Envelope; unknown errors become SERVER_ERROR
// without leaking their text.
func ToEnvelope(err error) Envelope {
	var e *Error
	if errors.As(err, &e) {
		msg := e.Message
		if e.Category == CategoryServer {
			msg = ErrServer.Message
		}
		return Envelope{Category: e.Category, Code: e.Code, Message: msg, FieldErrors: e.FieldErrors}
	}
	return Envelope{Category: CategoryServer, Code: CodeServer, Message: ErrServer.Message}
}

// CodeOf returns the error code carried by err, or SERVER_ERROR.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeServer
}
