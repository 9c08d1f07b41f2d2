// Package errors provides structured error types for typegraph.
//
// Every failure raised by the registry, the codec and the surrounding
// tooling carries a machine-readable [Code] so that callers can branch on
// the kind of failure without string matching:
//
//	_, err := c.Deserialize(text)
//	if errors.Is(err, errors.ErrCodeTypeNotRegistered) {
//	    // register the missing type and retry
//	}
//
// # Error Codes
//
// Codes fall into a few groups:
//   - Registration: DUPLICATE_TYPE, MISSING_CONSTRUCTOR, NOT_ENUMERABLE,
//     MISSING_NAME, INVALID_TYPE_NAME
//   - Encode/decode: TYPE_NOT_REGISTERED, REFERENCE_NOT_FOUND, UNDEFINED_INPUT,
//     INVALID_FORMAT, TYPE_MISMATCH, UNSUPPORTED_VALUE
//   - Storage and transport: NOT_FOUND, NETWORK_ERROR, INTERNAL_ERROR
//
// Errors are never recovered internally: an encode or decode either fully
// succeeds or returns one of these.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Registration errors
	ErrCodeDuplicateType      Code = "DUPLICATE_TYPE"
	ErrCodeMissingConstructor Code = "MISSING_CONSTRUCTOR"
	ErrCodeNotEnumerable      Code = "NOT_ENUMERABLE"
	ErrCodeMissingName        Code = "MISSING_NAME"
	ErrCodeInvalidTypeName    Code = "INVALID_TYPE_NAME"

	// Encode/decode errors
	ErrCodeTypeNotRegistered Code = "TYPE_NOT_REGISTERED"
	ErrCodeReferenceNotFound Code = "REFERENCE_NOT_FOUND"
	ErrCodeUndefinedInput    Code = "UNDEFINED_INPUT"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeTypeMismatch      Code = "TYPE_MISMATCH"
	ErrCodeUnsupportedValue  Code = "UNSUPPORTED_VALUE"

	// Storage errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeNetwork  Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code,
// so a TYPE_NOT_REGISTERED wrapped inside an INVALID_FORMAT still matches.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// The constructors below build the errors of the codec taxonomy with the
// same wording regardless of the call site.

// DuplicateType reports a second registration under an existing name.
func DuplicateType(name string) *Error {
	return New(ErrCodeDuplicateType, "the type %q is duplicated", name)
}

// MissingConstructor reports a type that cannot be built without a factory.
func MissingConstructor(name string) *Error {
	return New(ErrCodeMissingConstructor,
		"the type %q cannot be constructed from its fields, please provide a factory function", name)
}

// NotEnumerable reports a type whose fields cannot be listed for encoding.
func NotEnumerable(name string) *Error {
	return New(ErrCodeNotEnumerable,
		"the type %q cannot enumerate its fields, make it a struct or implement FieldDescriber", name)
}

// MissingName reports a type for which no name could be derived.
func MissingName(typ string) *Error {
	return New(ErrCodeMissingName, "the type %s has no name, provide one with WithName", typ)
}

// TypeNotRegistered reports a record type unknown to the registry.
func TypeNotRegistered(what string) *Error {
	return New(ErrCodeTypeNotRegistered,
		"the type %s is not found in the type registration, did you forget to register it?", what)
}

// ReferenceNotFound reports a back-reference with no materialized target.
func ReferenceNotFound(typeName string, index int) *Error {
	return New(ErrCodeReferenceNotFound,
		"the reference %s#%d was not found in the previously deserialized objects", typeName, index)
}

// UndefinedInput reports a top-level call without any input.
func UndefinedInput(function string) *Error {
	return New(ErrCodeUndefinedInput, "the input of your %q call was undefined", function)
}
