package services

import (
	"errors"
	"fmt"
)

// Kind classifies a failure surfaced to API callers.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindDuplicateKey
	KindInvalidIdentifier
)

var kindNames = map[Kind]string{
	KindInternal:          "INTERNAL",
	KindInvalidInput:      "INVALID_INPUT",
	KindUnauthenticated:   "UNAUTHENTICATED",
	KindForbidden:         "FORBIDDEN",
	KindNotFound:          "NOT_FOUND",
	KindDuplicateKey:      "DUPLICATE_KEY",
	KindInvalidIdentifier: "INVALID_IDENTIFIER",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error codes reported to clients.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeAlreadyExists   = "ALREADY_EXISTS"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// Code maps the kind to its client-facing error code.
func (k Kind) Code() string {
	switch k {
	case KindInvalidInput, KindInvalidIdentifier:
		return CodeBadUserInput
	case KindUnauthenticated:
		return CodeUnauthenticated
	case KindForbidden:
		return CodeForbidden
	case KindNotFound:
		return CodeNotFound
	case KindDuplicateKey:
		return CodeAlreadyExists
	default:
		return CodeInternal
	}
}

// Error is a typed, user-facing failure. Message is safe to show to clients;
// Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Extensions is read by the GraphQL engine and rendered under errors[].extensions.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Kind.Code()}
	if e.Field != "" {
		ext["field"] = e.Field
	}
	return ext
}

// InvalidInput reports a business-rule violation on field.
func InvalidInput(field, message string) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: message}
}

// Unauthenticated reports a missing principal.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden reports a principal lacking the required role.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NotFound reports that no record matched.
func NotFound(message string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: cause}
}

// DuplicateKey reports a uniqueness violation on field.
func DuplicateKey(field string, cause error) *Error {
	return &Error{
		Kind:    KindDuplicateKey,
		Field:   field,
		Message: fmt.Sprintf("a product with this %s already exists", field),
		Err:     cause,
	}
}

// InvalidIdentifier reports an identifier in an unrecognized format.
func InvalidIdentifier(field string, cause error) *Error {
	return &Error{
		Kind:    KindInvalidIdentifier,
		Field:   field,
		Message: fmt.Sprintf("invalid %s format", field),
		Err:     cause,
	}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldOf returns the offending field of a typed error, if any.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
