// Package lberr defines the error values returned by the LightBase client.
//
// Three families of failure exist:
//
//   - TypeConstraintError: the caller handed over a value of the wrong shape.
//     These are raised before any request leaves the process.
//   - SchemaFormatError: a schema document (from the server or the caller) is
//     missing a required tag or key.
//   - TransportError: the request failed on the network or the server answered
//     with a non-2xx status. The status and body are kept verbatim.
//
// Any of them may be wrapped in an *Error that records the client operation
// that failed. Use errors.Is and errors.As to inspect them.
package lberr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when an argument has an unsupported type,
	// e.g. a path that is neither a string nor a list of segments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a lookup that the server answers with an
	// empty result set was expected to yield exactly one record.
	ErrNotFound = errors.New("not found")

	// ErrTypeConstraint matches every *TypeConstraintError via errors.Is.
	ErrTypeConstraint = errors.New("type constraint violated")

	// ErrSchemaFormat matches every *SchemaFormatError via errors.Is.
	ErrSchemaFormat = errors.New("malformed schema")

	// ErrTransport matches every *TransportError via errors.Is.
	ErrTransport = errors.New("transport failure")
)

// Error records the client operation that failed.
type Error struct {
	// Op is the operation, e.g. "DocumentClient.Get".
	Op string

	// Err is the underlying error.
	Err error

	// Msg is optional extra context.
	Msg string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err wrapped in an *Error for op, or nil if err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// TypeConstraintError reports a value of the wrong type or range for a named
// field.
type TypeConstraintError struct {
	Field    string
	Expected string
	Got      any
}

// NewTypeConstraint builds a *TypeConstraintError.
func NewTypeConstraint(field, expected string, got any) *TypeConstraintError {
	return &TypeConstraintError{Field: field, Expected: expected, Got: got}
}

func (e *TypeConstraintError) Error() string {
	return fmt.Sprintf("%s must be %s, got %T (%v)", e.Field, e.Expected, e.Got, e.Got)
}

func (e *TypeConstraintError) Is(target error) bool {
	return target == ErrTypeConstraint
}

// SchemaFormatError reports a schema document that cannot be parsed.
type SchemaFormatError struct {
	// Location is a slash separated position inside the document,
	// e.g. "content/1/group/metadata".
	Location string
	Msg      string
}

func (e *SchemaFormatError) Error() string {
	if e.Location == "" {
		return "schema: " + e.Msg
	}
	return fmt.Sprintf("schema at %s: %s", e.Location, e.Msg)
}

func (e *SchemaFormatError) Is(target error) bool {
	return target == ErrSchemaFormat
}

// TransportError reports a failed HTTP exchange. When the server answered,
// Status and Body hold its response untouched.
type TransportError struct {
	Method string
	URL    string
	Status int
	Body   []byte

	// Err is set when no response was received at all.
	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: server returned status %d: %s", e.Method, e.URL, e.Status, string(e.Body))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// StatusCode returns the HTTP status, or 0 when no response was received.
func (e *TransportError) StatusCode() int {
	return e.Status
}
