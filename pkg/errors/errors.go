// Package errors provides structured error types used across the application.
// We prefer these over raw fmt.Errorf strings to enable reliable checks with
// errors.Is / errors.As and to carry minimal context about the failure.
package errors

import (
	"errors"
	"fmt"
)

// ValidationError indicates invalid input/config/state provided by a caller.
type ValidationError struct {
	Op  string // where it happened (package.Function)
	Msg string // human friendly message
	Err error  // underlying cause (optional)
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("validation: %s: %s", e.Op, e.Msg)
}

func (e *ValidationError) Unwrap() error           { return e.Err }
func (e *ValidationError) Operation() string       { return e.Op }
func (e *ValidationError) Message() string         { return e.Msg }
func (e *ValidationError) Context() map[string]any { return map[string]any{"op": e.Op, "msg": e.Msg} }

func NewValidation(op, msg string, err error) error {
	return &ValidationError{Op: op, Msg: msg, Err: err}
}

// DBError represents storage access/operation failures (MySQL, Redis).
type DBError struct {
	Op  string
	Msg string
	Err error
}

func (e *DBError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("db: %s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("db: %s: %s", e.Op, e.Msg)
}

func (e *DBError) Unwrap() error           { return e.Err }
func (e *DBError) Operation() string       { return e.Op }
func (e *DBError) Message() string         { return e.Msg }
func (e *DBError) Context() map[string]any { return map[string]any{"op": e.Op, "msg": e.Msg} }

func NewDB(op, msg string, err error) error { return &DBError{Op: op, Msg: msg, Err: err} }

// MalformedTimeError is returned when a time string cannot be read as hours and
// minutes. Value is the offending input, verbatim.
type MalformedTimeError struct {
	Op     string
	Value  string
	Reason string
	Err    error
}

func (e *MalformedTimeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed time: %s: %q: %s: %v", e.Op, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed time: %s: %q: %s", e.Op, e.Value, e.Reason)
}

func (e *MalformedTimeError) Unwrap() error     { return e.Err }
func (e *MalformedTimeError) Operation() string { return e.Op }
func (e *MalformedTimeError) Message() string   { return e.Reason }
func (e *MalformedTimeError) Context() map[string]any {
	return map[string]any{"op": e.Op, "value": e.Value, "reason": e.Reason}
}

func NewMalformedTime(op, value, reason string, err error) error {
	return &MalformedTimeError{Op: op, Value: value, Reason: reason, Err: err}
}

// IncompleteRecordError marks a record that cannot be emitted because a
// mandatory field (lat/lon) is missing or out of range.
type IncompleteRecordError struct {
	Op     string
	Ref    string
	Fields []string
	Err    error
}

func (e *IncompleteRecordError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("incomplete record: %s: ref=%q fields=%v: %v", e.Op, e.Ref, e.Fields, e.Err)
	}
	return fmt.Sprintf("incomplete record: %s: ref=%q fields=%v", e.Op, e.Ref, e.Fields)
}

func (e *IncompleteRecordError) Unwrap() error     { return e.Err }
func (e *IncompleteRecordError) Operation() string { return e.Op }
func (e *IncompleteRecordError) Message() string   { return fmt.Sprintf("missing %v", e.Fields) }
func (e *IncompleteRecordError) Context() map[string]any {
	return map[string]any{"op": e.Op, "ref": e.Ref, "fields": e.Fields}
}

func NewIncompleteRecord(op, ref string, fields []string, err error) error {
	return &IncompleteRecordError{Op: op, Ref: ref, Fields: fields, Err: err}
}

// IsKind helpers: allow callers to check error kind without type assertions.
// Example: if errors.Is(err, errors.ErrMalformedTime) { ... }
var (
	ErrValidation       = &ValidationError{}
	ErrDB               = &DBError{}
	ErrMalformedTime    = &MalformedTimeError{}
	ErrIncompleteRecord = &IncompleteRecordError{}
)

// Is enables errors.Is(err, ErrValidation) via errors.As semantics.
// We delegate to errors.As with the zero-value pointer of each type.
func Is(err, target error) bool {
	if err == nil || target == nil {
		return errors.Is(err, target)
	}
	switch target.(type) {
	case *ValidationError:
		var v *ValidationError
		return errors.As(err, &v)
	case *DBError:
		var d *DBError
		return errors.As(err, &d)
	case *MalformedTimeError:
		var m *MalformedTimeError
		return errors.As(err, &m)
	case *IncompleteRecordError:
		var i *IncompleteRecordError
		return errors.As(err, &i)
	default:
		return errors.Is(err, target)
	}
}
