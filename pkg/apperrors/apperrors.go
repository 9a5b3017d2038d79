// Package apperrors defines the error kinds shared across engine services.
//
// Services wrap these sentinels with fmt.Errorf("...: %w", ...) to attach
// context; handlers map each kind to an HTTP status via errors.Is. A kind is
// never swallowed between the service that raises it and the response writer.
package apperrors

import "errors"

var (
	// ErrNoActiveAllocation — no semester matches "latest" when one is required.
	// Distinct from ErrNotFound so the UI can tell "no allocation cycle in
	// progress" apart from a dangling reference.
	ErrNoActiveAllocation = errors.New("no active allocation cycle")

	// ErrInvalidState — operation not legal in the semester's current
	// lifecycle state.
	ErrInvalidState = errors.New("operation not allowed in current allocation state")

	// ErrNotFound — referenced course/section/instructor/form/template absent.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden — caller lacks the capability, or visibility filtering
	// removed every form field.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict — duplicate unique-key insert, e.g. re-assigning an
	// already-assigned instructor or creating a course code twice.
	ErrConflict = errors.New("conflict with existing record")

	// ErrExternal — downstream timetable push or identity verification failed.
	ErrExternal = errors.New("external system error")

	// ErrValidation — request content fails a semantic check the binding
	// layer cannot express, e.g. non-contiguous preference ranks.
	ErrValidation = errors.New("validation failed")
)
