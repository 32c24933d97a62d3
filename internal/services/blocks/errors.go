package blocks

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPrecondition matches every input-precondition failure of the engine.
	ErrPrecondition = errors.New("precondition failed")
	// ErrNotDue matches attempts made before the required instant.
	ErrNotDue = errors.New("not yet due")
	// ErrInsufficientBlocks is wrapped when fewer than five segments reach the decision engine.
	ErrInsufficientBlocks = errors.New("insufficient blocks")
)

// InsufficientDataError reports too few bars or segments.
type InsufficientDataError struct {
	What string
	Got  int
	Want int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s: got %d, want at least %d", e.What, e.Got, e.Want)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrPrecondition }

// MissingFieldError reports a bar lacking a required field.
type MissingFieldError struct {
	Field string
	Index int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q in bar %d", e.Field, e.Index)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrPrecondition }

// InvalidDataError reports a negative or non-finite price. Index is -1 for the opening price.
type InvalidDataError struct {
	Field string
	Index int
	Value float64
}

func (e *InvalidDataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s in bar %d: %v", e.Field, e.Index, e.Value)
}

func (e *InvalidDataError) Is(target error) bool { return target == ErrPrecondition }

// PreconditionError is a generic fatal precondition violation.
type PreconditionError struct {
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string { return "precondition: " + e.Reason }

func (e *PreconditionError) Unwrap() error { return e.Err }

func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// NotDueError reports work attempted before Until.
type NotDueError struct {
	Until time.Time
}

func (e *NotDueError) Error() string {
	return "not due until " + e.Until.UTC().Format(time.RFC3339Nano)
}

func (e *NotDueError) Is(target error) bool { return target == ErrNotDue }
