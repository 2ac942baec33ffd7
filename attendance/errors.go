/*
errors.go - Centralized error types for the attendance core

ERROR CATEGORIES:
  1. Input errors - unknown person type, ineligible type, malformed id
  2. Resolution errors - person absent from its category
  3. Storage errors - load or save failed in the Record Store

USAGE:
  Callers branch with errors.Is on the sentinels:

    if errors.Is(err, attendance.ErrNotFound) {
        // 404
    }

  or pull details out with errors.As on the structured types.
*/
package attendance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidArgument is returned for malformed or out-of-enum input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a person does not resolve in its category.
	ErrNotFound = errors.New("not found")

	// ErrStorageRead is returned when the Record Store could not be read.
	// Read-only operations never see it: they get the empty default instead.
	ErrStorageRead = errors.New("storage read fault")

	// ErrStorageWrite is returned when the Record Store could not persist a
	// snapshot. The mutation that produced the snapshot was not stored.
	ErrStorageWrite = errors.New("storage write fault")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidArgumentError names the offending field and value.
type InvalidArgumentError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// PersonNotFoundError reports a (type, id) pair that did not resolve.
type PersonNotFoundError struct {
	Type PersonType
	ID   int
}

func (e *PersonNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Type, e.ID)
}

func (e *PersonNotFoundError) Unwrap() error {
	return ErrNotFound
}

// StorageError wraps a Record Store failure. Kind is ErrStorageRead or
// ErrStorageWrite; both Kind and the underlying error match errors.Is.
type StorageError struct {
	Kind error
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsNotFound returns true if the error indicates a missing person.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStorageFault returns true for either storage error kind.
func IsStorageFault(err error) bool {
	return errors.Is(err, ErrStorageRead) || errors.Is(err, ErrStorageWrite)
}
