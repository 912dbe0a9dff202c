// Package errors provides the error types used throughout bridgemeta.
// These errors enable programmatic error checking with errors.Is and
// carry enough identifying detail (entity name, field path, value
// classes) to write a targeted exception-file correction.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the bridgemeta system.
var (
	// ErrScanMismatch indicates that a field expected to be invariant
	// across scans differed between variants. This is a scanner defect
	// and cannot be corrected through the exception overlay.
	ErrScanMismatch = errors.New("scan mismatch")

	// ErrUnresolvedConflict indicates a value split across variants that
	// matches no hardware axis and no escape-hatch policy.
	ErrUnresolvedConflict = errors.New("unresolved merge conflict")

	// ErrOverrideIndex indicates an exception override referencing an
	// argument index that was never scanned.
	ErrOverrideIndex = errors.New("override index out of range")

	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownArch indicates a scan tagged with an architecture that is
	// not in the static architecture table.
	ErrUnknownArch = errors.New("unknown architecture")

	// ErrReadOnly indicates an attempt to modify a read-only record set.
	ErrReadOnly = errors.New("read only")
)

// Class is one equivalence class of a conflicting field: a rendered value
// and the architecture tags that observed it.
type Class struct {
	Value string
	Archs []string
}

// ConflictError reports a field whose observed values could not be
// collapsed to a single value or a legal axis selection. It is collected,
// never fatal-on-first: a run reports every unresolved field.
type ConflictError struct {
	Entity  string
	Field   string
	Classes []Class
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Classes))
	for i, c := range e.Classes {
		parts[i] = fmt.Sprintf("%s={%s}", c.Value, strings.Join(c.Archs, ","))
	}
	return fmt.Sprintf("unresolved conflict for %s.%s: %s",
		e.Entity, e.Field, strings.Join(parts, " "))
}

// Is implements errors.Is support.
func (e *ConflictError) Is(target error) bool {
	return target == ErrUnresolvedConflict
}

// NewConflictError creates a ConflictError with its classes sorted by
// rendered value so reports are deterministic.
func NewConflictError(entity, field string, classes []Class) *ConflictError {
	sorted := make([]Class, len(classes))
	copy(sorted, classes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Value < sorted[j].Value })
	return &ConflictError{Entity: entity, Field: field, Classes: sorted}
}

// ScanMismatchError reports divergence in a field that must be identical
// across all scans, such as a selector or an argument name. It aborts
// processing of the affected entity.
type ScanMismatchError struct {
	Entity string
	Field  string
	Want   string
	Got    string
}

// Error implements the error interface.
func (e *ScanMismatchError) Error() string {
	return fmt.Sprintf("scan mismatch for %s.%s: %q != %q",
		e.Entity, e.Field, e.Want, e.Got)
}

// Is implements errors.Is support.
func (e *ScanMismatchError) Is(target error) bool {
	return target == ErrScanMismatch
}

// NewScanMismatchError creates a new ScanMismatchError.
func NewScanMismatchError(entity, field, want, got string) *ScanMismatchError {
	return &ScanMismatchError{Entity: entity, Field: field, Want: want, Got: got}
}

// OverrideIndexError reports an exception override that references an
// argument the scanner never observed. The entity's overlay step fails;
// other entities continue processing.
type OverrideIndexError struct {
	Entity string
	Index  int
	Max    int
}

// Error implements the error interface.
func (e *OverrideIndexError) Error() string {
	return fmt.Sprintf("override for %s references argument %d, scan has %d",
		e.Entity, e.Index, e.Max)
}

// Is implements errors.Is support.
func (e *OverrideIndexError) Is(target error) bool {
	return target == ErrOverrideIndex
}

// NewOverrideIndexError creates a new OverrideIndexError.
func NewOverrideIndexError(entity string, index, max int) *OverrideIndexError {
	return &OverrideIndexError{Entity: entity, Index: index, Max: max}
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Entity  string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("validation failed for %s.%s: %s", e.Entity, e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(entity, field, message string) *ValidationError {
	return &ValidationError{Entity: entity, Field: field, Message: message}
}

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	Section string
	Name    string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Section, e.Name)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ParseError represents an error when decoding a record set file.
type ParseError struct {
	Format  string
	File    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during file operations.
type IOError struct {
	Operation string // "read", "write", "create"
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper wrapping functions for common patterns.

// WrapParse wraps an error as a ParseError.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapIO wraps an error as an IOError.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// Helper functions for error checking.

// IsScanMismatch checks if an error is a scan mismatch.
func IsScanMismatch(err error) bool {
	return errors.Is(err, ErrScanMismatch)
}

// IsConflict checks if an error is an unresolved merge conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrUnresolvedConflict)
}

// IsOverrideIndex checks if an error is an override index error.
func IsOverrideIndex(err error) bool {
	return errors.Is(err, ErrOverrideIndex)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
