// Package errors provides standardized error types and helpers for musictext.
//
// Notation-level failures have their own types so callers can tell bad input
// (StructuralParseError, RhythmError) apart from defects in the assigner
// (AssignmentInternalError).
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrInternal indicates an internal defect
	ErrInternal = errors.New("internal error")
	// ErrUnsupported indicates an unsupported operation or notation system
	ErrUnsupported = errors.New("unsupported")
	// ErrStructural indicates a stave could not be recognized structurally
	ErrStructural = errors.New("structural parse error")
	// ErrRhythm indicates a beat could not be analyzed
	ErrRhythm = errors.New("rhythm error")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "document")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a decoding error outside the notation itself
// (stored payloads, request bodies).
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "xz")
	Path    string // File path or identifier, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError represents an unsupported feature or notation system
type UnsupportedError struct {
	Feature string // Feature or system that is unsupported
	Reason  string // Why it's not supported
	Err     error  // Underlying error, if any
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// StructuralParseError reports a content line that could not be recognized.
// It is fatal to the enclosing stave only.
type StructuralParseError struct {
	Line    int    // 1-based line in the source text
	Column  int    // 1-based column (code points)
	Message string // What went wrong
	Err     error  // Underlying lexer error, if any
}

func (e *StructuralParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

func (e *StructuralParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStructural
}

// Is lets errors.Is match ErrStructural even when Err holds a lexer error.
func (e *StructuralParseError) Is(target error) bool {
	return target == ErrStructural
}

// RhythmError reports a beat that could not be analyzed. Sibling beats are
// unaffected.
type RhythmError struct {
	Beat    int // 0-based beat index on the content line
	Line    int
	Column  int
	Message string
}

func (e *RhythmError) Error() string {
	return fmt.Sprintf("%d:%d: beat %d: %s", e.Line, e.Column, e.Beat+1, e.Message)
}

func (e *RhythmError) Unwrap() error {
	return ErrRhythm
}

// AssignmentInternalError reports an annotation token the spatial assigner
// never consumed. It signals a defect in the assigner, not a user error.
type AssignmentInternalError struct {
	Line   int
	Column int
	Value  string // The value still held by the token
}

func (e *AssignmentInternalError) Error() string {
	return fmt.Sprintf("%d:%d: annotation token %q was never consumed", e.Line, e.Column, e.Value)
}

func (e *AssignmentInternalError) Unwrap() error {
	return ErrInternal
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{
		Feature: feature,
		Reason:  reason,
	}
}

// NewStructural creates a StructuralParseError
func NewStructural(line, column int, format string, args ...interface{}) *StructuralParseError {
	return &StructuralParseError{
		Line:    line,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewRhythm creates a RhythmError
func NewRhythm(beat, line, column int, message string) *RhythmError {
	return &RhythmError{
		Beat:    beat,
		Line:    line,
		Column:  column,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
