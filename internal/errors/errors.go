// Package errors defines the structured error taxonomy for the validation
// engine. Every fatal condition carries the offending file and, where the
// parser knows it, line/column, so reports can always point at a location.
//
// Fatality is scoped: a syntax or encoding error kills processing of one
// file, an include error kills one top-level section, and a corrupt registry
// or missing configuration.yaml kills the whole run.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes validation engine errors.
type Kind string

const (
	KindSyntax         Kind = "syntax"
	KindEncoding       Kind = "encoding"
	KindInclude        Kind = "include"
	KindRegistry       Kind = "registry"
	KindConfigNotFound Kind = "config-not-found"
	KindIO             Kind = "io"
	KindInternal       Kind = "internal"
)

// Scope describes how much of a run an error invalidates.
type Scope int

const (
	// ScopeFile aborts processing of a single file; other files are still
	// checked.
	ScopeFile Scope = iota
	// ScopeSection aborts downstream stages for one top-level configuration
	// section; the run completes for unaffected sections.
	ScopeSection
	// ScopeRun aborts the whole run immediately.
	ScopeRun
)

// ValidationError is a structured error with location context.
type ValidationError struct {
	Kind     Kind
	Code     string
	Message  string
	FilePath string
	Line     int
	Column   int
	Scope    Scope
	Cause    error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by kind and code.
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if errors.As(target, &t) {
		return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
	}

	return false
}

// WithLocation adds file location information.
func (e *ValidationError) WithLocation(filePath string, line, column int) *ValidationError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// Common error codes.
const (
	ErrCodeYAMLSyntax      = "ERR_YAML_SYNTAX"
	ErrCodeDuplicateKey    = "ERR_DUPLICATE_KEY"
	ErrCodeBadEncoding     = "ERR_BAD_ENCODING"
	ErrCodeIncludeMissing  = "ERR_INCLUDE_MISSING"
	ErrCodeIncludeCycle    = "ERR_INCLUDE_CYCLE"
	ErrCodeRegistryCorrupt = "ERR_REGISTRY_CORRUPT"
	ErrCodeConfigNotFound  = "ERR_CONFIG_NOT_FOUND"
	ErrCodeFileUnreadable  = "ERR_FILE_UNREADABLE"
	ErrCodeInternalError   = "ERR_INTERNAL"
)

// NewSyntaxError creates a per-file fatal YAML syntax error.
func NewSyntaxError(code, message string, cause error) *ValidationError {
	return &ValidationError{
		Kind:    KindSyntax,
		Code:    code,
		Message: message,
		Scope:   ScopeFile,
		Cause:   cause,
	}
}

// NewEncodingError creates a per-file fatal encoding error. Files must be
// strict UTF-8; invalid byte sequences are never silently replaced.
func NewEncodingError(message string, cause error) *ValidationError {
	return &ValidationError{
		Kind:    KindEncoding,
		Code:    ErrCodeBadEncoding,
		Message: message,
		Scope:   ScopeFile,
		Cause:   cause,
	}
}

// NewIncludeError creates a per-section fatal include error.
func NewIncludeError(code, message string, cause error) *ValidationError {
	return &ValidationError{
		Kind:    KindInclude,
		Code:    code,
		Message: message,
		Scope:   ScopeSection,
		Cause:   cause,
	}
}

// NewRegistryCorruptError creates a run-fatal registry error. Resolution
// cannot proceed meaningfully without a trustworthy registry.
func NewRegistryCorruptError(message string, cause error) *ValidationError {
	return &ValidationError{
		Kind:    KindRegistry,
		Code:    ErrCodeRegistryCorrupt,
		Message: message,
		Scope:   ScopeRun,
		Cause:   cause,
	}
}

// NewConfigurationNotFoundError creates the run-fatal error for a missing
// configuration.yaml entry file.
func NewConfigurationNotFoundError(path string) *ValidationError {
	return &ValidationError{
		Kind:     KindConfigNotFound,
		Code:     ErrCodeConfigNotFound,
		Message:  "configuration.yaml not found",
		FilePath: path,
		Scope:    ScopeRun,
	}
}

// NewIOError creates an I/O error for an unreadable file.
func NewIOError(message string, cause error) *ValidationError {
	return &ValidationError{
		Kind:    KindIO,
		Code:    ErrCodeFileUnreadable,
		Message: message,
		Scope:   ScopeFile,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *ValidationError {
	return &ValidationError{
		Kind:    KindInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Scope:   ScopeRun,
		Cause:   cause,
	}
}

// IsRunFatal reports whether an error invalidates the whole run.
func IsRunFatal(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Scope == ScopeRun
	}

	return false
}

// KindOf returns the Kind of a validation error, or KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}

	return KindInternal
}
