package errors

import (
	"fmt"
)

// Error types for different categories of failures
const (
	// Workspace errors
	ErrWorkspaceRead     = "WORKSPACE_READ_ERROR"
	ErrWorkspaceParse    = "WORKSPACE_PARSE_ERROR"
	ErrWorkspaceStore    = "WORKSPACE_STORE_ERROR"
	ErrWorkspaceNotFound = "WORKSPACE_NOT_FOUND"

	// Device registry errors
	ErrRegistryRead   = "REGISTRY_READ_ERROR"
	ErrRegistryParse  = "REGISTRY_PARSE_ERROR"
	ErrDuplicateAlias = "DUPLICATE_DEVICE_ALIAS"
	ErrDeviceNotFound = "DEVICE_NOT_FOUND"

	// Command library errors
	ErrLibraryRead  = "LIBRARY_READ_ERROR"
	ErrLibraryParse = "LIBRARY_PARSE_ERROR"

	// Conversion errors
	ErrStepImport     = "STEP_IMPORT_ERROR"
	ErrCodeGeneration = "CODE_GENERATION_ERROR"
)

// ScopeflowError represents a structured error with type and context
type ScopeflowError struct {
	Type    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *ScopeflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows error unwrapping
func (e *ScopeflowError) Unwrap() error {
	return e.Cause
}

// New creates a new ScopeflowError
func New(errorType, message string) *ScopeflowError {
	return &ScopeflowError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Wrap creates a new ScopeflowError wrapping an existing error
func Wrap(errorType, message string, cause error) *ScopeflowError {
	return &ScopeflowError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *ScopeflowError) WithContext(key string, value interface{}) *ScopeflowError {
	e.Context[key] = value
	return e
}

// GetType returns the error type
func (e *ScopeflowError) GetType() string {
	return e.Type
}

// GetContext returns context value by key
func (e *ScopeflowError) GetContext(key string) (interface{}, bool) {
	value, exists := e.Context[key]
	return value, exists
}

// Helper functions for common error scenarios

// NewWorkspaceReadError creates a workspace read error
func NewWorkspaceReadError(path string, cause error) *ScopeflowError {
	return Wrap(ErrWorkspaceRead, fmt.Sprintf("failed to read workspace %q", path), cause).
		WithContext("path", path)
}

// NewWorkspaceParseError creates a workspace parse error
func NewWorkspaceParseError(message string, cause error) *ScopeflowError {
	return Wrap(ErrWorkspaceParse, message, cause)
}

// NewDuplicateAliasError reports a device alias used twice in the registry
func NewDuplicateAliasError(alias string) *ScopeflowError {
	return New(ErrDuplicateAlias, fmt.Sprintf("device alias %q is declared more than once", alias)).
		WithContext("alias", alias)
}

// NewDeviceNotFoundError creates a device lookup error
func NewDeviceNotFoundError(alias string, known []string) *ScopeflowError {
	return New(ErrDeviceNotFound, fmt.Sprintf("device %q is not in the registry", alias)).
		WithContext("alias", alias).
		WithContext("known_aliases", known)
}

// NewStepImportError creates a step import error
func NewStepImportError(message string, cause error) *ScopeflowError {
	return Wrap(ErrStepImport, message, cause)
}
