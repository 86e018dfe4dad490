// Package errors provides standardized error handling for namescrub.
// It defines the error kinds a rename run can produce and helper functions
// for consistent error creation, wrapping, and classification.
package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// As finds the first error in err's chain that matches target
var As = errors.As

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	FileAccessDenied
	InvalidPath
	DestinationExists
	RenameFailed
	ListFailed
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	InvalidPattern
	// Logger setup
	LoggerInitFailed
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors related to file operations
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// FromOS wraps a filesystem error in a FileError, picking the kind from the
// underlying fs sentinel. fallback is used when no sentinel matches.
func FromOS(msg, path string, fallback ErrorKind, err error) *FileError {
	kind := fallback
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = FileNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = FileAccessDenied
	case errors.Is(err, fs.ErrExist):
		kind = DestinationExists
	}
	return NewFileError(msg, path, kind, err)
}

func fileKind(err error) (ErrorKind, bool) {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind(), true
	}
	return Unknown, false
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	kind, ok := fileKind(err)
	return ok && kind == FileNotFound
}

// IsDestinationExists checks if a rename was refused because its target exists
func IsDestinationExists(err error) bool {
	kind, ok := fileKind(err)
	return ok && kind == DestinationExists
}

// IsListFailed checks if the error came from listing a directory
func IsListFailed(err error) bool {
	kind, ok := fileKind(err)
	return ok && kind == ListFailed
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig || configErr.Kind() == InvalidPattern
	}
	return false
}
