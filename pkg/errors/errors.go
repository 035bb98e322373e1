package errors

import (
	"fmt"
)

// ParseError reports a target file that could not be read or decoded.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures target schema violations.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError reports an action that failed while mutating the system.
type ExecutionError struct {
	Action string
	Err    error
}

// NewExecutionError constructs an ExecutionError for the named action.
func NewExecutionError(action string, err error) error {
	return &ExecutionError{Action: action, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Action != "" {
		return fmt.Sprintf("execution error on %s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RegistryError reports a failure of the OS alternatives facility. Version
// activation is unverifiable once the registry misbehaves, so these are
// always fatal.
type RegistryError struct {
	Op      string
	Version string
	Err     error
}

// NewRegistryError constructs a RegistryError for the given registry operation.
func NewRegistryError(op, version string, err error) error {
	return &RegistryError{Op: op, Version: version, Err: err}
}

func (e *RegistryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Version != "" {
		return fmt.Sprintf("alternatives registry error: %s %s: %v", e.Op, e.Version, e.Err)
	}
	return fmt.Sprintf("alternatives registry error: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying error.
func (e *RegistryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PrivilegeAcquisitionError reports that elevated privilege could not be
// obtained. Hint carries a remediation suggestion for the operator.
type PrivilegeAcquisitionError struct {
	Hint string
	Err  error
}

// NewPrivilegeAcquisitionError constructs a PrivilegeAcquisitionError.
func NewPrivilegeAcquisitionError(hint string, err error) error {
	return &PrivilegeAcquisitionError{Hint: hint, Err: err}
}

func (e *PrivilegeAcquisitionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Hint != "" {
		return fmt.Sprintf("privilege acquisition failed: %v (%s)", e.Err, e.Hint)
	}
	return fmt.Sprintf("privilege acquisition failed: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *PrivilegeAcquisitionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PrivilegeMisuseError reports that the process itself runs elevated.
// Converging as root corrupts file ownership in the project tree, so the
// driver refuses to start.
type PrivilegeMisuseError struct {
	UID int
}

// NewPrivilegeMisuseError constructs a PrivilegeMisuseError for the given uid.
func NewPrivilegeMisuseError(uid int) error {
	return &PrivilegeMisuseError{UID: uid}
}

func (e *PrivilegeMisuseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("refusing to run with elevated privileges (uid %d): run as a regular user; individual steps elevate themselves as needed", e.UID)
}
