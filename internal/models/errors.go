package models

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrRecipeParse ErrorType = iota
	ErrInvalidRecipe
	ErrBuildFailure
	ErrPackageFailure
	ErrFileOp
	ErrInvalidConfig
	ErrSigning
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrRecipeParse:
		return "RecipeParse"
	case ErrInvalidRecipe:
		return "InvalidRecipe"
	case ErrBuildFailure:
		return "BuildFailure"
	case ErrPackageFailure:
		return "PackageFailure"
	case ErrFileOp:
		return "FileOp"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrSigning:
		return "Signing"
	default:
		return "Unknown"
	}
}

// PkgBuildError represents an error while reading or running a recipe
type PkgBuildError struct {
	Type    ErrorType
	Package string

	// ExitCode is the status of the failing external command, 0 if none ran.
	ExitCode int

	// Output is the captured output of the failing external command.
	Output string

	Err error
}

// Error implements the error interface
func (e *PkgBuildError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *PkgBuildError) Unwrap() error {
	return e.Err
}

// IsType reports whether err wraps a PkgBuildError of the given type
func IsType(err error, t ErrorType) bool {
	var pe *PkgBuildError
	if errors.As(err, &pe) {
		return pe.Type == t
	}
	return false
}

// ExitCode returns the process exit status to report for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var pe *PkgBuildError
	if errors.As(err, &pe) && pe.ExitCode > 0 {
		return pe.ExitCode
	}
	return 1
}
