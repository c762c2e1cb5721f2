package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrVersionResolve ErrorType = iota
	ErrSourceClone
	ErrMissingTool
	ErrDependencyList
	ErrDependencyDownload
	ErrArchiveCreate
	ErrFileOp
	ErrOutputDir
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrVersionResolve:
		return "VersionResolve"
	case ErrSourceClone:
		return "SourceClone"
	case ErrMissingTool:
		return "MissingTool"
	case ErrDependencyList:
		return "DependencyList"
	case ErrDependencyDownload:
		return "DependencyDownload"
	case ErrArchiveCreate:
		return "ArchiveCreate"
	case ErrFileOp:
		return "FileOp"
	case ErrOutputDir:
		return "OutputDir"
	default:
		return "Unknown"
	}
}

// SrcGenError represents an error during source generation
type SrcGenError struct {
	Type ErrorType
	Step string
	Err  error
}

// Error implements the error interface
func (e *SrcGenError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Step, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *SrcGenError) Unwrap() error {
	return e.Err
}
