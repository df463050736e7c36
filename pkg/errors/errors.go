// Package errors provides structured error reporting for the e2e fixture.
//
// Errors that cannot be returned to a caller (panics on the UI loop, failures
// inside HTTP handlers after the response was written, scenario watch loops)
// are reported through a pluggable [ErrorHandler].
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindAutomation indicates a failure serving an automation request.
	KindAutomation
	// KindParsing indicates a request or script parsing failure.
	KindParsing
	// KindConfig indicates a configuration error.
	KindConfig
	// KindScenario indicates a failing scenario step.
	KindScenario
	// KindRender indicates a screenshot rendering error.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindAutomation:
		return "automation"
	case KindParsing:
		return "parsing"
	case KindConfig:
		return "config"
	case KindScenario:
		return "scenario"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// FixtureError represents a structured error in the fixture.
type FixtureError struct {
	// Op is the operation that failed (e.g., "automation.handleClick").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Session is the automation session id, if applicable.
	Session string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *FixtureError) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("%s [%s] session=%s: %v", e.Op, e.Kind, e.Session, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *FixtureError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "platform.Loop").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ParseError represents a failure to decode request or script data.
type ParseError struct {
	// Source names where the data came from (an endpoint or a file).
	Source string
	// DataType is the expected type name.
	DataType string
	// Got is the actual data received.
	Got any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s from %s: got %T", e.DataType, e.Source, e.Got)
}

// ErrorHandler receives errors reported by the fixture.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *FixtureError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
