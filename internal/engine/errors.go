package engine

import (
	"errors"
	"fmt"
)

// FaultCode categorizes edge source faults. Recovery decisions key on
// the code, never on error message text.
type FaultCode string

const (
	// CodeLineNotConfigured marks a transient resource-state fault:
	// the line request exists but the kernel handle was invalidated.
	// Recovered in place by re-running setup.
	CodeLineNotConfigured FaultCode = "LINE_NOT_CONFIGURED"

	// CodeSetupExhausted marks a fatal setup failure: the retry
	// budget was spent without a successful line request. This is the
	// only fatal condition in the engine.
	CodeSetupExhausted FaultCode = "SETUP_EXHAUSTED"
)

// SourceError is a coded edge source fault.
type SourceError struct {
	Code     FaultCode
	Line     string // chip/offset description, e.g. "gpiochip0:23"
	Attempts int    // setup attempts made (setup exhaustion only)
	Err      error  // underlying error, optional
}

func (e *SourceError) Error() string {
	switch {
	case e.Attempts > 0 && e.Err != nil:
		return fmt.Sprintf("%s: line %s after %d attempts: %v", e.Code, e.Line, e.Attempts, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: line %s: %v", e.Code, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: line %s", e.Code, e.Line)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewNotConfiguredError reports the transient "line not set up" fault.
func NewNotConfiguredError(line string) *SourceError {
	return &SourceError{Code: CodeLineNotConfigured, Line: line}
}

// NewSetupError reports setup exhaustion after the given attempts.
func NewSetupError(line string, attempts int, err error) *SourceError {
	return &SourceError{Code: CodeSetupExhausted, Line: line, Attempts: attempts, Err: err}
}

// IsTransient reports whether err is a source fault the worker should
// recover from by re-arming the edge source.
func IsTransient(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Code == CodeLineNotConfigured
	}
	return false
}

// IsSetupExhausted reports whether err is the fatal setup failure.
func IsSetupExhausted(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Code == CodeSetupExhausted
	}
	return false
}
