// Package diag provides the error taxonomy for script compilation.
//
// Script-level problems (bad function names, unbound variables) are
// aggregated into an ErrorLog so a single compile attempt reports every
// instance. Internal invariant violations use a separate InternalError
// type that is never aggregated with script-level diagnostics.
package diag

import (
	"fmt"
	"strings"
)

// ----------------------------------------------------------------------------
// Script-Level Errors
// ----------------------------------------------------------------------------

// ErrorKind identifies a category of script-level compilation error.
type ErrorKind uint8

const (
	// UnknownFunction means a call site names a function absent from the
	// built-in catalog, or calls one with an unsupported argument count.
	UnknownFunction ErrorKind = iota

	// UndefinedVariable means a variable is read before assignment and has
	// no corresponding image-parameter binding.
	UndefinedVariable
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownFunction:
		return "UnknownFunction"
	case UndefinedVariable:
		return "UndefinedVariable"
	default:
		return "UnknownError"
	}
}

// Record is a single aggregated error: an offending name and its kind.
type Record struct {
	Name string
	Kind ErrorKind
}

// ErrorLog accumulates script-level errors in encounter order. Each
// offending name is recorded at most once.
type ErrorLog struct {
	records []Record
	seen    map[string]bool
}

// NewErrorLog creates an empty error log.
func NewErrorLog() *ErrorLog {
	return &ErrorLog{seen: make(map[string]bool)}
}

// Add records an error for the given name. Repeated reports for the same
// name keep only the first.
func (l *ErrorLog) Add(name string, kind ErrorKind) {
	if l.seen[name] {
		return
	}
	l.seen[name] = true
	l.records = append(l.records, Record{Name: name, Kind: kind})
}

// HasErrors reports whether any error has been recorded.
func (l *ErrorLog) HasErrors() bool {
	return len(l.records) > 0
}

// Records returns the recorded errors in encounter order.
func (l *ErrorLog) Records() []Record {
	return l.records
}

// Report renders the log as one line per error, "<Kind>: <name>",
// in encounter order.
func (l *ErrorLog) Report() string {
	var sb strings.Builder
	for _, r := range l.records {
		sb.WriteString(r.Kind.String())
		sb.WriteString(": ")
		sb.WriteString(r.Name)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// CompileError is the failure result of a compilation attempt. It carries
// the full aggregated diagnostic report, not just the first error.
type CompileError struct {
	Log *ErrorLog
}

func (e *CompileError) Error() string {
	return strings.TrimRight(e.Log.Report(), "\n")
}

// ----------------------------------------------------------------------------
// Syntax Errors
// ----------------------------------------------------------------------------

// SyntaxError is a malformed-script error from the front end. It is
// immediately fatal; no recovery is attempted.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError: %d:%d: %s", e.Line, e.Column, e.Message)
}

// ----------------------------------------------------------------------------
// Internal Errors
// ----------------------------------------------------------------------------

// InternalError signals a tree shape or pass state that cannot occur under
// correct prior-pass behavior. It indicates a defect in the compiler, not
// a mistake in the script.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal compiler error: " + e.Message
}

// Internalf builds an InternalError with a formatted message.
func Internalf(format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}
