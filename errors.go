package main

import "fmt"

// ErrorKind classifies a Diagnostic. The kinds double as sentinel errors so
// callers can write errors.Is(err, ErrTypeMismatch).
type ErrorKind string

const (
	ErrRedeclaredVariable ErrorKind = "RedeclaredVariable"
	ErrUndefinedVariable  ErrorKind = "UndefinedVariable"
	ErrTypeMismatch       ErrorKind = "TypeMismatch"
	ErrRuntime            ErrorKind = "RuntimeError"
)

func (k ErrorKind) Error() string {
	return string(k)
}

// Diagnostic is the single fatal error of a run.
type Diagnostic struct {
	Kind    ErrorKind
	Line    int
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("Line %d: Error: %s", d.Line, d.Message)
}

func (d *Diagnostic) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == d.Kind
}

func newDiagnostic(kind ErrorKind, line int, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Line: line, Message: fmt.Sprintf(format, args...)}
}

func typeMismatch(line int, format string, args ...any) *Diagnostic {
	return newDiagnostic(ErrTypeMismatch, line, format, args...)
}

func runtimeError(line int, format string, args ...any) *Diagnostic {
	return newDiagnostic(ErrRuntime, line, format, args...)
}
