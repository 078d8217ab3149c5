package lg

import (
	"errors"
	"fmt"
	"strings"
)

// DiagnosticError is returned when loading templates produced Error-severity
// diagnostics. Nothing from a failed load is kept.
type DiagnosticError struct {
	Diagnostics []Diagnostic
}

func (e *DiagnosticError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "template check failed"
	}
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// EvaluationError wraps a failure while expanding a template.
type EvaluationError struct {
	Template   string
	Expression string
	Cause      error
}

func (e *EvaluationError) Error() string {
	switch {
	case e.Expression != "" && e.Template != "":
		return fmt.Sprintf("evaluation error in template '%s' for expression '%s': %v", e.Template, e.Expression, e.Cause)
	case e.Expression != "":
		return fmt.Sprintf("evaluation error for expression '%s': %v", e.Expression, e.Cause)
	case e.Template != "":
		return fmt.Sprintf("evaluation error in template '%s': %v", e.Template, e.Cause)
	}
	return fmt.Sprintf("evaluation error: %v", e.Cause)
}

func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// TemplateNotFoundError reports a reference to an undefined template.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("no such template: %s", e.Name)
}

// CycleError reports a template that references itself, directly or through
// other templates. Path starts and ends with the repeated name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("loop detected: %s", strings.Join(e.Path, " => "))
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

func (m *MultiError) Len() int {
	return len(m.errors)
}

// Err returns nil when empty and the single error when there is only one.
func (m *MultiError) Err() error {
	switch len(m.errors) {
	case 0:
		return nil
	case 1:
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}
	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}
	parts := []string{fmt.Sprintf("%d errors occurred:", len(m.errors))}
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsDiagnosticError checks if an error comes from a failed template check
func IsDiagnosticError(err error) bool {
	var de *DiagnosticError
	return errors.As(err, &de)
}

// IsEvaluationError checks if an error is an evaluation error
func IsEvaluationError(err error) bool {
	var ee *EvaluationError
	return errors.As(err, &ee)
}

// IsTemplateNotFound checks if an error reports an undefined template
func IsTemplateNotFound(err error) bool {
	var ne *TemplateNotFoundError
	return errors.As(err, &ne)
}

// IsCycleError checks if an error reports a template reference loop
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}
