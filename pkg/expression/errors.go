package expression

import (
	"errors"
	"fmt"
)

// ParseError reports a syntax error in expression text.
type ParseError struct {
	Message  string
	Token    string
	Position int
	Cause    error
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse error at position %d near '%s': %s", e.Position, e.Token, e.Message)
	}
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError reports a node that failed static validation.
type ValidationError struct {
	Expression string
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s in %s", e.Message, e.Expression)
}

// UnknownFunctionError is returned when a name has no registered evaluator.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("%s does not have an evaluator, it's not a built-in function or a customized function", e.Name)
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsValidationError checks if an error is a static validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUnknownFunctionError checks if an error is caused by an unregistered function
func IsUnknownFunctionError(err error) bool {
	var ue *UnknownFunctionError
	return errors.As(err, &ue)
}

func recoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}
