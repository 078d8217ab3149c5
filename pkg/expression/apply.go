package expression

import (
	"fmt"
	"time"
)

// VerifyFunc checks one evaluated child value at runtime.
type VerifyFunc func(value interface{}, expr *Expression, child int) error

// VerifyNumber requires a numeric value.
func VerifyNumber(value interface{}, expr *Expression, _ int) error {
	if !isNumber(value) {
		return fmt.Errorf("%s is not a number", expr)
	}
	return nil
}

// VerifyNumericList requires a list of numbers.
func VerifyNumericList(value interface{}, expr *Expression, _ int) error {
	list, ok := asList(value)
	if !ok {
		return fmt.Errorf("%s is not a list", expr)
	}
	for _, item := range list {
		if !isNumber(item) {
			return fmt.Errorf("%s is not a number in %s", FormatValue(item), expr)
		}
	}
	return nil
}

// VerifyContainer requires a string, list or object.
func VerifyContainer(value interface{}, expr *Expression, _ int) error {
	if _, ok := value.(string); ok {
		return nil
	}
	if _, ok := asList(value); ok {
		return nil
	}
	if _, ok := propertyNames(value); ok {
		return nil
	}
	return fmt.Errorf("%s must be a string, list or object", expr)
}

// VerifyList requires a list.
func VerifyList(value interface{}, expr *Expression, _ int) error {
	if _, ok := asList(value); !ok {
		return fmt.Errorf("%s is not a list", expr)
	}
	return nil
}

// VerifyInteger requires an integer value.
func VerifyInteger(value interface{}, expr *Expression, _ int) error {
	if !isInteger(value) {
		return fmt.Errorf("%s is not an integer", expr)
	}
	return nil
}

// VerifyString requires a string.
func VerifyString(value interface{}, expr *Expression, _ int) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("%s is not a string", expr)
	}
	return nil
}

// VerifyNumberOrString requires a number or a string; nil fails.
func VerifyNumberOrString(value interface{}, expr *Expression, _ int) error {
	if value == nil {
		return fmt.Errorf("%s is null", expr)
	}
	if _, ok := value.(string); ok || isNumber(value) {
		return nil
	}
	return fmt.Errorf("%s is not a string or number", expr)
}

// VerifyBoolean requires a boolean.
func VerifyBoolean(value interface{}, expr *Expression, _ int) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("%s is not a boolean", expr)
	}
	return nil
}

// EvaluateChildren evaluates children in order, stopping at the first
// evaluation error or verifier failure.
func EvaluateChildren(expr *Expression, state interface{}, verify VerifyFunc) ([]interface{}, error) {
	args := make([]interface{}, 0, len(expr.Children))
	for pos, child := range expr.Children {
		value, err := child.evaluate(state)
		if err != nil {
			return nil, err
		}
		if verify != nil {
			if err := verify(value, child, pos); err != nil {
				return nil, err
			}
		}
		args = append(args, value)
	}
	return args, nil
}

// Apply builds an evaluator body from a function over evaluated children.
func Apply(fn func(args []interface{}) interface{}, verify VerifyFunc) EvaluateFunc {
	return ApplyWithError(func(args []interface{}) (interface{}, error) {
		return fn(args), nil
	}, verify)
}

// ApplyWithError is like Apply for functions that can fail.
func ApplyWithError(fn func(args []interface{}) (interface{}, error), verify VerifyFunc) EvaluateFunc {
	return func(expr *Expression, state interface{}) (value interface{}, err error) {
		args, err := EvaluateChildren(expr, state, verify)
		if err != nil {
			return nil, err
		}
		defer func() {
			if r := recover(); r != nil {
				value, err = nil, recoverError(r)
			}
		}()
		return fn(args)
	}
}

// ApplySequence folds a binary function left to right over the children.
func ApplySequence(fn func(args []interface{}) interface{}, verify VerifyFunc) EvaluateFunc {
	return ApplySequenceWithError(func(args []interface{}) (interface{}, error) {
		return fn(args), nil
	}, verify)
}

// ApplySequenceWithError folds a binary function that can fail.
func ApplySequenceWithError(fn func(args []interface{}) (interface{}, error), verify VerifyFunc) EvaluateFunc {
	return ApplyWithError(func(args []interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, nil
		}
		result := args[0]
		for _, next := range args[1:] {
			var err error
			result, err = fn([]interface{}{result, next})
			if err != nil {
				return nil, err
			}
		}
		return result, nil
	}, verify)
}

// Numeric builds a Number evaluator over one or more numeric children.
func Numeric(name string, fn func(args []interface{}) interface{}) *ExpressionEvaluator {
	return &ExpressionEvaluator{
		Type:       name,
		Evaluate:   ApplySequence(fn, VerifyNumber),
		ReturnType: ReturnNumber,
		Validate:   ValidateNumber,
	}
}

// MultivariateNumeric builds a Number evaluator requiring two or more numbers.
func MultivariateNumeric(name string, fn func(args []interface{}) interface{}, verify VerifyFunc) *ExpressionEvaluator {
	if verify == nil {
		verify = VerifyNumber
	}
	return &ExpressionEvaluator{
		Type:       name,
		Evaluate:   ApplySequence(fn, verify),
		ReturnType: ReturnNumber,
		Validate:   ValidateTwoOrMoreNumbers,
	}
}

// Comparison builds a Boolean evaluator. Operands must be all numeric or all
// non-numeric, otherwise it fails. A failure while evaluating children
// yields false.
func Comparison(name string, fn func(args []interface{}) (bool, error), validate ValidateFunc, verify VerifyFunc) *ExpressionEvaluator {
	return &ExpressionEvaluator{
		Type: name,
		Evaluate: func(expr *Expression, state interface{}) (value interface{}, err error) {
			args, err := EvaluateChildren(expr, state, verify)
			if err != nil {
				return false, nil
			}
			numeric := false
			for pos, arg := range args {
				if pos == 0 {
					numeric = isNumber(arg)
					continue
				}
				if arg != nil && isNumber(arg) != numeric {
					return false, fmt.Errorf("Arguments must either all be numbers or strings in %s", expr)
				}
			}
			defer func() {
				if r := recover(); r != nil {
					value, err = false, recoverError(r)
				}
			}()
			return fn(args)
		},
		ReturnType: ReturnBoolean,
		Validate:   validate,
	}
}

// StringTransform builds a String evaluator over a single string argument.
func StringTransform(name string, fn func(s string) string) *ExpressionEvaluator {
	return &ExpressionEvaluator{
		Type: name,
		Evaluate: Apply(func(args []interface{}) interface{} {
			return fn(args[0].(string))
		}, VerifyString),
		ReturnType: ReturnString,
		Validate:   ValidateUnaryString,
	}
}

// TimeTransform builds an evaluator for (timestamp, integer[, format]) that
// shifts the timestamp and formats the result.
func TimeTransform(name string, fn func(t time.Time, n int) time.Time) *ExpressionEvaluator {
	return &ExpressionEvaluator{
		Type: name,
		Evaluate: func(expr *Expression, state interface{}) (interface{}, error) {
			args, err := EvaluateChildren(expr, state, nil)
			if err != nil {
				return nil, err
			}
			ts, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("%s should contain an ISO format timestamp and a time interval integer", expr)
			}
			n, ok := args[1].(int)
			if !ok {
				if !isInteger(args[1]) {
					return nil, fmt.Errorf("%s should contain an ISO format timestamp and a time interval integer", expr)
				}
				n, _ = toInt(args[1])
			}
			format, err := formatArgument(args, 2)
			if err != nil {
				return nil, err
			}
			t, err := ParseTimestamp(ts)
			if err != nil {
				return nil, err
			}
			return FormatDateTimeValue(fn(t, n), format)
		},
		ReturnType: ReturnString,
		Validate:   validateOrder([]ReturnType{ReturnString}, ReturnString, ReturnNumber),
	}
}

// formatArgument returns the optional format string at pos, or the round-trip default.
func formatArgument(args []interface{}, pos int) (string, error) {
	if pos >= len(args) {
		return defaultTimestampFormat, nil
	}
	format, ok := args[pos].(string)
	if !ok {
		return "", fmt.Errorf("format %s should be a string", FormatValue(args[pos]))
	}
	return format, nil
}
