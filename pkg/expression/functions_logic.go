package expression

import (
	"fmt"
	"strings"
)

// compareOrdered compares two numbers or two strings.
func compareOrdered(a, b interface{}) (int, error) {
	if isNumber(a) && isNumber(b) {
		x, _ := toFloat64(a)
		y, _ := toFloat64(b)
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), nil
	}
	return 0, fmt.Errorf("cannot compare %s and %s", FormatValue(a), FormatValue(b))
}

func ordered(name string, accept func(cmp int) bool) *ExpressionEvaluator {
	return Comparison(name, func(args []interface{}) (bool, error) {
		cmp, err := compareOrdered(args[0], args[1])
		if err != nil {
			return false, err
		}
		return accept(cmp), nil
	}, ValidateBinaryNumberOrString, VerifyNumberOrString)
}

func comparisonFunctions() []*ExpressionEvaluator {
	return []*ExpressionEvaluator{
		ordered(LessThan, func(cmp int) bool { return cmp < 0 }),
		ordered(LessThanOrEqual, func(cmp int) bool { return cmp <= 0 }),
		ordered(GreaterThan, func(cmp int) bool { return cmp > 0 }),
		ordered(GreaterThanOrEqual, func(cmp int) bool { return cmp >= 0 }),
		Comparison(Equal, func(args []interface{}) (bool, error) {
			return ValuesEqual(args[0], args[1]), nil
		}, ValidateBinary, nil),
		Comparison(NotEqual, func(args []interface{}) (bool, error) {
			return !ValuesEqual(args[0], args[1]), nil
		}, ValidateBinary, nil),
		Comparison(Exists, func(args []interface{}) (bool, error) {
			return args[0] != nil, nil
		}, ValidateUnary, nil),
		Comparison(Empty, func(args []interface{}) (bool, error) {
			return IsEmpty(args[0]), nil
		}, ValidateUnary, nil),
		{
			// Operands may mix containers and numbers; failures read as false.
			Type: Contains,
			Evaluate: func(expr *Expression, state interface{}) (interface{}, error) {
				args, err := EvaluateChildren(expr, state, nil)
				if err != nil {
					return false, nil
				}
				return containsItem(args[0], args[1]), nil
			},
			ReturnType: ReturnBoolean,
			Validate:   ValidateBinary,
		},
	}
}

// containsItem tests substring, list membership or property existence.
func containsItem(container, item interface{}) bool {
	if s, ok := container.(string); ok {
		sub, ok := item.(string)
		return ok && strings.Contains(s, sub)
	}
	if list, ok := asList(container); ok {
		return containsValue(list, item)
	}
	if name, ok := item.(string); ok {
		_, found := lookupProperty(container, name)
		return found
	}
	return false
}

func logicFunctions() []*ExpressionEvaluator {
	return []*ExpressionEvaluator{
		{
			Type: And,
			Evaluate: func(expr *Expression, state interface{}) (interface{}, error) {
				for _, child := range expr.Children {
					value, err := child.evaluate(state)
					if err != nil || !IsLogicTrue(value) {
						return false, nil
					}
				}
				return true, nil
			},
			ReturnType: ReturnBoolean,
			Validate:   ValidateAtLeastOne,
		},
		{
			Type: Or,
			Evaluate: func(expr *Expression, state interface{}) (interface{}, error) {
				for _, child := range expr.Children {
					value, err := child.evaluate(state)
					if err == nil && IsLogicTrue(value) {
						return true, nil
					}
				}
				return false, nil
			},
			ReturnType: ReturnBoolean,
			Validate:   ValidateAtLeastOne,
		},
		{
			Type: Not,
			Evaluate: func(expr *Expression, state interface{}) (interface{}, error) {
				value, err := expr.Children[0].evaluate(state)
				if err != nil {
					return true, nil
				}
				return !IsLogicTrue(value), nil
			},
			ReturnType: ReturnBoolean,
			Validate:   ValidateUnary,
		},
		{
			Type: If,
			Evaluate: func(expr *Expression, state interface{}) (interface{}, error) {
				cond, err := expr.Children[0].evaluate(state)
				if err == nil && IsLogicTrue(cond) {
					return expr.Children[1].evaluate(state)
				}
				return expr.Children[2].evaluate(state)
			},
			ReturnType: ReturnObject,
			Validate:   validateArity(3, 3),
		},
	}
}
