package expression

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func conversionFunctions() []*ExpressionEvaluator {
	return []*ExpressionEvaluator{
		{
			Type: Float,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				if f, ok := toFloat64(args[0]); ok {
					return f, nil
				}
				if s, ok := args[0].(string); ok {
					f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil {
						return nil, fmt.Errorf("%s is not a valid float", s)
					}
					return f, nil
				}
				return nil, fmt.Errorf("%s cannot be converted to a float", FormatValue(args[0]))
			}, nil),
			ReturnType: ReturnNumber,
			Validate:   ValidateUnary,
		},
		{
			Type: Int,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				if isInteger(args[0]) {
					n, _ := toInt(args[0])
					return n, nil
				}
				if f, ok := toFloat64(args[0]); ok {
					return int(math.RoundToEven(f)), nil
				}
				if s, ok := args[0].(string); ok {
					s = strings.TrimSpace(s)
					if n, err := strconv.Atoi(s); err == nil {
						return n, nil
					}
					if f, err := strconv.ParseFloat(s, 64); err == nil {
						return int(math.RoundToEven(f)), nil
					}
					return nil, fmt.Errorf("%s is not a valid integer", s)
				}
				return nil, fmt.Errorf("%s cannot be converted to an integer", FormatValue(args[0]))
			}, nil),
			ReturnType: ReturnNumber,
			Validate:   ValidateUnary,
		},
		{
			Type: String,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				if s, ok := args[0].(string); ok {
					return s, nil
				}
				text, err := ToJSON(args[0])
				if err != nil {
					return nil, err
				}
				if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
					text = text[1 : len(text)-1]
				}
				return text, nil
			}, nil),
			ReturnType: ReturnString,
			Validate:   ValidateUnary,
		},
		Comparison(Bool, func(args []interface{}) (bool, error) {
			return IsLogicTrue(args[0]), nil
		}, ValidateUnary, nil),
	}
}

func objectFunctions() []*ExpressionEvaluator {
	return []*ExpressionEvaluator{
		{
			Type:       Accessor,
			Evaluate:   evaluateAccessor,
			ReturnType: ReturnObject,
			Validate:   validateAccessor,
		},
		{
			Type:       Element,
			Evaluate:   evaluateElement,
			ReturnType: ReturnObject,
			Validate:   ValidateBinary,
		},
		{
			Type: GetProperty,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				name, ok := args[1].(string)
				if !ok {
					return nil, fmt.Errorf("%s is not a string", FormatValue(args[1]))
				}
				return AccessProperty(args[0], name)
			}, nil),
			ReturnType: ReturnObject,
			Validate:   validateOrder(nil, ReturnObject, ReturnString),
		},
		{
			Type: CreateArray,
			Evaluate: Apply(func(args []interface{}) interface{} {
				out := make([]interface{}, len(args))
				copy(out, args)
				return out
			}, nil),
			ReturnType: ReturnObject,
			Validate:   validateArity(0, unbounded),
		},
		{
			Type: First,
			Evaluate: Apply(func(args []interface{}) interface{} {
				if s, ok := args[0].(string); ok {
					for _, r := range s {
						return string(r)
					}
					return nil
				}
				if list, ok := asList(args[0]); ok && len(list) > 0 {
					return list[0]
				}
				return nil
			}, nil),
			ReturnType: ReturnObject,
			Validate:   ValidateUnary,
		},
		{
			Type: Last,
			Evaluate: Apply(func(args []interface{}) interface{} {
				if s, ok := args[0].(string); ok {
					runes := []rune(s)
					if len(runes) == 0 {
						return nil
					}
					return string(runes[len(runes)-1])
				}
				if list, ok := asList(args[0]); ok && len(list) > 0 {
					return list[len(list)-1]
				}
				return nil
			}, nil),
			ReturnType: ReturnObject,
			Validate:   ValidateUnary,
		},
		{
			Type: JSON,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				return ParseStructured(args[0].(string))
			}, VerifyString),
			ReturnType: ReturnObject,
			Validate:   ValidateUnaryString,
		},
		{
			Type: AddProperty,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				return withProperty(args[0], args[1].(string), args[2])
			}, verifyPropertyName),
			ReturnType: ReturnObject,
			Validate:   validateOrder(nil, ReturnObject, ReturnString, ReturnObject),
		},
		{
			Type: SetProperty,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				return withProperty(args[0], args[1].(string), args[2])
			}, verifyPropertyName),
			ReturnType: ReturnObject,
			Validate:   validateOrder(nil, ReturnObject, ReturnString, ReturnObject),
		},
		{
			Type: RemoveProperty,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				return withoutProperty(args[0], args[1].(string))
			}, verifyPropertyName),
			ReturnType: ReturnObject,
			Validate:   validateOrder(nil, ReturnObject, ReturnString),
		},
		{
			Type:       Foreach,
			Evaluate:   evaluateForeach,
			ReturnType: ReturnObject,
			Validate:   validateArity(3, 3),
			Rewrite:    rewriteForeach,
		},
	}
}

// verifyPropertyName requires the second argument of the property functions to be a string.
func verifyPropertyName(value interface{}, expr *Expression, pos int) error {
	if pos == 1 {
		return VerifyString(value, expr, pos)
	}
	return nil
}

func evaluateAccessor(expr *Expression, state interface{}) (interface{}, error) {
	name, _ := expr.Children[0].Value.(string)
	instance := state
	if len(expr.Children) == 2 {
		value, err := expr.Children[1].evaluate(state)
		if err != nil {
			return nil, err
		}
		instance = value
	}
	return AccessProperty(instance, name)
}

func evaluateElement(expr *Expression, state interface{}) (interface{}, error) {
	instance, err := expr.Children[0].evaluate(state)
	if err != nil {
		return nil, err
	}
	index, err := expr.Children[1].evaluate(state)
	if err != nil {
		return nil, err
	}
	if isInteger(index) {
		n, _ := toInt(index)
		return AccessIndex(instance, n)
	}
	if name, ok := index.(string); ok {
		return AccessProperty(instance, name)
	}
	return nil, fmt.Errorf("could not coerce %s to an int or string", expr.Children[1])
}

// evaluateForeach runs the rewritten body once per element with a fresh
// {$global, $local} scope.
func evaluateForeach(expr *Expression, state interface{}) (interface{}, error) {
	collection, err := expr.Children[0].evaluate(state)
	if err != nil {
		return nil, err
	}
	list, ok := asList(collection)
	if !ok {
		return nil, fmt.Errorf("%s is not a collection", expr.Children[0])
	}
	name, _ := expr.Children[1].Children[0].Value.(string)

	out := make([]interface{}, 0, len(list))
	for _, item := range list {
		scope := map[string]interface{}{
			GlobalScope: state,
			LocalScope:  map[string]interface{}{name: item},
		}
		value, err := expr.Children[2].evaluate(scope)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}
