package expression

import (
	"fmt"
	"math"
	"math/rand"
	"unicode/utf8"
)

func arithmetic(a, b interface{}, intOp func(x, y int) int, floatOp func(x, y float64) float64) interface{} {
	if isInteger(a) && isInteger(b) {
		x, _ := toInt(a)
		y, _ := toInt(b)
		return intOp(x, y)
	}
	x, _ := toFloat64(a)
	y, _ := toFloat64(b)
	return floatOp(x, y)
}

// verifyDivisor rejects a zero divisor in any position but the first.
func verifyDivisor(value interface{}, expr *Expression, pos int) error {
	if err := VerifyNumber(value, expr, pos); err != nil {
		return err
	}
	if f, _ := toFloat64(value); pos > 0 && f == 0 {
		return fmt.Errorf("Cannot divide by 0 from %s", expr)
	}
	return nil
}

func mathFunctions() []*ExpressionEvaluator {
	return []*ExpressionEvaluator{
		MultivariateNumeric(Add, func(args []interface{}) interface{} {
			return arithmetic(args[0], args[1],
				func(x, y int) int { return x + y },
				func(x, y float64) float64 { return x + y })
		}, nil),
		MultivariateNumeric(Subtract, func(args []interface{}) interface{} {
			return arithmetic(args[0], args[1],
				func(x, y int) int { return x - y },
				func(x, y float64) float64 { return x - y })
		}, nil),
		MultivariateNumeric(Multiply, func(args []interface{}) interface{} {
			return arithmetic(args[0], args[1],
				func(x, y int) int { return x * y },
				func(x, y float64) float64 { return x * y })
		}, nil),
		MultivariateNumeric(Divide, func(args []interface{}) interface{} {
			return arithmetic(args[0], args[1],
				func(x, y int) int { return x / y },
				func(x, y float64) float64 { return x / y })
		}, verifyDivisor),
		MultivariateNumeric(Power, func(args []interface{}) interface{} {
			x, _ := toFloat64(args[0])
			y, _ := toFloat64(args[1])
			return math.Pow(x, y)
		}, nil),
		{
			Type: Mod,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				x, _ := toInt(args[0])
				y, _ := toInt(args[1])
				if y == 0 {
					return nil, fmt.Errorf("Cannot mod by 0")
				}
				return x % y, nil
			}, VerifyInteger),
			ReturnType: ReturnNumber,
			Validate:   ValidateBinaryNumber,
		},
		Numeric(Min, func(args []interface{}) interface{} {
			return arithmetic(args[0], args[1],
				func(x, y int) int {
					if y < x {
						return y
					}
					return x
				},
				math.Min)
		}),
		Numeric(Max, func(args []interface{}) interface{} {
			return arithmetic(args[0], args[1],
				func(x, y int) int {
					if y > x {
						return y
					}
					return x
				},
				math.Max)
		}),
		{
			Type: Sum,
			Evaluate: Apply(func(args []interface{}) interface{} {
				list, _ := asList(args[0])
				allInts := true
				intSum, floatSum := 0, 0.0
				for _, item := range list {
					f, _ := toFloat64(item)
					floatSum += f
					if allInts && isInteger(item) {
						n, _ := toInt(item)
						intSum += n
					} else {
						allInts = false
					}
				}
				if allInts {
					return intSum
				}
				return floatSum
			}, VerifyNumericList),
			ReturnType: ReturnNumber,
			Validate:   validateArity(1, 1),
		},
		{
			Type: Average,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				list, _ := asList(args[0])
				if len(list) == 0 {
					return nil, fmt.Errorf("average of an empty list is undefined")
				}
				total := 0.0
				for _, item := range list {
					f, _ := toFloat64(item)
					total += f
				}
				return total / float64(len(list)), nil
			}, VerifyNumericList),
			ReturnType: ReturnNumber,
			Validate:   validateArity(1, 1),
		},
		{
			Type: Count,
			Evaluate: Apply(func(args []interface{}) interface{} {
				if s, ok := args[0].(string); ok {
					return utf8.RuneCountInString(s)
				}
				if list, ok := asList(args[0]); ok {
					return len(list)
				}
				names, _ := propertyNames(args[0])
				return len(names)
			}, VerifyContainer),
			ReturnType: ReturnNumber,
			Validate:   ValidateUnary,
		},
		{
			Type: Union,
			Evaluate: Apply(func(args []interface{}) interface{} {
				var out []interface{}
				for _, arg := range args {
					list, _ := asList(arg)
					for _, item := range list {
						if !containsValue(out, item) {
							out = append(out, item)
						}
					}
				}
				if out == nil {
					out = []interface{}{}
				}
				return out
			}, VerifyList),
			ReturnType: ReturnObject,
			Validate:   ValidateAtLeastOne,
		},
		{
			Type: Intersection,
			Evaluate: Apply(func(args []interface{}) interface{} {
				first, _ := asList(args[0])
				out := []interface{}{}
				for _, item := range first {
					if containsValue(out, item) {
						continue
					}
					inAll := true
					for _, other := range args[1:] {
						list, _ := asList(other)
						if !containsValue(list, item) {
							inAll = false
							break
						}
					}
					if inAll {
						out = append(out, item)
					}
				}
				return out
			}, VerifyList),
			ReturnType: ReturnObject,
			Validate:   ValidateAtLeastOne,
		},
		NewRand(rand.Intn),
	}
}

// NewRand builds the rand(min, max) evaluator over intn, which must return a
// value in [0, n) and be safe for concurrent use.
func NewRand(intn func(n int) int) *ExpressionEvaluator {
	return &ExpressionEvaluator{
		Type: Rand,
		Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
			lo, _ := toInt(args[0])
			hi, _ := toInt(args[1])
			if lo >= hi {
				return nil, fmt.Errorf("%d should be less than %d", lo, hi)
			}
			return lo + intn(hi-lo), nil
		}, VerifyInteger),
		ReturnType: ReturnNumber,
		Validate:   ValidateBinaryNumber,
	}
}

func containsValue(list []interface{}, value interface{}) bool {
	for _, item := range list {
		if ValuesEqual(item, value) {
			return true
		}
	}
	return false
}
