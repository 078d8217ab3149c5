// Package expression implements a small typed expression language: an AST of
// function applications over constants, a registry of built-in evaluators with
// static validation and runtime verification, and a parser for the infix syntax.
//
// Basic usage:
//
//	expr, err := expression.Parse("add(price, 2) * count", expression.Default().LookupFunc())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	value, err := expr.TryEvaluate(map[string]interface{}{"price": 3, "count": 2})
//
// Every node in a tree is bound to an ExpressionEvaluator at build time. Trees
// are immutable; rewrites (such as the foreach scoping pass) build new nodes.
package expression

import (
	"fmt"
	"strings"
	"time"
)

// ReturnType is the statically declared result type of a node.
type ReturnType int

const (
	// ReturnObject means the type is only known at runtime.
	ReturnObject ReturnType = iota
	ReturnString
	ReturnNumber
	ReturnBoolean
)

func (r ReturnType) String() string {
	switch r {
	case ReturnString:
		return "String"
	case ReturnNumber:
		return "Number"
	case ReturnBoolean:
		return "Boolean"
	default:
		return "Object"
	}
}

// EvaluateFunc computes the value of a node against a scope.
type EvaluateFunc func(expr *Expression, state interface{}) (interface{}, error)

// ValidateFunc statically checks a node after its children were validated.
type ValidateFunc func(expr *Expression) error

// RewriteFunc replaces a node before its children are validated. It must not
// modify its input.
type RewriteFunc func(expr *Expression) (*Expression, error)

// ExpressionEvaluator describes how one function name is validated and evaluated.
// Evaluators are stateless and shared by every node bound to them.
type ExpressionEvaluator struct {
	Type       string
	Evaluate   EvaluateFunc
	ReturnType ReturnType
	Validate   ValidateFunc
	Rewrite    RewriteFunc
	// Negation is the evaluator computing the logical negation, if any.
	Negation *ExpressionEvaluator
}

// NewExpressionEvaluator creates an evaluator for a custom function.
func NewExpressionEvaluator(name string, evaluate EvaluateFunc, returnType ReturnType, validate ValidateFunc) *ExpressionEvaluator {
	return &ExpressionEvaluator{
		Type:       name,
		Evaluate:   evaluate,
		ReturnType: returnType,
		Validate:   validate,
	}
}

// EvaluatorLookup resolves a function name to its evaluator, or nil when unknown.
type EvaluatorLookup func(name string) *ExpressionEvaluator

// ChainLookup returns a lookup that tries each lookup in order.
func ChainLookup(lookups ...EvaluatorLookup) EvaluatorLookup {
	return func(name string) *ExpressionEvaluator {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if ev := lookup(name); ev != nil {
				return ev
			}
		}
		return nil
	}
}

// Expression is a node of the AST: a function application or a constant.
type Expression struct {
	// Type is the function name the node was built with, or Constant.
	Type      string
	Children  []*Expression
	Evaluator *ExpressionEvaluator
	// Value holds the literal for constant nodes.
	Value interface{}
}

var constantEvaluator = &ExpressionEvaluator{
	Type: Constant,
	Evaluate: func(expr *Expression, _ interface{}) (interface{}, error) {
		return expr.Value, nil
	},
	ReturnType: ReturnObject,
}

// NewConstant creates a constant leaf.
func NewConstant(value interface{}) *Expression {
	return &Expression{Type: Constant, Evaluator: constantEvaluator, Value: value}
}

// MakeExpression binds an evaluator to children. The node takes the
// evaluator's canonical name.
func MakeExpression(ev *ExpressionEvaluator, children ...*Expression) *Expression {
	return &Expression{Type: ev.Type, Evaluator: ev, Children: children}
}

// IsConstant reports whether the node is a literal leaf.
func (e *Expression) IsConstant() bool {
	return e.Type == Constant
}

// ReturnType returns the declared result type of the node.
func (e *Expression) ReturnType() ReturnType {
	if e.IsConstant() {
		return constantReturnType(e.Value)
	}
	if e.Evaluator == nil {
		return ReturnObject
	}
	return e.Evaluator.ReturnType
}

func constantReturnType(value interface{}) ReturnType {
	switch {
	case value == nil:
		return ReturnObject
	case isNumber(value):
		return ReturnNumber
	}
	switch value.(type) {
	case string:
		return ReturnString
	case bool:
		return ReturnBoolean
	}
	return ReturnObject
}

// TryEvaluate evaluates the tree against a scope. Panics raised by evaluator
// bodies are converted to errors.
func (e *Expression) TryEvaluate(state interface{}) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, recoverError(r)
		}
	}()
	return e.evaluate(state)
}

func (e *Expression) evaluate(state interface{}) (interface{}, error) {
	if e.Evaluator == nil || e.Evaluator.Evaluate == nil {
		return nil, fmt.Errorf("%s has no evaluator", e.Type)
	}
	return e.Evaluator.Evaluate(e, state)
}

// withChildren returns a shallow copy of e carrying new children.
func (e *Expression) withChildren(children ...*Expression) *Expression {
	clone := *e
	clone.Children = children
	return &clone
}

var infixOperators = map[string]bool{
	Add: true, Subtract: true, Multiply: true, Divide: true, Mod: true, Power: true,
	Equal: true, NotEqual: true, LessThan: true, LessThanOrEqual: true,
	GreaterThan: true, GreaterThanOrEqual: true, And: true, Or: true, Concat: true,
}

func (e *Expression) String() string {
	switch {
	case e.IsConstant():
		return formatConstant(e.Value)
	case e.Type == Accessor && len(e.Children) > 0 && e.Children[0].IsConstant():
		name, _ := e.Children[0].Value.(string)
		if len(e.Children) == 2 {
			return e.Children[1].String() + "." + name
		}
		return name
	case e.Type == Element && len(e.Children) == 2:
		return fmt.Sprintf("%s[%s]", e.Children[0], e.Children[1])
	case e.Type == Not && len(e.Children) == 1:
		return "!" + e.Children[0].String()
	case infixOperators[e.Type] && len(e.Children) >= 2:
		parts := make([]string, len(e.Children))
		for i, child := range e.Children {
			parts[i] = child.String()
		}
		return "(" + strings.Join(parts, " "+e.Type+" ") + ")"
	}
	parts := make([]string, len(e.Children))
	for i, child := range e.Children {
		parts[i] = child.String()
	}
	return fmt.Sprintf("%s(%s)", e.Type, strings.Join(parts, ", "))
}

func formatConstant(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
	case time.Time:
		return "'" + v.Format(roundTripLayout) + "'"
	}
	return FormatValue(value)
}

// Evaluate parses text with the built-in registry and evaluates it against scope.
func Evaluate(text string, scope interface{}) (interface{}, error) {
	expr, err := Parse(text, Default().LookupFunc())
	if err != nil {
		return nil, err
	}
	return expr.TryEvaluate(scope)
}
