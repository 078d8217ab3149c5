package expression

import (
	"fmt"
	"strings"
)

// Validate statically checks a tree. Nodes whose evaluator has a Rewrite hook
// are replaced before their children are visited; every node's validator runs
// after its children. The input tree is never modified.
func Validate(expr *Expression) (*Expression, error) {
	if expr.Evaluator != nil && expr.Evaluator.Rewrite != nil {
		rewritten, err := expr.Evaluator.Rewrite(expr)
		if err != nil {
			return nil, err
		}
		expr = rewritten
	}

	if len(expr.Children) > 0 {
		children := make([]*Expression, len(expr.Children))
		changed := false
		for i, child := range expr.Children {
			validated, err := Validate(child)
			if err != nil {
				return nil, err
			}
			children[i] = validated
			if validated != child {
				changed = true
			}
		}
		if changed {
			expr = expr.withChildren(children...)
		}
	}

	if expr.Evaluator != nil && expr.Evaluator.Validate != nil {
		if err := expr.Evaluator.Validate(expr); err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func validationError(expr *Expression, format string, args ...interface{}) error {
	return &ValidationError{Expression: expr.String(), Message: fmt.Sprintf(format, args...)}
}

func typeNames(types []ReturnType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

func typeAllowed(t ReturnType, types []ReturnType) bool {
	if t == ReturnObject || len(types) == 0 {
		return true
	}
	for _, allowed := range types {
		if allowed == t {
			return true
		}
	}
	return false
}

// ValidateArityAndAnyType checks the child count is within [min, max] and that
// every child whose type is known statically is one of types.
func ValidateArityAndAnyType(expr *Expression, min, max int, types ...ReturnType) error {
	if len(expr.Children) < min {
		return validationError(expr, "%s should have at least %d children", expr.Type, min)
	}
	if len(expr.Children) > max {
		return validationError(expr, "%s can't have more than %d children", expr.Type, max)
	}
	for _, child := range expr.Children {
		if !typeAllowed(child.ReturnType(), types) {
			return validationError(child, "%s is not one of [%s]", child, typeNames(types))
		}
	}
	return nil
}

// ValidateOrder checks children positionally: required types first, then up
// to len(optional) optional children.
func ValidateOrder(expr *Expression, optional []ReturnType, required ...ReturnType) error {
	if len(expr.Children) < len(required) || len(expr.Children) > len(required)+len(optional) {
		if len(optional) == 0 {
			return validationError(expr, "%s should have %d children", expr.Type, len(required))
		}
		return validationError(expr, "%s should have between %d and %d children", expr.Type, len(required), len(required)+len(optional))
	}
	for i, want := range required {
		child := expr.Children[i]
		if want != ReturnObject && !typeAllowed(child.ReturnType(), []ReturnType{want}) {
			return validationError(child, "%s is not a %s", child, want)
		}
	}
	for i, want := range optional {
		pos := len(required) + i
		if pos >= len(expr.Children) {
			break
		}
		child := expr.Children[pos]
		if want != ReturnObject && !typeAllowed(child.ReturnType(), []ReturnType{want}) {
			return validationError(child, "%s is not a %s", child, want)
		}
	}
	return nil
}

const unbounded = int(^uint(0) >> 1)

// ValidateAtLeastOne requires one or more children of any type.
func ValidateAtLeastOne(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 1, unbounded)
}

// ValidateNumber requires one or more numeric children.
func ValidateNumber(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 1, unbounded, ReturnNumber)
}

// ValidateString requires one or more string children.
func ValidateString(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 1, unbounded, ReturnString)
}

// ValidateBinary requires exactly two children.
func ValidateBinary(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 2, 2)
}

// ValidateBinaryNumber requires exactly two numeric children.
func ValidateBinaryNumber(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 2, 2, ReturnNumber)
}

// ValidateTwoOrMoreNumbers requires at least two numeric children.
func ValidateTwoOrMoreNumbers(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 2, unbounded, ReturnNumber)
}

// ValidateBinaryNumberOrString requires two children that are numbers or strings.
func ValidateBinaryNumberOrString(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 2, 2, ReturnNumber, ReturnString)
}

// ValidateUnary requires a single child.
func ValidateUnary(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 1, 1)
}

// ValidateUnaryString requires a single string child.
func ValidateUnaryString(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 1, 1, ReturnString)
}

// ValidateUnaryNumber requires a single numeric child.
func ValidateUnaryNumber(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 1, 1, ReturnNumber)
}

// ValidateUnaryBoolean requires a single boolean child.
func ValidateUnaryBoolean(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 1, 1, ReturnBoolean)
}

// ValidateNoChildren rejects any argument.
func ValidateNoChildren(expr *Expression) error {
	return ValidateArityAndAnyType(expr, 0, 0)
}

func validateOrder(optional []ReturnType, required ...ReturnType) ValidateFunc {
	return func(expr *Expression) error {
		return ValidateOrder(expr, optional, required...)
	}
}

func validateArity(min, max int, types ...ReturnType) ValidateFunc {
	return func(expr *Expression) error {
		return ValidateArityAndAnyType(expr, min, max, types...)
	}
}

// validateAccessor checks a property access: a constant string name and an
// optional instance.
func validateAccessor(expr *Expression) error {
	if err := ValidateArityAndAnyType(expr, 1, 2); err != nil {
		return err
	}
	name := expr.Children[0]
	if _, ok := name.Value.(string); !ok || !name.IsConstant() {
		return validationError(expr, "%s must be a string constant", name)
	}
	return nil
}

// bindingName returns the variable name of a bare accessor, e.g. x in foreach(items, x, ...).
func bindingName(expr *Expression) (string, bool) {
	if expr.Type != Accessor || len(expr.Children) != 1 || !expr.Children[0].IsConstant() {
		return "", false
	}
	name, ok := expr.Children[0].Value.(string)
	return name, ok
}

// isScopedBinding recognises a binding that was already rewritten to $local.
func isScopedBinding(expr *Expression) bool {
	if expr.Type != Accessor || len(expr.Children) != 2 {
		return false
	}
	if _, ok := bindingName(expr.withChildren(expr.Children[0])); !ok {
		return false
	}
	scope, ok := bindingName(expr.Children[1])
	return ok && scope == LocalScope
}

// rewriteForeach re-roots the loop body's accessors: the bound variable under
// $local, every other name under $global.
func rewriteForeach(expr *Expression) (*Expression, error) {
	if len(expr.Children) != 3 {
		return nil, validationError(expr, "%s should have 3 parameters", expr.Type)
	}
	if isScopedBinding(expr.Children[1]) {
		return expr, nil
	}
	name, ok := bindingName(expr.Children[1])
	if !ok {
		return nil, validationError(expr, "second parameter of foreach is not an identifier: %s", expr.Children[1])
	}
	binding := rerootAccessors(expr.Children[1], name, nil)
	body := rerootAccessors(expr.Children[2], name, nil)
	return expr.withChildren(expr.Children[0], binding, body), nil
}

func rerootAccessors(expr *Expression, binding string, shadowed map[string]bool) *Expression {
	if expr.Type == Accessor {
		if len(expr.Children) == 2 {
			return expr.withChildren(expr.Children[0], rerootAccessors(expr.Children[1], binding, shadowed))
		}
		name, ok := bindingName(expr)
		if !ok || shadowed[name] {
			return expr
		}
		scope := GlobalScope
		if name == binding {
			scope = LocalScope
		}
		root := MakeExpression(expr.Evaluator, NewConstant(scope))
		return expr.withChildren(expr.Children[0], root)
	}

	if expr.Type == Foreach && len(expr.Children) == 3 {
		if inner, ok := bindingName(expr.Children[1]); ok {
			inShadow := make(map[string]bool, len(shadowed)+1)
			for k := range shadowed {
				inShadow[k] = true
			}
			inShadow[inner] = true
			return expr.withChildren(
				rerootAccessors(expr.Children[0], binding, shadowed),
				expr.Children[1],
				rerootAccessors(expr.Children[2], binding, inShadow),
			)
		}
	}

	if len(expr.Children) == 0 {
		return expr
	}
	children := make([]*Expression, len(expr.Children))
	for i, child := range expr.Children {
		children[i] = rerootAccessors(child, binding, shadowed)
	}
	return expr.withChildren(children...)
}
