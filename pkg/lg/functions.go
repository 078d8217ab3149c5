package lg

import (
	"fmt"

	"github.com/benjaminschreck/go-lg/pkg/expression"
)

// templateFunctionValidator checks a call site against the template's declared
// parameters. A call without arguments evaluates against the caller scope.
func templateFunctionValidator(t *Template) expression.ValidateFunc {
	return func(expr *expression.Expression) error {
		if n := len(expr.Children); n != 0 && n != len(t.Parameters) {
			return fmt.Errorf("arguments count mismatch for template function %s, expected %d, actual %d", t.Name, len(t.Parameters), n)
		}
		return nil
	}
}

// templateStub makes a template callable from expressions during the static
// check. Stubs are never evaluated.
func templateStub(t *Template) *expression.ExpressionEvaluator {
	return expression.NewExpressionEvaluator(t.Name,
		func(*expression.Expression, interface{}) (interface{}, error) {
			return nil, fmt.Errorf("template %s cannot be evaluated outside an evaluation", t.Name)
		},
		expression.ReturnObject,
		templateFunctionValidator(t),
	)
}

// templateLookup resolves template names to evaluators made by build. The
// result is not safe for concurrent use.
func templateLookup(templates map[string]*Template, build func(*Template) *expression.ExpressionEvaluator) expression.EvaluatorLookup {
	built := make(map[string]*expression.ExpressionEvaluator)
	return func(name string) *expression.ExpressionEvaluator {
		if ev, ok := built[name]; ok {
			return ev
		}
		t, ok := templates[name]
		if !ok {
			return nil
		}
		ev := build(t)
		built[name] = ev
		return ev
	}
}

// bindArguments builds the scope of a referenced template: only its
// parameters are visible.
func bindArguments(t *Template, args []interface{}) (map[string]interface{}, error) {
	if len(args) != len(t.Parameters) {
		return nil, fmt.Errorf("arguments count mismatch for template %s, expected %d, actual %d", t.Name, len(t.Parameters), len(args))
	}
	scope := make(map[string]interface{}, len(args))
	for i, name := range t.Parameters {
		scope[name] = args[i]
	}
	return scope, nil
}
