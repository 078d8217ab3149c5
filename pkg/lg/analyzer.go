package lg

import (
	"strings"

	"github.com/benjaminschreck/go-lg/pkg/expression"
)

// AnalyzerResult lists what a template depends on, transitively.
type AnalyzerResult struct {
	// Variables are the scope paths read, such as "user.name".
	Variables []string
	// TemplateReferences are the templates expanded, by reference or by
	// function call.
	TemplateReferences []string
}

func (r *AnalyzerResult) merge(other *AnalyzerResult) {
	r.Variables = appendUnique(r.Variables, other.Variables...)
	r.TemplateReferences = appendUnique(r.TemplateReferences, other.TemplateReferences...)
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}

// analyzer walks the template reference graph without evaluating anything.
// A template met again while it is still on the stack is a cycle.
type analyzer struct {
	templates map[string]*Template
	lookup    expression.EvaluatorLookup
	stack     []string
	done      map[string]*AnalyzerResult
}

func newAnalyzer(templates map[string]*Template, registry *expression.Registry) *analyzer {
	return &analyzer{
		templates: templates,
		lookup:    expression.ChainLookup(templateLookup(templates, templateStub), registry.LookupFunc()),
		done:      make(map[string]*AnalyzerResult),
	}
}

func (a *analyzer) analyzeTemplate(name string) (*AnalyzerResult, error) {
	for _, active := range a.stack {
		if active == name {
			return nil, &CycleError{Path: append(append([]string(nil), a.stack...), name)}
		}
	}
	if result, ok := a.done[name]; ok {
		return result, nil
	}
	t, ok := a.templates[name]
	if !ok {
		return nil, &TemplateNotFoundError{Name: name}
	}

	a.stack = append(a.stack, name)
	defer func() { a.stack = a.stack[:len(a.stack)-1] }()

	result := &AnalyzerResult{}
	visit := func(v *variation) error {
		return a.analyzeVariation(t, v, result)
	}
	for _, v := range t.body.variations {
		if err := visit(v); err != nil {
			return nil, err
		}
	}
	for _, rule := range t.body.rules {
		for _, text := range rule.expressions {
			if err := a.analyzeExpression(t, text, result); err != nil {
				return nil, err
			}
		}
		for _, v := range rule.body {
			if err := visit(v); err != nil {
				return nil, err
			}
		}
	}

	a.done[name] = result
	return result, nil
}

func (a *analyzer) analyzeVariation(t *Template, v *variation, result *AnalyzerResult) error {
	for _, seg := range v.segments {
		switch seg.kind {
		case expressionSegment:
			if err := a.analyzeExpression(t, seg.value, result); err != nil {
				return err
			}
		case multilineSegment:
			for _, m := range multilineExpressionRegex.FindAllString(seg.value, -1) {
				if err := a.analyzeExpression(t, m[2:len(m)-1], result); err != nil {
					return err
				}
			}
		case templateRefSegment:
			name, args, _, ok := parseReference(seg.value)
			if !ok {
				continue
			}
			for _, arg := range args {
				if err := a.analyzeExpression(t, arg, result); err != nil {
					return err
				}
			}
			if err := a.analyzeReference(name, result); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *analyzer) analyzeReference(name string, result *AnalyzerResult) error {
	result.TemplateReferences = appendUnique(result.TemplateReferences, name)
	sub, err := a.analyzeTemplate(name)
	if err != nil {
		return err
	}
	result.merge(sub)
	return nil
}

func (a *analyzer) analyzeExpression(t *Template, text string, result *AnalyzerResult) error {
	expr, err := expression.Parse(text, a.lookup)
	if err != nil {
		return &EvaluationError{Template: t.Name, Expression: text, Cause: err}
	}

	for _, path := range expression.References(expr) {
		if !isParameterPath(t, path) {
			result.Variables = appendUnique(result.Variables, path)
		}
	}

	var calls []string
	var walk func(e *expression.Expression)
	walk = func(e *expression.Expression) {
		if _, ok := a.templates[e.Type]; ok && !e.IsConstant() {
			calls = appendUnique(calls, e.Type)
		}
		for _, child := range e.Children {
			walk(child)
		}
	}
	walk(expr)

	for _, name := range calls {
		if err := a.analyzeReference(name, result); err != nil {
			return err
		}
	}
	return nil
}

// isParameterPath reports whether path is rooted at one of t's parameters.
func isParameterPath(t *Template, path string) bool {
	root := path
	if i := strings.IndexAny(root, ".["); i >= 0 {
		root = root[:i]
	}
	for _, p := range t.Parameters {
		if p == root {
			return true
		}
	}
	return false
}
