package lg

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/benjaminschreck/go-lg/pkg/expression"
)

var errNullValue = errors.New("evaluated to null")

// chooser picks among a template's variations and serves rand(). A seeded
// chooser makes evaluation repeatable.
type chooser struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newChooser(seed int64) *chooser {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &chooser{rnd: rand.New(rand.NewSource(seed))}
}

func (c *chooser) pick(n int) int {
	if n <= 1 {
		return 0
	}
	return c.intn(n)
}

// intn also backs the rand() function, so one seed fixes both.
func (c *chooser) intn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rnd.Intn(n)
}

// evaluator expands templates for one call. It keeps the stack of templates
// being expanded and the expressions parsed so far, so it must not be shared.
type evaluator struct {
	templates map[string]*Template
	lookup    expression.EvaluatorLookup
	chooser   *chooser
	logger    *Logger
	maxDepth  int

	stack  []string
	parsed map[string]*expression.Expression
}

func newEvaluator(templates map[string]*Template, registry *expression.Registry, overrides expression.EvaluatorLookup, ch *chooser, logger *Logger, maxDepth int) *evaluator {
	e := &evaluator{
		templates: templates,
		chooser:   ch,
		logger:    logger,
		maxDepth:  maxDepth,
		parsed:    make(map[string]*expression.Expression),
	}
	e.lookup = expression.ChainLookup(overrides, templateLookup(templates, e.templateFunction), registry.LookupFunc())
	return e
}

// templateFunction makes a template callable as name(args...) inside
// expressions. Without arguments the template sees the caller scope.
func (e *evaluator) templateFunction(t *Template) *expression.ExpressionEvaluator {
	return expression.NewExpressionEvaluator(t.Name,
		func(expr *expression.Expression, state interface{}) (interface{}, error) {
			args, err := expression.EvaluateChildren(expr, state, nil)
			if err != nil {
				return nil, err
			}
			scope := state
			if len(args) > 0 {
				bound, err := bindArguments(t, args)
				if err != nil {
					return nil, err
				}
				scope = bound
			}
			return e.evaluateTemplate(t.Name, scope)
		},
		expression.ReturnObject,
		templateFunctionValidator(t),
	)
}

func (e *evaluator) evaluateTemplate(name string, scope interface{}) (string, error) {
	t, ok := e.templates[name]
	if !ok {
		return "", &TemplateNotFoundError{Name: name}
	}
	for _, active := range e.stack {
		if active == name {
			path := append(append([]string(nil), e.stack...), name)
			return "", &CycleError{Path: path}
		}
	}
	if len(e.stack) >= e.maxDepth {
		return "", &EvaluationError{Template: name, Cause: fmt.Errorf("maximum render depth %d exceeded", e.maxDepth)}
	}

	e.stack = append(e.stack, name)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()
	e.logger.DebugTemplate(name, scope)

	switch t.body.kind {
	case normalBody:
		return e.evaluateVariations(t, t.body.variations, scope)
	case ifElseBody:
		return e.evaluateIfElse(t, scope)
	case switchBody:
		return e.evaluateSwitch(t, scope)
	}
	return "", nil
}

func (e *evaluator) evaluateIfElse(t *Template, scope interface{}) (string, error) {
	for _, rule := range t.body.rules {
		if rule.keyword != "else" {
			cond, err := e.evaluateExpression(t, rule.expressions[0], scope)
			if err != nil {
				return "", err
			}
			if !expression.IsLogicTrue(cond) {
				continue
			}
		}
		return e.evaluateVariations(t, rule.body, scope)
	}
	return "", nil
}

func (e *evaluator) evaluateSwitch(t *Template, scope interface{}) (string, error) {
	rules := t.body.rules
	value, err := e.evaluateExpression(t, rules[0].expressions[0], scope)
	if err != nil {
		return "", err
	}
	for _, rule := range rules[1:] {
		if rule.keyword == "case" {
			candidate, err := e.evaluateExpression(t, rule.expressions[0], scope)
			if err != nil {
				return "", err
			}
			if !expression.ValuesEqual(value, candidate) {
				continue
			}
		}
		return e.evaluateVariations(t, rule.body, scope)
	}
	return "", nil
}

func (e *evaluator) evaluateVariations(t *Template, variations []*variation, scope interface{}) (string, error) {
	if len(variations) == 0 {
		return "", nil
	}
	return e.evaluateVariation(t, variations[e.chooser.pick(len(variations))], scope)
}

func (e *evaluator) evaluateVariation(t *Template, v *variation, scope interface{}) (string, error) {
	var out strings.Builder
	for _, seg := range v.segments {
		switch seg.kind {
		case escapeSegment:
			out.WriteString(seg.value)
		case expressionSegment:
			s, err := e.evaluateToString(t, seg.value, scope)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
		case templateRefSegment:
			s, err := e.evaluateReference(t, seg.value, scope)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
		case multilineSegment:
			s, err := e.evaluateMultiline(t, seg.value, scope)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
		default:
			out.WriteString(seg.raw)
		}
	}
	return out.String(), nil
}

func (e *evaluator) evaluateMultiline(t *Template, body string, scope interface{}) (string, error) {
	var firstErr error
	out := multilineExpressionRegex.ReplaceAllStringFunc(body, func(m string) string {
		if firstErr != nil {
			return ""
		}
		s, err := e.evaluateToString(t, m[2:len(m)-1], scope)
		if err != nil {
			firstErr = err
		}
		return s
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func (e *evaluator) evaluateReference(t *Template, ref string, scope interface{}) (string, error) {
	name, args, _, ok := parseReference(ref)
	if !ok {
		return "", &EvaluationError{Template: t.Name, Cause: fmt.Errorf("not a valid template ref: %s", ref)}
	}
	if len(args) == 0 {
		return e.evaluateTemplate(name, scope)
	}

	target, ok := e.templates[name]
	if !ok {
		return "", &TemplateNotFoundError{Name: name}
	}
	values := make([]interface{}, len(args))
	for i, arg := range args {
		value, err := e.evaluateExpression(t, arg, scope)
		if err != nil {
			return "", err
		}
		values[i] = value
	}
	bound, err := bindArguments(target, values)
	if err != nil {
		return "", &EvaluationError{Template: t.Name, Cause: err}
	}
	return e.evaluateTemplate(name, bound)
}

func (e *evaluator) evaluateToString(t *Template, text string, scope interface{}) (string, error) {
	value, err := e.evaluateExpression(t, text, scope)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", &EvaluationError{Template: t.Name, Expression: text, Cause: errNullValue}
	}
	return expression.FormatValue(value), nil
}

func (e *evaluator) evaluateExpression(t *Template, text string, scope interface{}) (interface{}, error) {
	expr, ok := e.parsed[text]
	if !ok {
		var err error
		expr, err = expression.Parse(text, e.lookup)
		if err != nil {
			return nil, &EvaluationError{Template: t.Name, Expression: text, Cause: err}
		}
		e.parsed[text] = expr
	}

	value, err := expr.TryEvaluate(scope)
	if err != nil {
		var ee *EvaluationError
		var ce *CycleError
		var ne *TemplateNotFoundError
		if errors.As(err, &ee) || errors.As(err, &ce) || errors.As(err, &ne) {
			return nil, err
		}
		return nil, &EvaluationError{Template: t.Name, Expression: text, Cause: err}
	}
	e.logger.DebugExpression(text, value)
	return value, nil
}
