package expression

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps function names to evaluators. It is read-only once built and
// safe for concurrent use.
type Registry struct {
	functions map[string]*ExpressionEvaluator
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the registry of built-in functions.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		functions, err := buildFunctions()
		if err != nil {
			panic(err)
		}
		defaultRegistry = &Registry{functions: functions}
	})
	return defaultRegistry
}

// NewRegistry returns a registry holding the built-ins plus extra evaluators.
// Extras replace built-ins of the same name.
func NewRegistry(extra ...*ExpressionEvaluator) *Registry {
	base := Default()
	functions := make(map[string]*ExpressionEvaluator, len(base.functions)+len(extra))
	for name, ev := range base.functions {
		functions[name] = ev
	}
	for _, ev := range extra {
		if ev != nil && ev.Type != "" {
			functions[ev.Type] = ev
		}
	}
	return &Registry{functions: functions}
}

// Lookup resolves a function name.
func (r *Registry) Lookup(name string) (*ExpressionEvaluator, error) {
	if ev, ok := r.functions[name]; ok {
		return ev, nil
	}
	return nil, &UnknownFunctionError{Name: name}
}

// LookupFunc adapts the registry to an EvaluatorLookup.
func (r *Registry) LookupFunc() EvaluatorLookup {
	return func(name string) *ExpressionEvaluator {
		return r.functions[name]
	}
}

// Names returns every registered name, aliases included, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// aliases maps friendly names onto canonical evaluators.
var aliases = map[string]string{
	"add":             Add,
	"div":             Divide,
	"divide":          Divide,
	"mul":             Multiply,
	"sub":             Subtract,
	"exp":             Power,
	"mod":             Mod,
	"and":             And,
	"equals":          Equal,
	"greater":         GreaterThan,
	"greaterOrEquals": GreaterThanOrEqual,
	"less":            LessThan,
	"lessOrEquals":    LessThanOrEqual,
	"not":             Not,
	"or":              Or,
	"concat":          Concat,
}

// negations pairs each comparison with its logical complement.
var negations = [][2]string{
	{LessThan, GreaterThanOrEqual},
	{LessThanOrEqual, GreaterThan},
	{Equal, NotEqual},
}

// buildFunctions registers every canonical evaluator, then wires aliases and
// negation links once all entries exist.
func buildFunctions() (map[string]*ExpressionEvaluator, error) {
	functions := make(map[string]*ExpressionEvaluator)
	register := func(evs []*ExpressionEvaluator) error {
		for _, ev := range evs {
			if _, exists := functions[ev.Type]; exists {
				return fmt.Errorf("duplicate built-in function %s", ev.Type)
			}
			functions[ev.Type] = ev
		}
		return nil
	}

	groups := [][]*ExpressionEvaluator{
		mathFunctions(),
		comparisonFunctions(),
		logicFunctions(),
		stringFunctions(),
		dateTimeFunctions(),
		conversionFunctions(),
		objectFunctions(),
	}
	for _, group := range groups {
		if err := register(group); err != nil {
			return nil, err
		}
	}

	for alias, canonical := range aliases {
		ev, ok := functions[canonical]
		if !ok {
			return nil, fmt.Errorf("alias %s refers to unknown function %s", alias, canonical)
		}
		functions[alias] = ev
	}

	for _, pair := range negations {
		a, okA := functions[pair[0]]
		b, okB := functions[pair[1]]
		if !okA || !okB {
			return nil, fmt.Errorf("negation %s/%s refers to an unknown function", pair[0], pair[1])
		}
		a.Negation = b
		b.Negation = a
	}
	return functions, nil
}
