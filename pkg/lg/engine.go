package lg

import (
	"fmt"
	"strings"
	"sync"

	"github.com/benjaminschreck/go-lg/pkg/expression"
)

const (
	inlineTemplateName = "__temp__"
	inlineSource       = "inline text"
	textSource         = "text"
)

// Engine holds a checked set of templates. Loading is all-or-nothing: a load
// that produces Error diagnostics leaves the engine unchanged. Evaluation is
// safe for concurrent use; each call gets its own evaluator.
type Engine struct {
	mu          sync.RWMutex
	config      *Config
	cache       *SourceCache
	logger      *Logger
	functions   []*expression.ExpressionEvaluator
	registry    *expression.Registry
	chooser     *chooser
	templates   []*Template
	byName      map[string]*Template
	diagnostics []Diagnostic

	customConfig bool
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = NewConfigWithDefaults(config)
		e.customConfig = true
	}
}

// WithCache returns an option that gives the engine its own source cache
// holding up to maxSize files (0 disables caching).
func WithCache(maxSize int) Option {
	return func(e *Engine) {
		e.cache = NewSourceCacheWithConfig(CacheConfig{MaxSize: maxSize, TTL: e.config.CacheTTL})
	}
}

// WithLogger returns an option that sets the engine's logger.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithFunction returns an option that registers a custom expression function.
// It replaces a built-in function of the same name.
func WithFunction(ev *expression.ExpressionEvaluator) Option {
	return func(e *Engine) {
		e.functions = append(e.functions, ev)
	}
}

// New creates an engine without templates.
func New(opts ...Option) *Engine {
	e := &Engine{
		config: GetGlobalConfig(),
		byName: make(map[string]*Template),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = GetLogger()
	}
	if e.cache == nil {
		if e.customConfig {
			e.cache = NewSourceCacheWithConfig(CacheConfig{MaxSize: e.config.CacheMaxSize, TTL: e.config.CacheTTL})
		} else {
			e.cache = defaultCache
		}
	}
	e.chooser = newChooser(e.config.RandomSeed)
	functions := append([]*expression.ExpressionEvaluator{expression.NewRand(e.chooser.intn)}, e.functions...)
	e.registry = expression.NewRegistry(functions...)
	return e
}

// FromFiles creates an engine from .lg files.
func FromFiles(paths ...string) (*Engine, error) {
	e := New()
	if err := e.AddFiles(paths...); err != nil {
		return nil, err
	}
	return e, nil
}

// FromText creates an engine from .lg text.
func FromText(text string) (*Engine, error) {
	e := New()
	if err := e.AddText(text); err != nil {
		return nil, err
	}
	return e, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// AddFiles loads .lg files. Files that cannot be read are reported together
// and nothing is loaded.
func (e *Engine) AddFiles(paths ...string) error {
	errs := NewMultiError()
	sources := make([]*parsedSource, 0, len(paths))
	for _, path := range paths {
		src, err := e.cache.load(path)
		if err != nil {
			errs.Add(err)
			continue
		}
		sources = append(sources, src)
	}
	if err := errs.Err(); err != nil {
		return err
	}
	return e.add(sources)
}

// AddText loads .lg text labelled "text" in diagnostics.
func (e *Engine) AddText(text string) error {
	return e.AddSource(text, textSource)
}

// AddSource loads .lg text with a source label used in diagnostics.
func (e *Engine) AddSource(text, source string) error {
	return e.add([]*parsedSource{parseSource(text, source)})
}

func (e *Engine) add(sources []*parsedSource) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := append([]*Template(nil), e.templates...)
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		all = append(all, src.templates...)
		names = append(names, src.source)
	}

	diagnostics, err := e.check(all, sources)
	if err != nil {
		e.logger.WithField("sources", strings.Join(names, ",")).Error("template check failed with %d diagnostics", len(err.Diagnostics))
		return err
	}

	for _, d := range diagnostics {
		e.logger.Warn("%s", d)
	}

	byName := make(map[string]*Template, len(all))
	for _, t := range all {
		byName[t.Name] = t
	}
	e.templates = all
	e.byName = byName
	e.diagnostics = append(e.diagnostics, diagnostics...)
	e.logger.WithField("sources", strings.Join(names, ",")).Debug("loaded %d templates", len(all))
	return nil
}

// check runs the static checker over sources in the context of all. Errors
// fail the check, and so do warnings in strict mode.
func (e *Engine) check(all []*Template, sources []*parsedSource) ([]Diagnostic, *DiagnosticError) {
	diagnostics := checkSources(all, sources, e.registry)
	if failing := errorsOf(diagnostics, e.config.StrictMode); len(failing) > 0 {
		return diagnostics, &DiagnosticError{Diagnostics: failing}
	}
	return diagnostics, nil
}

// Templates returns every loaded template in load order.
func (e *Engine) Templates() []*Template {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Template(nil), e.templates...)
}

// Template returns the template with the given name.
func (e *Engine) Template(name string) (*Template, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.byName[name]
	return t, ok
}

// Diagnostics returns the warnings collected by successful loads.
func (e *Engine) Diagnostics() []Diagnostic {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Diagnostic(nil), e.diagnostics...)
}

func (e *Engine) snapshot() map[string]*Template {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.byName
}

// EvaluateTemplate expands the named template against scope. overrides, when
// not nil, takes precedence over templates and registered functions for
// expression function calls.
func (e *Engine) EvaluateTemplate(name string, scope interface{}, overrides expression.EvaluatorLookup) (string, error) {
	return e.evaluate(e.snapshot(), name, scope, overrides)
}

func (e *Engine) evaluate(templates map[string]*Template, name string, scope interface{}, overrides expression.EvaluatorLookup) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = "", RecoverError(r)
		}
	}()

	ev := newEvaluator(templates, e.registry, overrides, e.chooser, e.logger, e.config.MaxRenderDepth)
	result, err = ev.evaluateTemplate(name, scope)
	if err != nil {
		e.logger.WithField("template", name).Debug("evaluation failed: %v", err)
		return "", err
	}
	return result, nil
}

// AnalyzeTemplate reports the variables and templates the named template
// depends on. It fails with a *CycleError when templates reference each other
// in a loop.
func (e *Engine) AnalyzeTemplate(name string) (*AnalyzerResult, error) {
	return newAnalyzer(e.snapshot(), e.registry).analyzeTemplate(name)
}

// Evaluate expands inline template text, such as "Hi @{name}, [greeting]",
// against scope. The text may reference loaded templates. Text spanning
// several lines is treated as a multi-line block. The text is checked like a
// loaded source, so strict mode applies to it as well.
func (e *Engine) Evaluate(inline string, scope interface{}, overrides expression.EvaluatorLookup) (string, error) {
	if strings.Contains(inline, "\n") && !strings.HasPrefix(inline, fence) {
		inline = fence + inline + fence
	}
	src := parseSource(fmt.Sprintf("# %s\n- %s", inlineTemplateName, inline), inlineSource)

	e.mu.RLock()
	all := append(append([]*Template(nil), e.templates...), src.templates...)
	e.mu.RUnlock()

	if _, err := e.check(all, []*parsedSource{src}); err != nil {
		return "", err
	}

	templates := make(map[string]*Template, len(all))
	for _, t := range all {
		templates[t.Name] = t
	}
	return e.evaluate(templates, inlineTemplateName, scope, overrides)
}

// ClearCache removes all files from the engine's source cache.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}
