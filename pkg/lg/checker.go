package lg

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/benjaminschreck/go-lg/pkg/expression"
)

var multilineExpressionRegex = regexp.MustCompile(`@\{[^{}]+\}`)

// staticChecker validates templates before they become visible to callers.
// It sees every loaded template so references may cross sources, but only
// reports on the templates of the sources being added.
type staticChecker struct {
	templates   map[string]*Template
	lookup      expression.EvaluatorLookup
	diagnostics []Diagnostic
}

func newStaticChecker(all []*Template, registry *expression.Registry) *staticChecker {
	byName := make(map[string]*Template, len(all))
	for _, t := range all {
		if _, ok := byName[t.Name]; !ok {
			byName[t.Name] = t
		}
	}
	return &staticChecker{
		templates: byName,
		lookup:    expression.ChainLookup(templateLookup(byName, templateStub), registry.LookupFunc()),
	}
}

// checkSources returns the diagnostics for sources checked against all, the
// full template set they would join.
func checkSources(all []*Template, sources []*parsedSource, registry *expression.Registry) []Diagnostic {
	c := newStaticChecker(all, registry)

	if c.checkDuplicates(all) {
		return c.diagnostics
	}

	for _, src := range sources {
		c.diagnostics = append(c.diagnostics, src.diagnostics...)
		if len(src.templates) == 0 {
			c.add(src.source, Range{}, SeverityWarning, "File must have at least one template definition ")
		}
		for _, t := range src.templates {
			c.checkTemplate(t)
		}
	}
	return c.diagnostics
}

func (c *staticChecker) add(source string, rng Range, severity Severity, format string, args ...interface{}) {
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Source:   source,
		Range:    rng,
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
	})
}

// checkDuplicates reports every name defined more than once. It returns true
// when it found any, which stops further checking.
func (c *staticChecker) checkDuplicates(all []*Template) bool {
	groups := make(map[string][]*Template)
	var order []string
	for _, t := range all {
		if _, seen := groups[t.Name]; !seen {
			order = append(order, t.Name)
		}
		groups[t.Name] = append(groups[t.Name], t)
	}

	found := false
	for _, name := range order {
		group := groups[name]
		if len(group) < 2 {
			continue
		}
		found = true
		sources := make([]string, len(group))
		for i, t := range group {
			sources[i] = t.Source
		}
		c.add(group[0].Source, Range{}, SeverityError,
			"Duplicated definitions found for template: %s in %s", name, strings.Join(sources, ":"))
	}
	return found
}

func (c *staticChecker) checkTemplate(t *Template) {
	c.diagnostics = append(c.diagnostics, t.issues...)

	switch t.body.kind {
	case emptyBody:
		c.add(t.Source, t.Range, SeverityError, "There is no template body in template %s", t.Name)
	case normalBody:
		for _, v := range t.body.variations {
			c.checkVariation(t, v)
		}
	case ifElseBody:
		c.checkIfElse(t)
	case switchBody:
		c.checkSwitch(t)
	}
}

func (c *staticChecker) checkIfElse(t *Template) {
	rules := t.body.rules
	last := len(rules) - 1
	for idx, rule := range rules {
		report := func(severity Severity, format string) {
			c.add(t.Source, rule.rng, severity, format, rule.line)
		}

		if len(rule.spacing) > 1 {
			report(SeverityError, "At most 1 whitespace is allowed between IF/ELSEIF/ELSE and :. expression: '%s'")
		}

		switch {
		case idx == 0 && rule.keyword != "if":
			report(SeverityWarning, "condition is not start with if: '%s'")
		case idx > 0 && rule.keyword == "if":
			report(SeverityError, "condition can't have more than one if: '%s'")
		case idx == last && rule.keyword != "else":
			report(SeverityWarning, "condition is not end with else: '%s'")
		case idx > 0 && idx < last && rule.keyword != "elseif":
			report(SeverityError, "only elseif is allowed in middle of condition: '%s'")
		}

		if rule.keyword == "else" {
			if len(rule.expressions) > 0 {
				report(SeverityError, "else should not followed by any expression: '%s'")
			}
		} else if len(rule.expressions) != 1 {
			report(SeverityError, "if and elseif should followed by one valid expression: '%s'")
		} else {
			c.checkExpression(t, rule.rng, rule.expressions[0])
		}

		if len(rule.body) == 0 {
			report(SeverityError, "no normal template body in condition block: '%s'")
			continue
		}
		for _, v := range rule.body {
			c.checkVariation(t, v)
		}
	}
}

func (c *staticChecker) checkSwitch(t *Template) {
	rules := t.body.rules
	last := len(rules) - 1
	for idx, rule := range rules {
		report := func(severity Severity, format string) {
			c.add(t.Source, rule.rng, severity, format, rule.line)
		}

		if len(rule.spacing) > 1 {
			report(SeverityError, "At most 1 whitespace is allowed between SWITCH/CASE/DEFAULT and :. expression: '%s'")
		}

		if idx == 0 && rule.keyword != "switch" {
			report(SeverityError, "control flow is not start with switch: '%s'")
		}
		if idx > 0 && rule.keyword == "switch" {
			report(SeverityError, "control flow can not have more than one switch statement: '%s'")
		}
		if idx > 0 && idx < last && rule.keyword != "case" {
			report(SeverityError, "only case statement is allowed in the middle of control flow: '%s'")
		}
		if idx == last {
			switch {
			case rule.keyword == "case":
				report(SeverityWarning, "control flow is not ending with default statement: '%s'")
			case rule.keyword == "default" && len(rules) == 2:
				report(SeverityWarning, "control flow should have at least one case statement: '%s'")
			}
		}

		switch rule.keyword {
		case "switch", "case":
			if len(rule.expressions) != 1 {
				report(SeverityError, "switch and case should followed by one valid expression: '%s'")
			} else {
				c.checkExpression(t, rule.rng, rule.expressions[0])
			}
		default:
			if len(rule.expressions) > 0 || rule.text != "" {
				report(SeverityError, "default should not followed by any expression or any text: '%s'")
			}
		}

		if rule.keyword == "switch" {
			continue
		}
		if len(rule.body) == 0 {
			report(SeverityError, "no normal template body in case or default block: '%s'")
			continue
		}
		for _, v := range rule.body {
			c.checkVariation(t, v)
		}
	}
}

func (c *staticChecker) checkVariation(t *Template, v *variation) {
	for _, seg := range v.segments {
		switch seg.kind {
		case invalidEscapeSegment:
			c.add(t.Source, v.rng, SeverityError, "escape character %s is invalid", seg.raw)
		case unclosedExpressionSegment:
			c.add(t.Source, v.rng, SeverityError, "Close } is missing in Expression: %s", seg.raw)
		case expressionSegment:
			c.checkExpression(t, v.rng, seg.value)
		case templateRefSegment:
			c.checkReference(t, v.rng, seg.value)
		case multilineSegment:
			for _, m := range multilineExpressionRegex.FindAllString(seg.value, -1) {
				c.checkExpression(t, v.rng, m[2:len(m)-1])
			}
		case textSegment:
			if strings.HasPrefix(seg.raw, fence) {
				c.add(t.Source, v.rng, SeverityError, "Multi line variation must be enclosed in ```")
			}
		}
	}
}

func (c *staticChecker) checkReference(t *Template, rng Range, ref string) {
	name, args, hasArgs, ok := parseReference(ref)
	if !ok || !templateNameRegex.MatchString(name) {
		c.add(t.Source, rng, SeverityError, "Not a valid template ref: %s", ref)
		return
	}

	target, ok := c.templates[name]
	if !ok {
		c.add(t.Source, rng, SeverityError, "[%s] template not found", name)
		return
	}
	if !hasArgs {
		return
	}
	if len(args) != len(target.Parameters) {
		c.add(t.Source, rng, SeverityError, "Arguments count mismatch for template ref %s, expected %d, actual %d",
			name, len(target.Parameters), len(args))
		return
	}
	for _, arg := range args {
		c.checkExpression(t, rng, arg)
	}
}

func (c *staticChecker) checkExpression(t *Template, rng Range, text string) {
	if _, err := expression.Parse(text, c.lookup); err != nil {
		c.add(t.Source, rng, SeverityError, "%s in expression `%s`", err.Error(), text)
	}
}
