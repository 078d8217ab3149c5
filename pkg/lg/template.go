package lg

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Template is a named, parameterized text unit parsed from an .lg source.
// Templates are immutable once loaded.
type Template struct {
	Name       string
	Parameters []string
	// Body is the raw text of the template's entries.
	Body   string
	Source string
	Range  Range

	body   templateBody
	issues []Diagnostic
}

type bodyKind int

const (
	emptyBody bodyKind = iota
	normalBody
	ifElseBody
	switchBody
)

type templateBody struct {
	kind       bodyKind
	variations []*variation
	rules      []*conditionRule
}

// variation is one "- ..." entry of a body.
type variation struct {
	text     string
	segments []segment
	rng      Range
}

// conditionRule is an IF/ELSEIF/ELSE or SWITCH/CASE/DEFAULT line together with
// the variations nested under it.
type conditionRule struct {
	keyword     string
	spacing     string
	line        string
	expressions []string
	text        string
	body        []*variation
	rng         Range
}

func (r *conditionRule) label() string {
	return strings.ToUpper(r.keyword)
}

var (
	conditionRegex    = regexp.MustCompile(`(?i)^(elseif|else|if|switch|case|default)([ \t]*):(.*)$`)
	templateNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	parameterRegex    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func keywordFamily(keyword string) bodyKind {
	switch keyword {
	case "switch", "case", "default":
		return switchBody
	}
	return ifElseBody
}

// parsedSource is the result of parsing one .lg text.
type parsedSource struct {
	source      string
	templates   []*Template
	diagnostics []Diagnostic
}

type entry struct {
	text string
	rng  Range
}

type fileParser struct {
	source  string
	lines   []string
	pos     int
	current *Template
	entries []entry
	out     *parsedSource
}

// parseSource splits .lg text into templates. Problems that prevent reading
// the structure are reported as diagnostics on the result; the static
// checker reports everything else.
func parseSource(text, source string) *parsedSource {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	p := &fileParser{
		source: source,
		lines:  strings.Split(text, "\n"),
		out:    &parsedSource{source: source},
	}
	p.run()
	return p.out
}

func (p *fileParser) errorf(line int, format string, args ...interface{}) {
	p.out.diagnostics = append(p.out.diagnostics, Diagnostic{
		Source:   p.source,
		Range:    lineRange(line, p.lines[line]),
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	})
}

func (p *fileParser) run() {
	for p.pos < len(p.lines) {
		line := strings.TrimSpace(p.lines[p.pos])
		switch {
		case line == "" || strings.HasPrefix(line, ">"):
			p.pos++
		case strings.HasPrefix(line, "#"):
			p.finishTemplate()
			p.startTemplate(line)
			p.pos++
		case strings.HasPrefix(line, "-"):
			if p.current == nil {
				p.errorf(p.pos, "entry is not inside a template definition: '%s'", line)
				p.pos++
				continue
			}
			p.readEntry(line)
		default:
			if p.current == nil {
				p.errorf(p.pos, "content is not inside a template definition: '%s'", line)
			} else {
				p.errorf(p.pos, "template body line must start with '-': '%s'", line)
			}
			p.pos++
		}
	}
	p.finishTemplate()
}

func (p *fileParser) startTemplate(line string) {
	t := &Template{Source: p.source, Range: lineRange(p.pos, p.lines[p.pos])}
	header := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	issue := func(format string, args ...interface{}) {
		t.issues = append(t.issues, Diagnostic{
			Source:   p.source,
			Range:    t.Range,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	name, params := header, ""
	if i := strings.IndexByte(header, '('); i >= 0 {
		name, params = strings.TrimSpace(header[:i]), strings.TrimSpace(header[i:])
	} else if i := strings.IndexAny(header, " \t"); i >= 0 {
		name, params = header[:i], strings.TrimSpace(header[i:])
	}
	t.Name = name

	switch {
	case name == "":
		issue("template name is missing in '%s'", line)
	case !templateNameRegex.MatchString(name):
		issue("invalid template name: '%s'", name)
	}

	if params != "" {
		if !strings.HasPrefix(params, "(") || !strings.HasSuffix(params, ")") {
			issue("parameters: %s format error", params)
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(params, "("), ")")
		if strings.TrimSpace(inner) != "" {
			separated := true
			for _, part := range strings.Split(inner, ",") {
				fields := strings.Fields(part)
				if len(fields) > 1 {
					separated = false
				}
				for _, f := range fields {
					if !parameterRegex.MatchString(f) {
						issue("parameters: %s format error", params)
						continue
					}
					t.Parameters = append(t.Parameters, f)
				}
				if len(fields) == 0 {
					issue("parameters: %s format error", params)
				}
			}
			if !separated {
				issue("Parameters for templates must be separated by comma.")
			}
		}
	}
	p.current = t
}

// readEntry consumes one "- ..." entry, including the continuation lines of
// a ``` block.
func (p *fileParser) readEntry(line string) {
	start := p.pos
	text := strings.TrimSpace(strings.TrimPrefix(line, "-"))
	p.pos++

	if strings.HasPrefix(text, fence) && !strings.Contains(text[len(fence):], fence) {
		var b strings.Builder
		b.WriteString(text)
		for p.pos < len(p.lines) {
			next := p.lines[p.pos]
			b.WriteString("\n")
			b.WriteString(next)
			p.pos++
			if strings.Contains(next, fence) {
				break
			}
		}
		text = strings.TrimRightFunc(b.String(), unicode.IsSpace)
	}

	end := p.pos - 1
	p.entries = append(p.entries, entry{
		text: text,
		rng: Range{
			Start: Position{Line: start},
			End:   Position{Line: end, Character: len(p.lines[end])},
		},
	})
}

func (p *fileParser) finishTemplate() {
	t := p.current
	if t == nil {
		return
	}
	entries := p.entries
	p.current, p.entries = nil, nil

	if len(entries) > 0 {
		first, last := entries[0].rng.Start.Line, entries[len(entries)-1].rng.End.Line
		t.Body = strings.Join(p.lines[first:last+1], "\n")
		t.Range.End = entries[len(entries)-1].rng.End
	}
	t.body = p.buildBody(t, entries)
	p.out.templates = append(p.out.templates, t)
}

func (p *fileParser) buildBody(t *Template, entries []entry) templateBody {
	if len(entries) == 0 {
		return templateBody{kind: emptyBody}
	}

	first := parseConditionRule(entries[0])
	if first == nil {
		body := templateBody{kind: normalBody}
		for _, e := range entries {
			if parseConditionRule(e) != nil {
				p.errorf(e.rng.Start.Line, "condition blocks cannot be mixed with plain variations in template %s", t.Name)
				continue
			}
			body.variations = append(body.variations, newVariation(e))
		}
		return body
	}

	body := templateBody{kind: keywordFamily(first.keyword)}
	for _, e := range entries {
		if rule := parseConditionRule(e); rule != nil {
			if keywordFamily(rule.keyword) != body.kind {
				p.errorf(e.rng.Start.Line, "%s cannot be mixed with %s in template %s", rule.label(), body.familyName(), t.Name)
				continue
			}
			body.rules = append(body.rules, rule)
			continue
		}
		last := body.rules[len(body.rules)-1]
		last.body = append(last.body, newVariation(e))
	}
	return body
}

func (b templateBody) familyName() string {
	if b.kind == switchBody {
		return "SWITCH/CASE/DEFAULT"
	}
	return "IF/ELSEIF/ELSE"
}

func newVariation(e entry) *variation {
	return &variation{text: e.text, segments: scanSegments(e.text), rng: e.rng}
}

// parseConditionRule recognises "IF: @{expr}" style entries; it returns nil
// for plain variations.
func parseConditionRule(e entry) *conditionRule {
	m := conditionRegex.FindStringSubmatch(e.text)
	if m == nil {
		return nil
	}
	rule := &conditionRule{
		keyword: strings.ToLower(m[1]),
		spacing: m[2],
		line:    e.text,
		rng:     e.rng,
	}
	var text strings.Builder
	for _, seg := range scanSegments(strings.TrimSpace(m[3])) {
		if seg.kind == expressionSegment {
			rule.expressions = append(rule.expressions, seg.value)
			continue
		}
		text.WriteString(seg.raw)
	}
	rule.text = strings.TrimSpace(text.String())
	return rule
}
