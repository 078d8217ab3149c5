package lg

import (
	"strings"
	"testing"

	"github.com/benjaminschreck/go-lg/pkg/expression"
)

func checkText(text string) []Diagnostic {
	src := parseSource(text, "test.lg")
	return checkSources(src.templates, []*parsedSource{src}, expression.Default())
}

func TestStaticChecker(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		message  string
		severity Severity
	}{
		{
			name:     "no templates",
			text:     "> just a comment",
			message:  "File must have at least one template definition ",
			severity: SeverityWarning,
		},
		{
			name:     "empty body",
			text:     "# A\n",
			message:  "There is no template body in template A",
			severity: SeverityError,
		},
		{
			name:     "unknown reference",
			text:     "# A\n- [B]",
			message:  "[B] template not found",
			severity: SeverityError,
		},
		{
			name:     "argument count mismatch",
			text:     "# A\n- [B(1)]\n# B(x, y)\n- b",
			message:  "Arguments count mismatch for template ref B, expected 2, actual 1",
			severity: SeverityError,
		},
		{
			name:     "invalid reference",
			text:     "# A\n- [B(]",
			message:  "Not a valid template ref: B(",
			severity: SeverityError,
		},
		{
			name:     "invalid escape",
			text:     "# A\n- bad \\q escape",
			message:  "escape character \\q is invalid",
			severity: SeverityError,
		},
		{
			name:     "unclosed expression",
			text:     "# A\n- @{name",
			message:  "Close } is missing in Expression: @{name",
			severity: SeverityError,
		},
		{
			name:     "unclosed multi-line block",
			text:     "# A\n- ```never\nclosed",
			message:  "Multi line variation must be enclosed in ```",
			severity: SeverityError,
		},
		{
			name:     "invalid expression",
			text:     "# A\n- @{nosuch(1)}",
			message:  "in expression `nosuch(1)`",
			severity: SeverityError,
		},
		{
			name:     "invalid expression in multi-line block",
			text:     "# A\n- ```x @{nosuch(1)} y```",
			message:  "in expression `nosuch(1)`",
			severity: SeverityError,
		},
		{
			name:     "parameters not separated by comma",
			text:     "# A(a b)\n- x",
			message:  "Parameters for templates must be separated by comma.",
			severity: SeverityError,
		},
		{
			name:     "parameter format",
			text:     "# A(a, 1b)\n- x",
			message:  "parameters: (a, 1b) format error",
			severity: SeverityError,
		},
		{
			name:     "condition spacing",
			text:     "# A\n- IF  : @{true}\n    - x\n- ELSE:\n    - y",
			message:  "At most 1 whitespace is allowed between IF/ELSEIF/ELSE and :. expression: 'IF  : @{true}'",
			severity: SeverityError,
		},
		{
			name:     "condition not starting with if",
			text:     "# A\n- ELSEIF: @{true}\n    - x\n- ELSE:\n    - y",
			message:  "condition is not start with if: 'ELSEIF: @{true}'",
			severity: SeverityWarning,
		},
		{
			name:     "second if",
			text:     "# A\n- IF: @{true}\n    - x\n- IF: @{false}\n    - y\n- ELSE:\n    - z",
			message:  "condition can't have more than one if: 'IF: @{false}'",
			severity: SeverityError,
		},
		{
			name:     "condition not ending with else",
			text:     "# A\n- IF: @{true}\n    - x",
			message:  "condition is not end with else: 'IF: @{true}'",
			severity: SeverityWarning,
		},
		{
			name:     "else in the middle",
			text:     "# A\n- IF: @{true}\n    - x\n- ELSE:\n    - y\n- ELSE:\n    - z",
			message:  "only elseif is allowed in middle of condition: 'ELSE:'",
			severity: SeverityError,
		},
		{
			name:     "if without expression",
			text:     "# A\n- IF: true\n    - x\n- ELSE:\n    - y",
			message:  "if and elseif should followed by one valid expression: 'IF: true'",
			severity: SeverityError,
		},
		{
			name:     "else with expression",
			text:     "# A\n- IF: @{true}\n    - x\n- ELSE: @{false}\n    - y",
			message:  "else should not followed by any expression: 'ELSE: @{false}'",
			severity: SeverityError,
		},
		{
			name:     "condition without body",
			text:     "# A\n- IF: @{true}\n- ELSE:\n    - y",
			message:  "no normal template body in condition block: 'IF: @{true}'",
			severity: SeverityError,
		},
		{
			name:     "invalid condition expression",
			text:     "# A\n- IF: @{nosuch()}\n    - x\n- ELSE:\n    - y",
			message:  "in expression `nosuch()`",
			severity: SeverityError,
		},
		{
			name:     "switch spacing",
			text:     "# A\n- SWITCH  : @{x}\n- CASE: @{1}\n    - one\n- DEFAULT:\n    - other",
			message:  "At most 1 whitespace is allowed between SWITCH/CASE/DEFAULT and :. expression: 'SWITCH  : @{x}'",
			severity: SeverityError,
		},
		{
			name:     "case first",
			text:     "# A\n- CASE: @{1}\n    - one\n- DEFAULT:\n    - other",
			message:  "control flow is not start with switch: 'CASE: @{1}'",
			severity: SeverityError,
		},
		{
			name:     "second switch",
			text:     "# A\n- SWITCH: @{x}\n- SWITCH: @{y}\n- DEFAULT:\n    - other",
			message:  "control flow can not have more than one switch statement: 'SWITCH: @{y}'",
			severity: SeverityError,
		},
		{
			name:     "default in the middle",
			text:     "# A\n- SWITCH: @{x}\n- DEFAULT:\n    - d\n- CASE: @{1}\n    - one",
			message:  "only case statement is allowed in the middle of control flow: 'DEFAULT:'",
			severity: SeverityError,
		},
		{
			name:     "missing default",
			text:     "# A\n- SWITCH: @{x}\n- CASE: @{1}\n    - one",
			message:  "control flow is not ending with default statement: 'CASE: @{1}'",
			severity: SeverityWarning,
		},
		{
			name:     "default without case",
			text:     "# A\n- SWITCH: @{x}\n- DEFAULT:\n    - other",
			message:  "control flow should have at least one case statement: 'DEFAULT:'",
			severity: SeverityWarning,
		},
		{
			name:     "case without expression",
			text:     "# A\n- SWITCH: @{x}\n- CASE: one\n    - one\n- DEFAULT:\n    - other",
			message:  "switch and case should followed by one valid expression: 'CASE: one'",
			severity: SeverityError,
		},
		{
			name:     "default with text",
			text:     "# A\n- SWITCH: @{x}\n- CASE: @{1}\n    - one\n- DEFAULT: other\n    - other",
			message:  "default should not followed by any expression or any text: 'DEFAULT: other'",
			severity: SeverityError,
		},
		{
			name:     "case without body",
			text:     "# A\n- SWITCH: @{x}\n- CASE: @{1}\n- DEFAULT:\n    - other",
			message:  "no normal template body in case or default block: 'CASE: @{1}'",
			severity: SeverityError,
		},
		{
			name:     "template function arity",
			text:     "# A\n- @{B(1, 2)}\n# B(x)\n- b",
			message:  "arguments count mismatch for template function B, expected 1, actual 2",
			severity: SeverityError,
		},
		{
			name:     "mixed condition and variation",
			text:     "# A\n- plain\n- IF: @{true}\n    - x",
			message:  "condition blocks cannot be mixed with plain variations in template A",
			severity: SeverityError,
		},
		{
			name:     "mixed condition families",
			text:     "# A\n- IF: @{true}\n    - x\n- CASE: @{1}\n    - y\n- ELSE:\n    - z",
			message:  "CASE cannot be mixed with IF/ELSEIF/ELSE in template A",
			severity: SeverityError,
		},
		{
			name:     "line outside template",
			text:     "stray\n# A\n- x",
			message:  "content is not inside a template definition: 'stray'",
			severity: SeverityError,
		},
		{
			name:     "body line without dash",
			text:     "# A\n- x\nstray",
			message:  "template body line must start with '-': 'stray'",
			severity: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := checkText(tt.text)
			for _, d := range diags {
				if strings.Contains(d.Message, tt.message) {
					if d.Severity != tt.severity {
						t.Errorf("severity of %q = %v, want %v", d.Message, d.Severity, tt.severity)
					}
					if d.Source != "test.lg" {
						t.Errorf("source = %q, want test.lg", d.Source)
					}
					return
				}
			}
			t.Errorf("no diagnostic containing %q in %v", tt.message, diags)
		})
	}
}

func TestStaticCheckerAcceptsValidTemplates(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "plain", text: "# A\n- hello\n- hi"},
		{name: "parameters", text: "# A(x, y)\n- @{x} and @{y}"},
		{name: "full condition", text: "# A(n)\n- IF: @{n > 1}\n    - many\n- ELSEIF: @{n == 1}\n    - one\n- ELSE:\n    - none"},
		{name: "lowercase keywords", text: "# A(n)\n- if: @{n > 1}\n    - many\n- else:\n    - few"},
		{name: "full switch", text: "# A(c)\n- SWITCH: @{c}\n- CASE: @{1}\n    - one\n- CASE: @{2}\n    - two\n- DEFAULT:\n    - many"},
		{name: "references", text: "# A\n- [B] [C('x', 1)] [B()]\n# B\n- b\n# C(s, n)\n- @{s}@{n}"},
		{name: "escapes", text: "# A\n- \\[ \\] \\{ \\} \\@ \\\\ \\n \\t \\r \\\" \\' \\` \\# \\-"},
		{name: "multi-line", text: "# A(x)\n- ```first @{x}\nsecond```"},
		{name: "comments and blank lines", text: "> top\n\n# A\n> inside\n- x\n\n"},
		{name: "foreach", text: "# A(items)\n- @{join(foreach(items, i, i.name), ', ')}"},
		{name: "quoted braces", text: "# A\n- @{concat('}', '{')}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diags := checkText(tt.text); len(diags) != 0 {
				t.Errorf("unexpected diagnostics: %v", diags)
			}
		})
	}
}

func TestDuplicatesShortCircuit(t *testing.T) {
	diags := checkText("# A\n- [missing]\n# A\n- b")
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want only the duplicate: %v", len(diags), diags)
	}
	if diags[0].Message != "Duplicated definitions found for template: A in test.lg:test.lg" {
		t.Errorf("message = %q", diags[0].Message)
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{
		Source:   "a.lg",
		Range:    Range{Start: Position{Line: 2, Character: 0}, End: Position{Line: 2, Character: 5}},
		Message:  "[B] template not found",
		Severity: SeverityError,
	}
	want := "[Error] 3:1: source: a.lg, error message: [B] template not found"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	err := &DiagnosticError{Diagnostics: []Diagnostic{d, {Source: "b.lg", Message: "x", Severity: SeverityWarning}}}
	if lines := strings.Split(err.Error(), "\n"); len(lines) != 2 || lines[1] != "[Warning] 1:1: source: b.lg, error message: x" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestDiagnosticRanges(t *testing.T) {
	diags := checkText("# A\n- ok\n- [missing]")
	if len(diags) != 1 {
		t.Fatalf("got %v", diags)
	}
	if diags[0].Range.Start.Line != 2 {
		t.Errorf("start line = %d, want 2", diags[0].Range.Start.Line)
	}
}
