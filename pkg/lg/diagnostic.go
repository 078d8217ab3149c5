package lg

import "fmt"

// Severity of a diagnostic. Errors abort loading; warnings are collected.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "Warning"
	}
	return "Error"
}

// Position is a zero-based line and character offset.
type Position struct {
	Line      int
	Character int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

// Range spans from Start to End on the source text.
type Range struct {
	Start Position
	End   Position
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// lineRange covers one whole line.
func lineRange(line int, text string) Range {
	return Range{
		Start: Position{Line: line},
		End:   Position{Line: line, Character: len(text)},
	}
}

// Diagnostic is one finding of the static checker.
type Diagnostic struct {
	Source   string
	Range    Range
	Message  string
	Severity Severity
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: source: %s, error message: %s", d.Severity, d.Range.Start, d.Source, d.Message)
}

func errorsOf(diagnostics []Diagnostic, strict bool) []Diagnostic {
	var out []Diagnostic
	for _, d := range diagnostics {
		if d.Severity == SeverityError || strict {
			out = append(out, d)
		}
	}
	return out
}
