package lg

import (
	"reflect"
	"testing"
)

func TestScanSegments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []segment
	}{
		{
			name:  "text only",
			input: "hello there",
			want:  []segment{{kind: textSegment, raw: "hello there", value: "hello there"}},
		},
		{
			name:  "expression and reference",
			input: "Hi @{name}, [footer(1, 'a')]!",
			want: []segment{
				{kind: textSegment, raw: "Hi ", value: "Hi "},
				{kind: expressionSegment, raw: "@{name}", value: "name"},
				{kind: textSegment, raw: ", ", value: ", "},
				{kind: templateRefSegment, raw: "[footer(1, 'a')]", value: "footer(1, 'a')"},
				{kind: textSegment, raw: "!", value: "!"},
			},
		},
		{
			name:  "nested braces and quotes",
			input: "@{json('{\"a\": 1}').a}",
			want: []segment{
				{kind: expressionSegment, raw: "@{json('{\"a\": 1}').a}", value: "json('{\"a\": 1}').a"},
			},
		},
		{
			name:  "escapes",
			input: `a\nb\@\q`,
			want: []segment{
				{kind: textSegment, raw: "a", value: "a"},
				{kind: escapeSegment, raw: `\n`, value: "\n"},
				{kind: textSegment, raw: "b", value: "b"},
				{kind: escapeSegment, raw: `\@`, value: "@"},
				{kind: invalidEscapeSegment, raw: `\q`, value: `\q`},
			},
		},
		{
			name:  "unclosed expression",
			input: "x @{a + ",
			want: []segment{
				{kind: textSegment, raw: "x ", value: "x "},
				{kind: unclosedExpressionSegment, raw: "@{a + ", value: "a + "},
			},
		},
		{
			name:  "unmatched bracket is text",
			input: "a [b",
			want:  []segment{{kind: textSegment, raw: "a [b", value: "a [b"}},
		},
		{
			name:  "multi-line block",
			input: "```one\n@{two}```",
			want:  []segment{{kind: multilineSegment, raw: "```one\n@{two}```", value: "one\n@{two}"}},
		},
		{
			name:  "unclosed multi-line block",
			input: "```one",
			want:  []segment{{kind: textSegment, raw: "```one", value: "```one"}},
		},
		{
			name:  "trailing backslash",
			input: `end\`,
			want:  []segment{{kind: textSegment, raw: `end\`, value: `end\`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanSegments(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("scanSegments(%q) =\n%+v\nwant\n%+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		ref         string
		wantName    string
		wantArgs    []string
		wantHasArgs bool
		wantOK      bool
	}{
		{ref: "greet", wantName: "greet", wantOK: true},
		{ref: "greet()", wantName: "greet", wantHasArgs: true, wantOK: true},
		{ref: "greet(user.name, 'a, b', add(1, 2))", wantName: "greet", wantArgs: []string{"user.name", "'a, b'", "add(1, 2)"}, wantHasArgs: true, wantOK: true},
		{ref: "greet(", wantHasArgs: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			name, args, hasArgs, ok := parseReference(tt.ref)
			if name != tt.wantName || !reflect.DeepEqual(args, tt.wantArgs) || hasArgs != tt.wantHasArgs || ok != tt.wantOK {
				t.Errorf("parseReference(%q) = %q, %v, %v, %v", tt.ref, name, args, hasArgs, ok)
			}
		})
	}
}
