package expression

import (
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "call with string",
			input: "concat('a', name)",
			want: []Token{
				{Type: TokenIdentifier, Value: "concat", Pos: 0},
				{Type: TokenLeftParen, Value: "(", Pos: 6},
				{Type: TokenString, Value: "a", Pos: 7},
				{Type: TokenComma, Value: ",", Pos: 10},
				{Type: TokenIdentifier, Value: "name", Pos: 12},
				{Type: TokenRightParen, Value: ")", Pos: 16},
				{Type: TokenEOF, Pos: 17},
			},
		},
		{
			name:  "two character operators",
			input: "a>=1&&b",
			want: []Token{
				{Type: TokenIdentifier, Value: "a", Pos: 0},
				{Type: TokenOperator, Value: ">=", Pos: 1},
				{Type: TokenNumber, Value: "1", Pos: 3},
				{Type: TokenOperator, Value: "&&", Pos: 4},
				{Type: TokenIdentifier, Value: "b", Pos: 6},
				{Type: TokenEOF, Pos: 7},
			},
		},
		{
			name:  "escaped quote",
			input: `'it\'s'`,
			want: []Token{
				{Type: TokenString, Value: "it's", Pos: 0},
				{Type: TokenEOF, Pos: 7},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize() returned %d tokens, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	for _, input := range []string{"'open", "a # b"} {
		if _, err := Tokenize(input); !IsParseError(err) {
			t.Errorf("Tokenize(%q) error = %v, want parse error", input, err)
		}
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "1 + 2 * 3", want: "(1 + (2 * 3))"},
		{input: "(1 + 2) * 3", want: "((1 + 2) * 3)"},
		{input: "user.name", want: "user.name"},
		{input: "items[0]", want: "items[0]"},
		{input: "add(1, 2)", want: "add(1, 2)"},
		{input: "!done", want: "!done"},
		{input: "'a' & name", want: "('a' & name)"},
		{input: "a || b && c", want: "(a || (b && c))"},
		{input: "a == 1 && b < 2", want: "((a == 1) && (b < 2))"},
		{input: "-3", want: "-3"},
		{input: "null", want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := Parse(tt.input, nil)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := expr.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantUnknown bool
	}{
		{name: "empty", input: "   "},
		{name: "dangling operator", input: "1 +"},
		{name: "unbalanced paren", input: "add(1, 2"},
		{name: "trailing tokens", input: "1 2"},
		{name: "unknown function", input: "foo(1)", wantUnknown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, nil)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}
			if !IsParseError(err) {
				t.Errorf("Parse(%q) error = %v, want parse error", tt.input, err)
			}
			if got := IsUnknownFunctionError(err); got != tt.wantUnknown {
				t.Errorf("IsUnknownFunctionError() = %v, want %v", got, tt.wantUnknown)
			}
		})
	}
}

func TestParseKeepsAliasName(t *testing.T) {
	expr, err := Parse("add(1, 2)", nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if expr.Type != "add" {
		t.Errorf("Type = %q, want add", expr.Type)
	}
	if expr.Evaluator.Type != Add {
		t.Errorf("Evaluator.Type = %q, want %q", expr.Evaluator.Type, Add)
	}
	if expr.ReturnType() != ReturnNumber {
		t.Errorf("ReturnType() = %v, want Number", expr.ReturnType())
	}
}

func TestParseWithCustomFunction(t *testing.T) {
	double := NewExpressionEvaluator("double", Apply(func(args []interface{}) interface{} {
		n, _ := toInt(args[0])
		return n * 2
	}, VerifyNumber), ReturnNumber, ValidateUnaryNumber)

	lookup := ChainLookup(NewRegistry(double).LookupFunc())
	expr, err := Parse("double(21) + 0", lookup)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got, err := expr.TryEvaluate(nil)
	if err != nil {
		t.Fatalf("TryEvaluate() error = %v", err)
	}
	if got != 42 {
		t.Errorf("TryEvaluate() = %v, want 42", got)
	}

	if _, err := Parse("double('x')", lookup); !IsValidationError(err) {
		t.Errorf("Parse(double('x')) error = %v, want validation error", err)
	}
}

func TestTryEvaluateRecoversPanics(t *testing.T) {
	boom := NewExpressionEvaluator("boom", func(*Expression, interface{}) (interface{}, error) {
		panic("kaboom")
	}, ReturnObject, nil)

	expr := MakeExpression(boom)
	if _, err := expr.TryEvaluate(nil); err == nil {
		t.Error("TryEvaluate() should turn a panic into an error")
	}
}
