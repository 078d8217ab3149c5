package expression

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func stringFunctions() []*ExpressionEvaluator {
	return []*ExpressionEvaluator{
		{
			Type: Concat,
			Evaluate: ApplySequence(func(args []interface{}) interface{} {
				return args[0].(string) + args[1].(string)
			}, VerifyString),
			ReturnType: ReturnString,
			Validate:   ValidateString,
		},
		{
			Type: Length,
			Evaluate: Apply(func(args []interface{}) interface{} {
				return utf8.RuneCountInString(args[0].(string))
			}, VerifyString),
			ReturnType: ReturnNumber,
			Validate:   ValidateUnaryString,
		},
		{
			Type: Replace,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				old := args[1].(string)
				if old == "" {
					return nil, fmt.Errorf("the string to replace must not be empty")
				}
				return strings.ReplaceAll(args[0].(string), old, args[2].(string)), nil
			}, VerifyString),
			ReturnType: ReturnString,
			Validate:   validateArity(3, 3, ReturnString),
		},
		{
			Type: ReplaceIgnoreCase,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				re, err := regexp.Compile("(?i)" + args[1].(string))
				if err != nil {
					return nil, err
				}
				return re.ReplaceAllString(args[0].(string), args[2].(string)), nil
			}, VerifyString),
			ReturnType: ReturnString,
			Validate:   validateArity(3, 3, ReturnString),
		},
		{
			Type: Split,
			Evaluate: Apply(func(args []interface{}) interface{} {
				return splitAny(args[0].(string), args[1].(string))
			}, VerifyString),
			ReturnType: ReturnObject,
			Validate:   validateArity(2, 2, ReturnString),
		},
		{
			Type:       Substring,
			Evaluate:   evaluateSubstring,
			ReturnType: ReturnString,
			Validate:   validateOrder([]ReturnType{ReturnNumber}, ReturnString, ReturnNumber),
		},
		StringTransform(ToLower, func(s string) string {
			return cases.Lower(language.Und).String(s)
		}),
		StringTransform(ToUpper, func(s string) string {
			return cases.Upper(language.Und).String(s)
		}),
		StringTransform(TitleCase, func(s string) string {
			return cases.Title(language.Und).String(s)
		}),
		StringTransform(Trim, strings.TrimSpace),
		{
			Type: StartsWith,
			Evaluate: Apply(func(args []interface{}) interface{} {
				return strings.HasPrefix(args[0].(string), args[1].(string))
			}, VerifyString),
			ReturnType: ReturnBoolean,
			Validate:   validateArity(2, 2, ReturnString),
		},
		{
			Type: EndsWith,
			Evaluate: Apply(func(args []interface{}) interface{} {
				return strings.HasSuffix(args[0].(string), args[1].(string))
			}, VerifyString),
			ReturnType: ReturnBoolean,
			Validate:   validateArity(2, 2, ReturnString),
		},
		{
			Type: CountWord,
			Evaluate: Apply(func(args []interface{}) interface{} {
				return len(whitespaceRegex.Split(strings.TrimSpace(args[0].(string)), -1))
			}, VerifyString),
			ReturnType: ReturnNumber,
			Validate:   ValidateUnaryString,
		},
		{
			Type: AddOrdinal,
			Evaluate: Apply(func(args []interface{}) interface{} {
				n, _ := toInt(args[0])
				return fmt.Sprintf("%d%s", n, ordinalSuffix(n))
			}, VerifyInteger),
			ReturnType: ReturnString,
			Validate:   ValidateUnaryNumber,
		},
		{
			Type: Join,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				list, ok := asList(args[0])
				if !ok {
					return nil, fmt.Errorf("%s is not a list", FormatValue(args[0]))
				}
				sep, ok := args[1].(string)
				if !ok {
					return nil, fmt.Errorf("%s is not a string", FormatValue(args[1]))
				}
				parts := make([]string, len(list))
				for i, item := range list {
					parts[i] = FormatValue(item)
				}
				return strings.Join(parts, sep), nil
			}, nil),
			ReturnType: ReturnString,
			Validate:   validateOrder(nil, ReturnObject, ReturnString),
		},
		{
			Type: NewGuid,
			Evaluate: Apply(func(args []interface{}) interface{} {
				return uuid.New().String()
			}, nil),
			ReturnType: ReturnString,
			Validate:   ValidateNoChildren,
		},
		{
			Type: IsMatch,
			Evaluate: ApplyWithError(func(args []interface{}) (interface{}, error) {
				re, err := compileSlashPattern(args[0].(string))
				if err != nil {
					return nil, err
				}
				input := args[1].(string)
				if input == "" {
					return false, nil
				}
				return re.MatchString(input), nil
			}, VerifyString),
			ReturnType: ReturnBoolean,
			Validate:   validateArity(2, 2, ReturnString),
		},
	}
}

// ordinalSuffix returns st, nd, rd or th; 11 to 13 always take th and
// non-positive numbers take none.
func ordinalSuffix(n int) string {
	if n <= 0 {
		return ""
	}
	switch n % 100 {
	case 11, 12, 13:
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// splitAny splits on any rune of seps and keeps empty fields. Empty seps
// split on whitespace.
func splitAny(s, seps string) []interface{} {
	isSep := func(r rune) bool { return strings.ContainsRune(seps, r) }
	if seps == "" {
		isSep = unicode.IsSpace
	}
	out := []interface{}{}
	start := 0
	for i, r := range s {
		if isSep(r) {
			out = append(out, s[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	return append(out, s[start:])
}

func evaluateSubstring(expr *Expression, state interface{}) (interface{}, error) {
	args, err := EvaluateChildren(expr, state, nil)
	if err != nil {
		return nil, err
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("%s is not a string", expr.Children[0])
	}
	runes := []rune(s)
	start, ok := toInt(args[1])
	if !ok || !isInteger(args[1]) {
		return nil, fmt.Errorf("%s is not an integer", expr.Children[1])
	}
	if start < 0 || start >= len(runes) {
		return nil, fmt.Errorf("%s:start index out of range", expr.Children[1])
	}
	length := len(runes) - start
	if len(args) == 3 {
		length, ok = toInt(args[2])
		if !ok || !isInteger(args[2]) {
			return nil, fmt.Errorf("%s is not an integer", expr.Children[2])
		}
		if length < 0 || start+length > len(runes) {
			return nil, fmt.Errorf("%s:length out of range", expr.Children[2])
		}
	}
	return string(runes[start : start+length]), nil
}

// compileSlashPattern compiles "/pattern/flags"; the i flag makes matching
// case-insensitive.
func compileSlashPattern(text string) (*regexp.Regexp, error) {
	end := strings.LastIndex(text, "/")
	if !strings.HasPrefix(text, "/") || end <= 0 {
		return nil, fmt.Errorf("%s is not a regular expression of the form /pattern/flags", text)
	}
	pattern, flags := text[1:end], text[end+1:]
	for _, flag := range flags {
		switch flag {
		case 'i':
			pattern = "(?i)" + pattern
		default:
			return nil, fmt.Errorf("unsupported regular expression flag %q", flag)
		}
	}
	return regexp.Compile(pattern)
}
