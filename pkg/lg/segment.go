package lg

import (
	"strings"
	"unicode/utf8"
)

type segmentKind int

const (
	textSegment segmentKind = iota
	escapeSegment
	invalidEscapeSegment
	expressionSegment
	unclosedExpressionSegment
	templateRefSegment
	multilineSegment
)

// segment is one lexical piece of a variation. raw is the source text; value
// is the unescaped character, the expression or reference without its
// delimiters, or the multi-line body without its fences.
type segment struct {
	kind  segmentKind
	raw   string
	value string
}

var escapes = map[rune]string{
	'\\': `\`,
	'[':  "[",
	']':  "]",
	'{':  "{",
	'}':  "}",
	'@':  "@",
	'r':  "\r",
	'n':  "\n",
	't':  "\t",
	'"':  `"`,
	'\'': "'",
	'`':  "`",
	'#':  "#",
	'-':  "-",
}

const fence = "```"

// scanSegments splits variation text into literal text, escapes, @{...}
// expressions and [...] template references. Text wrapped in ``` fences is
// a single multi-line segment.
func scanSegments(s string) []segment {
	if strings.HasPrefix(s, fence) {
		if len(s) >= 2*len(fence) && strings.HasSuffix(s, fence) {
			return []segment{{kind: multilineSegment, raw: s, value: s[len(fence) : len(s)-len(fence)]}}
		}
		return []segment{{kind: textSegment, raw: s, value: s}}
	}

	var out []segment
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			out = append(out, segment{kind: textSegment, raw: text.String(), value: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			flush()
			r, size := utf8.DecodeRuneInString(s[i+1:])
			raw := s[i : i+1+size]
			if value, ok := escapes[r]; ok {
				out = append(out, segment{kind: escapeSegment, raw: raw, value: value})
			} else {
				out = append(out, segment{kind: invalidEscapeSegment, raw: raw, value: raw})
			}
			i += 1 + size
		case c == '@' && i+1 < len(s) && s[i+1] == '{':
			flush()
			end := matchClose(s, i+2, '{', '}')
			if end < 0 {
				out = append(out, segment{kind: unclosedExpressionSegment, raw: s[i:], value: s[i+2:]})
				i = len(s)
				continue
			}
			out = append(out, segment{kind: expressionSegment, raw: s[i : end+1], value: s[i+2 : end]})
			i = end + 1
		case c == '[':
			end := matchClose(s, i+1, '[', ']')
			if end < 0 {
				text.WriteByte(c)
				i++
				continue
			}
			flush()
			out = append(out, segment{kind: templateRefSegment, raw: s[i : end+1], value: strings.TrimSpace(s[i+1 : end])})
			i = end + 1
		default:
			text.WriteByte(c)
			i++
		}
	}
	flush()
	return out
}

// matchClose returns the index of the close rune balancing an already
// consumed open rune, skipping quoted strings, or -1.
func matchClose(s string, from int, open, closer byte) int {
	depth := 1
	for i := from; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'', '"':
			end := skipQuoted(s, i)
			if end < 0 {
				return -1
			}
			i = end
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// skipQuoted returns the index of the quote closing the string that starts
// at s[start], or -1.
func skipQuoted(s string, start int) int {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}

// splitArgs splits a reference argument list on top-level commas. An empty
// list yields no arguments.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var args []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '"':
			if end := skipQuoted(s, i); end >= 0 {
				i = end
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(s[start:]))
}

// parseReference splits "name(a, b)" into its name and arguments. ok is false
// when the parentheses are malformed.
func parseReference(ref string) (name string, args []string, hasArgs, ok bool) {
	open := strings.IndexByte(ref, '(')
	if open <= 0 {
		return strings.TrimSpace(ref), nil, false, true
	}
	end := strings.LastIndexByte(ref, ')')
	if end < open+1 {
		return "", nil, true, false
	}
	return strings.TrimSpace(ref[:open]), splitArgs(ref[open+1 : end]), true, true
}
