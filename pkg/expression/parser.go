package expression

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Token represents a token in an expression
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

type TokenType int

const (
	TokenIdentifier TokenType = iota
	TokenNumber
	TokenString
	TokenOperator
	TokenLeftParen
	TokenRightParen
	TokenComma
	TokenEOF
)

var (
	identifierRegex  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*`)
	numberRegex      = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?`)
	stringRegex      = regexp.MustCompile(`^"([^"\\]|\\.)*"`)
	singleQuoteRegex = regexp.MustCompile(`^'([^'\\]|\\.)*'`)
	operatorRegex    = regexp.MustCompile(`^(==|!=|<=|>=|&&|\|\||\+|-|\*|/|%|\^|&|!|<|>|\.|\[|\])`)
)

// Tokenize splits expression text into tokens.
func Tokenize(expr string) ([]Token, error) {
	var tokens []Token
	pos := 0

	for pos < len(expr) {
		switch expr[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
			continue
		case '(':
			tokens = append(tokens, Token{Type: TokenLeftParen, Value: "(", Pos: pos})
			pos++
			continue
		case ')':
			tokens = append(tokens, Token{Type: TokenRightParen, Value: ")", Pos: pos})
			pos++
			continue
		case ',':
			tokens = append(tokens, Token{Type: TokenComma, Value: ",", Pos: pos})
			pos++
			continue
		}

		remaining := expr[pos:]

		if match := identifierRegex.FindString(remaining); match != "" {
			tokens = append(tokens, Token{Type: TokenIdentifier, Value: match, Pos: pos})
			pos += len(match)
			continue
		}

		if match := numberRegex.FindString(remaining); match != "" {
			tokens = append(tokens, Token{Type: TokenNumber, Value: match, Pos: pos})
			pos += len(match)
			continue
		}

		if match := stringRegex.FindString(remaining); match != "" {
			tokens = append(tokens, Token{Type: TokenString, Value: unescapeString(match[1 : len(match)-1]), Pos: pos})
			pos += len(match)
			continue
		}

		if match := singleQuoteRegex.FindString(remaining); match != "" {
			tokens = append(tokens, Token{Type: TokenString, Value: unescapeString(match[1 : len(match)-1]), Pos: pos})
			pos += len(match)
			continue
		}

		if match := operatorRegex.FindString(remaining); match != "" {
			tokens = append(tokens, Token{Type: TokenOperator, Value: match, Pos: pos})
			pos += len(match)
			continue
		}

		if remaining[0] == '"' || remaining[0] == '\'' {
			return nil, &ParseError{Message: "unterminated string literal", Token: remaining[:1], Position: pos}
		}
		return nil, &ParseError{Message: fmt.Sprintf("unexpected character '%c'", expr[pos]), Position: pos}
	}

	tokens = append(tokens, Token{Type: TokenEOF, Pos: pos})
	return tokens, nil
}

func unescapeString(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			switch r {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			default:
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	if escaped {
		b.WriteRune('\\')
	}
	return b.String()
}

// Parse parses expression text, binds every function through lookup and
// statically validates the resulting tree.
func Parse(text string, lookup EvaluatorLookup) (*Expression, error) {
	expr, err := ParseUnvalidated(text, lookup)
	if err != nil {
		return nil, err
	}
	return Validate(expr)
}

// ParseUnvalidated builds the tree without running static validation.
func ParseUnvalidated(text string, lookup EvaluatorLookup) (*Expression, error) {
	if lookup == nil {
		lookup = Default().LookupFunc()
	}
	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, lookup: lookup}
	if p.current().Type == TokenEOF {
		return nil, &ParseError{Message: "empty expression", Position: 0}
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, &ParseError{Message: "unexpected trailing token", Token: tok.Value, Position: tok.Pos}
	}
	return expr, nil
}

type parser struct {
	tokens []Token
	pos    int
	lookup EvaluatorLookup
}

func (p *parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *parser) isOperator(values ...string) bool {
	tok := p.current()
	if tok.Type != TokenOperator {
		return false
	}
	for _, v := range values {
		if tok.Value == v {
			return true
		}
	}
	return false
}

func (p *parser) makeNode(name string, tok Token, children ...*Expression) (*Expression, error) {
	ev := p.lookup(name)
	if ev == nil {
		unknown := &UnknownFunctionError{Name: name}
		return nil, &ParseError{Message: unknown.Error(), Token: tok.Value, Position: tok.Pos, Cause: unknown}
	}
	node := MakeExpression(ev, children...)
	node.Type = name
	return node, nil
}

func (p *parser) parseExpression() (*Expression, error) {
	return p.parseBinary(0)
}

// binaryLevels lists operators from lowest to highest precedence.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"&"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) parseBinary(level int) (*Expression, error) {
	if level >= len(binaryLevels) {
		return p.parsePower()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for p.isOperator(binaryLevels[level]...) {
		tok := p.current()
		p.advance()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left, err = p.makeNode(tok.Value, tok, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

// parsePower parses the right-associative ^ operator.
func (p *parser) parsePower() (*Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.isOperator("^") {
		tok := p.current()
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return p.makeNode(Power, tok, left, right)
	}
	return left, nil
}

func (p *parser) parseUnary() (*Expression, error) {
	if !p.isOperator("!", "-", "+") {
		return p.parsePostfix()
	}
	tok := p.current()
	p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	switch tok.Value {
	case "!":
		return p.makeNode(Not, tok, operand)
	case "-":
		if operand.IsConstant() {
			switch v := operand.Value.(type) {
			case int:
				return NewConstant(-v), nil
			case float64:
				return NewConstant(-v), nil
			}
		}
		return p.makeNode(Subtract, tok, NewConstant(0), operand)
	}
	return operand, nil
}

// parsePostfix parses member access (a.b) and indexing (a[i]).
func (p *parser) parsePostfix() (*Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.isOperator("."):
			p.advance()
			tok := p.current()
			if tok.Type != TokenIdentifier {
				return nil, &ParseError{Message: "expected identifier after '.'", Token: tok.Value, Position: tok.Pos}
			}
			p.advance()
			left, err = p.makeNode(Accessor, tok, NewConstant(tok.Value), left)
			if err != nil {
				return nil, err
			}
		case p.isOperator("["):
			tok := p.current()
			p.advance()
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if !p.isOperator("]") {
				return nil, &ParseError{Message: "expected ']' after index", Token: p.current().Value, Position: p.current().Pos}
			}
			p.advance()
			left, err = p.makeNode(Element, tok, left, index)
			if err != nil {
				return nil, err
			}
		default:
			return left, nil
		}
	}
}

func (p *parser) parsePrimary() (*Expression, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		if intVal, err := strconv.Atoi(tok.Value); err == nil {
			return NewConstant(intVal), nil
		}
		if floatVal, err := strconv.ParseFloat(tok.Value, 64); err == nil {
			return NewConstant(floatVal), nil
		}
		return nil, &ParseError{Message: "invalid number", Token: tok.Value, Position: tok.Pos}

	case TokenString:
		p.advance()
		return NewConstant(tok.Value), nil

	case TokenIdentifier:
		p.advance()
		switch tok.Value {
		case "true":
			return NewConstant(true), nil
		case "false":
			return NewConstant(false), nil
		case "null":
			return NewConstant(nil), nil
		}
		if p.current().Type == TokenLeftParen {
			return p.parseCall(tok)
		}
		return p.makeNode(Accessor, tok, NewConstant(tok.Value))

	case TokenLeftParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.current().Type != TokenRightParen {
			return nil, &ParseError{Message: "expected ')' after expression", Token: p.current().Value, Position: p.current().Pos}
		}
		p.advance()
		return expr, nil

	case TokenEOF:
		return nil, &ParseError{Message: "unexpected end of expression", Position: tok.Pos}
	}
	return nil, &ParseError{Message: "unexpected token", Token: tok.Value, Position: tok.Pos}
}

func (p *parser) parseCall(name Token) (*Expression, error) {
	p.advance() // consume '('

	var args []*Expression
	if p.current().Type == TokenRightParen {
		p.advance()
		return p.makeNode(name.Value, name, args...)
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		switch p.current().Type {
		case TokenComma:
			p.advance()
			continue
		case TokenRightParen:
			p.advance()
			return p.makeNode(name.Value, name, args...)
		}
		return nil, &ParseError{Message: "expected ',' or ')' in function arguments", Token: p.current().Value, Position: p.current().Pos}
	}
}
