// Package sexy reads the S-expressions used to hand programs to whilec and
// to write assertions in the markdown test suites.
package sexy

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeInteger
	NodeList
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeInteger:
		return "integer"
	case NodeList:
		return "list"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Node represents any Sexy datum
type Node struct {
	Type NodeType

	// NodeSymbol, NodeString, NodeInteger
	Text string

	// NodeList
	Items []*Node

	// Metadata for NodeList, written ^{key: value, ...} anywhere inside the
	// list. Stored as parallel slices to keep source order.
	MetaKeys  []string
	MetaItems []*Node

	// Line is the 1-based source line of the atom or of the list's '('.
	Line int
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeInteger:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		return fmt.Sprintf("\"%s\"", escaped)
	case NodeList:
		var parts []string
		if len(n.MetaKeys) > 0 {
			var metaParts []string
			for i, key := range n.MetaKeys {
				metaParts = append(metaParts, fmt.Sprintf("%s: %s", key, n.MetaItems[i].String()))
			}
			parts = append(parts, fmt.Sprintf("^{%s}", strings.Join(metaParts, ", ")))
		}
		for _, item := range n.Items {
			parts = append(parts, item.String())
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, " "))
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

// Helper constructors for common node types
func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewInteger(text string) *Node {
	return &Node{Type: NodeInteger, Text: text}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

// IsAtom checks if the node is an atomic value
func (n *Node) IsAtom() bool {
	return n.Type != NodeList
}

// IsSymbol checks if the node is the symbol name
func (n *Node) IsSymbol(name string) bool {
	return n.Type == NodeSymbol && n.Text == name
}

// Head returns the symbol naming a list, or "" if the list does not start
// with a symbol.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Meta returns the metadata value stored under key.
func (n *Node) Meta(key string) (*Node, bool) {
	for i, k := range n.MetaKeys {
		if k == key {
			return n.MetaItems[i], true
		}
	}
	return nil, false
}

// Equal compares two data structurally, ignoring line numbers.
func Equal(a, b *Node) bool {
	return a.String() == b.String()
}

type parser struct {
	lexer        *lexer
	currentToken token
	peekToken    token
}

// Parse parses the entire input and returns the top-level datum
func Parse(input string) (*Node, error) {
	p := &parser{lexer: newLexer(input)}
	p.nextToken()
	p.nextToken()

	result, err := p.ParseDatum()
	if len(p.lexer.errors) > 0 {
		// Lexer errors take priority because they might cause confusing parser errors.
		return nil, fmt.Errorf("%s", p.lexer.errors[0])
	}
	if err != nil {
		return nil, err
	}

	if p.currentToken.Type != tokenEOF {
		return nil, fmt.Errorf("line %d: expected EOF but got %s", p.currentToken.Line, p.currentToken.Type)
	}

	return result, nil
}

func (p *parser) nextToken() {
	p.currentToken = p.peekToken
	p.peekToken = p.lexer.nextToken()
}

func (p *parser) ParseDatum() (*Node, error) {
	tok := p.currentToken
	switch tok.Type {
	case tokenSymbol:
		p.nextToken()
		return &Node{Type: NodeSymbol, Text: tok.Value, Line: tok.Line}, nil
	case tokenString:
		p.nextToken()
		return &Node{Type: NodeString, Text: tok.Value, Line: tok.Line}, nil
	case tokenInteger:
		// Callers validate the range of the integer.
		p.nextToken()
		return &Node{Type: NodeInteger, Text: tok.Value, Line: tok.Line}, nil
	case tokenLParen:
		return p.parseList()
	default:
		return nil, fmt.Errorf("line %d: unexpected token: %s", tok.Line, tok.Type)
	}
}

func (p *parser) parseList() (*Node, error) {
	list := &Node{Type: NodeList, Line: p.currentToken.Line}
	p.nextToken() // consume '('

	for p.currentToken.Type != tokenRParen && p.currentToken.Type != tokenEOF {
		if p.currentToken.Type == tokenCaret {
			if err := p.parseMeta(list); err != nil {
				return nil, err
			}
			continue
		}
		item, err := p.ParseDatum()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}

	if p.currentToken.Type != tokenRParen {
		return nil, fmt.Errorf("line %d: expected ')' but got %s", p.currentToken.Line, p.currentToken.Type)
	}
	p.nextToken() // consume ')'

	return list, nil
}

// parseMeta reads ^{key: value, ...} into list. Later values win.
func (p *parser) parseMeta(list *Node) error {
	p.nextToken() // consume '^'

	if p.currentToken.Type != tokenLBrace {
		return fmt.Errorf("line %d: expected '{' after '^' but got %s", p.currentToken.Line, p.currentToken.Type)
	}
	p.nextToken() // consume '{'

	for p.currentToken.Type != tokenRBrace && p.currentToken.Type != tokenEOF {
		if p.currentToken.Type != tokenSymbol {
			return fmt.Errorf("line %d: expected symbol for metadata key but got %s", p.currentToken.Line, p.currentToken.Type)
		}
		key := p.currentToken.Value
		p.nextToken()

		if p.currentToken.Type != tokenColon {
			return fmt.Errorf("line %d: expected ':' after metadata key but got %s", p.currentToken.Line, p.currentToken.Type)
		}
		p.nextToken()

		value, err := p.ParseDatum()
		if err != nil {
			return err
		}

		replaced := false
		for i, existing := range list.MetaKeys {
			if existing == key {
				list.MetaItems[i] = value
				replaced = true
				break
			}
		}
		if !replaced {
			list.MetaKeys = append(list.MetaKeys, key)
			list.MetaItems = append(list.MetaItems, value)
		}

		if p.currentToken.Type == tokenComma {
			p.nextToken()
		} else if p.currentToken.Type != tokenRBrace {
			return fmt.Errorf("line %d: expected ',' or '}' in metadata but got %s", p.currentToken.Line, p.currentToken.Type)
		}
	}

	if p.currentToken.Type != tokenRBrace {
		return fmt.Errorf("line %d: expected '}' but got %s", p.currentToken.Line, p.currentToken.Type)
	}
	p.nextToken() // consume '}'
	return nil
}

type tokenType int

const (
	tokenEOF tokenType = iota
	tokenSymbol
	tokenString
	tokenInteger
	tokenLParen
	tokenRParen
	tokenLBrace
	tokenRBrace
	tokenColon
	tokenComma
	tokenCaret
)

func (t tokenType) String() string {
	switch t {
	case tokenEOF:
		return "EOF"
	case tokenSymbol:
		return "symbol"
	case tokenString:
		return "string"
	case tokenInteger:
		return "integer"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenLBrace:
		return "'{'"
	case tokenRBrace:
		return "'}'"
	case tokenColon:
		return "':'"
	case tokenComma:
		return "','"
	case tokenCaret:
		return "'^'"
	default:
		return fmt.Sprintf("unknown token %d", int(t))
	}
}

type token struct {
	Type  tokenType
	Value string
	Line  int
}

type lexer struct {
	input    string
	position int
	current  rune
	line     int
	errors   []string
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.current == '\n' {
		l.line++
	}
	if l.position >= len(l.input) {
		l.current = 0
	} else {
		l.current = rune(l.input[l.position])
	}
	l.position++
}

func (l *lexer) skipWhitespace() {
	for unicode.IsSpace(l.current) {
		l.readChar()
	}
}

func (l *lexer) skipComment() {
	for l.current != '\n' && l.current != 0 {
		l.readChar()
	}
}

func (l *lexer) readWhile(accept func(rune) bool) string {
	start := l.position - 1
	for l.current != 0 && accept(l.current) {
		l.readChar()
	}
	return l.input[start : l.position-1]
}

func (l *lexer) readString() (string, error) {
	var sb strings.Builder
	l.readChar() // skip opening quote

	for l.current != '"' && l.current != 0 {
		if l.current == '\\' {
			l.readChar()
			switch l.current {
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				return "", fmt.Errorf("line %d: invalid escape sequence: \\%c", l.line, l.current)
			}
		} else {
			sb.WriteRune(l.current)
		}
		l.readChar()
	}

	if l.current != '"' {
		return "", fmt.Errorf("line %d: unterminated string", l.line)
	}
	l.readChar() // skip closing quote

	return sb.String(), nil
}

func (l *lexer) single(t tokenType) token {
	tok := token{Type: t, Value: string(l.current), Line: l.line}
	l.readChar()
	return tok
}

func (l *lexer) nextToken() token {
	for {
		l.skipWhitespace()

		switch l.current {
		case 0:
			return token{Type: tokenEOF, Line: l.line}
		case ';':
			l.skipComment()
			continue
		case '(':
			return l.single(tokenLParen)
		case ')':
			return l.single(tokenRParen)
		case '{':
			return l.single(tokenLBrace)
		case '}':
			return l.single(tokenRBrace)
		case ',':
			return l.single(tokenComma)
		case '^':
			return l.single(tokenCaret)
		case '"':
			line := l.line
			str, err := l.readString()
			if err != nil {
				l.errors = append(l.errors, err.Error())
				return token{Type: tokenEOF, Line: line}
			}
			return token{Type: tokenString, Value: str, Line: line}
		}

		line := l.line
		if unicode.IsDigit(l.current) {
			return token{Type: tokenInteger, Value: l.readWhile(unicode.IsDigit), Line: line}
		}
		if l.current == ':' {
			if l.peekByte() == '=' {
				l.readChar()
				l.readChar()
				return token{Type: tokenSymbol, Value: ":=", Line: line}
			}
			return l.single(tokenColon)
		}
		if isSymbolChar(l.current) {
			return token{Type: tokenSymbol, Value: l.readWhile(isSymbolChar), Line: line}
		}

		l.errors = append(l.errors, fmt.Sprintf("line %d: unexpected character '%c'", line, l.current))
		return token{Type: tokenEOF, Line: line}
	}
}

func (l *lexer) peekByte() byte {
	if l.position >= len(l.input) {
		return 0
	}
	return l.input[l.position]
}

// isSymbolChar accepts identifier characters and the operator characters of
// the language, so that +, <= and ? read as symbols. ":=" is special cased
// in nextToken because ':' alone separates metadata keys from values.
func isSymbolChar(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune("_-+*/%<>=?!", r)
}
