// Package jsonpath implements the JSONPath subset overlays use to select
// nodes of a reference graph.
//
// Supported syntax:
//   - $ (root)
//   - .name, ['name'], ["name"] (child)
//   - .* and [*] (all children)
//   - [n] (index, negative counts from the end)
//   - ..name, ..* and ..[...] (recursive descent)
//   - [?@.field op value] with ==, !=, <, <=, >, >= (filter on children)
package jsonpath

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Path is a parsed selector
type Path struct {
	raw      string
	segments []segment
}

// String returns the selector text
func (p *Path) String() string {
	return p.raw
}

type segmentKind uint8

const (
	segChild segmentKind = iota
	segWildcard
	segIndex
	segFilter
)

type segment struct {
	kind      segmentKind
	key       string
	index     int
	filter    *filter
	recursive bool
}

type filter struct {
	field    []string
	operator string
	value    interface{}
}

func (f *filter) String() string {
	return fmt.Sprintf("@.%s %s %v", strings.Join(f.field, "."), f.operator, f.value)
}

// Parse compiles a selector
func Parse(expr string) (*Path, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("jsonpath: empty expression")
	}
	p := &parser{input: expr}
	segments, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Path{raw: expr, segments: segments}, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parse() ([]segment, error) {
	if !p.consume('$') {
		return nil, fmt.Errorf("jsonpath: expression must start with '$'")
	}

	var segments []segment
	for p.pos < len(p.input) {
		switch p.peek() {
		case '.':
			p.pos++
			recursive := p.consume('.')
			var seg segment
			var err error
			if recursive && p.peek() == '[' {
				p.pos++
				seg, err = p.bracket()
			} else {
				seg, err = p.dot()
			}
			if err != nil {
				return nil, err
			}
			seg.recursive = recursive
			segments = append(segments, seg)
		case '[':
			p.pos++
			seg, err := p.bracket()
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
		default:
			return nil, fmt.Errorf("jsonpath: unexpected character %q at position %d", p.peek(), p.pos)
		}
	}
	return segments, nil
}

func (p *parser) dot() (segment, error) {
	if p.consume('*') {
		return segment{kind: segWildcard}, nil
	}
	key := p.identifier()
	if key == "" {
		return segment{}, fmt.Errorf("jsonpath: expected name at position %d", p.pos)
	}
	return segment{kind: segChild, key: key}, nil
}

func (p *parser) bracket() (segment, error) {
	p.skipSpace()
	ch := p.peek()
	var seg segment
	switch {
	case ch == '?':
		p.pos++
		f, err := p.filter()
		if err != nil {
			return segment{}, err
		}
		seg = segment{kind: segFilter, filter: f}
	case ch == '*':
		p.pos++
		seg = segment{kind: segWildcard}
	case ch == '\'' || ch == '"':
		p.pos++
		key, err := p.quoted(ch)
		if err != nil {
			return segment{}, err
		}
		seg = segment{kind: segChild, key: key}
	case ch == '-' || isDigit(ch):
		num := p.number()
		i, err := strconv.Atoi(num)
		if err != nil {
			return segment{}, fmt.Errorf("jsonpath: invalid index %q", num)
		}
		seg = segment{kind: segIndex, index: i}
	default:
		return segment{}, fmt.Errorf("jsonpath: unexpected character %q in brackets at position %d", ch, p.pos)
	}
	p.skipSpace()
	if !p.consume(']') {
		return segment{}, fmt.Errorf("jsonpath: expected ']' at position %d", p.pos)
	}
	return seg, nil
}

func (p *parser) filter() (*filter, error) {
	p.skipSpace()
	paren := p.consume('(')
	p.skipSpace()
	if !p.consume('@') {
		return nil, fmt.Errorf("jsonpath: filter must start with '@' at position %d", p.pos)
	}

	var field []string
	for p.peek() == '.' || p.peek() == '[' {
		if p.consume('.') {
			name := p.identifier()
			if name == "" {
				return nil, fmt.Errorf("jsonpath: expected field name at position %d", p.pos)
			}
			field = append(field, name)
			continue
		}
		p.pos++
		q := p.peek()
		if q != '\'' && q != '"' {
			return nil, fmt.Errorf("jsonpath: expected quoted field at position %d", p.pos)
		}
		p.pos++
		name, err := p.quoted(q)
		if err != nil {
			return nil, err
		}
		if !p.consume(']') {
			return nil, fmt.Errorf("jsonpath: expected ']' at position %d", p.pos)
		}
		field = append(field, name)
	}
	if len(field) == 0 {
		return nil, fmt.Errorf("jsonpath: expected '@.field' in filter at position %d", p.pos)
	}

	p.skipSpace()
	op := p.operator()
	if op == "" {
		return nil, fmt.Errorf("jsonpath: expected operator at position %d", p.pos)
	}
	p.skipSpace()
	value, err := p.literal()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if paren && !p.consume(')') {
		return nil, fmt.Errorf("jsonpath: expected ')' at position %d", p.pos)
	}
	return &filter{field: field, operator: op, value: value}, nil
}

func (p *parser) operator() string {
	if p.pos+1 < len(p.input) {
		switch op := p.input[p.pos : p.pos+2]; op {
		case "==", "!=", "<=", ">=":
			p.pos += 2
			return op
		}
	}
	switch ch := p.peek(); ch {
	case '<', '>':
		p.pos++
		return string(ch)
	}
	return ""
}

func (p *parser) literal() (interface{}, error) {
	ch := p.peek()
	rest := p.input[p.pos:]
	switch {
	case ch == '\'' || ch == '"':
		p.pos++
		return p.quoted(ch)
	case strings.HasPrefix(rest, "true"):
		p.pos += 4
		return true, nil
	case strings.HasPrefix(rest, "false"):
		p.pos += 5
		return false, nil
	case strings.HasPrefix(rest, "null"):
		p.pos += 4
		return nil, nil
	case ch == '-' || isDigit(ch):
		num := p.number()
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return nil, fmt.Errorf("jsonpath: invalid number %q", num)
		}
		return f, nil
	}
	return nil, fmt.Errorf("jsonpath: expected value at position %d", p.pos)
}

func (p *parser) identifier() string {
	start := p.pos
	for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *parser) quoted(quote byte) (string, error) {
	var b strings.Builder
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		p.pos++
		switch {
		case ch == quote:
			return b.String(), nil
		case ch == '\\' && p.pos < len(p.input):
			esc := p.input[p.pos]
			p.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(ch)
		}
	}
	return "", fmt.Errorf("jsonpath: unterminated string")
}

func (p *parser) number() string {
	start := p.pos
	p.consume('-')
	for p.pos < len(p.input) && (isDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) consume(ch byte) bool {
	if p.peek() == ch {
		p.pos++
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentChar(ch byte) bool {
	return ch == '_' || ch == '-' || ch == '$' || isDigit(ch) ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}
