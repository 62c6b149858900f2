package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/miorlan/openapi-store/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when the input holds no YAML/JSON document.
var ErrEmptyDocument = errors.New("empty document")

// Parser reads and writes documents as yaml.Node trees so that key order survives
// the round trip through the store.
type Parser struct {
	outputFormat domain.FileFormat
}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// SetOutputFormat sets the output format (YAML or JSON)
func (p *Parser) SetOutputFormat(format domain.FileFormat) {
	p.outputFormat = format
}

// Parse parses YAML or JSON data and returns the document's content node.
func (p *Parser) Parse(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil, ErrEmptyDocument
		}
		return doc.Content[0], nil
	}
	if doc.Kind == 0 {
		return nil, ErrEmptyDocument
	}
	return &doc, nil
}

// MarshalNode marshals a yaml.Node to YAML or JSON bytes
func (p *Parser) MarshalNode(node *yaml.Node) ([]byte, error) {
	if p.outputFormat == domain.FormatJSON {
		return p.marshalJSON(node)
	}
	return p.marshalYAML(node)
}

// MarshalJSON renders node as indented JSON preserving key order.
func MarshalJSON(node *yaml.Node) ([]byte, error) {
	p := &Parser{outputFormat: domain.FormatJSON}
	return p.marshalJSON(node)
}

func (p *Parser) marshalYAML(node *yaml.Node) ([]byte, error) {
	p.formatNode(node)

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(node); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return []byte(buf.String()), nil
}

func (p *Parser) marshalJSON(node *yaml.Node) ([]byte, error) {
	var buf strings.Builder
	if err := p.writeJSONNode(&buf, node, 0); err != nil {
		return nil, err
	}
	buf.WriteString("\n")
	return []byte(buf.String()), nil
}

func (p *Parser) writeJSONNode(buf *strings.Builder, node *yaml.Node, indent int) error {
	if node == nil {
		buf.WriteString("null")
		return nil
	}

	indentStr := strings.Repeat("  ", indent)
	nextIndent := strings.Repeat("  ", indent+1)

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) > 0 {
			return p.writeJSONNode(buf, node.Content[0], indent)
		}
		buf.WriteString("null")

	case yaml.AliasNode:
		return p.writeJSONNode(buf, node.Alias, indent)

	case yaml.MappingNode:
		if len(node.Content) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteString(",\n")
			}
			buf.WriteString(nextIndent)
			writeJSONString(buf, node.Content[i].Value)
			buf.WriteString(": ")
			if err := p.writeJSONNode(buf, node.Content[i+1], indent+1); err != nil {
				return err
			}
		}
		buf.WriteString("\n")
		buf.WriteString(indentStr)
		buf.WriteString("}")

	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range node.Content {
			if i > 0 {
				buf.WriteString(",\n")
			}
			buf.WriteString(nextIndent)
			if err := p.writeJSONNode(buf, item, indent+1); err != nil {
				return err
			}
		}
		buf.WriteString("\n")
		buf.WriteString(indentStr)
		buf.WriteString("]")

	case yaml.ScalarNode:
		return p.writeJSONScalar(buf, node)

	default:
		return fmt.Errorf("unsupported node kind %d", node.Kind)
	}
	return nil
}

func (p *Parser) writeJSONScalar(buf *strings.Builder, node *yaml.Node) error {
	var v interface{}
	if err := node.Decode(&v); err != nil {
		writeJSONString(buf, node.Value)
		return nil
	}
	return writeJSONValue(buf, v)
}

func writeJSONValue(buf *strings.Builder, v interface{}) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return fmt.Errorf("unsupported float value %v", val)
		}
		buf.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
	case string:
		writeJSONString(buf, val)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	return nil
}

func writeJSONString(buf *strings.Builder, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 32 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// formatNode normalizes presentation before YAML output: comments are dropped,
// flow collections become block collections, folded scalars become literal and
// redundant quotes are removed.
func (p *Parser) formatNode(node *yaml.Node) {
	if node == nil {
		return
	}

	node.HeadComment = ""
	node.LineComment = ""
	node.FootComment = ""

	switch node.Kind {
	case yaml.MappingNode:
		node.Style = 0
		sortHTTPStatusCodes(node)
	case yaml.SequenceNode:
		node.Style = 0
	case yaml.ScalarNode:
		switch node.Style {
		case yaml.FoldedStyle:
			node.Style = yaml.LiteralStyle
		case yaml.DoubleQuotedStyle, yaml.SingleQuotedStyle:
			// the encoder re-quotes values that would otherwise change type
			node.Style = 0
		}
	}

	for _, child := range node.Content {
		p.formatNode(child)
	}
}

// sortHTTPStatusCodes orders a responses mapping by status code
func sortHTTPStatusCodes(node *yaml.Node) {
	if len(node.Content) < 4 {
		return
	}

	for i := 0; i < len(node.Content); i += 2 {
		if !isHTTPStatusCode(node.Content[i].Value) {
			return
		}
	}

	type pair struct {
		key   *yaml.Node
		value *yaml.Node
	}
	pairs := make([]pair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		pairs = append(pairs, pair{node.Content[i], node.Content[i+1]})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].key.Value < pairs[j].key.Value
	})

	node.Content = node.Content[:0]
	for _, p := range pairs {
		node.Content = append(node.Content, p.key, p.value)
	}
}

func isHTTPStatusCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	if s[1:] == "XX" || s[1:] == "xx" {
		return s[0] >= '1' && s[0] <= '5'
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s[0] >= '1' && s[0] <= '5'
}
