package region

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/fenced/pkg/core"
	"github.com/aretw0/fenced/pkg/dates"
)

// Codec defines how a region body is read and written.
type Codec interface {
	// Decode turns a body into a Record. Malformed bodies yield a *core.ParseError.
	Decode(body string) (*core.Record, error)
	// Encode serializes rec in key order. An empty record encodes to "".
	Encode(rec *core.Record) (string, error)
}

// Editor is implemented by codecs that can rewrite an existing body instead of
// serializing a record from scratch. Values that did not change keep their
// original text, comments and key order.
type Editor interface {
	Edit(body string, rec *core.Record) (string, error)
}

// --- YAML Codec ---

// YAMLCodec reads and writes "key: value" bodies, as found in frontmatter.
// Lists are written as block sequences, dates as bare YYYY-MM-DD tokens.
type YAMLCodec struct {
	// Indent is the sequence/mapping indentation. Zero means 2.
	Indent int
}

// NewYAMLCodec creates a YAML codec with two-space indentation.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{Indent: 2}
}

func (c *YAMLCodec) Decode(body string) (*core.Record, error) {
	rec := core.NewRecord()
	if strings.TrimSpace(body) == "" {
		return rec, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(body), &root); err != nil {
		return nil, &core.ParseError{Err: err}
	}
	if len(root.Content) == 0 {
		return rec, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &core.ParseError{Line: doc.Line, Err: errors.New("body is not a key/value mapping")}
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		k, v := doc.Content[i], doc.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, &core.ParseError{Line: k.Line, Err: errors.New("keys must be scalars")}
		}
		if rec.Has(k.Value) {
			return nil, &core.ParseError{Line: k.Line, Err: fmt.Errorf("duplicate key %q", k.Value)}
		}
		val, err := decodeNode(v)
		if err != nil {
			return nil, &core.ParseError{Line: v.Line, Err: fmt.Errorf("key %q: %w", k.Value, err)}
		}
		rec.Set(k.Value, val)
	}
	return rec, nil
}

func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return decodeNode(n.Alias)

	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!str":
			return n.Value, nil
		case "!!timestamp":
			if dates.IsValid(n.Value) {
				return dates.Date(n.Value), nil
			}
			var t time.Time
			if err := n.Decode(&t); err != nil {
				return nil, err
			}
			return t, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil

	case yaml.SequenceNode:
		strs := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
				var v []any
				if err := n.Decode(&v); err != nil {
					return nil, err
				}
				return v, nil
			}
			strs = append(strs, item.Value)
		}
		return strs, nil

	default:
		// Nested mappings are not schema fields; they are kept as-is.
		var v map[string]any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func (c *YAMLCodec) Encode(rec *core.Record) (string, error) {
	if rec.Len() == 0 {
		return "", nil
	}

	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range rec.Keys() {
		v, _ := rec.Get(k)
		vn, err := encodeValue(v)
		if err != nil {
			return "", fmt.Errorf("encode %q: %w", k, err)
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			vn,
		)
	}

	return c.marshal(doc)
}

// Edit applies rec to the mapping parsed from body. Pairs whose decoded value
// equals the record's keep their original nodes, so unknown keys, nested
// mappings, number spellings and comments pass through. Changed values are
// replaced in place, keys missing from rec are dropped and new keys are
// appended in record order. When nothing differs body is returned as is.
func (c *YAMLCodec) Edit(body string, rec *core.Record) (string, error) {
	if strings.TrimSpace(body) == "" {
		return c.Encode(rec)
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(body), &root); err != nil {
		return "", &core.ParseError{Err: err}
	}
	if len(root.Content) == 0 {
		return c.Encode(rec)
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return "", &core.ParseError{Line: doc.Line, Err: errors.New("body is not a key/value mapping")}
	}

	changed := false
	seen := make(map[string]bool, rec.Len())
	content := make([]*yaml.Node, 0, len(doc.Content)+2*rec.Len())
	for i := 0; i+1 < len(doc.Content); i += 2 {
		k, v := doc.Content[i], doc.Content[i+1]
		want, ok := rec.Get(k.Value)
		if !ok {
			changed = true
			continue
		}
		seen[k.Value] = true

		old, err := decodeNode(v)
		if err != nil {
			return "", &core.ParseError{Line: v.Line, Err: fmt.Errorf("key %q: %w", k.Value, err)}
		}
		if !reflect.DeepEqual(old, want) {
			vn, err := encodeValue(want)
			if err != nil {
				return "", fmt.Errorf("encode %q: %w", k.Value, err)
			}
			vn.LineComment = v.LineComment
			vn.FootComment = v.FootComment
			v = vn
			changed = true
		}
		content = append(content, k, v)
	}

	for _, key := range rec.Keys() {
		if seen[key] {
			continue
		}
		v, _ := rec.Get(key)
		vn, err := encodeValue(v)
		if err != nil {
			return "", fmt.Errorf("encode %q: %w", key, err)
		}
		content = append(content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, vn)
		changed = true
	}

	if !changed {
		return body, nil
	}
	if len(content) == 0 {
		return "", nil
	}
	doc.Content = content
	return c.marshal(&root)
}

func (c *YAMLCodec) marshal(n *yaml.Node) (string, error) {
	indent := c.Indent
	if indent <= 0 {
		indent = 2
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(indent)
	if err := encoder.Encode(n); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

var (
	_ Codec  = (*YAMLCodec)(nil)
	_ Editor = (*YAMLCodec)(nil)
)

func encodeValue(v any) (*yaml.Node, error) {
	if d, ok := v.(dates.Date); ok {
		// Tagged as timestamp so the encoder emits it bare instead of quoting it.
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: string(d)}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}
