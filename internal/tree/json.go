package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
)

// MarshalJSON encodes the tree as an object keyed by label in display
// order. Leaves encode as prayer arrays, branches as nested objects.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeNodes(&buf, t.Nodes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNodes(buf *bytes.Buffer, nodes []Node) error {
	buf.WriteByte('{')
	for i, n := range nodes {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n.Label)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')

		if !n.IsLeaf() {
			if err := encodeNodes(buf, n.Children); err != nil {
				return err
			}
			continue
		}
		prayers := n.Prayers
		if prayers == nil {
			prayers = []domain.Prayer{}
		}
		value, err := json.Marshal(prayers)
		if err != nil {
			return fmt.Errorf("encode %q: %w", n.Label, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON decodes a tree, keeping the key order of every object.
// Prayers are numbered in document order.
func (t *Tree) UnmarshalJSON(data []byte) error {
	nodes, err := decodeNodes(data)
	if err != nil {
		return err
	}
	t.Nodes = nodes

	next := 0
	for i := range t.Nodes {
		eachLeaf(&t.Nodes[i], func(leaf *Node) {
			for j := range leaf.Prayers {
				leaf.Prayers[j].Index = next
				next++
			}
		})
	}
	return nil
}

func decodeNodes(data []byte) ([]Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("category tree: expected object, got %v", tok)
	}

	nodes := []Node{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		label, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("category tree: expected label, got %v", tok)
		}
		if indexOf(nodes, label) >= 0 {
			return nil, fmt.Errorf("category tree: %w: %q", ErrDuplicateLabel, label)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("category %q: %w", label, err)
		}
		node, err := decodeNode(label, raw)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return nodes, nil
}

func decodeNode(label string, raw json.RawMessage) (Node, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Node{}, fmt.Errorf("category %q: empty value", label)
	}
	switch trimmed[0] {
	case '[':
		var prayers []domain.Prayer
		if err := json.Unmarshal(trimmed, &prayers); err != nil {
			return Node{}, fmt.Errorf("category %q: %w", label, err)
		}
		return Leaf(label, prayers), nil
	case '{':
		children, err := decodeNodes(trimmed)
		if err != nil {
			return Node{}, fmt.Errorf("category %q: %w", label, err)
		}
		return Branch(label, children...), nil
	default:
		return Node{}, fmt.Errorf("category %q: expected array or object", label)
	}
}
