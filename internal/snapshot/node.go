package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Kind tags the three shapes a JSON value can take.
type Kind int

const (
	Scalar Kind = iota
	Object
	Array
)

// Member is one key/value pair of an object, kept in document order.
type Member struct {
	Key   string
	Value *Node
}

// Node is a decoded JSON value. Only the fields matching Kind are set.
type Node struct {
	Kind    Kind
	Members []Member
	Items   []*Node
	// Value holds string, json.Number, bool or nil for scalars.
	Value any
}

// Get returns the value stored under key in an object node. When a key is
// repeated the last occurrence wins, as with a regular JSON decode.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != Object {
		return nil, false
	}
	var (
		found *Node
		ok    bool
	)
	for _, m := range n.Members {
		if m.Key == key {
			found, ok = m.Value, true
		}
	}
	return found, ok
}

// Text returns the scalar string value, if this node is a JSON string.
func (n *Node) Text() (string, bool) {
	if n == nil || n.Kind != Scalar {
		return "", false
	}
	s, ok := n.Value.(string)
	return s, ok
}

// Parse decodes a single JSON document into a Node tree.
// Object members keep the order in which they appear in the input.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeValue(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty JSON document")
		}
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level JSON value")
	}

	return root, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return &Node{Kind: Scalar, Value: t}, nil
	}
}

func decodeObject(dec *json.Decoder) (*Node, error) {
	node := &Node{Kind: Object}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nested(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, not string", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, nested(err)
		}
		node.Members = append(node.Members, Member{Key: key, Value: value})
	}
	if err := expectClose(dec); err != nil {
		return nil, err
	}
	return node, nil
}

func decodeArray(dec *json.Decoder) (*Node, error) {
	node := &Node{Kind: Array}
	for dec.More() {
		item, err := decodeValue(dec)
		if err != nil {
			return nil, nested(err)
		}
		node.Items = append(node.Items, item)
	}
	if err := expectClose(dec); err != nil {
		return nil, err
	}
	return node, nil
}

// nested maps a bare EOF inside a container to ErrUnexpectedEOF.
func nested(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// expectClose consumes the '}' or ']' ending the current container.
func expectClose(dec *json.Decoder) error {
	_, err := dec.Token()
	return nested(err)
}
