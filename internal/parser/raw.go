package parser

import "gopkg.in/yaml.v3"

// Helpers for working with the retained raw mapping node. Mutations go
// through these so that key order, unknown keys, and comments survive
// the rewrite.

// MapGet returns the value node for key in a YAML mapping node, or nil.
func MapGet(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// MapSet replaces the value for key in a mapping node, appending the
// pair when the key is absent.
func MapSet(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, Scalar(key), value)
}

// MapDelete removes key from a mapping node if present.
func MapDelete(m *yaml.Node, key string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return
		}
	}
}

// AppendSeq appends value to the sequence at key, creating the
// sequence when absent.
func AppendSeq(m *yaml.Node, key string, value *yaml.Node) {
	seq := MapGet(m, key)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		seq = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		MapSet(m, key, seq)
	}
	seq.Content = append(seq.Content, value)
}

// Scalar builds a plain string scalar node.
func Scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// BoolScalar builds a boolean scalar node.
func BoolScalar(v bool) *yaml.Node {
	s := "false"
	if v {
		s = "true"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}
}

// Marshal serializes a mapping node back to YAML.
func Marshal(m *yaml.Node) ([]byte, error) {
	return yaml.Marshal(m)
}
