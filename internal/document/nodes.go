package document

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// HTTPMethods are the path-item keys that denote operations.
var HTTPMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// Root unwraps a document node and resolves aliases.
func Root(n *yaml.Node) *yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind == 0 {
		return nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		return resolve(n.Content[0])
	}
	return n
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// MappingPair is a key node and its (alias-resolved) value node.
type MappingPair struct {
	Key   *yaml.Node
	Value *yaml.Node
}

// Pairs lists the entries of a mapping node in document order. Non-mappings yield nil.
func Pairs(n *yaml.Node) []MappingPair {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]MappingPair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, MappingPair{Key: n.Content[i], Value: resolve(n.Content[i+1])})
	}
	return out
}

// Lookup returns the key and value nodes for key in a mapping node.
func Lookup(n *yaml.Node, key string) (k, v *yaml.Node) {
	for _, p := range Pairs(n) {
		if p.Key.Value == key {
			return p.Key, p.Value
		}
	}
	return nil, nil
}

// ScalarString returns the value of a scalar node, or "" for anything else.
func ScalarString(n *yaml.Node) string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

// IsMapping reports whether n is a mapping node.
func IsMapping(n *yaml.Node) bool {
	n = resolve(n)
	return n != nil && n.Kind == yaml.MappingNode
}

// child steps one key-path segment into n: mapping keys by name, sequence items by index.
func child(n *yaml.Node, segment string) (key, value *yaml.Node) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case yaml.MappingNode:
		return Lookup(n, segment)
	case yaml.SequenceNode:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(n.Content) {
			return nil, nil
		}
		item := resolve(n.Content[idx])
		return item, item
	}
	return nil, nil
}
