// Package normalization maps loosely written configuration strings onto typed enums.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer converts user-supplied strings into one of a fixed set of values.
type Normalizer[T comparable] struct {
	valid        map[string]T
	defaultValue T
	keys         []string
}

// NewNormalizer creates a normalizer; keys are matched case-insensitively with surrounding space trimmed.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	valid := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		nk := clean(k)
		valid[nk] = v
		keys = append(keys, nk)
	}
	sort.Strings(keys)
	return &Normalizer[T]{valid: valid, defaultValue: defaultValue, keys: keys}
}

// Normalize returns the matching value, or the default for empty / unknown input.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.valid[clean(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// NormalizeWithError is Normalize but rejects unknown non-empty input.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	cleaned := clean(raw)
	if cleaned == "" {
		return n.defaultValue, nil
	}
	if v, ok := n.valid[cleaned]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// ValidKeys returns all accepted keys, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
