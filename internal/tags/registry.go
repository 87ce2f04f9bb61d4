// Package tags keeps the set of tags a document uses and the user's current
// tag selection.
package tags

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/specpreview/internal/document"
)

// Tag is a registered tag name with its optional description.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Registry holds the tags of the latest built document and the active selection.
// Names are compared in Unicode NFC so visually identical tags match.
type Registry struct {
	mu       sync.RWMutex
	all      []Tag
	index    map[string]int
	selected []string
}

func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

// Normalize returns the canonical form of a tag name.
func Normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// RegisterTagsFromSpecs replaces the known tags with those of spec: declared
// tags first, then tags only referenced by operations, each once in order of
// first appearance. A nil spec leaves the registry untouched.
func (r *Registry) RegisterTagsFromSpecs(spec *document.Spec) {
	if spec == nil {
		return
	}
	all := make([]Tag, 0, len(spec.Tags))
	index := map[string]int{}
	add := func(name, description string) {
		n := Normalize(name)
		if n == "" {
			return
		}
		if i, ok := index[n]; ok {
			if all[i].Description == "" {
				all[i].Description = description
			}
			return
		}
		index[n] = len(all)
		all = append(all, Tag{Name: n, Description: description})
	}
	for _, t := range spec.Tags {
		add(t.Name, t.Description)
	}
	for _, name := range spec.OperationTags() {
		add(name, "")
	}

	r.mu.Lock()
	r.all = all
	r.index = index
	r.mu.Unlock()
}

// GetAllTags returns a copy of the registered tags.
func (r *Registry) GetAllTags() []Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.all)
}

// TagIndexFor returns the position of name among the registered tags, or -1.
func (r *Registry) TagIndexFor(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.index[Normalize(name)]; ok {
		return i
	}
	return -1
}

// GetCurrentTags returns the selected tags. Empty means show everything.
func (r *Registry) GetCurrentTags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.selected)
}

// SetCurrentTags replaces the selection. Names are normalized and
// de-duplicated; blanks are dropped. Unregistered names are kept since the
// next build may introduce them.
func (r *Registry) SetCurrentTags(names []string) {
	selected := make([]string, 0, len(names))
	for _, name := range names {
		n := Normalize(name)
		if n == "" || slices.Contains(selected, n) {
			continue
		}
		selected = append(selected, n)
	}
	r.mu.Lock()
	r.selected = selected
	r.mu.Unlock()
}

// Intersects reports whether any of opTags is currently selected.
func (r *Registry) Intersects(opTags []string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range opTags {
		if slices.Contains(r.selected, Normalize(t)) {
			return true
		}
	}
	return false
}
