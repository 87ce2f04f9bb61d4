package preview

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/specpreview/internal/document"
	"git.home.luguber.info/inful/specpreview/internal/tags"
)

// TagSelection is the source of the active tag filter.
type TagSelection interface {
	GetCurrentTags() []string
}

// tagMatcher is implemented by selections that can answer the
// intersection test under their own lock, e.g. *tags.Registry.
type tagMatcher interface {
	Intersects(opTags []string) bool
}

// Visibility decides which paths and operations are shown. It keeps no
// state of its own; every call reads the current selection.
type Visibility struct {
	Tags TagSelection
}

// IsVendorExtension reports whether key is an x- extension key.
func IsVendorExtension(key string) bool {
	return strings.HasPrefix(key, "x-")
}

// ShowOperation reports whether the entry name of a path item is a visible operation.
func (v Visibility) ShowOperation(op document.Operation, name string) bool {
	if IsVendorExtension(name) || name == "parameters" {
		return false
	}
	selected := v.Tags.GetCurrentTags()
	if len(selected) == 0 {
		return true
	}
	if m, ok := v.Tags.(tagMatcher); ok {
		return m.Intersects(op.Tags)
	}
	for _, t := range op.Tags {
		if slices.Contains(selected, tags.Normalize(t)) {
			return true
		}
	}
	return false
}

// ShowPath reports whether a path has at least one visible operation.
func (v Visibility) ShowPath(p document.PathItem, name string) bool {
	if IsVendorExtension(name) {
		return false
	}
	for _, op := range p.Entries {
		if v.ShowOperation(op, op.Name) {
			return true
		}
	}
	return false
}

// VisiblePath is a path with only its visible operations.
type VisiblePath struct {
	Name       string               `json:"name"`
	EditPath   string               `json:"editPath"`
	Line       int                  `json:"line,omitempty"`
	Operations []document.Operation `json:"operations"`
}

// Visible filters spec for the current selection. A nil spec has no paths.
func (v Visibility) Visible(spec *document.Spec) []VisiblePath {
	if spec == nil {
		return []VisiblePath{}
	}
	out := []VisiblePath{}
	for _, p := range spec.Paths {
		if !v.ShowPath(p, p.Name) {
			continue
		}
		vp := VisiblePath{Name: p.Name, EditPath: EditPath(p.Name), Line: p.Line}
		for _, op := range p.Entries {
			if v.ShowOperation(op, op.Name) {
				vp.Operations = append(vp.Operations, op)
			}
		}
		out = append(out, vp)
	}
	return out
}

// ShowDefinitions reports whether a definitions section should be rendered.
func ShowDefinitions(defs any) bool {
	_, ok := defs.(map[string]any)
	return ok
}

// ResponseCodeClass maps an HTTP response code to a display class.
func ResponseCodeClass(code string) string {
	n, err := strconv.ParseFloat(strings.TrimSpace(code), 64)
	if err != nil {
		return "default"
	}
	switch math.Floor(n / 100) {
	case 2:
		return "green"
	case 3:
		return "blue"
	case 4:
		return "yellow"
	case 5:
		return "red"
	default:
		return "default"
	}
}

var componentUnescaper = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// EditPath is the editor route for one path.
func EditPath(pathName string) string {
	return "#/paths?path=" + componentUnescaper.Replace(url.QueryEscape(pathName))
}

// IsInFocus reports whether path refers to anything at all.
func IsInFocus(path []string) bool {
	return len(path) > 0
}
