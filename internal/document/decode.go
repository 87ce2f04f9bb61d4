package document

import "gopkg.in/yaml.v3"

// Decode builds the preview model from a parsed root node. It never fails:
// missing or mistyped sections are simply left empty, rule checking is the
// builder's job.
func Decode(root *yaml.Node) *Spec {
	root = Root(root)
	spec := &Spec{Paths: []PathItem{}}
	if !IsMapping(root) {
		return spec
	}

	if _, v := Lookup(root, "swagger"); v != nil {
		spec.Version = ScalarString(v)
	} else if _, v := Lookup(root, "openapi"); v != nil {
		spec.Version = ScalarString(v)
	}

	if _, info := Lookup(root, "info"); info != nil {
		_, title := Lookup(info, "title")
		_, version := Lookup(info, "version")
		spec.Title = ScalarString(title)
		spec.APIVersion = ScalarString(version)
	}

	if _, tags := Lookup(root, "tags"); tags != nil && tags.Kind == yaml.SequenceNode {
		for _, item := range tags.Content {
			_, name := Lookup(item, "name")
			if ScalarString(name) == "" {
				continue
			}
			_, desc := Lookup(item, "description")
			spec.Tags = append(spec.Tags, TagDef{Name: ScalarString(name), Description: ScalarString(desc)})
		}
	}

	_, paths := Lookup(root, "paths")
	for _, p := range Pairs(paths) {
		spec.Paths = append(spec.Paths, decodePathItem(p))
	}

	spec.Definitions = decodeDefinitions(root)
	return spec
}

func decodePathItem(p MappingPair) PathItem {
	item := PathItem{Name: p.Key.Value, Line: p.Key.Line, Entries: []Operation{}}
	for _, e := range Pairs(p.Value) {
		op := Operation{Name: e.Key.Value, Line: e.Key.Line}
		if IsMapping(e.Value) {
			if _, tags := Lookup(e.Value, "tags"); tags != nil && tags.Kind == yaml.SequenceNode {
				for _, t := range tags.Content {
					if s := ScalarString(t); s != "" {
						op.Tags = append(op.Tags, s)
					}
				}
			}
			_, summary := Lookup(e.Value, "summary")
			_, opID := Lookup(e.Value, "operationId")
			op.Summary = ScalarString(summary)
			op.OperationID = ScalarString(opID)
			_, responses := Lookup(e.Value, "responses")
			for _, r := range Pairs(responses) {
				op.Responses = append(op.Responses, r.Key.Value)
			}
		}
		item.Entries = append(item.Entries, op)
	}
	return item
}

func decodeDefinitions(root *yaml.Node) any {
	_, defs := Lookup(root, "definitions")
	if defs == nil {
		if _, components := Lookup(root, "components"); components != nil {
			_, defs = Lookup(components, "schemas")
		}
	}
	if defs == nil {
		return nil
	}
	var out any
	if err := defs.Decode(&out); err != nil {
		return nil
	}
	return out
}
