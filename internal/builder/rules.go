package builder

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/specpreview/internal/diagnostic"
	"git.home.luguber.info/inful/specpreview/internal/document"
)

// Input is what a rule inspects. Root is nil for an empty document.
type Input struct {
	Text string
	Root *yaml.Node
}

// Rule checks one aspect of a document.
type Rule interface {
	// Name is the rule identifier, used as the default diagnostic code.
	Name() string
	Check(in *Input) []diagnostic.Semantic
}

// DefaultRules returns the rule set used by NewLocal.
func DefaultRules() []Rule {
	return []Rule{
		&RootRule{},
		&VersionRule{},
		&InfoRule{},
		&PathsRule{},
		&OperationRule{},
		&TagRule{},
	}
}

func finding(level diagnostic.Level, code, msg string, at *yaml.Node, path ...string) diagnostic.Semantic {
	s := diagnostic.Semantic{Code: code, Message: msg, Path: path, Level: level}
	if at != nil {
		s.Line, s.Column = at.Line, at.Column
	}
	return s
}

// RootRule requires a non-empty mapping at the top level.
type RootRule struct{}

func (r *RootRule) Name() string { return "invalid-root" }

func (r *RootRule) Check(in *Input) []diagnostic.Semantic {
	if in.Root == nil {
		return []diagnostic.Semantic{finding(diagnostic.LevelError, "empty-document", "document is empty", nil)}
	}
	if !document.IsMapping(in.Root) {
		return []diagnostic.Semantic{finding(diagnostic.LevelError, r.Name(), "document root must be an object", in.Root)}
	}
	return nil
}

// VersionRule requires swagger: "2.0" or an openapi 3.x version.
type VersionRule struct{}

func (r *VersionRule) Name() string { return "unsupported-version" }

func (r *VersionRule) Check(in *Input) []diagnostic.Semantic {
	if !document.IsMapping(in.Root) {
		return nil
	}
	if k, v := document.Lookup(in.Root, "swagger"); k != nil {
		if document.ScalarString(v) != "2.0" {
			return []diagnostic.Semantic{finding(diagnostic.LevelError, r.Name(), `swagger version must be "2.0"`, v, "swagger")}
		}
		return nil
	}
	if k, v := document.Lookup(in.Root, "openapi"); k != nil {
		if !strings.HasPrefix(document.ScalarString(v), "3.") {
			return []diagnostic.Semantic{finding(diagnostic.LevelError, r.Name(), "openapi version must be 3.x", v, "openapi")}
		}
		return nil
	}
	return []diagnostic.Semantic{finding(diagnostic.LevelError, "missing-version", "document must declare swagger or openapi version", in.Root)}
}

// InfoRule requires info.title and info.version.
type InfoRule struct{}

func (r *InfoRule) Name() string { return "missing-info" }

func (r *InfoRule) Check(in *Input) []diagnostic.Semantic {
	if !document.IsMapping(in.Root) {
		return nil
	}
	k, info := document.Lookup(in.Root, "info")
	if k == nil || !document.IsMapping(info) {
		return []diagnostic.Semantic{finding(diagnostic.LevelError, r.Name(), "info object is required", in.Root, "info")}
	}
	var out []diagnostic.Semantic
	for _, field := range []string{"title", "version"} {
		if _, v := document.Lookup(info, field); document.ScalarString(v) == "" {
			out = append(out, finding(diagnostic.LevelError, "missing-info-"+field, "info."+field+" is required", k, "info", field))
		}
	}
	return out
}

// PathsRule checks the shape of the paths section and its keys.
type PathsRule struct{}

func (r *PathsRule) Name() string { return "invalid-paths" }

func (r *PathsRule) Check(in *Input) []diagnostic.Semantic {
	if !document.IsMapping(in.Root) {
		return nil
	}
	k, paths := document.Lookup(in.Root, "paths")
	if k == nil {
		return []diagnostic.Semantic{finding(diagnostic.LevelError, "missing-paths", "paths object is required", in.Root, "paths")}
	}
	if paths.Tag == "!!null" {
		return []diagnostic.Semantic{finding(diagnostic.LevelWarning, "no-paths", "document defines no paths", k, "paths")}
	}
	if !document.IsMapping(paths) {
		return []diagnostic.Semantic{finding(diagnostic.LevelError, r.Name(), "paths must be an object", paths, "paths")}
	}
	pairs := document.Pairs(paths)
	if len(pairs) == 0 {
		return []diagnostic.Semantic{finding(diagnostic.LevelWarning, "no-paths", "document defines no paths", k, "paths")}
	}
	var out []diagnostic.Semantic
	for _, p := range pairs {
		name := p.Key.Value
		if strings.HasPrefix(name, "x-") {
			continue
		}
		if !strings.HasPrefix(name, "/") {
			out = append(out, finding(diagnostic.LevelError, "invalid-path-key", "path must begin with /", p.Key, "paths", name))
			continue
		}
		if !document.IsMapping(p.Value) && p.Value.Tag != "!!null" {
			out = append(out, finding(diagnostic.LevelError, r.Name(), "path item must be an object", p.Value, "paths", name))
		}
	}
	return out
}

var pathItemKeys = map[string]bool{
	"parameters": true, "$ref": true, "summary": true, "description": true, "servers": true,
}

var responseCodeRe = regexp.MustCompile(`^([1-5][0-9][0-9]|[1-5]XX|default)$`)

// OperationRule checks every operation: responses present and valid, unique operationId.
type OperationRule struct{}

func (r *OperationRule) Name() string { return "invalid-operation" }

func (r *OperationRule) Check(in *Input) []diagnostic.Semantic {
	if !document.IsMapping(in.Root) {
		return nil
	}
	_, paths := document.Lookup(in.Root, "paths")
	seenIDs := map[string]string{}
	var out []diagnostic.Semantic
	for _, p := range document.Pairs(paths) {
		if !strings.HasPrefix(p.Key.Value, "/") {
			continue
		}
		for _, e := range document.Pairs(p.Value) {
			name := e.Key.Value
			at := []string{"paths", p.Key.Value, name}
			if strings.HasPrefix(name, "x-") || pathItemKeys[name] {
				continue
			}
			if !document.HTTPMethods[name] {
				out = append(out, finding(diagnostic.LevelWarning, "unknown-path-item-key", "unexpected key "+name+" in path item", e.Key, at...))
				continue
			}
			if !document.IsMapping(e.Value) {
				out = append(out, finding(diagnostic.LevelError, r.Name(), "operation must be an object", e.Key, at...))
				continue
			}
			out = append(out, checkResponses(e, at)...)

			if _, idNode := document.Lookup(e.Value, "operationId"); idNode != nil {
				id := document.ScalarString(idNode)
				if prev, dup := seenIDs[id]; dup && id != "" {
					out = append(out, finding(diagnostic.LevelError, "duplicate-operation-id",
						"operationId "+id+" is already used by "+prev, idNode, append(at, "operationId")...))
				} else {
					seenIDs[id] = p.Key.Value + " " + name
				}
			}
		}
	}
	return out
}

func checkResponses(op document.MappingPair, at []string) []diagnostic.Semantic {
	k, responses := document.Lookup(op.Value, "responses")
	if k == nil || len(document.Pairs(responses)) == 0 {
		return []diagnostic.Semantic{finding(diagnostic.LevelError, "missing-responses", "operation must define at least one response", op.Key, at...)}
	}
	var out []diagnostic.Semantic
	for _, resp := range document.Pairs(responses) {
		code := resp.Key.Value
		if strings.HasPrefix(code, "x-") {
			continue
		}
		if !responseCodeRe.MatchString(code) {
			out = append(out, finding(diagnostic.LevelError, "invalid-response-code",
				"response code "+code+" is not a valid HTTP status", resp.Key, append(at, "responses", code)...))
		}
	}
	return out
}

// TagRule warns about operation tags missing from a declared top-level tags list.
type TagRule struct{}

func (r *TagRule) Name() string { return "undeclared-tag" }

func (r *TagRule) Check(in *Input) []diagnostic.Semantic {
	if !document.IsMapping(in.Root) {
		return nil
	}
	_, tags := document.Lookup(in.Root, "tags")
	if tags == nil || tags.Kind != yaml.SequenceNode {
		return nil
	}
	declared := map[string]bool{}
	for _, item := range tags.Content {
		_, name := document.Lookup(item, "name")
		declared[document.ScalarString(name)] = true
	}

	_, paths := document.Lookup(in.Root, "paths")
	var out []diagnostic.Semantic
	for _, p := range document.Pairs(paths) {
		for _, e := range document.Pairs(p.Value) {
			if !document.HTTPMethods[e.Key.Value] {
				continue
			}
			_, opTags := document.Lookup(e.Value, "tags")
			if opTags == nil || opTags.Kind != yaml.SequenceNode {
				continue
			}
			for _, t := range opTags.Content {
				name := document.ScalarString(t)
				if name != "" && !declared[name] {
					out = append(out, finding(diagnostic.LevelWarning, r.Name(),
						"tag "+name+" is not declared in the top-level tags list", t, "paths", p.Key.Value, e.Key.Value, "tags"))
				}
			}
		}
	}
	return out
}
