package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/specpreview/internal/diagnostic"
	"git.home.luguber.info/inful/specpreview/internal/document"
)

const validDoc = `swagger: "2.0"
info:
  title: Petstore
  version: 1.0.0
tags:
  - name: pets
paths:
  /pets:
    get:
      tags: [pets, admin]
      operationId: listPets
      responses:
        "200":
          description: ok
`

func codes(ds []diagnostic.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		switch v := d.(type) {
		case diagnostic.Semantic:
			out = append(out, v.Code)
		case diagnostic.Structural:
			out = append(out, "structural")
		}
	}
	return out
}

func TestLocal_SuccessWithWarnings(t *testing.T) {
	out := NewLocal().Build(context.Background(), validDoc)

	success, ok := out.(document.Success)
	require.True(t, ok, "expected success, got %T", out)
	require.NotNil(t, success.Spec)
	assert.Equal(t, "Petstore", success.Spec.Title)
	assert.Empty(t, success.Errors)
	assert.Equal(t, []string{"undeclared-tag"}, codes(success.Warnings))

	w := success.Warnings[0].(diagnostic.Semantic)
	assert.Equal(t, diagnostic.LevelWarning, w.Level)
	assert.Equal(t, 10, w.Line)
}

func TestLocal_StructuralFailure(t *testing.T) {
	out := NewLocal().Build(context.Background(), "swagger: \"2.0\"\ninfo:\n  title: x\n version: 1\n")

	failure, ok := out.(document.Failure)
	require.True(t, ok)
	assert.Nil(t, failure.Spec)
	require.Len(t, failure.Errors, 1)
	structural, ok := failure.Errors[0].(diagnostic.Structural)
	require.True(t, ok)
	assert.Positive(t, structural.YAMLError.Line)
	assert.NotEmpty(t, structural.YAMLError.Message)
	assert.NotContains(t, structural.YAMLError.Message, "yaml: line")
}

func TestLocal_SemanticFailure(t *testing.T) {
	doc := `swagger: "2.0"
info:
  title: Petstore
paths:
  pets:
    get: {}
  /owners:
    get:
      operationId: dup
      responses:
        "200": {description: ok}
    post:
      operationId: dup
      responses:
        "99": {description: nope}
    frobnicate: {}
`
	out := NewLocal().Build(context.Background(), doc)

	failure, ok := out.(document.Failure)
	require.True(t, ok)
	assert.Nil(t, failure.Spec)
	assert.ElementsMatch(t,
		[]string{"missing-info-version", "invalid-path-key", "invalid-response-code", "duplicate-operation-id"},
		codes(failure.Errors))
	assert.Equal(t, []string{"unknown-path-item-key"}, codes(failure.Warnings))
}

func TestLocal_EmptyAndNonObjectDocuments(t *testing.T) {
	out := NewLocal().Build(context.Background(), "")
	failure, ok := out.(document.Failure)
	require.True(t, ok)
	assert.Equal(t, []string{"empty-document"}, codes(failure.Errors))

	out = NewLocal().Build(context.Background(), "- a\n- b\n")
	failure, ok = out.(document.Failure)
	require.True(t, ok)
	assert.Equal(t, []string{"invalid-root"}, codes(failure.Errors))
}

func TestLocal_OpenAPI3(t *testing.T) {
	doc := "openapi: 3.0.3\ninfo: {title: t, version: v}\npaths:\n  /a:\n    get:\n      responses:\n        2XX: {description: ok}\n"
	_, ok := NewLocal().Build(context.Background(), doc).(document.Success)
	assert.True(t, ok)

	doc = "openapi: 2.5\ninfo: {title: t, version: v}\npaths: {}\n"
	failure, ok := NewLocal().Build(context.Background(), doc).(document.Failure)
	require.True(t, ok)
	assert.Equal(t, []string{"unsupported-version"}, codes(failure.Errors))
}

func TestLocal_CanceledContextIsGeneralFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	failure, ok := NewLocal().Build(ctx, validDoc).(document.Failure)
	require.True(t, ok)
	assert.Nil(t, failure.Errors)
}

func TestFuncAdapter(t *testing.T) {
	var b Builder = Func(func(context.Context, string) document.Outcome {
		return document.Failure{}
	})
	_, ok := b.Build(context.Background(), "").(document.Failure)
	assert.True(t, ok)
}
