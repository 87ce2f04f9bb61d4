package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/specpreview/internal/document"
)

func petSpec() *document.Spec {
	return &document.Spec{
		Tags: []document.TagDef{{Name: "pets", Description: "Pet operations"}},
		Paths: []document.PathItem{
			{Name: "/pets", Entries: []document.Operation{
				{Name: "get", Tags: []string{"pets", "public"}},
				{Name: "post", Tags: []string{"pets", "admin"}},
				{Name: "parameters"},
			}},
		},
	}
}

func TestRegisterTagsFromSpecs(t *testing.T) {
	r := NewRegistry()
	r.RegisterTagsFromSpecs(petSpec())

	assert.Equal(t, []Tag{
		{Name: "pets", Description: "Pet operations"},
		{Name: "public"},
		{Name: "admin"},
	}, r.GetAllTags())
	assert.Equal(t, 0, r.TagIndexFor("pets"))
	assert.Equal(t, 2, r.TagIndexFor("admin"))
	assert.Equal(t, -1, r.TagIndexFor("store"))

	r.RegisterTagsFromSpecs(nil)
	assert.Len(t, r.GetAllTags(), 3, "nil spec keeps previous tags")

	r.RegisterTagsFromSpecs(&document.Spec{})
	assert.Empty(t, r.GetAllTags(), "a new spec replaces the set")
}

func TestSetCurrentTags(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.GetCurrentTags())

	r.SetCurrentTags([]string{" pets ", "", "pets", "admin"})
	assert.Equal(t, []string{"pets", "admin"}, r.GetCurrentTags())
	assert.True(t, r.Intersects([]string{"public", "admin"}))
	assert.False(t, r.Intersects([]string{"public"}))
	assert.False(t, r.Intersects(nil))

	r.SetCurrentTags(nil)
	assert.Empty(t, r.GetCurrentTags())
}

func TestNormalize_NFC(t *testing.T) {
	composed := "café"
	decomposed := "café"
	assert.Equal(t, Normalize(composed), Normalize(decomposed))

	r := NewRegistry()
	r.SetCurrentTags([]string{decomposed})
	assert.True(t, r.Intersects([]string{composed}))
}
