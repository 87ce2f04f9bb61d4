package diagnostic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstStructural(t *testing.T) {
	payload := YAMLError{Message: "mapping values are not allowed in this context", Line: 4}

	got, ok := FirstStructural([]Diagnostic{Structural{YAMLError: payload}, Semantic{Message: "x"}})
	require.True(t, ok)
	assert.Equal(t, payload, got)

	_, ok = FirstStructural([]Diagnostic{Semantic{Message: "x"}, Structural{YAMLError: payload}})
	assert.False(t, ok, "only the first entry decides")

	_, ok = FirstStructural(nil)
	assert.False(t, ok)
}

func TestSummary(t *testing.T) {
	s := Semantic{Code: "missing-responses", Message: "operation has no responses", Path: []string{"paths", "/pets", "get"}}
	assert.Equal(t, "missing-responses: operation has no responses (at paths./pets.get)", s.Summary())

	st := Structural{YAMLError: YAMLError{Message: "did not find expected key", Line: 7}}
	assert.Equal(t, "line 7: did not find expected key", st.Summary())
	line, col := st.Position()
	assert.Equal(t, 7, line)
	assert.Equal(t, 0, col)
}

func TestMarshalJSON_Discriminator(t *testing.T) {
	ds := []Diagnostic{
		Structural{YAMLError: YAMLError{Message: "bad indent", Line: 2}},
		Semantic{Code: "duplicate-operation-id", Message: "dup", Level: LevelError, Line: 9},
	}
	raw, err := json.Marshal(ds)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "structural", decoded[0]["type"])
	assert.Equal(t, "bad indent", decoded[0]["yamlError"].(map[string]any)["message"])
	assert.Equal(t, "semantic", decoded[1]["type"])
	assert.Equal(t, "duplicate-operation-id", decoded[1]["code"])
}
