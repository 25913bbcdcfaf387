package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
metadata:
  name: greeter
  version: "1.0"
  observability:
    enabled: true
workflow:
  - id: s1
    type: llm
    config:
      provider: anthropic
    result: out
  - id: s2
    type: output-generator
    config:
      template:
        text: "$stepResult.out.text"
return:
  ok: true
`

func TestParseValidManifest(t *testing.T) {
	m, err := Parse([]byte(validYAML), "test.yaml")
	require.NoError(t, err)
	assert.Equal(t, "greeter", m.Metadata.Name)
	assert.True(t, m.Metadata.ObservabilityEnabled())
	require.Len(t, m.Workflow, 2)
	assert.Equal(t, "s1", m.Workflow[0].ID)
	assert.Equal(t, "out", m.Workflow[0].Result)
}

func TestParseObservabilityAsString(t *testing.T) {
	src := `
metadata:
  name: x
  version: "1"
  observability:
    enabled: "true"
workflow:
  - id: s1
    type: llm
`
	m, err := Parse([]byte(src), "test.yaml")
	require.NoError(t, err)
	assert.True(t, m.Metadata.ObservabilityEnabled())
}

func TestParseRejectsEmptyWorkflow(t *testing.T) {
	src := `
metadata:
  name: x
  version: "1"
workflow: []
`
	_, err := Parse([]byte(src), "test.yaml")
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	src := `
metadata:
  name: x
  version: "1"
workflow:
  - id: s1
    type: llm
  - id: s1
    type: output-generator
`
	_, err := Parse([]byte(src), "test.yaml")
	require.Error(t, err)
}

func TestParseRejectsMissingType(t *testing.T) {
	src := `
metadata:
  name: x
  version: "1"
workflow:
  - id: s1
    type: ""
`
	_, err := Parse([]byte(src), "test.yaml")
	require.Error(t, err)
}

func TestParseRejectsNonMappingDocument(t *testing.T) {
	_, err := Parse([]byte("- just\n- a\n- list\n"), "test.yaml")
	require.Error(t, err)
}

func TestParseRejectsUnsafeTag(t *testing.T) {
	src := "metadata: !!python/object:os.system {}\nworkflow: []\n"
	_, err := Parse([]byte(src), "test.yaml")
	require.Error(t, err)
}
