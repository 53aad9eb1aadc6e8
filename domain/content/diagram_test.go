package content_test

import (
	"strings"
	"testing"

	"knowspark/domain/content"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const halfAdderJSON = `{"nodes":[{"id":"a","data":{"label":"A"},"position":{"x":0,"y":0}},{"id":"g","type":"gate","data":{"label":"XOR"},"position":{"x":100,"y":0}}],"edges":[{"id":"e1","source":"a","target":"g"}]}`

func TestExtractDiagrams_ValidAndMalformed(t *testing.T) {
	text := "Intro\n```json\n" + halfAdderJSON + "\n```\nmiddle\n```json\n{\"nodes\": [\n```\nend"

	candidates := content.ExtractDiagrams(text)

	require.Len(t, candidates, 2)

	first := candidates[0]
	require.True(t, first.Valid())
	assert.NoError(t, first.Err)
	assert.Equal(t, halfAdderJSON, first.RawJSON)
	require.Len(t, first.Graph.Nodes, 2)
	assert.Equal(t, "gate", first.Graph.Nodes[1].Type)
	assert.Equal(t, content.NodeKindXor, first.Graph.Nodes[1].Kind())
	require.Len(t, first.Graph.Edges, 1)
	assert.Equal(t, "g", first.Graph.Edges[0].Target)
	assert.True(t, strings.HasPrefix(text[first.Start:first.End], "```json"))
	assert.True(t, strings.HasSuffix(text[first.Start:first.End], "```"))

	second := candidates[1]
	assert.False(t, second.Valid())
	assert.Error(t, second.Err)
	assert.Greater(t, second.Start, first.End)
}

func TestExtractDiagrams_SkipsNonJSONAndNestedBlocks(t *testing.T) {
	text := "```python\nprint(1)\n```\n```markdown\n```json\n" + halfAdderJSON + "\n```\n```"

	assert.Empty(t, content.ExtractDiagrams(text))
}

func TestExtractDiagrams_StopsAtUnterminatedFence(t *testing.T) {
	text := "```json\n" + halfAdderJSON + "\n```\n```json\n{\"nodes\":[],\"edges\":[]}"

	candidates := content.ExtractDiagrams(text)

	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Valid())
}

func TestParseDiagram(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantErr   error
		wantNodes int
		wantEdges int
	}{
		{name: "full graph", raw: halfAdderJSON, wantNodes: 2, wantEdges: 1},
		{name: "empty arrays", raw: `{"nodes":[],"edges":[]}`},
		{name: "missing edges", raw: `{"nodes":[]}`, wantErr: content.ErrMissingEdges},
		{name: "missing nodes", raw: `{"edges":[]}`, wantErr: content.ErrMissingNodes},
		{name: "nodes not an array", raw: `{"nodes":{},"edges":[]}`, wantErr: content.ErrMissingNodes},
		{name: "array at top level", raw: `[1,2]`, wantErr: content.ErrDiagramNotObject},
		{name: "null", raw: `null`, wantErr: content.ErrDiagramNotObject},
		{name: "not json", raw: `nodes: []`, wantErr: content.ErrDiagramNotObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := content.ParseDiagram(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, graph)
				return
			}
			require.NoError(t, err)
			assert.Len(t, graph.Nodes, tt.wantNodes)
			assert.Len(t, graph.Edges, tt.wantEdges)
			assert.NotNil(t, graph.Nodes)
			assert.NotNil(t, graph.Edges)
		})
	}
}

func TestDiagramGraph_Renderable(t *testing.T) {
	full, err := content.ParseDiagram(halfAdderJSON)
	require.NoError(t, err)
	assert.True(t, full.Renderable())

	noEdges, err := content.ParseDiagram(`{"nodes":[{"id":"a","data":{"label":"A"},"position":{"x":0,"y":0}}],"edges":[]}`)
	require.NoError(t, err)
	assert.False(t, noEdges.Renderable())

	var nilGraph *content.DiagramGraph
	assert.False(t, nilGraph.Renderable())
}

func TestDiagramGraph_DanglingEdges(t *testing.T) {
	graph, err := content.ParseDiagram(`{"nodes":[{"id":"a","data":{"label":"A"},"position":{"x":0,"y":0}}],"edges":[{"id":"e1","source":"a","target":"missing"},{"id":"e2","source":"a","target":"a"}]}`)
	require.NoError(t, err)

	dangling := graph.DanglingEdges()

	require.Len(t, dangling, 1)
	assert.Equal(t, "e1", dangling[0].ID)
	assert.Len(t, graph.Edges, 2)
}

func TestClassifyLabel(t *testing.T) {
	tests := []struct {
		label    string
		expected content.NodeKind
	}{
		{"A", content.NodeKindInput},
		{"b", content.NodeKindInput},
		{"INPUT", content.NodeKindInput},
		{"F", content.NodeKindOutput},
		{"output", content.NodeKindOutput},
		{"AND", content.NodeKindAnd},
		{"or", content.NodeKindOr},
		{"Xor", content.NodeKindXor},
		{"NOT", content.NodeKindNot},
		{"NAND", content.NodeKindNand},
		{"NOR", content.NodeKindNor},
		{"Sum", content.NodeKindUnknown},
		{"", content.NodeKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, content.ClassifyLabel(tt.label))
		})
	}
}
