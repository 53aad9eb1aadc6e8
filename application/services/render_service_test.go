package services

import (
	"testing"

	"knowspark/domain/content"
	"knowspark/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type diagramCounter map[string]int

func (c diagramCounter) ObserveDiagram(result string) { c[result]++ }

const circuit = "```json\n" +
	`{"nodes":[{"id":"a","data":{"label":"A"}},{"id":"f","data":{"label":"F"}}],"edges":[{"id":"e1","source":"a","target":"f"}]}` +
	"\n```"

func TestRenderService_RenderText(t *testing.T) {
	counter := diagramCounter{}
	svc := NewRenderService(counter, zap.NewNop())

	text := "Intro\n\n" + circuit + "\n\nEmpty one:\n\n```json\n{\"nodes\":[],\"edges\":[]}\n```\n\nBroken:\n\n```json\n{\"nodes\":[1,2]\n```\n\nDone"
	segments := svc.RenderText(text)

	kinds := make([]content.SegmentKind, 0, len(segments))
	for _, s := range segments {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []content.SegmentKind{
		content.SegmentMarkdown,
		content.SegmentDiagram,
		content.SegmentMarkdown,
		content.SegmentDiagram,
		content.SegmentMarkdown,
	}, kinds)

	assert.False(t, segments[1].Placeholder)
	assert.Len(t, segments[1].Graph.Nodes, 2)
	assert.True(t, segments[3].Placeholder)
	assert.Contains(t, segments[4].Text, `{"nodes":[1,2]`)

	assert.Equal(t, diagramCounter{DiagramRendered: 1, DiagramPlaceholder: 1, DiagramInvalid: 1}, counter)
}

func TestRenderService_RenderAnswer(t *testing.T) {
	svc := NewRenderService(nil, zap.NewNop())

	assert.Empty(t, svc.RenderAnswer(nil))

	answer := entities.NewErrorAnswer("Error: boom", CompletionFailureDetails)
	rendered := svc.RenderAnswer(answer)
	require.Len(t, rendered, 2)
	assert.Equal(t, entities.SectionError, rendered[0].Name)
	assert.Equal(t, entities.SectionDetails, rendered[1].Name)
	require.Len(t, rendered[0].Segments, 1)
	assert.Equal(t, "Error: boom", rendered[0].Segments[0].Text)
}
