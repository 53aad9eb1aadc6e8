package content_test

import (
	"testing"

	"knowspark/domain/content"
	"knowspark/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_MarkdownBlockWithNestedDiagram(t *testing.T) {
	completion := "```markdown\n# Half Adder\nSome text\n```json\n{\"nodes\":[],\"edges\":[]}\n```\n```"

	answer, err := content.Synthesize("Explain a half adder", completion)

	require.NoError(t, err)
	assert.Equal(t, "Half Adder", answer.Title())
	sections := answer.Sections()
	require.Len(t, sections, 1)
	assert.Equal(t, entities.SectionOverview, sections[0].Name)
	assert.Equal(t, "# Half Adder\nSome text\n```json\n{\"nodes\":[],\"edges\":[]}\n```", sections[0].Content)
	assert.False(t, answer.IsError())
}

func TestSynthesize_TitleFallsBackToQuestion(t *testing.T) {
	answer, err := content.Synthesize("  What is TCP?  ", "TCP is a transport protocol.")

	require.NoError(t, err)
	assert.Equal(t, "What is TCP?", answer.Title())
	assert.Equal(t, "TCP is a transport protocol.", answer.Sections()[0].Content)
}

func TestSynthesize_EmptyCompletion(t *testing.T) {
	for _, completion := range []string{"", "   \n\t", "```markdown\n   \n```"} {
		answer, err := content.Synthesize("q", completion)
		assert.ErrorIs(t, err, content.ErrEmptyCompletion, "completion %q", completion)
		assert.Nil(t, answer)
	}
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "markdown block wins",
			text:     "preamble\n```markdown\n## Body\n```\ntrailer",
			expected: "## Body",
		},
		{
			name:     "md alias",
			text:     "```md\nshort\n```",
			expected: "short",
		},
		{
			name:     "untagged block fallback",
			text:     "Here:\n```\n# T\nbody\n```\nbye",
			expected: "# T\nbody",
		},
		{
			name:     "tagged code block is not a body",
			text:     "Use this:\n```python\nprint(1)\n```",
			expected: "Use this:\n```python\nprint(1)\n```",
		},
		{
			name:     "plain text",
			text:     "  plain answer \n",
			expected: "plain answer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, content.ExtractBody(tt.text))
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "h1", body: "# Title\ntext", expected: "Title"},
		{name: "h3 after prose", body: "intro\n### Deep  \nmore", expected: "Deep"},
		{name: "closing hashes", body: "## Closed ##", expected: "Closed"},
		{name: "hash inside word kept", body: "# Learn C#", expected: "Learn C#"},
		{name: "heading in code ignored", body: "```python\n# comment\n```\nText\n## Real", expected: "Real"},
		{name: "no space after hash", body: "#hashtag\nnothing", expected: ""},
		{name: "none", body: "just text", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, content.ExtractTitle(tt.body))
		})
	}
}
