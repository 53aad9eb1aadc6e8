package content

import (
	"regexp"
	"strconv"
	"strings"
)

const placeholderPrefix = "KSDIAGRAM"

// SegmentKind tags a ContentSegment
type SegmentKind string

const (
	SegmentMarkdown SegmentKind = "markdown"
	SegmentDiagram  SegmentKind = "diagram"
)

// ContentSegment is one ordered unit of renderable answer content
type ContentSegment struct {
	Kind SegmentKind `json:"kind"`

	// Text is repaired markdown for markdown segments
	Text string `json:"text,omitempty"`

	// Graph is set for diagram segments
	Graph *DiagramGraph `json:"graph,omitempty"`
	// Placeholder marks a diagram with no nodes or no edges
	Placeholder bool `json:"placeholder,omitempty"`
	// RawJSON is the diagram's JSON source, shown alongside a placeholder
	RawJSON string `json:"rawJson,omitempty"`

	// Source is the text this segment came from before repair. For diagrams
	// it is the whole fenced block.
	Source string `json:"-"`
}

// Segment splits text into markdown and diagram segments in document order.
// Each valid candidate's span is swapped for an inert placeholder and the
// runs between placeholders are repaired independently, so math never pairs
// across a diagram. Invalid candidates stay in the markdown as ordinary code
// blocks. Text with no valid diagram, blank text included, yields exactly one
// markdown segment.
func Segment(text string, candidates []DiagramCandidate) []ContentSegment {
	prefix := placeholderPrefixFor(text)

	var valid []DiagramCandidate
	lastEnd := 0
	for _, c := range candidates {
		if !c.Valid() || c.Start < lastEnd || c.End > len(text) || c.Start >= c.End {
			continue
		}
		valid = append(valid, c)
		lastEnd = c.End
	}

	if len(valid) == 0 {
		return []ContentSegment{{
			Kind:   SegmentMarkdown,
			Text:   strings.TrimSpace(RepairLatex(text)),
			Source: strings.TrimSpace(text),
		}}
	}

	// Back to front keeps earlier offsets valid.
	substituted := text
	for i := len(valid) - 1; i >= 0; i-- {
		c := valid[i]
		substituted = substituted[:c.Start] + placeholder(prefix, i) + substituted[c.End:]
	}

	pattern := regexp.MustCompile(prefix + `PH(\d+)END`)
	runs, indexes := splitOnPlaceholders(pattern, substituted)

	segments := make([]ContentSegment, 0, len(runs)+len(indexes))
	for i, run := range runs {
		if trimmed := strings.TrimSpace(RepairLatex(run)); trimmed != "" {
			segments = append(segments, ContentSegment{
				Kind:   SegmentMarkdown,
				Text:   trimmed,
				Source: strings.TrimSpace(run),
			})
		}
		if i < len(indexes) {
			c := valid[indexes[i]]
			segments = append(segments, ContentSegment{
				Kind:        SegmentDiagram,
				Graph:       c.Graph,
				Placeholder: !c.Graph.Renderable(),
				RawJSON:     c.RawJSON,
				Source:      text[c.Start:c.End],
			})
		}
	}
	return segments
}

// SegmentText extracts diagrams from text and segments it
func SegmentText(text string) ([]ContentSegment, []DiagramCandidate) {
	candidates := ExtractDiagrams(text)
	return Segment(text, candidates), candidates
}

// Reassemble joins the segments' original text with newlines, putting each
// diagram's fenced JSON back where it was.
func Reassemble(segments []ContentSegment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, s.Source)
	}
	return strings.Join(parts, "\n")
}

// splitOnPlaceholders returns the text runs around each placeholder and the
// candidate index each placeholder carries. There is always one more run
// than there are indexes.
func splitOnPlaceholders(pattern *regexp.Regexp, s string) ([]string, []int) {
	var runs []string
	var indexes []int
	pos := 0
	for _, m := range pattern.FindAllStringSubmatchIndex(s, -1) {
		idx, err := strconv.Atoi(s[m[2]:m[3]])
		if err != nil {
			continue
		}
		runs = append(runs, s[pos:m[0]])
		indexes = append(indexes, idx)
		pos = m[1]
	}
	runs = append(runs, s[pos:])
	return runs, indexes
}

// placeholderPrefixFor picks a prefix that does not already occur in text.
// Placeholders are letters and digits only so no repair rule touches them.
func placeholderPrefixFor(text string) string {
	prefix := placeholderPrefix
	for strings.Contains(text, prefix) {
		prefix += "X"
	}
	return prefix
}

func placeholder(prefix string, index int) string {
	return prefix + "PH" + strconv.Itoa(index) + "END"
}
