package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Diagram parse errors
var (
	ErrDiagramNotObject = errors.New("diagram JSON is not an object")
	ErrMissingNodes     = errors.New("diagram JSON has no nodes array")
	ErrMissingEdges     = errors.New("diagram JSON has no edges array")
)

// DiagramPosition is an advisory layout hint
type DiagramPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DiagramNodeData carries the node label
type DiagramNodeData struct {
	Label string `json:"label"`
}

// DiagramNode is a gate, input or output in a logic diagram
type DiagramNode struct {
	ID       string          `json:"id"`
	Type     string          `json:"type,omitempty"`
	Data     DiagramNodeData `json:"data"`
	Position DiagramPosition `json:"position"`
}

// Kind classifies the node by its label
func (n DiagramNode) Kind() NodeKind {
	return ClassifyLabel(n.Data.Label)
}

// DiagramEdge is a directed wire between two nodes
type DiagramEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// DiagramGraph is a logic-circuit diagram embedded in an answer
type DiagramGraph struct {
	Nodes []DiagramNode `json:"nodes"`
	Edges []DiagramEdge `json:"edges"`
}

// Renderable reports whether the graph has something to draw.
// Graphs with no nodes or no edges are shown as a "no diagram data" placeholder.
func (g *DiagramGraph) Renderable() bool {
	return g != nil && len(g.Nodes) > 0 && len(g.Edges) > 0
}

// DanglingEdges returns edges whose source or target is not a node in the graph.
// Such edges are kept in the graph; callers decide whether to report them.
func (g *DiagramGraph) DanglingEdges() []DiagramEdge {
	if g == nil {
		return nil
	}

	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}

	var dangling []DiagramEdge
	for _, e := range g.Edges {
		_, okSource := ids[e.Source]
		_, okTarget := ids[e.Target]
		if !okSource || !okTarget {
			dangling = append(dangling, e)
		}
	}
	return dangling
}

// NodeKind is the role a node label plays in a logic diagram
type NodeKind string

const (
	NodeKindInput   NodeKind = "input"
	NodeKindOutput  NodeKind = "output"
	NodeKindAnd     NodeKind = "and"
	NodeKindOr      NodeKind = "or"
	NodeKindXor     NodeKind = "xor"
	NodeKindNot     NodeKind = "not"
	NodeKindNand    NodeKind = "nand"
	NodeKindNor     NodeKind = "nor"
	NodeKindUnknown NodeKind = "unknown"
)

// ClassifyLabel maps a node label to its kind. Reserved tags are matched
// case-insensitively; "F" is the conventional output signal and any other
// single letter is an input signal.
func ClassifyLabel(label string) NodeKind {
	l := strings.ToUpper(strings.TrimSpace(label))
	switch l {
	case "OUTPUT", "F":
		return NodeKindOutput
	case "INPUT":
		return NodeKindInput
	case "AND":
		return NodeKindAnd
	case "OR":
		return NodeKindOr
	case "XOR":
		return NodeKindXor
	case "NOT":
		return NodeKindNot
	case "NAND":
		return NodeKindNand
	case "NOR":
		return NodeKindNor
	}
	if len(l) == 1 && l[0] >= 'A' && l[0] <= 'Z' {
		return NodeKindInput
	}
	return NodeKindUnknown
}

// DiagramCandidate is a json fenced block considered for promotion to a diagram.
// Start and End are byte offsets of the whole fenced block in the source text.
type DiagramCandidate struct {
	RawJSON string
	Start   int
	End     int
	Graph   *DiagramGraph
	Err     error
}

// Valid reports whether the candidate parsed into a diagram
func (c DiagramCandidate) Valid() bool {
	return c.Graph != nil
}

// ExtractDiagrams finds every closed top-level ```json block in text and
// tries to parse it as a diagram. Blocks that fail to parse are returned with
// a nil Graph and the reason in Err. Candidates never overlap and are in
// document order. An unterminated fence ends the scan.
func ExtractDiagrams(text string) []DiagramCandidate {
	var candidates []DiagramCandidate
	for _, f := range TopLevel(ScanFences(text)) {
		if !f.Closed {
			break
		}
		if f.Lang != "json" {
			continue
		}

		raw := strings.TrimSpace(f.Content(text))
		graph, err := ParseDiagram(raw)
		candidates = append(candidates, DiagramCandidate{
			RawJSON: raw,
			Start:   f.Start,
			End:     f.End,
			Graph:   graph,
			Err:     err,
		})
	}
	return candidates
}

// ParseDiagram decodes raw JSON into a graph. The value must be an object
// with both a nodes array and an edges array; either may be empty.
func ParseDiagram(raw string) (*DiagramGraph, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiagramNotObject, err)
	}
	if fields == nil {
		return nil, ErrDiagramNotObject
	}
	if !isJSONArray(fields["nodes"]) {
		return nil, ErrMissingNodes
	}
	if !isJSONArray(fields["edges"]) {
		return nil, ErrMissingEdges
	}

	graph := &DiagramGraph{}
	if err := json.Unmarshal(fields["nodes"], &graph.Nodes); err != nil {
		return nil, fmt.Errorf("invalid diagram nodes: %w", err)
	}
	if err := json.Unmarshal(fields["edges"], &graph.Edges); err != nil {
		return nil, fmt.Errorf("invalid diagram edges: %w", err)
	}
	if graph.Nodes == nil {
		graph.Nodes = []DiagramNode{}
	}
	if graph.Edges == nil {
		graph.Edges = []DiagramEdge{}
	}
	return graph, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
