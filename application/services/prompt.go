package services

import (
	"fmt"
	"strings"

	"knowspark/domain/analysis"
)

const fence = "```"

const formattingRules = `You are a Markdown content generator for an educational web app that teaches programming, logic and Boolean algebra.

Formatting Rules:

1. **All math must be written in LaTeX syntax inside math mode.**
   - Inline math: $E = mc^2$
   - Block math:
     $$
     F = \overline{A}\overline{B}C + ABC'
     $$

2. Use correct LaTeX commands:
   - Sigma: \Sigma
   - Pi: \Pi
   - Multiplication / AND: \cdot
   - NOT / complement: \overline{}

3. Always wrap the entire answer inside a markdown code block (see the example).

4. Do **not** use words like "Sigma" or "Pi" - always use LaTeX symbols.

5. Use proper Markdown tables (| A | B | C | F |).

6. Include equations and expressions using double-dollar blocks for readability.

7. Start the answer with a single level-one heading that names the topic.
`

const exampleBody = `### Example Boolean Function

| A | B | C | F |
|:-:|:-:|:-:|:-:|
| 0 | 0 | 0 | 1 |
| 0 | 0 | 1 | 0 |
| 1 | 1 | 1 | 1 |

$$
F(A,B,C) = \Sigma m(0,2,5,7)
$$

$$
F(A,B,C) = \Pi M(1,3,4,6)
$$`

const diagramExample = `{
  "nodes": [
    {"id": "a", "data": {"label": "A"}, "position": {"x": 0, "y": 0}},
    {"id": "b", "data": {"label": "B"}, "position": {"x": 0, "y": 100}},
    {"id": "g1", "type": "gate", "data": {"label": "AND"}, "position": {"x": 200, "y": 50}},
    {"id": "f", "data": {"label": "F"}, "position": {"x": 400, "y": 50}}
  ],
  "edges": [
    {"id": "e1", "source": "a", "target": "g1"},
    {"id": "e2", "source": "b", "target": "g1"},
    {"id": "e3", "source": "g1", "target": "f"}
  ]
}`

// BuildPrompt assembles the generation prompt for question. The analysis
// adds section, language, constraint and diagram instructions.
func BuildPrompt(question string, a analysis.Analysis) string {
	var b strings.Builder

	b.WriteString(formattingRules)

	b.WriteString("\nAnswer Structure:\n\n")
	if len(a.Structure) > 0 {
		b.WriteString("Organize the answer with these level-two sections, in order: ")
		b.WriteString(strings.Join(a.Structure, ", "))
		b.WriteString(".\n")
	}

	switch a.Topic {
	case analysis.TopicProgramming:
		lang := a.Language
		if lang == "" {
			lang = "the most suitable language"
		}
		fmt.Fprintf(&b, "Write complete, runnable code in %s inside a fenced code block tagged with the language name.\n", lang)
		b.WriteString("Show sample input and output as a separate code block.\n")
	case analysis.TopicBoolean:
		b.WriteString("Give the full truth table, the canonical forms and the simplified expression.\n")
	case analysis.TopicMath:
		b.WriteString("Number every step and put the final result in its own block equation.\n")
	}

	if len(a.Constraints) > 0 {
		b.WriteString("The solution must respect these constraints exactly: ")
		b.WriteString(strings.Join(a.Constraints, "; "))
		b.WriteString(".\n")
	}

	if a.RequiresDiagram {
		b.WriteString("\nInclude the diagram as a fenced block tagged json inside the markdown block, with exactly this shape:\n\n")
		b.WriteString(fence + "json\n" + diagramExample + "\n" + fence + "\n\n")
		b.WriteString("Use labels such as A, B, C for inputs, AND, OR, NOT, NAND, NOR, XOR for gates and F or OUTPUT for outputs. Every edge must reference existing node ids.\n")
	}

	b.WriteString("\nExample:\n\n")
	b.WriteString(fence + "markdown\n" + exampleBody + "\n" + fence + "\n")

	b.WriteString("\nNow generate your answer for:\n\n")
	b.WriteString(strings.TrimSpace(question))

	return b.String()
}
