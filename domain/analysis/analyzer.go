// Package analysis classifies a question to steer answer generation.
package analysis

import "strings"

// Topic is the broad subject of a question
type Topic string

const (
	TopicProgramming Topic = "programming"
	TopicBoolean     Topic = "boolean"
	TopicMath        Topic = "math"
	TopicTheory      Topic = "theory"
)

// Analysis is the result of classifying a question. Structure is advisory:
// it shapes the generation prompt and is never enforced on the answer.
type Analysis struct {
	Topic           Topic    `json:"topic"`
	Language        string   `json:"language,omitempty"`
	Constraints     []string `json:"constraints"`
	RequiresDiagram bool     `json:"requiresDiagram"`
	Structure       []string `json:"structure"`
}

var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicProgramming, []string{"program", "code", "write a", "algorithm"}},
	{TopicBoolean, []string{"truth table", "boolean", "gate", "circuit", "logic"}},
	{TopicMath, []string{"simplify", "equation", "solve", "derive"}},
}

// Checked in order; "javascript" must win over "java".
var languageKeywords = []struct {
	language string
	keywords []string
}{
	{"javascript", []string{"javascript", "node.js", "nodejs"}},
	{"typescript", []string{"typescript"}},
	{"java", []string{"java"}},
	{"python", []string{"python"}},
	{"cpp", []string{"c++"}},
	{"csharp", []string{"c#"}},
	{"go", []string{"golang"}},
	{"c", []string{"c language", "in c ", "c program"}},
}

var constraintKeywords = []string{
	"without if",
	"without loop",
	"without ternary",
	"without using",
	"using switch",
	"using recursion",
	"using array",
	"using operator",
}

var diagramKeywords = []string{
	"diagram",
	"flowchart",
	"logic circuit",
	"circuit diagram",
}

var structures = map[Topic][]string{
	TopicProgramming: {"Overview", "Code Implementation", "Sample I/O", "Summary"},
	TopicBoolean:     {"Overview", "Truth Table", "Simplified Expression", "Diagram", "Summary"},
	TopicMath:        {"Concept", "Steps", "Final Answer", "Summary"},
	TopicTheory:      {"Overview", "Explanation", "Summary"},
}

// Analyze classifies a question by case-insensitive keyword matching.
// It is deterministic and never fails.
func Analyze(question string) Analysis {
	lower := strings.ToLower(question)
	topic := DetectTopic(question)

	constraints := []string{}
	for _, c := range constraintKeywords {
		if strings.Contains(lower, c) {
			constraints = append(constraints, c)
		}
	}

	return Analysis{
		Topic:           topic,
		Language:        DetectLanguage(question),
		Constraints:     constraints,
		RequiresDiagram: containsAny(lower, diagramKeywords),
		Structure:       Structure(topic),
	}
}

// DetectTopic returns the first topic whose keywords occur in the question,
// falling back to theory
func DetectTopic(question string) Topic {
	lower := strings.ToLower(question)
	for _, t := range topicKeywords {
		if containsAny(lower, t.keywords) {
			return t.topic
		}
	}
	return TopicTheory
}

// DetectLanguage returns the programming language named in the question, or ""
func DetectLanguage(question string) string {
	lower := strings.ToLower(question) + " "
	for _, l := range languageKeywords {
		if containsAny(lower, l.keywords) {
			return l.language
		}
	}
	return ""
}

// Structure returns the suggested section names for a topic
func Structure(topic Topic) []string {
	s, ok := structures[topic]
	if !ok {
		s = structures[TopicTheory]
	}
	return append([]string(nil), s...)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
