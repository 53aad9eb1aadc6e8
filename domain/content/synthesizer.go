package content

import (
	"errors"
	"regexp"
	"strings"

	"knowspark/domain/core/entities"
)

// ErrEmptyCompletion is returned when the completion has no usable text
var ErrEmptyCompletion = errors.New("empty completion")

var (
	headingPattern        = regexp.MustCompile(`^[ \t]{0,3}#{1,6}[ \t]+(.+?)[ \t]*$`)
	headingClosingPattern = regexp.MustCompile(`(^|[ \t]+)#+$`)
)

// Synthesize turns one raw completion into an answer with a single Overview
// section. The title is the first markdown heading of the body, or the
// question when the body has none. Blank completions fail with
// ErrEmptyCompletion.
func Synthesize(question, completion string) (*entities.Answer, error) {
	raw := strings.TrimSpace(completion)
	if raw == "" {
		return nil, ErrEmptyCompletion
	}

	body := ExtractBody(raw)
	if body == "" {
		return nil, ErrEmptyCompletion
	}

	title := ExtractTitle(body)
	if title == "" {
		title = strings.TrimSpace(question)
	}

	return entities.NewAnswer(title, []entities.Section{
		{Name: entities.SectionOverview, Content: body},
	})
}

// ExtractBody picks the answer body out of a completion. The inner content
// of the first ```markdown block wins; nested fences inside it are matched
// before its closing marker. Without one, the first untagged block is used,
// and failing that the whole text. The result is trimmed.
func ExtractBody(text string) string {
	fences := ScanFences(text)

	for _, f := range fences {
		if f.Lang == "markdown" || f.Lang == "md" {
			return strings.TrimSpace(f.Content(text))
		}
	}

	for _, f := range fences {
		if f.Depth == 0 && f.Closed && f.Info == "" {
			return strings.TrimSpace(f.Content(text))
		}
	}

	return strings.TrimSpace(text)
}

// ExtractTitle returns the text of the first ATX heading outside fenced
// code, or "" when there is none
func ExtractTitle(body string) string {
	for _, r := range proseRanges(body, ScanFences(body)) {
		for _, line := range strings.Split(body[r[0]:r[1]], "\n") {
			m := headingPattern.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
			if m == nil {
				continue
			}
			title := strings.TrimSpace(headingClosingPattern.ReplaceAllString(m[1], ""))
			if title != "" {
				return title
			}
		}
	}
	return ""
}
