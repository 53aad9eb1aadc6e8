package entities

import (
	"bytes"
	"encoding/json"
	"fmt"

	"knowspark/domain/core/valueobjects"
	pkgerrors "knowspark/pkg/errors"
)

// Well-known section names
const (
	SectionOverview = "Overview"
	SectionError    = "Error"
	SectionDetails  = "Details"

	// ErrorAnswerTitle is the title every error answer carries
	ErrorAnswerTitle = "Error"
)

// Section is one named block of markdown inside an answer
type Section struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Answer is the generated response to a question.
// It is immutable; regenerating a question replaces the whole answer.
type Answer struct {
	id       string
	title    string
	sections []Section
}

// NewAnswer creates an answer with a fresh ID. At least one section is required.
func NewAnswer(title string, sections []Section) (*Answer, error) {
	if len(sections) == 0 {
		return nil, pkgerrors.NewValidationError("answer must have at least one section")
	}
	return &Answer{
		id:       valueobjects.NewAnswerID(),
		title:    title,
		sections: append([]Section(nil), sections...),
	}, nil
}

// NewErrorAnswer creates the answer shown when generation fails.
// Details is omitted when empty.
func NewErrorAnswer(message, details string) *Answer {
	sections := []Section{{Name: SectionError, Content: message}}
	if details != "" {
		sections = append(sections, Section{Name: SectionDetails, Content: details})
	}
	return &Answer{
		id:       valueobjects.NewAnswerID(),
		title:    ErrorAnswerTitle,
		sections: sections,
	}
}

// ReconstructAnswer rebuilds an answer from stored data
func ReconstructAnswer(id, title string, sections []Section) *Answer {
	return &Answer{
		id:       id,
		title:    title,
		sections: append([]Section(nil), sections...),
	}
}

// ID returns the answer ID
func (a *Answer) ID() string {
	return a.id
}

// Title returns the answer title
func (a *Answer) Title() string {
	return a.title
}

// Sections returns a copy of the ordered sections
func (a *Answer) Sections() []Section {
	return append([]Section(nil), a.sections...)
}

// Section looks up a section's content by name
func (a *Answer) Section(name string) (string, bool) {
	for _, s := range a.sections {
		if s.Name == name {
			return s.Content, true
		}
	}
	return "", false
}

// IsError reports whether this answer records a failed generation
func (a *Answer) IsError() bool {
	_, ok := a.Section(SectionError)
	return ok
}

type answerJSON struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Sections json.RawMessage `json:"sections"`
}

// MarshalJSON writes sections as an ordered array of {name, content}
func (a *Answer) MarshalJSON() ([]byte, error) {
	sections := a.sections
	if sections == nil {
		sections = []Section{}
	}
	raw, err := json.Marshal(sections)
	if err != nil {
		return nil, err
	}
	return json.Marshal(answerJSON{ID: a.id, Title: a.title, Sections: raw})
}

// UnmarshalJSON reads sections either as an ordered array or as an object
// keyed by section name. Object keys keep their document order.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var aux answerJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	sections, err := decodeSections(aux.Sections)
	if err != nil {
		return err
	}

	a.id = aux.ID
	a.title = aux.Title
	a.sections = sections
	return nil
}

func decodeSections(raw json.RawMessage) ([]Section, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var sections []Section
		if err := json.Unmarshal(trimmed, &sections); err != nil {
			return nil, fmt.Errorf("invalid answer sections: %w", err)
		}
		return sections, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	open, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid answer sections: %w", err)
	}
	if open != json.Delim('{') {
		return nil, fmt.Errorf("answer sections must be an array or object")
	}

	var sections []Section
	for dec.More() {
		keyToken, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid answer sections: %w", err)
		}
		key, ok := keyToken.(string)
		if !ok {
			return nil, fmt.Errorf("invalid answer section name %v", keyToken)
		}
		var content string
		if err := dec.Decode(&content); err != nil {
			return nil, fmt.Errorf("invalid content for section %q: %w", key, err)
		}
		sections = append(sections, Section{Name: key, Content: content})
	}
	return sections, nil
}
