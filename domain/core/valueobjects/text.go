package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"knowspark/domain/config"
	pkgerrors "knowspark/pkg/errors"
)

// QuestionText is the trimmed, non-blank text of a question
type QuestionText struct {
	value string
}

// NewQuestionText creates question text using the default configuration
func NewQuestionText(text string) (QuestionText, error) {
	return NewQuestionTextWithConfig(text, config.DefaultDomainConfig())
}

// NewQuestionTextWithConfig creates question text with validation and configuration
func NewQuestionTextWithConfig(text string, cfg *config.DomainConfig) (QuestionText, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return QuestionText{}, pkgerrors.NewValidationError("question cannot be empty")
	}

	length := utf8.RuneCountInString(text)
	if length < cfg.MinQuestionLength {
		return QuestionText{}, pkgerrors.NewValidationError(
			fmt.Sprintf("question too short: minimum %d characters required", cfg.MinQuestionLength))
	}
	if length > cfg.MaxQuestionLength {
		return QuestionText{}, pkgerrors.NewValidationError(
			fmt.Sprintf("question exceeds maximum length of %d characters", cfg.MaxQuestionLength))
	}

	return QuestionText{value: text}, nil
}

// String returns the question text
func (q QuestionText) String() string {
	return q.value
}

// IsEmpty reports whether the text is the zero value
func (q QuestionText) IsEmpty() bool {
	return q.value == ""
}

// ProjectTitle is a project's display name
type ProjectTitle struct {
	value string
}

// NewProjectTitle creates a title, substituting the default for blank input
func NewProjectTitle(title string, cfg *config.DomainConfig) (ProjectTitle, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = cfg.DefaultProjectTitle
	}
	if utf8.RuneCountInString(title) > cfg.MaxProjectTitleLength {
		return ProjectTitle{}, pkgerrors.NewValidationError(
			fmt.Sprintf("title exceeds maximum length of %d characters", cfg.MaxProjectTitleLength))
	}
	return ProjectTitle{value: title}, nil
}

// String returns the title
func (t ProjectTitle) String() string {
	return t.value
}

// Topic is an optional user-chosen grouping label for questions.
// The zero Topic means "no topic".
type Topic struct {
	value string
}

// NewTopic creates a topic; blank input yields the zero Topic
func NewTopic(topic string, cfg *config.DomainConfig) (Topic, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	topic = strings.TrimSpace(topic)
	if utf8.RuneCountInString(topic) > cfg.MaxTopicLength {
		return Topic{}, pkgerrors.NewValidationError(
			fmt.Sprintf("topic exceeds maximum length of %d characters", cfg.MaxTopicLength))
	}
	return Topic{value: topic}, nil
}

// String returns the topic name, empty when unset
func (t Topic) String() string {
	return t.value
}

// IsZero reports whether no topic is set
func (t Topic) IsZero() bool {
	return t.value == ""
}
