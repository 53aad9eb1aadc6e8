package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// ProjectID is a value object representing a unique project identifier
type ProjectID struct {
	value string
}

// NewProjectID creates a new random ProjectID
func NewProjectID() ProjectID {
	return ProjectID{value: uuid.New().String()}
}

// NewProjectIDFromString creates a ProjectID from an existing string
func NewProjectIDFromString(id string) (ProjectID, error) {
	if id == "" {
		return ProjectID{}, errors.New("project ID cannot be empty")
	}
	if !isValidUUID(id) {
		return ProjectID{}, errors.New("project ID must be a valid UUID")
	}
	return ProjectID{value: id}, nil
}

// String returns the string representation of the ProjectID
func (id ProjectID) String() string {
	return id.value
}

// Equals checks if two ProjectIDs are equal
func (id ProjectID) Equals(other ProjectID) bool {
	return id.value == other.value
}

// IsZero checks if the ProjectID is the zero value
func (id ProjectID) IsZero() bool {
	return id.value == ""
}

// MarshalText implements encoding.TextMarshaler
func (id ProjectID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *ProjectID) UnmarshalText(data []byte) error {
	parsed, err := NewProjectIDFromString(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// QuestionID is a value object representing a unique question identifier
type QuestionID struct {
	value string
}

// NewQuestionID creates a new random QuestionID
func NewQuestionID() QuestionID {
	return QuestionID{value: uuid.New().String()}
}

// NewQuestionIDFromString creates a QuestionID from an existing string
func NewQuestionIDFromString(id string) (QuestionID, error) {
	if id == "" {
		return QuestionID{}, errors.New("question ID cannot be empty")
	}
	if !isValidUUID(id) {
		return QuestionID{}, errors.New("question ID must be a valid UUID")
	}
	return QuestionID{value: id}, nil
}

// String returns the string representation of the QuestionID
func (id QuestionID) String() string {
	return id.value
}

// Equals checks if two QuestionIDs are equal
func (id QuestionID) Equals(other QuestionID) bool {
	return id.value == other.value
}

// IsZero checks if the QuestionID is the zero value
func (id QuestionID) IsZero() bool {
	return id.value == ""
}

// MarshalText implements encoding.TextMarshaler
func (id QuestionID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *QuestionID) UnmarshalText(data []byte) error {
	parsed, err := NewQuestionIDFromString(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewAnswerID returns a fresh answer identifier
func NewAnswerID() string {
	return uuid.New().String()
}

// isValidUUID validates if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
