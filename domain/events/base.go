package events

import (
	"time"

	"knowspark/domain/core/valueobjects"
)

// SourceBackend is the EventBridge source for events raised by this service
const SourceBackend = "knowspark.backend"

// Event types
const (
	TypeProjectCreated       = "project.created"
	TypeProjectRenamed       = "project.renamed"
	TypeProjectDeleted       = "project.deleted"
	TypeQuestionAsked        = "question.asked"
	TypeQuestionEdited       = "question.edited"
	TypeQuestionTopicChanged = "question.topic_changed"
	TypeQuestionDeleted      = "question.deleted"
	TypeQuestionsReordered   = "questions.reordered"
	TypeAnswerGenerated      = "answer.generated"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(projectID valueobjects.ProjectID, eventType string, version int, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: projectID.String(),
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     version,
	}
}

// Project Events

// ProjectCreated is raised when a new project is created
type ProjectCreated struct {
	BaseEvent
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

// NewProjectCreated creates a ProjectCreated event
func NewProjectCreated(projectID valueobjects.ProjectID, userID, title string, timestamp time.Time) ProjectCreated {
	return ProjectCreated{
		BaseEvent: newBase(projectID, TypeProjectCreated, 1, timestamp),
		UserID:    userID,
		Title:     title,
	}
}

// ProjectRenamed is raised when a project's title changes
type ProjectRenamed struct {
	BaseEvent
	OldTitle string `json:"old_title"`
	NewTitle string `json:"new_title"`
}

// NewProjectRenamed creates a ProjectRenamed event
func NewProjectRenamed(projectID valueobjects.ProjectID, oldTitle, newTitle string, version int, timestamp time.Time) ProjectRenamed {
	return ProjectRenamed{
		BaseEvent: newBase(projectID, TypeProjectRenamed, version, timestamp),
		OldTitle:  oldTitle,
		NewTitle:  newTitle,
	}
}

// ProjectDeleted is raised when a project is removed
type ProjectDeleted struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// NewProjectDeleted creates a ProjectDeleted event
func NewProjectDeleted(projectID valueobjects.ProjectID, userID string, version int, timestamp time.Time) ProjectDeleted {
	return ProjectDeleted{
		BaseEvent: newBase(projectID, TypeProjectDeleted, version, timestamp),
		UserID:    userID,
	}
}

// Question Events

// QuestionAsked is raised when a question is added to a project
type QuestionAsked struct {
	BaseEvent
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

// NewQuestionAsked creates a QuestionAsked event
func NewQuestionAsked(projectID valueobjects.ProjectID, questionID valueobjects.QuestionID, text string, version int, timestamp time.Time) QuestionAsked {
	return QuestionAsked{
		BaseEvent:  newBase(projectID, TypeQuestionAsked, version, timestamp),
		QuestionID: questionID.String(),
		Text:       text,
	}
}

// QuestionEdited is raised when a question's text changes
type QuestionEdited struct {
	BaseEvent
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

// NewQuestionEdited creates a QuestionEdited event
func NewQuestionEdited(projectID valueobjects.ProjectID, questionID valueobjects.QuestionID, text string, version int, timestamp time.Time) QuestionEdited {
	return QuestionEdited{
		BaseEvent:  newBase(projectID, TypeQuestionEdited, version, timestamp),
		QuestionID: questionID.String(),
		Text:       text,
	}
}

// QuestionTopicChanged is raised when a question's topic is set or cleared
type QuestionTopicChanged struct {
	BaseEvent
	QuestionID string `json:"question_id"`
	Topic      string `json:"topic,omitempty"`
}

// NewQuestionTopicChanged creates a QuestionTopicChanged event
func NewQuestionTopicChanged(projectID valueobjects.ProjectID, questionID valueobjects.QuestionID, topic string, version int, timestamp time.Time) QuestionTopicChanged {
	return QuestionTopicChanged{
		BaseEvent:  newBase(projectID, TypeQuestionTopicChanged, version, timestamp),
		QuestionID: questionID.String(),
		Topic:      topic,
	}
}

// QuestionDeleted is raised when a question is removed from a project
type QuestionDeleted struct {
	BaseEvent
	QuestionID string `json:"question_id"`
}

// NewQuestionDeleted creates a QuestionDeleted event
func NewQuestionDeleted(projectID valueobjects.ProjectID, questionID valueobjects.QuestionID, version int, timestamp time.Time) QuestionDeleted {
	return QuestionDeleted{
		BaseEvent:  newBase(projectID, TypeQuestionDeleted, version, timestamp),
		QuestionID: questionID.String(),
	}
}

// QuestionsReordered is raised when the question order is replaced
type QuestionsReordered struct {
	BaseEvent
	QuestionIDs []string `json:"question_ids"`
	Dropped     int      `json:"dropped"`
}

// NewQuestionsReordered creates a QuestionsReordered event
func NewQuestionsReordered(projectID valueobjects.ProjectID, order []string, dropped, version int, timestamp time.Time) QuestionsReordered {
	return QuestionsReordered{
		BaseEvent:   newBase(projectID, TypeQuestionsReordered, version, timestamp),
		QuestionIDs: order,
		Dropped:     dropped,
	}
}

// Answer Events

// AnswerGenerated is raised when a question receives a new answer,
// including error answers
type AnswerGenerated struct {
	BaseEvent
	UserID     string `json:"user_id"`
	QuestionID string `json:"question_id"`
	AnswerID   string `json:"answer_id"`
	Title      string `json:"title"`
	IsError    bool   `json:"is_error"`
}

// NewAnswerGenerated creates an AnswerGenerated event
func NewAnswerGenerated(projectID valueobjects.ProjectID, userID string, questionID valueobjects.QuestionID, answerID, title string, isError bool, version int, timestamp time.Time) AnswerGenerated {
	return AnswerGenerated{
		BaseEvent:  newBase(projectID, TypeAnswerGenerated, version, timestamp),
		UserID:     userID,
		QuestionID: questionID.String(),
		AnswerID:   answerID,
		Title:      title,
		IsError:    isError,
	}
}
