package entities

import (
	"time"

	"knowspark/domain/core/valueobjects"
)

// Question is a user question inside a project, with its latest answer.
// Questions are only changed through their owning Project.
type Question struct {
	id        valueobjects.QuestionID
	text      valueobjects.QuestionText
	topic     valueobjects.Topic
	createdAt time.Time
	answer    *Answer
}

// ReconstructQuestion rebuilds a question from stored data. A nil answer
// means the question has not been answered yet.
func ReconstructQuestion(
	id valueobjects.QuestionID,
	text valueobjects.QuestionText,
	topic valueobjects.Topic,
	createdAt time.Time,
	answer *Answer,
) *Question {
	return &Question{
		id:        id,
		text:      text,
		topic:     topic,
		createdAt: createdAt,
		answer:    answer,
	}
}

// ID returns the question ID
func (q *Question) ID() valueobjects.QuestionID {
	return q.id
}

// Text returns the question text
func (q *Question) Text() valueobjects.QuestionText {
	return q.text
}

// Topic returns the question topic, zero when unset
func (q *Question) Topic() valueobjects.Topic {
	return q.topic
}

// CreatedAt returns when the question was asked
func (q *Question) CreatedAt() time.Time {
	return q.createdAt
}

// Answer returns the current answer or nil
func (q *Question) Answer() *Answer {
	return q.answer
}

// HasAnswer reports whether an answer is attached
func (q *Question) HasAnswer() bool {
	return q.answer != nil
}
