package commands

import "knowspark/pkg/utils"

// AskQuestionCommand adds a question to a project and generates its answer
type AskQuestionCommand struct {
	ProjectID  string `json:"projectId" validate:"required,uuid"`
	QuestionID string `json:"questionId" validate:"required,uuid"`
	UserID     string `json:"userId" validate:"required"`
	Text       string `json:"text" validate:"notblank,max=8000"`
}

// Validate validates the command
func (c AskQuestionCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RegenerateAnswerCommand replaces a question's answer with a fresh one
type RegenerateAnswerCommand struct {
	ProjectID  string `json:"projectId" validate:"required,uuid"`
	QuestionID string `json:"questionId" validate:"required,uuid"`
	UserID     string `json:"userId" validate:"required"`
}

// Validate validates the command
func (c RegenerateAnswerCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// UpdateQuestionTextCommand edits a question's text, keeping its answer
type UpdateQuestionTextCommand struct {
	ProjectID  string `json:"projectId" validate:"required,uuid"`
	QuestionID string `json:"questionId" validate:"required,uuid"`
	UserID     string `json:"userId" validate:"required"`
	Text       string `json:"text" validate:"notblank,max=8000"`
}

// Validate validates the command
func (c UpdateQuestionTextCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// UpdateQuestionTopicCommand sets a question's topic; an empty topic clears it
type UpdateQuestionTopicCommand struct {
	ProjectID  string `json:"projectId" validate:"required,uuid"`
	QuestionID string `json:"questionId" validate:"required,uuid"`
	UserID     string `json:"userId" validate:"required"`
	Topic      string `json:"topic" validate:"max=60"`
}

// Validate validates the command
func (c UpdateQuestionTopicCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteQuestionCommand removes a question from a project
type DeleteQuestionCommand struct {
	ProjectID  string `json:"projectId" validate:"required,uuid"`
	QuestionID string `json:"questionId" validate:"required,uuid"`
	UserID     string `json:"userId" validate:"required"`
}

// Validate validates the command
func (c DeleteQuestionCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ReorderQuestionsCommand sets the question order. Questions left out of
// Order are removed; unknown IDs are ignored.
type ReorderQuestionsCommand struct {
	ProjectID string   `json:"projectId" validate:"required,uuid"`
	UserID    string   `json:"userId" validate:"required"`
	Order     []string `json:"order" validate:"max=1000"`
}

// Validate validates the command
func (c ReorderQuestionsCommand) Validate() error {
	return utils.ValidateStruct(c)
}
