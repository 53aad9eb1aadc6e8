package queries

import (
	"knowspark/application/dto"
	"knowspark/application/services"
	"knowspark/domain/core/entities"
	"knowspark/pkg/utils"
)

// GetProjectQuery fetches one of the caller's projects
type GetProjectQuery struct {
	ProjectID string `validate:"required,uuid"`
	UserID    string `validate:"required"`
}

// Validate validates the GetProjectQuery
func (q GetProjectQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListProjectsQuery lists the caller's projects, most recently updated first
type ListProjectsQuery struct {
	UserID string `validate:"required"`
}

// Validate validates the ListProjectsQuery
func (q ListProjectsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListProjectsResult is the caller's project list
type ListProjectsResult struct {
	Projects []dto.Project `json:"projects"`
	Count    int           `json:"count"`
}

// GetSharedProjectQuery fetches any project for public read-only viewing
type GetSharedProjectQuery struct {
	ProjectID string `validate:"required,uuid"`
}

// Validate validates the GetSharedProjectQuery
func (q GetSharedProjectQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// CacheKey identifies the shared view in the query cache
func (q GetSharedProjectQuery) CacheKey() string {
	return q.ProjectID
}

// ListTopicsQuery lists the distinct topics used in a project
type ListTopicsQuery struct {
	ProjectID string `validate:"required,uuid"`
	UserID    string `validate:"required"`
}

// Validate validates the ListTopicsQuery
func (q ListTopicsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListTopicsResult holds topics sorted case-insensitively
type ListTopicsResult struct {
	Topics []string `json:"topics"`
}

// RenderAnswerQuery renders a question's stored answer into segments
type RenderAnswerQuery struct {
	ProjectID  string `validate:"required,uuid"`
	QuestionID string `validate:"required,uuid"`
	UserID     string `validate:"required"`
}

// Validate validates the RenderAnswerQuery
func (q RenderAnswerQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// RenderAnswerResult is a rendered answer. Sections is empty when the
// question has no answer yet.
type RenderAnswerResult struct {
	QuestionID string                     `json:"questionId"`
	AnswerID   string                     `json:"answerId,omitempty"`
	Title      string                     `json:"title,omitempty"`
	IsError    bool                       `json:"isError"`
	Sections   []services.RenderedSection `json:"sections"`
}

// AnswerQuestionQuery generates an answer without storing it
type AnswerQuestionQuery struct {
	Question string `validate:"notblank,max=8000"`
}

// Validate validates the AnswerQuestionQuery
func (q AnswerQuestionQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// AnswerQuestionResult carries the answer; Failed marks an error answer
type AnswerQuestionResult struct {
	Answer *entities.Answer
	Failed bool
}
