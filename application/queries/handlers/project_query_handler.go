package handlers

import (
	"context"
	"fmt"

	"knowspark/application/dto"
	"knowspark/application/ports"
	"knowspark/application/queries"
	"knowspark/application/services"
	"knowspark/domain/config"
	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	pkgerrors "knowspark/pkg/errors"

	"go.uber.org/zap"
)

// AnswerGenerator produces an answer for question text. The answer is
// never nil; a non-nil error means it is an error answer.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string) (*entities.Answer, error)
}

// ProjectQueryHandler answers the read-side queries
type ProjectQueryHandler struct {
	repo     ports.ProjectRepository
	renderer *services.RenderService
	answers  AnswerGenerator
	cfg      *config.DomainConfig
	logger   *zap.Logger
}

// NewProjectQueryHandler creates a new project query handler
func NewProjectQueryHandler(
	repo ports.ProjectRepository,
	renderer *services.RenderService,
	answers AnswerGenerator,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *ProjectQueryHandler {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ProjectQueryHandler{
		repo:     repo,
		renderer: renderer,
		answers:  answers,
		cfg:      cfg,
		logger:   logger,
	}
}

// HandleGetProject executes GetProjectQuery
func (h *ProjectQueryHandler) HandleGetProject(ctx context.Context, query queries.GetProjectQuery) (*dto.Project, error) {
	project, err := h.loadOwned(ctx, query.ProjectID, query.UserID)
	if err != nil {
		return nil, err
	}
	view := dto.FromProject(project)
	return &view, nil
}

// HandleListProjects executes ListProjectsQuery
func (h *ProjectQueryHandler) HandleListProjects(ctx context.Context, query queries.ListProjectsQuery) (*queries.ListProjectsResult, error) {
	projects, err := h.repo.ListByUser(ctx, query.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return &queries.ListProjectsResult{
		Projects: dto.FromProjects(projects),
		Count:    len(projects),
	}, nil
}

// HandleGetSharedProject executes GetSharedProjectQuery. The owner is
// left out of the public view.
func (h *ProjectQueryHandler) HandleGetSharedProject(ctx context.Context, query queries.GetSharedProjectQuery) (*dto.Project, error) {
	if !h.cfg.AllowPublicShare {
		return nil, pkgerrors.NewForbiddenError("public sharing is disabled")
	}

	project, err := h.load(ctx, query.ProjectID)
	if err != nil {
		return nil, err
	}
	view := dto.FromProject(project)
	view.UserID = ""
	return &view, nil
}

// HandleListTopics executes ListTopicsQuery
func (h *ProjectQueryHandler) HandleListTopics(ctx context.Context, query queries.ListTopicsQuery) (*queries.ListTopicsResult, error) {
	project, err := h.loadOwned(ctx, query.ProjectID, query.UserID)
	if err != nil {
		return nil, err
	}
	return &queries.ListTopicsResult{Topics: project.Topics()}, nil
}

// HandleRenderAnswer executes RenderAnswerQuery
func (h *ProjectQueryHandler) HandleRenderAnswer(ctx context.Context, query queries.RenderAnswerQuery) (*queries.RenderAnswerResult, error) {
	project, err := h.loadOwned(ctx, query.ProjectID, query.UserID)
	if err != nil {
		return nil, err
	}
	questionID, err := valueobjects.NewQuestionIDFromString(query.QuestionID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	q, err := project.Question(questionID)
	if err != nil {
		return nil, err
	}

	result := &queries.RenderAnswerResult{
		QuestionID: query.QuestionID,
		Sections:   []services.RenderedSection{},
	}
	if answer := q.Answer(); answer != nil {
		result.AnswerID = answer.ID()
		result.Title = answer.Title()
		result.IsError = answer.IsError()
		result.Sections = h.renderer.RenderAnswer(answer)
	}
	return result, nil
}

// HandleAnswerQuestion executes AnswerQuestionQuery
func (h *ProjectQueryHandler) HandleAnswerQuestion(ctx context.Context, query queries.AnswerQuestionQuery) (*queries.AnswerQuestionResult, error) {
	answer, err := h.answers.Generate(ctx, query.Question)
	if answer == nil {
		return nil, pkgerrors.NewInternalError("answer generation returned nothing").WithCause(err)
	}
	return &queries.AnswerQuestionResult{
		Answer: answer,
		Failed: err != nil,
	}, nil
}

func (h *ProjectQueryHandler) load(ctx context.Context, rawID string) (*entities.Project, error) {
	id, err := valueobjects.NewProjectIDFromString(rawID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	project, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (h *ProjectQueryHandler) loadOwned(ctx context.Context, rawID, userID string) (*entities.Project, error) {
	project, err := h.load(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if !project.IsOwnedBy(userID) {
		return nil, pkgerrors.NewNotFoundError("project").WithCause(entities.ErrProjectNotFound)
	}
	return project, nil
}
