package handlers

import (
	"net/http"

	"knowspark/application/commands"
	"knowspark/application/commands/bus"
	"knowspark/application/dto"
	"knowspark/application/queries"
	querybus "knowspark/application/queries/bus"
	"knowspark/pkg/common"
	pkgerrors "knowspark/pkg/errors"
	"knowspark/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProjectHandler handles project HTTP requests
type ProjectHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
		logger:     logger,
	}
}

// ProjectRequest is the body of create and rename
type ProjectRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// SyncRequest carries the client-held projects
type SyncRequest struct {
	Projects []dto.Project `json:"projects" validate:"max=500"`
}

// CreateProject handles POST /projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	var req ProjectRequest
	if err := common.DecodeJSON(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	projectID := uuid.NewString()
	if err := h.commandBus.Send(r.Context(), commands.CreateProjectCommand{
		ProjectID: projectID,
		UserID:    uid,
		Title:     req.Title,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	project, err := loadProject(r.Context(), h.queryBus, projectID, uid)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Project created", zap.String("projectID", projectID), zap.String("userID", uid))
	w.Header().Set("Location", "/api/v2/projects/"+projectID)
	common.RespondJSON(w, http.StatusCreated, project)
}

// ListProjects handles GET /projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListProjectsQuery{UserID: uid})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	list, ok := result.(*queries.ListProjectsResult)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("unexpected list result"))
		return
	}
	common.RespondList(w, list.Projects, list.Count)
}

// GetProject handles GET /projects/{projectID}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	project, err := loadProject(r.Context(), h.queryBus, chi.URLParam(r, "projectID"), uid)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, project)
}

// RenameProject handles PUT /projects/{projectID}
func (h *ProjectHandler) RenameProject(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	var req ProjectRequest
	if err := common.DecodeJSON(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	projectID := chi.URLParam(r, "projectID")
	if err := h.commandBus.Send(r.Context(), commands.RenameProjectCommand{
		ProjectID: projectID,
		UserID:    uid,
		Title:     req.Title,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	project, err := loadProject(r.Context(), h.queryBus, projectID, uid)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, project)
}

// DeleteProject handles DELETE /projects/{projectID}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	projectID := chi.URLParam(r, "projectID")
	if err := h.commandBus.Send(r.Context(), commands.DeleteProjectCommand{
		ProjectID: projectID,
		UserID:    uid,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Project deleted", zap.String("projectID", projectID), zap.String("userID", uid))
	common.RespondNoContent(w)
}

// SyncProjects handles POST /projects/sync
func (h *ProjectHandler) SyncProjects(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	var req SyncRequest
	if err := common.DecodeJSON(w, r, &req, common.DefaultMaxBodyBytes); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result := &commands.SyncResult{}
	if err := h.commandBus.Send(r.Context(), commands.SyncProjectsCommand{
		UserID:   uid,
		Projects: req.Projects,
		Result:   result,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Projects synced",
		zap.String("userID", uid),
		zap.Int("uploaded", result.Uploaded),
		zap.Int("kept", result.Kept),
		zap.Int("skipped", result.Skipped),
	)
	common.RespondJSON(w, http.StatusOK, result)
}

// ListTopics handles GET /projects/{projectID}/topics
func (h *ProjectHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListTopicsQuery{
		ProjectID: chi.URLParam(r, "projectID"),
		UserID:    uid,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
