package handlers

import (
	"net/http"

	"knowspark/application/commands"
	"knowspark/application/commands/bus"
	"knowspark/application/queries"
	querybus "knowspark/application/queries/bus"
	"knowspark/pkg/common"
	pkgerrors "knowspark/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuestionHandler handles question HTTP requests within a project
type QuestionHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
		logger:     logger,
	}
}

// QuestionRequest is the body of ask and edit
type QuestionRequest struct {
	Text string `json:"text"`
}

// TopicRequest sets or clears a question's topic
type TopicRequest struct {
	Topic string `json:"topic"`
}

// OrderRequest lists question IDs in their new order
type OrderRequest struct {
	Order []string `json:"order"`
}

// AskQuestion handles POST /projects/{projectID}/questions. The answer is
// generated before the response is written.
func (h *QuestionHandler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	var req QuestionRequest
	if err := common.DecodeJSON(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	projectID := chi.URLParam(r, "projectID")
	questionID := uuid.NewString()
	if err := h.commandBus.Send(r.Context(), commands.AskQuestionCommand{
		ProjectID:  projectID,
		QuestionID: questionID,
		UserID:     uid,
		Text:       req.Text,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondQuestion(w, r, http.StatusCreated, projectID, questionID, uid)
}

// UpdateQuestion handles PUT /projects/{projectID}/questions/{questionID}
func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	var req QuestionRequest
	if err := common.DecodeJSON(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	projectID, questionID := chi.URLParam(r, "projectID"), chi.URLParam(r, "questionID")
	if err := h.commandBus.Send(r.Context(), commands.UpdateQuestionTextCommand{
		ProjectID:  projectID,
		QuestionID: questionID,
		UserID:     uid,
		Text:       req.Text,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondQuestion(w, r, http.StatusOK, projectID, questionID, uid)
}

// UpdateTopic handles PUT /projects/{projectID}/questions/{questionID}/topic
func (h *QuestionHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	var req TopicRequest
	if err := common.DecodeJSON(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	projectID, questionID := chi.URLParam(r, "projectID"), chi.URLParam(r, "questionID")
	if err := h.commandBus.Send(r.Context(), commands.UpdateQuestionTopicCommand{
		ProjectID:  projectID,
		QuestionID: questionID,
		UserID:     uid,
		Topic:      req.Topic,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondQuestion(w, r, http.StatusOK, projectID, questionID, uid)
}

// DeleteQuestion handles DELETE /projects/{projectID}/questions/{questionID}
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	if err := h.commandBus.Send(r.Context(), commands.DeleteQuestionCommand{
		ProjectID:  chi.URLParam(r, "projectID"),
		QuestionID: chi.URLParam(r, "questionID"),
		UserID:     uid,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}

// RegenerateAnswer handles POST /projects/{projectID}/questions/{questionID}/regenerate
func (h *QuestionHandler) RegenerateAnswer(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	projectID, questionID := chi.URLParam(r, "projectID"), chi.URLParam(r, "questionID")
	if err := h.commandBus.Send(r.Context(), commands.RegenerateAnswerCommand{
		ProjectID:  projectID,
		QuestionID: questionID,
		UserID:     uid,
	}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondQuestion(w, r, http.StatusOK, projectID, questionID, uid)
}

// ReorderQuestions handles PUT /projects/{projectID}/questions/order
func (h *QuestionHandler) ReorderQuestions(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	var req OrderRequest
	if err := common.DecodeJSON(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	projectID := chi.URLParam(r, "projectID")
	if err := h.commandBus.Send(r.Context(), commands.ReorderQuestionsCommand{
		ProjectID: projectID,
		UserID:    uid,
		Order:     req.Order,
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

// RenderAnswer handles GET /projects/{projectID}/questions/{questionID}/render
func (h *QuestionHandler) RenderAnswer(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.errors)
	if !ok {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.RenderAnswerQuery{
		ProjectID:  chi.URLParam(r, "projectID"),
		QuestionID: chi.URLParam(r, "questionID"),
		UserID:     uid,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

func (h *QuestionHandler) respondQuestion(w http.ResponseWriter, r *http.Request, status int, projectID, questionID, uid string) {
	project, err := loadProject(r.Context(), h.queryBus, projectID, uid)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	question, err := findQuestion(project, questionID)
	if err != nil {
		// Deleted concurrently while its answer was generating.
		h.logger.Warn("Question vanished after update",
			zap.String("projectID", projectID),
			zap.String("questionID", questionID),
		)
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, question)
}
