package handlers

import (
	"net/http"

	"knowspark/application/dto"
	"knowspark/application/queries"
	querybus "knowspark/application/queries/bus"
	"knowspark/pkg/common"
	pkgerrors "knowspark/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AskHandler answers one-off questions and serves shared projects
type AskHandler struct {
	queryBus *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewAskHandler creates a new ask handler
func NewAskHandler(queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		queryBus: queryBus,
		errors:   errs,
		logger:   logger,
	}
}

// AskRequest is the body of a stateless ask
type AskRequest struct {
	Question string `json:"question"`
}

// Ask handles POST /ask. Nothing is stored. A failed generation still
// returns its error answer, with status 500.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := common.DecodeJSON(w, r, &req, 0); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.AnswerQuestionQuery{Question: req.Question})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	answer, ok := result.(*queries.AnswerQuestionResult)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("unexpected answer result"))
		return
	}

	if answer.Failed {
		h.logger.Warn("Stateless ask failed", zap.String("title", answer.Answer.Title()))
		common.RespondJSON(w, http.StatusInternalServerError, answer.Answer)
		return
	}
	common.RespondJSON(w, http.StatusOK, answer.Answer)
}

// SharedProject handles GET /share/{projectID}. Owner details are removed.
func (h *AskHandler) SharedProject(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetSharedProjectQuery{ProjectID: chi.URLParam(r, "projectID")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	project, ok := result.(*dto.Project)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("unexpected project query result"))
		return
	}

	view := *project
	view.UserID = ""
	common.RespondJSON(w, http.StatusOK, view)
}
