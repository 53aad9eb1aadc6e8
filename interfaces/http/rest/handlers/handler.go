// Package handlers holds the HTTP handlers of the v2 API. Handlers decode
// requests, send commands or ask queries, and write JSON responses.
package handlers

import (
	"context"
	"net/http"

	"knowspark/application/dto"
	"knowspark/application/queries"
	querybus "knowspark/application/queries/bus"
	"knowspark/pkg/auth"
	pkgerrors "knowspark/pkg/errors"
)

// userID returns the authenticated caller, or writes a 401 and returns false
func userID(w http.ResponseWriter, r *http.Request, errs *pkgerrors.ErrorHandler) (string, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil || user.UserID == "" {
		errs.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication required"))
		return "", false
	}
	return user.UserID, true
}

// loadProject reads a project back after a command changed it
func loadProject(ctx context.Context, queryBus *querybus.QueryBus, projectID, userID string) (*dto.Project, error) {
	result, err := queryBus.Ask(ctx, queries.GetProjectQuery{ProjectID: projectID, UserID: userID})
	if err != nil {
		return nil, err
	}
	project, ok := result.(*dto.Project)
	if !ok {
		return nil, pkgerrors.NewInternalError("unexpected project query result")
	}
	return project, nil
}

// findQuestion picks one question out of a project
func findQuestion(project *dto.Project, questionID string) (*dto.Question, error) {
	for i := range project.Questions {
		if project.Questions[i].ID == questionID {
			return &project.Questions[i], nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("question")
}
