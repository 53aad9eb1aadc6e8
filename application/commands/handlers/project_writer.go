package handlers

import (
	"context"
	"errors"
	"fmt"

	"knowspark/application/ports"
	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	"knowspark/domain/events"
	pkgerrors "knowspark/pkg/errors"

	"go.uber.org/zap"
)

// projectWriter is the load-check-save cycle every project command shares
type projectWriter struct {
	repo     ports.ProjectRepository
	eventBus ports.EventPublisher
	logger   *zap.Logger
}

// load fetches a project owned by userID. Projects owned by someone else
// are reported as not found.
func (w *projectWriter) load(ctx context.Context, rawID, userID string) (*entities.Project, error) {
	id, err := valueobjects.NewProjectIDFromString(rawID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	project, err := w.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !project.IsOwnedBy(userID) {
		w.logger.Warn("Project accessed by another user",
			zap.String("projectID", rawID),
			zap.String("userID", userID),
		)
		return nil, pkgerrors.NewNotFoundError("project").WithCause(entities.ErrProjectNotFound)
	}
	return project, nil
}

// commit saves the project and publishes its pending events
func (w *projectWriter) commit(ctx context.Context, project *entities.Project) error {
	if err := w.repo.Save(ctx, project); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	w.publish(ctx, project.GetUncommittedEvents())
	project.MarkEventsAsCommitted()
	return nil
}

// publish sends events; failures are logged, the write already happened
func (w *projectWriter) publish(ctx context.Context, evts []events.DomainEvent) {
	if len(evts) == 0 || w.eventBus == nil {
		return
	}
	if err := w.eventBus.PublishBatch(ctx, evts); err != nil {
		w.logger.Warn("Failed to publish events",
			zap.String("projectID", evts[0].GetAggregateID()),
			zap.Int("count", len(evts)),
			zap.Error(err),
		)
	}
}

// storeAnswer attaches an answer generated for text to a question that may
// have been removed or edited meanwhile. Removed questions and projects,
// and questions whose text changed, discard the answer and are not errors.
func (w *projectWriter) storeAnswer(ctx context.Context, rawProjectID, userID string, questionID valueobjects.QuestionID, text string, answer *entities.Answer) error {
	project, err := w.load(ctx, rawProjectID, userID)
	var q *entities.Question
	if err == nil {
		q, err = project.Question(questionID)
	}
	if err != nil {
		if isStale(err) {
			w.logger.Info("Discarding answer for removed question",
				zap.String("projectID", rawProjectID),
				zap.String("questionID", questionID.String()),
				zap.String("answerID", answer.ID()),
			)
			return nil
		}
		return err
	}

	if q.Text().String() != text {
		w.logger.Info("Discarding answer for edited question",
			zap.String("projectID", rawProjectID),
			zap.String("questionID", questionID.String()),
			zap.String("answerID", answer.ID()),
		)
		return nil
	}

	if err := project.SetAnswer(questionID, answer); err != nil {
		return err
	}
	return w.commit(ctx, project)
}

func isStale(err error) bool {
	return errors.Is(err, entities.ErrProjectNotFound) || errors.Is(err, entities.ErrQuestionNotFound)
}
