package handlers

import (
	"context"

	"knowspark/application/commands"
	"knowspark/application/ports"
	"knowspark/domain/config"
	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	pkgerrors "knowspark/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// AnswerGenerator produces an answer for question text. The answer is
// never nil; a non-nil error means it is an error answer.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string) (*entities.Answer, error)
}

// QuestionHandlers handles the question commands
type QuestionHandlers struct {
	projectWriter
	answers AnswerGenerator
	cfg     *config.DomainConfig
	flight  singleflight.Group
}

// NewQuestionHandlers creates the question command handlers
func NewQuestionHandlers(
	repo ports.ProjectRepository,
	eventBus ports.EventPublisher,
	answers AnswerGenerator,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *QuestionHandlers {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &QuestionHandlers{
		projectWriter: projectWriter{repo: repo, eventBus: eventBus, logger: logger},
		answers:       answers,
		cfg:           cfg,
	}
}

// HandleAsk executes AskQuestionCommand. The question is stored before the
// answer is generated, so it survives a failed or slow completion.
func (h *QuestionHandlers) HandleAsk(ctx context.Context, cmd commands.AskQuestionCommand) error {
	questionID, err := parseQuestionID(cmd.QuestionID)
	if err != nil {
		return err
	}
	text, err := valueobjects.NewQuestionTextWithConfig(cmd.Text, h.cfg)
	if err != nil {
		return err
	}

	project, err := h.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return err
	}
	if _, err := project.AskQuestion(questionID, text, h.cfg); err != nil {
		return err
	}
	if err := h.commit(ctx, project); err != nil {
		return err
	}

	return h.answer(ctx, cmd.ProjectID, cmd.UserID, questionID, text.String())
}

// HandleRegenerate executes RegenerateAnswerCommand. Concurrent requests
// from the same user for the same question share one completion call.
func (h *QuestionHandlers) HandleRegenerate(ctx context.Context, cmd commands.RegenerateAnswerCommand) error {
	questionID, err := parseQuestionID(cmd.QuestionID)
	if err != nil {
		return err
	}

	key := cmd.UserID + "/" + cmd.ProjectID + "/" + cmd.QuestionID
	_, err, shared := h.flight.Do(key, func() (interface{}, error) {
		project, err := h.load(ctx, cmd.ProjectID, cmd.UserID)
		if err != nil {
			return nil, err
		}
		q, err := project.Question(questionID)
		if err != nil {
			return nil, err
		}
		return nil, h.answer(ctx, cmd.ProjectID, cmd.UserID, questionID, q.Text().String())
	})
	if shared {
		h.logger.Debug("Regenerate joined an in-flight request", zap.String("questionID", cmd.QuestionID))
	}
	return err
}

// HandleUpdateText executes UpdateQuestionTextCommand
func (h *QuestionHandlers) HandleUpdateText(ctx context.Context, cmd commands.UpdateQuestionTextCommand) error {
	questionID, err := parseQuestionID(cmd.QuestionID)
	if err != nil {
		return err
	}
	text, err := valueobjects.NewQuestionTextWithConfig(cmd.Text, h.cfg)
	if err != nil {
		return err
	}

	project, err := h.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return err
	}
	if err := project.EditQuestion(questionID, text); err != nil {
		return err
	}
	return h.commit(ctx, project)
}

// HandleUpdateTopic executes UpdateQuestionTopicCommand
func (h *QuestionHandlers) HandleUpdateTopic(ctx context.Context, cmd commands.UpdateQuestionTopicCommand) error {
	questionID, err := parseQuestionID(cmd.QuestionID)
	if err != nil {
		return err
	}
	topic, err := valueobjects.NewTopic(cmd.Topic, h.cfg)
	if err != nil {
		return err
	}

	project, err := h.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return err
	}
	if err := project.SetQuestionTopic(questionID, topic); err != nil {
		return err
	}
	return h.commit(ctx, project)
}

// HandleDelete executes DeleteQuestionCommand
func (h *QuestionHandlers) HandleDelete(ctx context.Context, cmd commands.DeleteQuestionCommand) error {
	questionID, err := parseQuestionID(cmd.QuestionID)
	if err != nil {
		return err
	}

	project, err := h.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return err
	}
	if err := project.DeleteQuestion(questionID); err != nil {
		return err
	}
	return h.commit(ctx, project)
}

// HandleReorder executes ReorderQuestionsCommand. Malformed IDs are
// ignored like unknown ones.
func (h *QuestionHandlers) HandleReorder(ctx context.Context, cmd commands.ReorderQuestionsCommand) error {
	order := make([]valueobjects.QuestionID, 0, len(cmd.Order))
	for _, raw := range cmd.Order {
		id, err := valueobjects.NewQuestionIDFromString(raw)
		if err != nil {
			continue
		}
		order = append(order, id)
	}

	project, err := h.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return err
	}
	if dropped := project.ReorderQuestions(order); dropped > 0 {
		h.logger.Info("Questions dropped by reorder",
			zap.String("projectID", cmd.ProjectID),
			zap.Int("dropped", dropped),
		)
	}
	return h.commit(ctx, project)
}

// answer generates and stores an answer. Generation outlives the caller's
// cancellation so a disconnected client still gets its answer stored.
func (h *QuestionHandlers) answer(ctx context.Context, projectID, userID string, questionID valueobjects.QuestionID, text string) error {
	ctx = context.WithoutCancel(ctx)

	answer, err := h.answers.Generate(ctx, text)
	if err != nil {
		h.logger.Warn("Storing error answer",
			zap.String("projectID", projectID),
			zap.String("questionID", questionID.String()),
			zap.Error(err),
		)
	}
	if answer == nil {
		return pkgerrors.NewInternalError("answer generation returned nothing").WithCause(err)
	}
	return h.storeAnswer(ctx, projectID, userID, questionID, text, answer)
}

func parseQuestionID(raw string) (valueobjects.QuestionID, error) {
	id, err := valueobjects.NewQuestionIDFromString(raw)
	if err != nil {
		return valueobjects.QuestionID{}, pkgerrors.NewValidationError(err.Error())
	}
	return id, nil
}
