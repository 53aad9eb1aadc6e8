// Package eventhandlers reacts to domain events after they are committed
package eventhandlers

import (
	"context"
	"fmt"

	"knowspark/application/ports"
	"knowspark/domain/events"

	"go.uber.org/zap"
)

// AnswerReady is the message pushed to clients when an answer lands
type AnswerReady struct {
	ProjectID  string `json:"project_id"`
	QuestionID string `json:"question_id"`
	AnswerID   string `json:"answer_id"`
	Title      string `json:"title"`
	IsError    bool   `json:"is_error"`
	Version    int    `json:"version"`
}

// MessageType names the websocket message
func (AnswerReady) MessageType() string {
	return events.TypeAnswerGenerated
}

// AnswerNotifier pushes AnswerReady to the answer owner's clients
type AnswerNotifier struct {
	notifier ports.Notifier
	logger   *zap.Logger
}

var _ ports.EventHandler = (*AnswerNotifier)(nil)

// NewAnswerNotifier creates an AnswerNotifier
func NewAnswerNotifier(notifier ports.Notifier, logger *zap.Logger) *AnswerNotifier {
	return &AnswerNotifier{notifier: notifier, logger: logger}
}

// CanHandle accepts answer.generated
func (h *AnswerNotifier) CanHandle(eventType string) bool {
	return eventType == events.TypeAnswerGenerated
}

// Handle notifies the owner
func (h *AnswerNotifier) Handle(ctx context.Context, event events.DomainEvent) error {
	e, err := answerGenerated(event)
	if err != nil {
		return err
	}
	if e.UserID == "" {
		h.logger.Warn("Answer event without owner", zap.String("projectID", e.AggregateID))
		return nil
	}

	return h.notifier.NotifyUser(ctx, e.UserID, AnswerReady{
		ProjectID:  e.AggregateID,
		QuestionID: e.QuestionID,
		AnswerID:   e.AnswerID,
		Title:      e.Title,
		IsError:    e.IsError,
		Version:    e.Version,
	})
}

// AnswerRecorder receives one data point per answer
type AnswerRecorder interface {
	RecordAnswer(ctx context.Context, provider string, isError bool)
}

// AnswerMetricsHandler records every generated answer
type AnswerMetricsHandler struct {
	recorder AnswerRecorder
	provider string
}

var _ ports.EventHandler = (*AnswerMetricsHandler)(nil)

// NewAnswerMetricsHandler creates a handler attributing answers to provider
func NewAnswerMetricsHandler(recorder AnswerRecorder, provider string) *AnswerMetricsHandler {
	return &AnswerMetricsHandler{recorder: recorder, provider: provider}
}

// CanHandle accepts answer.generated
func (h *AnswerMetricsHandler) CanHandle(eventType string) bool {
	return eventType == events.TypeAnswerGenerated
}

// Handle records the answer
func (h *AnswerMetricsHandler) Handle(ctx context.Context, event events.DomainEvent) error {
	e, err := answerGenerated(event)
	if err != nil {
		return err
	}
	h.recorder.RecordAnswer(ctx, h.provider, e.IsError)
	return nil
}

func answerGenerated(event events.DomainEvent) (events.AnswerGenerated, error) {
	switch e := event.(type) {
	case events.AnswerGenerated:
		return e, nil
	case *events.AnswerGenerated:
		return *e, nil
	default:
		return events.AnswerGenerated{}, fmt.Errorf("unexpected event %T for %s", event, events.TypeAnswerGenerated)
	}
}
