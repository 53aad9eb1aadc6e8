package eventhandlers

import (
	"context"
	"testing"
	"time"

	"knowspark/domain/core/valueobjects"
	"knowspark/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyUser(ctx context.Context, userID string, payload interface{}) error {
	return m.Called(ctx, userID, payload).Error(0)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordAnswer(ctx context.Context, provider string, isError bool) {
	m.Called(ctx, provider, isError)
}

func answerEvent(userID string, isError bool) events.AnswerGenerated {
	return events.NewAnswerGenerated(valueobjects.NewProjectID(), userID, valueobjects.NewQuestionID(),
		valueobjects.NewAnswerID(), "Logic Gates", isError, 4, time.Now())
}

func TestAnswerNotifier_NotifiesOwner(t *testing.T) {
	notifier := new(mockNotifier)
	h := NewAnswerNotifier(notifier, zap.NewNop())
	event := answerEvent("user-1", false)

	notifier.On("NotifyUser", mock.Anything, "user-1", AnswerReady{
		ProjectID:  event.AggregateID,
		QuestionID: event.QuestionID,
		AnswerID:   event.AnswerID,
		Title:      "Logic Gates",
		Version:    4,
	}).Return(nil)

	assert.True(t, h.CanHandle(events.TypeAnswerGenerated))
	assert.False(t, h.CanHandle(events.TypeProjectCreated))
	require.NoError(t, h.Handle(context.Background(), event))
	require.NoError(t, h.Handle(context.Background(), &event))
	notifier.AssertNumberOfCalls(t, "NotifyUser", 2)
}

func TestAnswerNotifier_SkipsEventsWithoutOwner(t *testing.T) {
	notifier := new(mockNotifier)
	h := NewAnswerNotifier(notifier, zap.NewNop())

	require.NoError(t, h.Handle(context.Background(), answerEvent("", false)))
	notifier.AssertNotCalled(t, "NotifyUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerNotifier_RejectsOtherEvents(t *testing.T) {
	h := NewAnswerNotifier(new(mockNotifier), zap.NewNop())
	other := events.NewProjectDeleted(valueobjects.NewProjectID(), "user-1", 1, time.Now())

	assert.Error(t, h.Handle(context.Background(), other))
}

func TestAnswerMetricsHandler(t *testing.T) {
	recorder := new(mockRecorder)
	recorder.On("RecordAnswer", mock.Anything, "gemini", true).Return()

	h := NewAnswerMetricsHandler(recorder, "gemini")
	require.NoError(t, h.Handle(context.Background(), answerEvent("user-1", true)))
	recorder.AssertExpectations(t)
}

func TestAnswerReady_MessageType(t *testing.T) {
	assert.Equal(t, "answer.generated", AnswerReady{}.MessageType())
}
