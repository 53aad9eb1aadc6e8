package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"knowspark/application/eventhandlers"
	domainevents "knowspark/domain/events"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	users    []string
	payloads []interface{}
	err      error
}

func (n *recordingNotifier) NotifyUser(_ context.Context, userID string, payload interface{}) error {
	n.users = append(n.users, userID)
	n.payloads = append(n.payloads, payload)
	return n.err
}

func answerEvent(t *testing.T, detailType string) events.CloudWatchEvent {
	t.Helper()
	detail, err := json.Marshal(domainevents.AnswerGenerated{
		BaseEvent: domainevents.BaseEvent{
			AggregateID: "7d4f0a52-4a43-4f1e-9d59-0c1f1f7a2b11",
			EventType:   domainevents.TypeAnswerGenerated,
			Timestamp:   time.Now(),
			Version:     3,
		},
		UserID:     "user-1",
		QuestionID: "q-1",
		AnswerID:   "a-1",
		Title:      "NAND gates",
	})
	require.NoError(t, err)
	return events.CloudWatchEvent{
		ID:         "evt-1",
		Source:     domainevents.SourceBackend,
		DetailType: detailType,
		Detail:     detail,
	}
}

func TestSendHandler_PushesAnswerToOwner(t *testing.T) {
	notifier := &recordingNotifier{}
	h := &sendHandler{handler: eventhandlers.NewAnswerNotifier(notifier, zap.NewNop()), logger: zap.NewNop()}

	require.NoError(t, h.handle(context.Background(), answerEvent(t, domainevents.TypeAnswerGenerated)))

	require.Equal(t, []string{"user-1"}, notifier.users)
	ready, ok := notifier.payloads[0].(eventhandlers.AnswerReady)
	require.True(t, ok)
	assert.Equal(t, "a-1", ready.AnswerID)
	assert.Equal(t, "NAND gates", ready.Title)
	assert.Equal(t, 3, ready.Version)
}

func TestSendHandler_IgnoresOtherEvents(t *testing.T) {
	notifier := &recordingNotifier{}
	h := &sendHandler{handler: eventhandlers.NewAnswerNotifier(notifier, zap.NewNop()), logger: zap.NewNop()}

	require.NoError(t, h.handle(context.Background(), answerEvent(t, domainevents.TypeProjectCreated)))

	foreign := answerEvent(t, domainevents.TypeAnswerGenerated)
	foreign.Source = "aws.s3"
	require.NoError(t, h.handle(context.Background(), foreign))

	malformed := answerEvent(t, domainevents.TypeAnswerGenerated)
	malformed.Detail = json.RawMessage(`"not an object"`)
	require.NoError(t, h.handle(context.Background(), malformed))

	assert.Empty(t, notifier.users)
}

func TestSendHandler_ReturnsNotifyFailure(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("all sends failed")}
	h := &sendHandler{handler: eventhandlers.NewAnswerNotifier(notifier, zap.NewNop()), logger: zap.NewNop()}

	err := h.handle(context.Background(), answerEvent(t, domainevents.TypeAnswerGenerated))
	assert.ErrorContains(t, err, "all sends failed")
}
