package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"knowspark/domain/core/valueobjects"
	"knowspark/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockEventBridge struct {
	mock.Mock
}

func (m *mockEventBridge) PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventbridge.PutEventsOutput), args.Error(1)
}

func projectCreated(t *testing.T, title string) events.DomainEvent {
	t.Helper()
	id := valueobjects.NewProjectID()
	return events.NewProjectCreated(id, "user-1", title, time.Now())
}

func TestPublisher_PublishBuildsEntry(t *testing.T) {
	client := new(mockEventBridge)
	p := NewPublisher(client, "knowspark-bus", zap.NewNop())
	event := projectCreated(t, "Circuits")

	var input *eventbridge.PutEventsInput
	client.On("PutEvents", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { input = args.Get(1).(*eventbridge.PutEventsInput) }).
		Return(&eventbridge.PutEventsOutput{}, nil)

	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, input.Entries, 1)

	entry := input.Entries[0]
	assert.Equal(t, "knowspark-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.SourceBackend, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeProjectCreated, aws.ToString(entry.DetailType))

	var detail map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "user-1", detail["user_id"])
	assert.Equal(t, "Circuits", detail["title"])
}

func TestPublisher_SplitsIntoBatchesOfTen(t *testing.T) {
	client := new(mockEventBridge)
	p := NewPublisher(client, "bus", zap.NewNop())

	var sizes []int
	client.On("PutEvents", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sizes = append(sizes, len(args.Get(1).(*eventbridge.PutEventsInput).Entries))
		}).
		Return(&eventbridge.PutEventsOutput{}, nil)

	batch := make([]events.DomainEvent, 23)
	for i := range batch {
		batch[i] = projectCreated(t, "p")
	}
	require.NoError(t, p.PublishBatch(context.Background(), batch))
	assert.Equal(t, []int{10, 10, 3}, sizes)
}

func TestPublisher_ReportsFailedEntries(t *testing.T) {
	client := new(mockEventBridge)
	p := NewPublisher(client, "bus", zap.NewNop())

	client.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []types.PutEventsResultEntry{
			{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("boom")},
		},
	}, nil)

	err := p.Publish(context.Background(), projectCreated(t, "p"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 events failed")
}

func TestPublisher_ClientError(t *testing.T) {
	client := new(mockEventBridge)
	p := NewPublisher(client, "bus", zap.NewNop())
	client.On("PutEvents", mock.Anything, mock.Anything).Return(nil, errors.New("network down"))

	err := p.Publish(context.Background(), projectCreated(t, "p"))
	assert.ErrorContains(t, err, "network down")
}

func TestPublisher_EmptyBatch(t *testing.T) {
	client := new(mockEventBridge)
	p := NewPublisher(client, "bus", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), nil))
	client.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
}
