package dynamodb

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConnectionRepository_Save(t *testing.T) {
	client := new(mockDynamoDB)
	repo := NewConnectionRepository(client, "connections", "", zap.NewNop())
	expires := time.Now().Add(time.Hour)

	var saved *dynamodb.PutItemInput
	client.On("PutItem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*dynamodb.PutItemInput) }).
		Return(&dynamodb.PutItemOutput{}, nil)

	require.NoError(t, repo.Save(context.Background(), "user-1", "conn-1", expires))

	var item connectionItem
	require.NoError(t, attributevalue.UnmarshalMap(saved.Item, &item))
	assert.Equal(t, "CONNECTION#conn-1", item.PK)
	assert.Equal(t, "USER#user-1", item.GSI1PK)
	assert.Equal(t, expires.Unix(), item.TTL)
}

func TestConnectionRepository_ListSkipsExpired(t *testing.T) {
	client := new(mockDynamoDB)
	repo := NewConnectionRepository(client, "connections", "GSI1", zap.NewNop())

	live, err := attributevalue.MarshalMap(connectionItem{ConnectionID: "live", TTL: time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)
	stale, err := attributevalue.MarshalMap(connectionItem{ConnectionID: "stale", TTL: time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, err)

	client.On("Query", mock.Anything, mock.Anything).
		Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{live, stale}}, nil)

	ids, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, ids)
}

func TestConnectionRepository_Delete(t *testing.T) {
	client := new(mockDynamoDB)
	repo := NewConnectionRepository(client, "connections", "GSI1", zap.NewNop())

	client.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return in.Key["PK"].(*types.AttributeValueMemberS).Value == "CONNECTION#conn-7"
	})).Return(&dynamodb.DeleteItemOutput{}, nil)

	require.NoError(t, repo.Delete(context.Background(), "conn-7"))
	client.AssertExpectations(t)
}
