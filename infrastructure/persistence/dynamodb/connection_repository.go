package dynamodb

import (
	"context"
	"fmt"
	"time"

	"knowspark/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ConnectionRepository stores websocket connections so answers can be
// pushed to every open session of a user. Rows expire through the table's
// TTL attribute.
type ConnectionRepository struct {
	client    DynamoDBAPI
	tableName string
	indexName string
	logger    *zap.Logger
}

var _ ports.ConnectionRepository = (*ConnectionRepository)(nil)

// NewConnectionRepository creates a new ConnectionRepository
func NewConnectionRepository(client DynamoDBAPI, tableName, indexName string, logger *zap.Logger) *ConnectionRepository {
	if indexName == "" {
		indexName = "GSI1"
	}
	return &ConnectionRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// connectionItem uses PK=CONNECTION#<id>, SK=METADATA; GSI1 groups a
// user's connections
type connectionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	TTL          int64  `dynamodbav:"TTL"`
}

func connectionPK(connectionID string) string {
	return "CONNECTION#" + connectionID
}

// Save records a connection that expires at expiresAt
func (r *ConnectionRepository) Save(ctx context.Context, userID, connectionID string, expiresAt time.Time) error {
	item := connectionItem{
		PK:           connectionPK(connectionID),
		SK:           "METADATA",
		GSI1PK:       userPK(userID),
		GSI1SK:       connectionPK(connectionID),
		ConnectionID: connectionID,
		UserID:       userID,
		ConnectedAt:  time.Now().UTC().Format(time.RFC3339),
		TTL:          expiresAt.Unix(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return translateError("store connection", err)
	}
	return nil
}

// Delete removes a connection. Deleting an unknown connection succeeds.
func (r *ConnectionRepository) Delete(ctx context.Context, connectionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: connectionPK(connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return translateError("delete connection", err)
	}
	return nil
}

// ListByUser returns the IDs of the user's live connections. Rows past
// their TTL that DynamoDB has not swept yet are skipped.
func (r *ConnectionRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("GSI1SK").BeginsWith("CONNECTION#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	now := time.Now().Unix()
	var ids []string
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, translateError("list connections", err)
		}

		var items []connectionItem
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
		}
		for _, item := range items {
			if item.TTL > 0 && item.TTL < now {
				continue
			}
			ids = append(ids, item.ConnectionID)
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	r.logger.Debug("Listed connections", zap.String("userID", userID), zap.Int("count", len(ids)))
	return ids, nil
}
