package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"knowspark/application/dto"
	"knowspark/application/ports"
	"knowspark/domain/config"
	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	pkgerrors "knowspark/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	batchWriteLimit = 25
	maxBatchRetries = 3

	entityProject = "PROJECT"

	// projectSchemaVersion is written on every project item
	projectSchemaVersion = 1
)

// DynamoDBAPI is the subset of the DynamoDB client the repositories use
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// ProjectRepository implements ports.ProjectRepository using DynamoDB.
// A project is one item keyed under its owner; GSI1 resolves a project
// ID without knowing the owner.
type ProjectRepository struct {
	client    DynamoDBAPI
	tableName string
	indexName string
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(client DynamoDBAPI, tableName, indexName string, cfg *config.DomainConfig, logger *zap.Logger) *ProjectRepository {
	if indexName == "" {
		indexName = "GSI1"
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ProjectRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		cfg:       cfg,
		logger:    logger,
	}
}

// projectItem represents the DynamoDB item structure for a project
type projectItem struct {
	PK            string         `dynamodbav:"PK"`
	SK            string         `dynamodbav:"SK"`
	GSI1PK        string         `dynamodbav:"GSI1PK"` // PROJECTID#<id>
	GSI1SK        string         `dynamodbav:"GSI1SK"` // Always "METADATA"
	EntityType    string         `dynamodbav:"EntityType"`
	SchemaVersion int            `dynamodbav:"SchemaVersion"`
	ProjectID     string         `dynamodbav:"ProjectID"`
	UserID        string         `dynamodbav:"UserID"`
	Title         string         `dynamodbav:"Title"`
	Questions     []questionItem `dynamodbav:"Questions"`
	CreatedAt     int64          `dynamodbav:"CreatedAt"`
	UpdatedAt     int64          `dynamodbav:"UpdatedAt"`
	Version       int            `dynamodbav:"Version"`
}

// questionItem is a question embedded in its project item. The answer is
// kept as its JSON document.
type questionItem struct {
	QuestionID string `dynamodbav:"QuestionID"`
	Text       string `dynamodbav:"Text"`
	Topic      string `dynamodbav:"Topic,omitempty"`
	CreatedAt  int64  `dynamodbav:"CreatedAt"`
	Answer     string `dynamodbav:"Answer,omitempty"`
}

func userPK(userID string) string {
	return "USER#" + userID
}

func projectSK(projectID string) string {
	return "PROJECT#" + projectID
}

func projectGSI1PK(projectID string) string {
	return "PROJECTID#" + projectID
}

// Save persists a project, replacing any stored copy
func (r *ProjectRepository) Save(ctx context.Context, project *entities.Project) error {
	av, err := r.marshal(project)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("Failed to save project to DynamoDB",
			zap.Error(err),
			zap.String("projectID", project.ID().String()),
		)
		return translateError("save project", err)
	}

	r.logger.Debug("Saved project",
		zap.String("projectID", project.ID().String()),
		zap.String("userID", project.UserID()),
		zap.Int("questions", project.QuestionCount()),
	)
	return nil
}

// SaveBatch persists projects in chunks of 25, retrying unprocessed items
// with backoff
func (r *ProjectRepository) SaveBatch(ctx context.Context, projects []*entities.Project) error {
	requests := make([]types.WriteRequest, 0, len(projects))
	for _, p := range projects {
		av, err := r.marshal(p)
		if err != nil {
			return err
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}

	for start := 0; start < len(requests); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(requests) {
			end = len(requests)
		}
		if err := r.writeBatch(ctx, requests[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProjectRepository) writeBatch(ctx context.Context, pending []types.WriteRequest) error {
	for retry := 0; retry <= maxBatchRetries && len(pending) > 0; retry++ {
		if retry > 0 {
			backoff := time.Duration(retry*retry) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: pending},
		})
		if err != nil {
			r.logger.Warn("Batch write failed, retrying",
				zap.Error(err),
				zap.Int("retry", retry+1),
			)
			continue
		}
		pending = result.UnprocessedItems[r.tableName]
	}

	if len(pending) > 0 {
		return pkgerrors.NewDatabaseError("save projects",
			fmt.Errorf("%d items unprocessed after %d retries", len(pending), maxBatchRetries))
	}
	return nil
}

// GetByID finds a project through GSI1
func (r *ProjectRepository) GetByID(ctx context.Context, id valueobjects.ProjectID) (*entities.Project, error) {
	item, err := r.findItem(ctx, id.String())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("project").WithCause(entities.ErrProjectNotFound)
	}
	return r.toProject(item)
}

// ListByUser returns every project owned by userID, most recently
// updated first
func (r *ProjectRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Project, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith("PROJECT#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var projects []*entities.Project
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, translateError("list projects", err)
		}

		for _, raw := range result.Items {
			var item projectItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Skipping unreadable project item", zap.String("userID", userID), zap.Error(err))
				continue
			}
			project, err := r.toProject(&item)
			if err != nil {
				r.logger.Warn("Skipping invalid project item",
					zap.String("projectID", item.ProjectID),
					zap.Error(err),
				)
				continue
			}
			projects = append(projects, project)
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt().After(projects[j].UpdatedAt())
	})
	return projects, nil
}

// Delete removes a project. A missing project is not an error.
func (r *ProjectRepository) Delete(ctx context.Context, id valueobjects.ProjectID) error {
	item, err := r.findItem(ctx, id.String())
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: item.PK},
			"SK": &types.AttributeValueMemberS{Value: item.SK},
		},
	})
	if err != nil {
		return translateError("delete project", err)
	}
	return nil
}

// findItem returns nil when no project has the ID
func (r *ProjectRepository) findItem(ctx context.Context, projectID string) (*projectItem, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(projectGSI1PK(projectID))).
		And(expression.Key("GSI1SK").Equal(expression.Value("METADATA")))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, translateError("get project", err)
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	var item projectItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &item, nil
}

func (r *ProjectRepository) marshal(project *entities.Project) (map[string]types.AttributeValue, error) {
	view := dto.FromProject(project)
	item := projectItem{
		PK:            userPK(view.UserID),
		SK:            projectSK(view.ID),
		GSI1PK:        projectGSI1PK(view.ID),
		GSI1SK:        "METADATA",
		EntityType:    entityProject,
		SchemaVersion: projectSchemaVersion,
		ProjectID:     view.ID,
		UserID:        view.UserID,
		Title:         view.Title,
		Questions:     make([]questionItem, 0, len(view.Questions)),
		CreatedAt:     view.CreatedAt,
		UpdatedAt:     view.UpdatedAt,
		Version:       view.Version,
	}
	for _, q := range view.Questions {
		qi := questionItem{
			QuestionID: q.ID,
			Text:       q.Text,
			Topic:      q.Topic,
			CreatedAt:  q.CreatedAt,
		}
		if q.Answer != nil {
			data, err := json.Marshal(q.Answer)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal answer for question %s: %w", q.ID, err)
			}
			qi.Answer = string(data)
		}
		item.Questions = append(item.Questions, qi)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project: %w", err)
	}
	return av, nil
}

func (r *ProjectRepository) toProject(item *projectItem) (*entities.Project, error) {
	view := dto.Project{
		ID:        item.ProjectID,
		Title:     item.Title,
		Questions: make([]dto.Question, 0, len(item.Questions)),
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
		Version:   item.Version,
	}
	for _, qi := range item.Questions {
		q := dto.Question{
			ID:        qi.QuestionID,
			Text:      qi.Text,
			Topic:     qi.Topic,
			CreatedAt: qi.CreatedAt,
		}
		if qi.Answer != "" {
			answer := &entities.Answer{}
			if err := json.Unmarshal([]byte(qi.Answer), answer); err != nil {
				// A damaged answer is dropped; the question survives.
				r.logger.Warn("Dropping unreadable stored answer",
					zap.String("projectID", item.ProjectID),
					zap.String("questionID", qi.QuestionID),
					zap.Error(err),
				)
			} else {
				q.Answer = answer
			}
		}
		view.Questions = append(view.Questions, q)
	}

	project, err := view.ToProject(item.UserID, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct project: %w", err)
	}
	return project, nil
}

// translateError maps DynamoDB failures onto the application error types
func translateError(operation string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" &&
		strings.Contains(apiErr.ErrorMessage(), "size") {
		return pkgerrors.NewValidationError("project is too large to store").WithCause(err)
	}
	var throttled *types.ProvisionedThroughputExceededException
	if errors.As(err, &throttled) {
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	}
	var limit *types.RequestLimitExceeded
	if errors.As(err, &limit) {
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	}
	return pkgerrors.NewDatabaseError(operation, err)
}
