// Package main implements the websocket $disconnect Lambda
package main

import (
	"context"
	"log"
	"net/http"

	"knowspark/application/ports"
	"knowspark/infrastructure/config"
	"knowspark/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

type disconnectHandler struct {
	connections ports.ConnectionRepository
	logger      *zap.Logger
}

func (h *disconnectHandler) handle(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID
	if err := h.connections.Delete(ctx, connectionID); err != nil {
		// The row expires on its own; API Gateway ignores disconnect responses.
		h.logger.Warn("Failed to remove connection", zap.String("connectionID", connectionID), zap.Error(err))
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, nil
	}
	h.logger.Info("Connection closed", zap.String("connectionID", connectionID))
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	awsCfg, err := di.ProvideAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}

	h := &disconnectHandler{
		connections: di.ProvideConnectionRepository(di.ProvideDynamoDBClient(awsCfg), cfg, logger),
		logger:      logger,
	}
	lambda.Start(h.handle)
}
