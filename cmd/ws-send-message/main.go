// Package main implements the Lambda that pushes answer notifications to
// websocket clients. An EventBridge rule routes answer.generated events here.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"knowspark/application/eventhandlers"
	"knowspark/application/ports"
	domainevents "knowspark/domain/events"
	"knowspark/infrastructure/config"
	"knowspark/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

type sendHandler struct {
	handler ports.EventHandler
	logger  *zap.Logger
}

func (h *sendHandler) handle(ctx context.Context, event events.CloudWatchEvent) error {
	if event.Source != domainevents.SourceBackend || !h.handler.CanHandle(event.DetailType) {
		h.logger.Debug("Ignoring event",
			zap.String("source", event.Source),
			zap.String("detailType", event.DetailType),
		)
		return nil
	}

	var answer domainevents.AnswerGenerated
	if err := json.Unmarshal(event.Detail, &answer); err != nil {
		// Retrying cannot fix a malformed detail.
		h.logger.Error("Malformed event detail", zap.String("eventID", event.ID), zap.Error(err))
		return nil
	}

	if err := h.handler.Handle(ctx, answer); err != nil {
		return fmt.Errorf("notify %s: %w", answer.UserID, err)
	}
	return nil
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

	connections := di.ProvideConnectionRepository(di.ProvideDynamoDBClient(awsCfg), cfg, logger)
	notifier := di.ProvideNotifier(awsCfg, connections, cfg, logger)

	h := &sendHandler{
		handler: eventhandlers.NewAnswerNotifier(notifier, logger),
		logger:  logger,
	}
	lambda.Start(h.handle)
}
