// Package main implements the websocket $connect Lambda. It verifies the
// caller's session token and records the connection for answer pushes.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"knowspark/application/ports"
	"knowspark/infrastructure/config"
	"knowspark/infrastructure/di"
	"knowspark/pkg/auth"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

type connectHandler struct {
	verifier    auth.TokenVerifier
	connections ports.ConnectionRepository
	ttl         time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func (h *connectHandler) handle(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID

	token := sessionToken(req)
	if token == "" {
		h.logger.Warn("Connection rejected: no token", zap.String("connectionID", connectionID))
		return respond(http.StatusUnauthorized, map[string]string{"error": "unauthorized"}), nil
	}

	user, err := h.verifier.Verify(ctx, token)
	if err != nil {
		h.logger.Warn("Connection rejected",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
		return respond(http.StatusUnauthorized, map[string]string{"error": "unauthorized"}), nil
	}

	now := h.now()
	if err := h.connections.Save(ctx, user.UserID, connectionID, now.Add(h.ttl)); err != nil {
		h.logger.Error("Failed to store connection",
			zap.String("connectionID", connectionID),
			zap.String("userID", user.UserID),
			zap.Error(err),
		)
		return respond(http.StatusInternalServerError, map[string]string{"error": "internal server error"}), nil
	}

	h.logger.Info("Connection established",
		zap.String("connectionID", connectionID),
		zap.String("userID", user.UserID),
	)
	return respond(http.StatusOK, map[string]interface{}{
		"type":         "connection_established",
		"connectionId": connectionID,
		"timestamp":    now.UnixMilli(),
	}), nil
}

// sessionToken reads the token from the query string, where browsers put
// it, or from a bearer Authorization header
func sessionToken(req events.APIGatewayWebsocketProxyRequest) string {
	if token := req.QueryStringParameters["token"]; token != "" {
		return token
	}
	for key, value := range req.Headers {
		if strings.EqualFold(key, "Authorization") {
			return strings.TrimSpace(strings.TrimPrefix(value, "Bearer "))
		}
	}
	return ""
}

func respond(status int, body interface{}) events.APIGatewayProxyResponse {
	data, _ := json.Marshal(body)
	return events.APIGatewayProxyResponse{StatusCode: status, Body: string(data)}
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
	verifier, err := di.ProvideTokenVerifier(cfg)
	if err != nil {
		logger.Fatal("Failed to create token verifier", zap.Error(err))
	}

	h := &connectHandler{
		verifier:    verifier,
		connections: di.ProvideConnectionRepository(di.ProvideDynamoDBClient(awsCfg), cfg, logger),
		ttl:         cfg.ConnectionTTL,
		logger:      logger,
		now:         time.Now,
	}
	lambda.Start(h.handle)
}
