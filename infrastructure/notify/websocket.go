// Package notify pushes small JSON messages to a user's open websocket clients
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"knowspark/application/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"
)

// ConnectionPoster is the subset of the API Gateway management client the
// notifier uses
type ConnectionPoster interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// Message is the envelope every client receives
type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Typed lets a payload choose its message type
type Typed interface {
	MessageType() string
}

// NewManagementClient builds an API Gateway management client for the
// websocket API endpoint (host plus stage, without scheme)
func NewManagementClient(cfg aws.Config, endpoint string) *apigatewaymanagementapi.Client {
	return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})
}

// WebSocketNotifier implements ports.Notifier over API Gateway websockets
type WebSocketNotifier struct {
	poster      ConnectionPoster
	connections ports.ConnectionRepository
	logger      *zap.Logger
	now         func() time.Time
}

var _ ports.Notifier = (*WebSocketNotifier)(nil)

// NewWebSocketNotifier creates a notifier
func NewWebSocketNotifier(poster ConnectionPoster, connections ports.ConnectionRepository, logger *zap.Logger) *WebSocketNotifier {
	return &WebSocketNotifier{
		poster:      poster,
		connections: connections,
		logger:      logger,
		now:         time.Now,
	}
}

// NotifyUser sends payload to every live connection of userID. Connections
// that are gone are removed. It fails only when every send failed.
func (n *WebSocketNotifier) NotifyUser(ctx context.Context, userID string, payload interface{}) error {
	connectionIDs, err := n.connections.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user connections: %w", err)
	}
	if len(connectionIDs) == 0 {
		return nil
	}

	msgType := "message"
	if t, ok := payload.(Typed); ok {
		msgType = t.MessageType()
	}
	body, err := json.Marshal(Message{
		Type:      msgType,
		Timestamp: n.now().UnixMilli(),
		Data:      payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	var errs []error
	delivered := 0
	for _, connID := range connectionIDs {
		if err := n.send(ctx, connID, body); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered++
	}

	n.logger.Debug("Notification sent",
		zap.String("userID", userID),
		zap.String("type", msgType),
		zap.Int("delivered", delivered),
		zap.Int("failed", len(errs)),
	)

	if delivered == 0 && len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (n *WebSocketNotifier) send(ctx context.Context, connectionID string, body []byte) error {
	_, err := n.poster.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         body,
	})
	if err == nil {
		return nil
	}

	var gone *apigwTypes.GoneException
	if errors.As(err, &gone) {
		if delErr := n.connections.Delete(ctx, connectionID); delErr != nil {
			n.logger.Warn("Failed to remove stale connection",
				zap.String("connectionID", connectionID),
				zap.Error(delErr),
			)
		} else {
			n.logger.Info("Removed stale connection", zap.String("connectionID", connectionID))
		}
		return nil
	}
	return fmt.Errorf("failed to send to connection %s: %w", connectionID, err)
}

// LogNotifier logs notifications instead of delivering them. It is used when
// no websocket endpoint is configured.
type LogNotifier struct {
	logger *zap.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyUser logs the notification
func (n *LogNotifier) NotifyUser(_ context.Context, userID string, payload interface{}) error {
	msgType := "message"
	if t, ok := payload.(Typed); ok {
		msgType = t.MessageType()
	}
	n.logger.Debug("Notification skipped, no websocket endpoint",
		zap.String("userID", userID),
		zap.String("type", msgType),
	)
	return nil
}
