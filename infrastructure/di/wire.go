//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"knowspark/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideProjectRepository,
	ProvideConnectionRepository,
	ProvideCollector,
	ProvideMetrics,
	ProvideTracer,
	ProvideCompletionService,
	ProvideAnswerService,
	ProvideRenderService,
	ProvideNotifier,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvideTokenVerifier,
	ProvideIPRateLimiter,
	ProvideUserRateLimiter,
	ProvideCache,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
