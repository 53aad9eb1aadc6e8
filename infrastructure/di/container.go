package di

import (
	"io"

	"knowspark/application/commands/bus"
	"knowspark/application/ports"
	querybus "knowspark/application/queries/bus"
	"knowspark/application/services"
	domainconfig "knowspark/domain/config"
	"knowspark/infrastructure/config"
	"knowspark/pkg/auth"
	"knowspark/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	DomainConfig   *domainconfig.DomainConfig
	Logger         *zap.Logger
	ProjectRepo    ports.ProjectRepository
	ConnectionRepo ports.ConnectionRepository
	EventBus       ports.EventBus
	Notifier       ports.Notifier
	Completion     ports.CompletionService
	AnswerService  *services.AnswerService
	RenderService  *services.RenderService
	CommandBus     *bus.CommandBus
	QueryBus       *querybus.QueryBus
	Cache          ports.Cache
	Collector      *observability.Collector
	Metrics        *observability.Metrics
	Tracer         *observability.Tracer
	TokenVerifier  auth.TokenVerifier
	IPLimiter      *auth.IPRateLimiter
	UserLimiter    *auth.UserRateLimiter
}

// Close releases the completion client and cache and flushes the logger
func (c *Container) Close() error {
	var err error
	if closer, ok := c.Completion.(io.Closer); ok {
		err = closer.Close()
	}
	if mc, ok := c.Cache.(*MemoryCache); ok {
		mc.Close()
	}
	_ = c.Logger.Sync()
	return err
}
