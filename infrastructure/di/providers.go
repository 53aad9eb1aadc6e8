package di

import (
	"context"
	"fmt"
	"time"

	"knowspark/application/commands"
	"knowspark/application/commands/bus"
	commands_handlers "knowspark/application/commands/handlers"
	"knowspark/application/eventhandlers"
	"knowspark/application/ports"
	"knowspark/application/queries"
	querybus "knowspark/application/queries/bus"
	queries_handlers "knowspark/application/queries/handlers"
	"knowspark/application/services"
	domainconfig "knowspark/domain/config"
	"knowspark/domain/events"
	"knowspark/infrastructure/completion"
	"knowspark/infrastructure/config"
	"knowspark/infrastructure/messaging/eventbridge"
	"knowspark/infrastructure/messaging/local"
	"knowspark/infrastructure/notify"
	"knowspark/infrastructure/persistence/dynamodb"
	"knowspark/infrastructure/persistence/memory"
	supabasestore "knowspark/infrastructure/persistence/supabase"
	"knowspark/pkg/auth"
	"knowspark/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MetricsNamespace prefixes Prometheus metric names
const MetricsNamespace = "knowspark"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideDomainConfig derives the domain limits for the environment
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	domainCfg := domainconfig.LoadDomainConfig(cfg.Environment)
	if cfg.CompletionTimeout > 0 {
		domainCfg.CompletionTimeout = cfg.CompletionTimeout
	}
	if err := domainCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid domain configuration: %w", err)
	}
	return domainCfg, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideProjectRepository selects the project store named by STORE_BACKEND
func ProvideProjectRepository(
	client *awsdynamodb.Client,
	cfg *config.Config,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) (ports.ProjectRepository, error) {
	switch cfg.StoreBackend {
	case config.StoreDynamoDB:
		return dynamodb.NewProjectRepository(client, cfg.DynamoDBTable, cfg.IndexName, domainCfg, logger), nil
	case config.StoreSupabase:
		sb, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create supabase client: %w", err)
		}
		return supabasestore.NewProjectRepository(sb, cfg.SupabaseTable, domainCfg, logger), nil
	case config.StoreMemory:
		logger.Warn("Using in-memory project store; data is lost on restart")
		return memory.NewProjectRepository(domainCfg), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// ProvideConnectionRepository stores websocket connections in DynamoDB,
// or in memory for the memory backend
func ProvideConnectionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ConnectionRepository {
	if cfg.StoreBackend == config.StoreMemory || cfg.ConnectionsTable == "" {
		return memory.NewConnectionRepository()
	}
	return dynamodb.NewConnectionRepository(client, cfg.ConnectionsTable, cfg.IndexName, logger)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector(MetricsNamespace)
}

// ProvideMetrics creates the CloudWatch metrics publisher. Without
// ENABLE_METRICS it records nothing.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("KnowSpark/%s", cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer("knowspark", cfg.EnableTracing)
}

// ProvideCompletionService creates the configured provider behind a circuit breaker
func ProvideCompletionService(
	ctx context.Context,
	cfg *config.Config,
	collector *observability.Collector,
	logger *zap.Logger,
) (ports.CompletionService, error) {
	var provider ports.CompletionService
	switch cfg.CompletionProvider {
	case config.CompletionGemini:
		gemini, err := completion.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, err
		}
		provider = gemini
	case config.CompletionMock:
		logger.Warn("Using mock completion provider")
		provider = completion.NewMockProvider(0)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}

	return completion.NewBreakerProvider(provider, completion.BreakerConfig{
		Name:         provider.Name(),
		MaxRequests:  uint32(cfg.BreakerMaxRequests),
		Interval:     cfg.BreakerInterval,
		Timeout:      cfg.BreakerTimeout,
		FailureRatio: cfg.BreakerFailureRatio,
		MinRequests:  uint32(cfg.BreakerMinRequests),
	}, collector, logger), nil
}

// ProvideAnswerService creates the answer generation service
func ProvideAnswerService(
	completionSvc ports.CompletionService,
	collector *observability.Collector,
	tracer *observability.Tracer,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
) *services.AnswerService {
	return services.NewAnswerService(completionSvc, collector, tracer, logger, cfg.GeminiModel, domainCfg.CompletionTimeout)
}

// ProvideRenderService creates the answer renderer
func ProvideRenderService(collector *observability.Collector, logger *zap.Logger) *services.RenderService {
	return services.NewRenderService(collector, logger)
}

// ProvideNotifier pushes to API Gateway websockets when an endpoint is
// configured and only logs otherwise
func ProvideNotifier(
	awsCfg aws.Config,
	connections ports.ConnectionRepository,
	cfg *config.Config,
	logger *zap.Logger,
) ports.Notifier {
	if cfg.WebSocketEndpoint == "" {
		return notify.NewLogNotifier(logger)
	}
	return notify.NewWebSocketNotifier(notify.NewManagementClient(awsCfg, cfg.WebSocketEndpoint), connections, logger)
}

// ProvideEventBus creates the event bus. Deployed (Lambda or production)
// events also go to EventBridge, whose rule drives the send-message
// function; otherwise answer notifications are pushed in-process.
func ProvideEventBus(
	client *awseventbridge.Client,
	notifier ports.Notifier,
	metrics *observability.Metrics,
	completionSvc ports.CompletionService,
	cfg *config.Config,
	logger *zap.Logger,
) (ports.EventBus, error) {
	var downstream ports.EventPublisher
	if cfg.EventBusName != "" && (cfg.IsLambda || cfg.IsProduction()) {
		downstream = eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}
	eventBus := local.NewEventBus(downstream, logger)

	if err := eventBus.Subscribe(events.TypeAnswerGenerated,
		eventhandlers.NewAnswerMetricsHandler(metrics, completionSvc.Name())); err != nil {
		return nil, err
	}
	if downstream == nil {
		if err := eventBus.Subscribe(events.TypeAnswerGenerated,
			eventhandlers.NewAnswerNotifier(notifier, logger)); err != nil {
			return nil, err
		}
	}
	return eventBus, nil
}

// ProvideEventPublisher exposes the bus to command handlers
func ProvideEventPublisher(eventBus ports.EventBus) ports.EventPublisher {
	return eventBus
}

// ProvideTokenVerifier selects how bearer tokens are checked
func ProvideTokenVerifier(cfg *config.Config) (auth.TokenVerifier, error) {
	switch cfg.AuthProvider {
	case config.AuthSupabase:
		return auth.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	case config.AuthJWT:
		validator, err := auth.NewJWTValidator(auth.JWTConfig{
			SigningMethod: "HS256",
			SecretKey:     cfg.JWTSecret,
			Issuer:        cfg.JWTIssuer,
		})
		if err != nil {
			return nil, err
		}
		return auth.NewJWTVerifier(validator), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.AuthProvider)
	}
}

// ProvideIPRateLimiter limits unauthenticated traffic per client IP. With
// RATE_LIMIT_TABLE set the budget is shared through DynamoDB.
func ProvideIPRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.IPRateLimiter {
	if cfg.RateLimitTable != "" {
		return auth.NewIPRateLimiterWith(
			auth.NewDistributedRateLimiter(client, cfg.RateLimitTable, cfg.IPRateLimit, time.Minute))
	}
	return auth.NewIPRateLimiter(cfg.IPRateLimit)
}

// ProvideUserRateLimiter limits authenticated traffic per user
func ProvideUserRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.UserRateLimiter {
	if cfg.RateLimitTable != "" {
		return auth.NewUserRateLimiterWith(
			auth.NewDistributedRateLimiter(client, cfg.RateLimitTable, cfg.UserRateLimit, time.Minute))
	}
	return auth.NewUserRateLimiter(cfg.UserRateLimit)
}

// ProvideCache creates the read-side cache
func ProvideCache() ports.Cache {
	return NewMemoryCache(time.Minute)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

func commandHandler[C bus.Command](fn func(context.Context, C) error) *CommandHandlerAdapter {
	return &CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			typed, ok := cmd.(C)
			if !ok {
				return fmt.Errorf("invalid command type %T", cmd)
			}
			return fn(ctx, typed)
		},
	}
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	projectRepo ports.ProjectRepository,
	eventPublisher ports.EventPublisher,
	answerService *services.AnswerService,
	domainCfg *domainconfig.DomainConfig,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.Traced(tracer),
		bus.Logged(logger),
		bus.Measured(metrics),
	)

	projects := commands_handlers.NewProjectHandlers(projectRepo, eventPublisher, domainCfg, logger)
	questions := commands_handlers.NewQuestionHandlers(projectRepo, eventPublisher, answerService, domainCfg, logger)

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateProjectCommand{}, commandHandler(projects.HandleCreate)},
		{commands.RenameProjectCommand{}, commandHandler(projects.HandleRename)},
		{commands.DeleteProjectCommand{}, commandHandler(projects.HandleDelete)},
		{commands.SyncProjectsCommand{}, commandHandler(projects.HandleSync)},
		{commands.AskQuestionCommand{}, commandHandler(questions.HandleAsk)},
		{commands.RegenerateAnswerCommand{}, commandHandler(questions.HandleRegenerate)},
		{commands.UpdateQuestionTextCommand{}, commandHandler(questions.HandleUpdateText)},
		{commands.UpdateQuestionTopicCommand{}, commandHandler(questions.HandleUpdateTopic)},
		{commands.DeleteQuestionCommand{}, commandHandler(questions.HandleDelete)},
		{commands.ReorderQuestionsCommand{}, commandHandler(questions.HandleReorder)},
	}
	for _, r := range registrations {
		if err := commandBus.Register(r.cmd, r.handler); err != nil {
			return nil, err
		}
	}

	return commandBus, nil
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

func queryHandler[Q querybus.Query, R any](fn func(context.Context, Q) (R, error)) *QueryHandlerAdapter {
	return &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			typed, ok := query.(Q)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return fn(ctx, typed)
		},
	}
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	projectRepo ports.ProjectRepository,
	renderService *services.RenderService,
	answerService *services.AnswerService,
	cache ports.Cache,
	collector *observability.Collector,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.Measured(collector),
		querybus.Cached(cache, ShareCacheTTL),
	)
	h := queries_handlers.NewProjectQueryHandler(projectRepo, renderService, answerService, domainCfg, logger)

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandler
	}{
		{queries.GetProjectQuery{}, queryHandler(h.HandleGetProject)},
		{queries.ListProjectsQuery{}, queryHandler(h.HandleListProjects)},
		{queries.GetSharedProjectQuery{}, queryHandler(h.HandleGetSharedProject)},
		{queries.ListTopicsQuery{}, queryHandler(h.HandleListTopics)},
		{queries.RenderAnswerQuery{}, queryHandler(h.HandleRenderAnswer)},
		{queries.AnswerQuestionQuery{}, queryHandler(h.HandleAnswerQuestion)},
	}
	for _, r := range registrations {
		if err := queryBus.Register(r.query, r.handler); err != nil {
			return nil, err
		}
	}

	return queryBus, nil
}
