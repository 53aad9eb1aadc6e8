package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreDynamoDB = "dynamodb"
	StoreSupabase = "supabase"
	StoreMemory   = "memory"
)

// Auth providers
const (
	AuthJWT      = "jwt"
	AuthSupabase = "supabase"
)

// Completion providers
const (
	CompletionGemini = "gemini"
	CompletionMock   = "mock"
)

// DefaultGeminiModel is used when GEMINI_MODEL is not set
const DefaultGeminiModel = "gemini-2.5-flash"

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"server_address"`
	Environment     string        `yaml:"environment"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AWS configuration
	AWSRegion        string `yaml:"aws_region"`
	DynamoDBTable    string `yaml:"table_name"`
	IndexName        string `yaml:"index_name"` // GSI1 - lookups by project or connection ID
	EventBusName     string `yaml:"event_bus_name"`
	RateLimitTable   string `yaml:"rate_limit_table"`
	ConnectionsTable string `yaml:"connections_table"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// WebSocket configuration
	WebSocketEndpoint string        `yaml:"websocket_endpoint"`
	ConnectionTTL     time.Duration `yaml:"connection_ttl"`

	// Storage
	StoreBackend           string `yaml:"store_backend"`
	SupabaseURL            string `yaml:"supabase_url"`
	SupabaseServiceRoleKey string `yaml:"-"`
	SupabaseTable          string `yaml:"supabase_table"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	AuthProvider string `yaml:"auth_provider"`
	JWTSecret    string `yaml:"-"`
	JWTIssuer    string `yaml:"jwt_issuer"`

	// Completion
	CompletionProvider string        `yaml:"completion_provider"`
	GeminiAPIKey       string        `yaml:"-"`
	GeminiModel        string        `yaml:"gemini_model"`
	CompletionTimeout  time.Duration `yaml:"completion_timeout"`

	// Circuit breaker around the completion provider
	BreakerMaxRequests  int           `yaml:"breaker_max_requests"`
	BreakerInterval     time.Duration `yaml:"breaker_interval"`
	BreakerTimeout      time.Duration `yaml:"breaker_timeout"`
	BreakerFailureRatio float64       `yaml:"breaker_failure_ratio"`
	BreakerMinRequests  int           `yaml:"breaker_min_requests"`

	// Rate limiting, requests per minute
	IPRateLimit   int `yaml:"ip_rate_limit"`
	UserRateLimit int `yaml:"user_rate_limit"`

	// Feature flags
	EnableMetrics bool     `yaml:"enable_metrics"`
	EnableTracing bool     `yaml:"enable_tracing"`
	EnableCORS    bool     `yaml:"enable_cors"`
	CORSOrigins   []string `yaml:"cors_origins"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ServerAddress:   ":8080",
		Environment:     "development",
		ShutdownTimeout: 30 * time.Second,

		AWSRegion:        "us-west-2",
		DynamoDBTable:    "knowspark",
		IndexName:        "GSI1",
		EventBusName:     "knowspark-events",
		ConnectionsTable: "knowspark-connections",

		ConnectionTTL: 2 * time.Hour,

		StoreBackend:  StoreMemory,
		SupabaseTable: "projects",

		LogLevel: "info",

		AuthProvider: AuthJWT,
		JWTIssuer:    "knowspark",

		CompletionProvider: CompletionMock,
		GeminiModel:        DefaultGeminiModel,
		CompletionTimeout:  90 * time.Second,

		BreakerMaxRequests:  5,
		BreakerInterval:     30 * time.Second,
		BreakerTimeout:      60 * time.Second,
		BreakerFailureRatio: 0.8,
		BreakerMinRequests:  5,

		IPRateLimit:   120,
		UserRateLimit: 30,

		EnableCORS:  true,
		CORSOrigins: []string{"*"},
	}
}

// LoadConfig loads configuration from an optional YAML file named by
// CONFIG_FILE, then from environment variables. Environment wins.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.IndexName = getEnv("INDEX_NAME", c.IndexName)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.RateLimitTable = getEnv("RATE_LIMIT_TABLE", c.RateLimitTable)
	c.ConnectionsTable = getEnv("CONNECTIONS_TABLE", c.ConnectionsTable)

	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda)
	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)

	c.WebSocketEndpoint = getEnv("WEBSOCKET_ENDPOINT", c.WebSocketEndpoint)
	c.ConnectionTTL = getEnvDuration("CONNECTION_TTL", c.ConnectionTTL)

	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.SupabaseURL = getEnv("SUPABASE_URL", c.SupabaseURL)
	c.SupabaseServiceRoleKey = getEnv("SUPABASE_SERVICE_ROLE_KEY", c.SupabaseServiceRoleKey)
	c.SupabaseTable = getEnv("SUPABASE_TABLE", c.SupabaseTable)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.AuthProvider = strings.ToLower(getEnv("AUTH_PROVIDER", c.AuthProvider))
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.CompletionProvider = strings.ToLower(getEnv("COMPLETION_PROVIDER", c.CompletionProvider))
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.CompletionTimeout = getEnvDuration("COMPLETION_TIMEOUT", c.CompletionTimeout)

	c.BreakerMaxRequests = getEnvInt("BREAKER_MAX_REQUESTS", c.BreakerMaxRequests)
	c.BreakerInterval = getEnvDuration("BREAKER_INTERVAL", c.BreakerInterval)
	c.BreakerTimeout = getEnvDuration("BREAKER_TIMEOUT", c.BreakerTimeout)
	c.BreakerFailureRatio = getEnvFloat("BREAKER_FAILURE_RATIO", c.BreakerFailureRatio)
	c.BreakerMinRequests = getEnvInt("BREAKER_MIN_REQUESTS", c.BreakerMinRequests)

	c.IPRateLimit = getEnvInt("IP_RATE_LIMIT", c.IPRateLimit)
	c.UserRateLimit = getEnvInt("USER_RATE_LIMIT", c.UserRateLimit)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required for the dynamodb store")
		}
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.AuthProvider {
	case AuthJWT:
		if c.IsProduction() && c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	case AuthSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for supabase auth")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	switch c.CompletionProvider {
	case CompletionGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case CompletionMock:
		if c.IsProduction() {
			return fmt.Errorf("the mock completion provider cannot run in production")
		}
	default:
		return fmt.Errorf("unknown COMPLETION_PROVIDER %q", c.CompletionProvider)
	}

	if c.CompletionTimeout <= 0 {
		return fmt.Errorf("COMPLETION_TIMEOUT must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1]")
	}

	if c.IsProduction() && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required in production")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
