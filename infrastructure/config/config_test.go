package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("COMPLETION_PROVIDER", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, CompletionMock, cfg.CompletionProvider)
	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, 90*time.Second, cfg.CompletionTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knowspark.yaml")
	content := []byte(`
store_backend: dynamodb
table_name: from-file
gemini_model: gemini-1.5-pro
completion_timeout: 45s
cors_origins:
  - https://a.example
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TABLE_NAME", "from-env")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("COMPLETION_TIMEOUT", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDynamoDB, cfg.StoreBackend)
	assert.Equal(t, "from-env", cfg.DynamoDBTable)
	assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
	assert.Equal(t, 45*time.Second, cfg.CompletionTimeout)
	assert.Equal(t, []string{"https://a.example"}, cfg.CORSOrigins)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.StoreBackend = "redis" },
			wantErr: "unknown STORE_BACKEND",
		},
		{
			name: "supabase store needs credentials",
			mutate: func(c *Config) {
				c.StoreBackend = StoreSupabase
				c.SupabaseURL = "https://x.supabase.co"
			},
			wantErr: "SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY",
		},
		{
			name:    "gemini needs a key",
			mutate:  func(c *Config) { c.CompletionProvider = CompletionGemini },
			wantErr: "GEMINI_API_KEY",
		},
		{
			name: "mock provider is refused in production",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.JWTSecret = "secret"
			},
			wantErr: "mock completion provider",
		},
		{
			name: "production jwt needs a secret",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.CompletionProvider = CompletionGemini
				c.GeminiAPIKey = "key"
			},
			wantErr: "JWT_SECRET",
		},
		{
			name:    "breaker ratio out of range",
			mutate:  func(c *Config) { c.BreakerFailureRatio = 1.5 },
			wantErr: "BREAKER_FAILURE_RATIO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DURATION", "2m")
	assert.Equal(t, 2*time.Minute, getEnvDuration("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "15")
	assert.Equal(t, 15*time.Second, getEnvDuration("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvDuration("X_DURATION", time.Second))
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("X_LIST", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvList("X_LIST", nil))
}
