package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"knowspark/application/dto"
	domainconfig "knowspark/domain/config"
	"knowspark/domain/core/entities"
	"knowspark/infrastructure/completion"
	"knowspark/infrastructure/config"
	"knowspark/infrastructure/di"
	"knowspark/infrastructure/persistence/memory"
	"knowspark/pkg/auth"
	"knowspark/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "router-test-secret-with-enough-length"

type testServer struct {
	handler http.Handler
	mock    *completion.MockProvider
	tokens  *auth.JWTGenerator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	cfg := config.Defaults()
	cfg.JWTSecret = testSecret
	cfg.IPRateLimit = 1000
	cfg.UserRateLimit = 1000

	domainCfg := domainconfig.DefaultDomainConfig()
	repo := memory.NewProjectRepository(domainCfg)
	collector := observability.NewCollector("test")
	metrics := observability.NewMetrics("test", nil, logger)
	tracer := observability.NewTracer("test", false)
	mock := completion.NewMockProvider(0)

	eventBus, err := di.ProvideEventBus(nil, notifyNothing{}, metrics, mock, cfg, logger)
	require.NoError(t, err)
	answers := di.ProvideAnswerService(mock, collector, tracer, domainCfg, cfg, logger)
	commandBus, err := di.ProvideCommandBus(repo, eventBus, answers, domainCfg, metrics, tracer, logger)
	require.NoError(t, err)
	cache := di.NewMemoryCache(0)
	queryBus, err := di.ProvideQueryBus(repo, di.ProvideRenderService(collector, logger), answers, cache, collector, domainCfg, logger)
	require.NoError(t, err)
	verifier, err := di.ProvideTokenVerifier(cfg)
	require.NoError(t, err)

	container := &di.Container{
		Config:        cfg,
		DomainConfig:  domainCfg,
		Logger:        logger,
		ProjectRepo:   repo,
		EventBus:      eventBus,
		Completion:    mock,
		AnswerService: answers,
		CommandBus:    commandBus,
		QueryBus:      queryBus,
		Cache:         cache,
		Collector:     collector,
		Metrics:       metrics,
		Tracer:        tracer,
		TokenVerifier: verifier,
		IPLimiter:     auth.NewIPRateLimiter(cfg.IPRateLimit),
		UserLimiter:   auth.NewUserRateLimiter(cfg.UserRateLimit),
	}

	tokens, err := auth.NewJWTGenerator(testSecret, cfg.JWTIssuer, nil, time.Hour)
	require.NoError(t, err)

	return &testServer{handler: NewRouter(container).Setup(), mock: mock, tokens: tokens}
}

type notifyNothing struct{}

func (notifyNothing) NotifyUser(context.Context, string, interface{}) error { return nil }

func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := s.tokens.GenerateToken(userID, userID+"@example.com", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v2", rec.Header().Get("X-API-Version"))

	rec = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"completion":"mock"`)

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v2/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/projects", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ProjectLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v2/projects", "alice", map[string]string{"title": "Logic"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode[dto.Project](t, rec)
	assert.Equal(t, "Logic", project.Title)
	base := "/api/v2/projects/" + project.ID

	rec = s.do(t, http.MethodPost, base+"/questions", "alice", map[string]string{"text": "What is a NAND gate?"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	question := decode[dto.Question](t, rec)
	require.NotNil(t, question.Answer)
	assert.False(t, question.Answer.IsError())

	rec = s.do(t, http.MethodPut, base+"/questions/"+question.ID+"/topic", "alice", map[string]string{"topic": "Gates"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Gates", decode[dto.Question](t, rec).Topic)

	rec = s.do(t, http.MethodGet, base+"/topics", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Gates"`)

	rec = s.do(t, http.MethodGet, base+"/questions/"+question.ID+"/render", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"sections"`)

	rec = s.do(t, http.MethodGet, "/api/v2/projects", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	// Other users cannot see the project.
	rec = s.do(t, http.MethodGet, base, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The share view is public and hides the owner.
	rec = s.do(t, http.MethodGet, "/api/v2/share/"+project.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	shared := decode[dto.Project](t, rec)
	assert.Empty(t, shared.UserID)
	assert.Len(t, shared.Questions, 1)

	rec = s.do(t, http.MethodDelete, base+"/questions/"+question.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, base, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, base, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Ask(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v2/ask", "alice", map[string]string{"question": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v2/ask", "alice", map[string]string{"question": "Explain De Morgan's laws"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	answer := decode[*entities.Answer](t, rec)
	assert.False(t, answer.IsError())

	s.mock.FailWith(errors.New("429 Too Many Requests"))
	rec = s.do(t, http.MethodPost, "/api/v2/ask", "alice", map[string]string{"question": "Explain De Morgan's laws"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	failed := decode[*entities.Answer](t, rec)
	assert.True(t, failed.IsError())
	assert.Equal(t, entities.ErrorAnswerTitle, failed.Title())
}

func TestRouter_Sync(t *testing.T) {
	s := newTestServer(t)
	now := time.Now().UnixMilli()

	local := dto.Project{
		ID:        "0b7e6a3c-5d1f-4e8a-9c2b-1f3d5e7a9b0c",
		Title:     "Offline notes",
		Questions: []dto.Question{},
		CreatedAt: now - 1000,
		UpdatedAt: now,
	}
	rec := s.do(t, http.MethodPost, "/api/v2/projects/sync", "alice", map[string]interface{}{
		"projects": []dto.Project{local},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Contains(t, body, `"uploaded":1`)
	assert.Contains(t, body, "Offline notes")

	rec = s.do(t, http.MethodGet, "/api/v2/projects/"+local.ID, "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":true`)

	rec = s.do(t, http.MethodGet, "/api/v1/projects", "", nil)
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/api/v2/projects", rec.Header().Get("Location"))
}
