package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"knowspark/pkg/auth"
	pkgerrors "knowspark/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*auth.UserContext, error) {
	args := m.Called(ctx, token)
	if user, ok := args.Get(0).(*auth.UserContext); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("table unavailable")
}

func (brokenLimiter) Reset(context.Context, string) error { return nil }

func echoUser(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(user.UserID))
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(r *http.Request)
		verify     func(m *mockVerifier)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bearer token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			verify:     func(m *mockVerifier) { m.On("Verify", mock.Anything, "good").Return(&auth.UserContext{UserID: "u1"}, nil) },
			wantStatus: http.StatusOK,
			wantBody:   "u1",
		},
		{
			name:       "cookie token",
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "auth_token", Value: "good"}) },
			verify:     func(m *mockVerifier) { m.On("Verify", mock.Anything, "good").Return(&auth.UserContext{UserID: "u2"}, nil) },
			wantStatus: http.StatusOK,
			wantBody:   "u2",
		},
		{
			name:       "missing token",
			setup:      func(*http.Request) {},
			verify:     func(*mockVerifier) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non-bearer scheme",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
			verify:     func(*mockVerifier) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer old") },
			verify:     func(m *mockVerifier) { m.On("Verify", mock.Anything, "old").Return(nil, auth.ErrExpiredToken) },
			wantStatus: http.StatusUnauthorized,
			wantBody:   "token has expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &mockVerifier{}
			tt.verify(verifier)

			mw := Authenticate(verifier, auth.NewIPRateLimiter(100), auth.NewUserRateLimiter(100),
				pkgerrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop())

			req := httptest.NewRequest(http.MethodGet, "/api/v2/projects", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			mw(http.HandlerFunc(echoUser)).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			verifier.AssertExpectations(t)
		})
	}
}

func TestAuthenticate_UserRateLimit(t *testing.T) {
	verifier := &mockVerifier{}
	verifier.On("Verify", mock.Anything, "good").Return(&auth.UserContext{UserID: "u1"}, nil)

	mw := Authenticate(verifier, auth.NewIPRateLimiter(100), auth.NewUserRateLimiter(1),
		pkgerrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop())
	handler := mw(http.HandlerFunc(echoUser))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLimitByIP(t *testing.T) {
	mw := LimitByIP(auth.NewIPRateLimiter(1), pkgerrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.7"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7"))
	assert.Equal(t, http.StatusOK, send("203.0.113.8"))
}

func TestLimitByIP_FailsOpen(t *testing.T) {
	mw := LimitByIP(auth.NewIPRateLimiterWith(brokenLimiter{}), pkgerrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop())
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	assert.Equal(t, "192.0.2.10", getClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 198.51.100.2")
	assert.Equal(t, "203.0.113.1", getClientIP(req))
}
