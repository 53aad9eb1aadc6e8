package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		debug      bool
		wantStatus int
		wantType   ErrorType
		wantMsg    string
	}{
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("failed to get project: %w", NewNotFoundError("project")),
			wantStatus: http.StatusNotFound,
			wantType:   ErrorTypeNotFound,
			wantMsg:    "project not found",
		},
		{
			name:       "throttled",
			err:        NewThrottledError("slow down").WithCode("USER_RATE_LIMIT"),
			wantStatus: http.StatusTooManyRequests,
			wantType:   ErrorTypeRateLimit,
			wantMsg:    "slow down",
		},
		{
			name:       "plain error hidden",
			err:        errors.New("dynamodb exploded"),
			wantStatus: http.StatusInternalServerError,
			wantType:   ErrorTypeInternal,
			wantMsg:    "An internal error occurred",
		},
		{
			name:       "plain error in debug",
			err:        errors.New("dynamodb exploded"),
			debug:      true,
			wantStatus: http.StatusInternalServerError,
			wantType:   ErrorTypeInternal,
			wantMsg:    "dynamodb exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewErrorHandler(zap.NewNop(), tt.debug).Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			resp := decodeResponse(t, rec)
			assert.True(t, resp.Error)
			assert.Equal(t, string(tt.wantType), resp.Type)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

func TestErrorHandler_HandleStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorHandler(zap.NewNop(), false).HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "route not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, string(ErrorTypeNotFound), resp.Type)
}

func TestErrorHandler_MiddlewareRecovers(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	rec := httptest.NewRecorder()
	h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(ErrorTypeInternal), decodeResponse(t, rec).Type)
}
