package common

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "knowspark/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Title string `json:"title"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		maxBytes int64
		wantErr  string
	}{
		{name: "valid", body: `{"title":"Logic"}`},
		{name: "empty", body: "", wantErr: "request body is empty"},
		{name: "unknown field", body: `{"title":"x","extra":1}`, wantErr: "invalid request body"},
		{name: "trailing object", body: `{"title":"x"}{"title":"y"}`, wantErr: "single JSON object"},
		{name: "too large", body: `{"title":"` + strings.Repeat("a", 64) + `"}`, maxBytes: 16, wantErr: "exceeds 16 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p, tt.maxBytes)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Logic", p.Title)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRespondList(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondList(rec, []string{"a", "b"}, 2)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"items":["a","b"],"count":2}`, rec.Body.String())
}
