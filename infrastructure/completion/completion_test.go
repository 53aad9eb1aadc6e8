package completion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"knowspark/application/services"
	"knowspark/domain/analysis"
	"knowspark/domain/content"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMockProvider_CannedAnswerSynthesizes(t *testing.T) {
	mock := NewMockProvider(0)
	question := "Draw the logic circuit for F = AB + C"
	prompt := services.BuildPrompt(question, analysis.Analyze(question))

	raw, err := mock.Complete(context.Background(), prompt)
	require.NoError(t, err)

	answer, err := content.Synthesize(question, raw)
	require.NoError(t, err)
	assert.Equal(t, question, answer.Title())

	overview, ok := answer.Section("Overview")
	require.True(t, ok)
	candidates := content.ExtractDiagrams(overview)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Valid())
	assert.Equal(t, []string{prompt}, mock.Prompts())
}

func TestMockProvider_Scripted(t *testing.T) {
	mock := NewMockProvider(0)

	mock.ReplyWith("plain")
	out, err := mock.Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	boom := errors.New("429 Too Many Requests")
	mock.FailWith(boom)
	_, err = mock.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestMockProvider_HonorsCancellation(t *testing.T) {
	mock := NewMockProvider(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.Complete(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type stateRecorder struct {
	mu     sync.Mutex
	states []int
}

func (r *stateRecorder) SetBreakerState(_ string, state int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func TestBreakerProvider_OpensAfterFailures(t *testing.T) {
	mock := NewMockProvider(0)
	mock.FailWith(errors.New("503 backend error"))
	recorder := &stateRecorder{}

	cfg := DefaultBreakerConfig("")
	cfg.MinRequests = 3
	cfg.FailureRatio = 0.5
	breaker := NewBreakerProvider(mock, cfg, recorder, zap.NewNop())
	assert.Equal(t, "mock", breaker.Name())

	for i := 0; i < 3; i++ {
		_, err := breaker.Complete(context.Background(), "x")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	_, err := breaker.Complete(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Len(t, mock.Prompts(), 3)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, []int{int(gobreaker.StateClosed), int(gobreaker.StateOpen)}, recorder.states)
}

func TestBreakerProvider_CancellationIsNotFailure(t *testing.T) {
	mock := NewMockProvider(0)
	mock.FailWith(context.Canceled)

	cfg := DefaultBreakerConfig("gemini")
	cfg.MinRequests = 1
	breaker := NewBreakerProvider(mock, cfg, nil, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := breaker.Complete(context.Background(), "x")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}

func TestBreakerProvider_PassesThrough(t *testing.T) {
	mock := NewMockProvider(0)
	mock.ReplyWith("hello")
	breaker := NewBreakerProvider(mock, DefaultBreakerConfig("mock"), nil, zap.NewNop())

	out, err := breaker.Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}
