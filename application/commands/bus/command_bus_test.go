package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rename struct {
	Title string
}

func (c rename) Validate() error {
	if c.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

type recordingMetrics struct {
	names []string
	errs  []error
}

func (m *recordingMetrics) RecordCommandExecution(_ context.Context, name string, _ time.Duration, err error) {
	m.names = append(m.names, name)
	m.errs = append(m.errs, err)
}

type spanRecorder struct {
	spans []string
}

func (r *spanRecorder) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	r.spans = append(r.spans, name)
	return fn(ctx)
}

func TestCommandBus_Send(t *testing.T) {
	metrics := &recordingMetrics{}
	spans := &spanRecorder{}
	b := NewCommandBus(Traced(spans), Logged(zap.NewNop()), Measured(metrics))

	var order []string
	boom := errors.New("boom")
	require.NoError(t, b.Register(rename{}, CommandHandlerFunc(func(_ context.Context, cmd Command) error {
		order = append(order, cmd.(rename).Title)
		if cmd.(rename).Title == "fail" {
			return boom
		}
		return nil
	})))

	require.NoError(t, b.Send(context.Background(), rename{Title: "Logic"}))

	err := b.Send(context.Background(), rename{Title: "fail"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "command rename failed")

	err = b.Send(context.Background(), rename{})
	assert.ErrorContains(t, err, "command validation failed")

	assert.Equal(t, []string{"Logic", "fail"}, order)
	assert.Equal(t, []string{"command.rename", "command.rename"}, spans.spans)
	assert.Equal(t, []string{"rename", "rename"}, metrics.names)
	assert.Equal(t, []error{nil, boom}, metrics.errs)
}

func TestCommandBus_Registration(t *testing.T) {
	b := NewCommandBus()

	err := b.Send(context.Background(), rename{Title: "x"})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	noop := CommandHandlerFunc(func(context.Context, Command) error { return nil })
	require.NoError(t, b.Register(rename{}, noop))
	assert.Error(t, b.Register(rename{}, noop))
}
