package completion

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"knowspark/application/ports"
)

const questionMarker = "Now generate your answer for:"

// MockProvider answers every prompt with a canned markdown document built
// from the question. It is used for local development and tests.
type MockProvider struct {
	mu      sync.Mutex
	delay   time.Duration
	err     error
	reply   string
	prompts []string
}

var _ ports.CompletionService = (*MockProvider)(nil)

// NewMockProvider creates a mock that answers after delay
func NewMockProvider(delay time.Duration) *MockProvider {
	return &MockProvider{delay: delay}
}

// Name identifies the provider
func (m *MockProvider) Name() string {
	return "mock"
}

// FailWith makes every later call return err. Nil restores answers.
func (m *MockProvider) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// ReplyWith makes every later call return reply verbatim. An empty reply
// restores the generated document.
func (m *MockProvider) ReplyWith(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
}

// Prompts returns every prompt received so far
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Complete returns the canned answer for prompt
func (m *MockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	delay, err, reply := m.delay, m.err, m.reply
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return "", err
	}
	if reply != "" {
		return reply, nil
	}
	return cannedAnswer(prompt), nil
}

func cannedAnswer(prompt string) string {
	question := prompt
	if i := strings.LastIndex(prompt, questionMarker); i >= 0 {
		question = prompt[i+len(questionMarker):]
	}
	question = strings.TrimSpace(question)
	if question == "" {
		question = "your question"
	}
	title := strings.SplitN(question, "\n", 2)[0]
	if len(title) > 80 {
		title = title[:80]
	}

	var b strings.Builder
	b.WriteString("```markdown\n")
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "This is a generated placeholder answer for: %s\n\n", question)
	b.WriteString("$$\nF = A \\cdot B + \\overline{C}\n$$\n")
	if strings.Contains(prompt, "fenced block tagged json") {
		b.WriteString("\n```json\n")
		b.WriteString(`{"nodes":[{"id":"a","data":{"label":"A"}},{"id":"b","data":{"label":"B"}},{"id":"g1","type":"gate","data":{"label":"AND"}},{"id":"f","data":{"label":"F"}}],"edges":[{"id":"e1","source":"a","target":"g1"},{"id":"e2","source":"b","target":"g1"},{"id":"e3","source":"g1","target":"f"}]}`)
		b.WriteString("\n```\n")
	}
	b.WriteString("```\n")
	return b.String()
}
