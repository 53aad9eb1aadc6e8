// Package completion holds the text completion providers answers are
// generated with.
package completion

import (
	"context"
	"fmt"
	"strings"

	"knowspark/application/ports"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiProvider completes prompts with a Gemini model
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	logger *zap.Logger
}

var _ ports.CompletionService = (*GeminiProvider)(nil)

// NewGeminiProvider creates a client for modelName
func NewGeminiProvider(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for Gemini")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	return &GeminiProvider{
		client: client,
		model:  model,
		name:   modelName,
		logger: logger,
	}, nil
}

// Name identifies the provider
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the configured model name
func (p *GeminiProvider) Model() string {
	return p.name
}

// Complete sends prompt and returns the concatenated candidate text.
// A response with no text yields an empty string, not an error.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	if len(resp.Candidates) == 0 && resp.PromptFeedback != nil {
		return "", fmt.Errorf("gemini: prompt blocked: %v", resp.PromptFeedback.BlockReason)
	}
	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
			p.logger.Warn("Gemini candidate stopped early",
				zap.Int("candidate", i),
				zap.String("finishReason", cand.FinishReason.String()),
			)
		}
	}
	return extractText(resp), nil
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		// Only the first candidate carrying text is used
		if text.Len() > 0 {
			break
		}
	}
	return text.String()
}
