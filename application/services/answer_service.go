package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"knowspark/application/ports"
	"knowspark/domain/analysis"
	"knowspark/domain/content"
	"knowspark/domain/core/entities"
	"knowspark/pkg/observability"

	"go.uber.org/zap"
)

// CompletionFailureDetails is the Details section of every error answer
// caused by the completion service
const CompletionFailureDetails = "Try again later or verify your Gemini API key and network connection."

// EmptyCompletionMessage is the Error section for blank completions
const EmptyCompletionMessage = "Empty completion"

// Completion outcomes reported to metrics
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// AnswerMetrics receives completion timings and answer counts
type AnswerMetrics interface {
	ObserveCompletion(provider, outcome string, duration time.Duration)
	ObserveAnswer(kind string)
}

// ErrGenerationFailed marks a Generate call that produced an error answer
var ErrGenerationFailed = errors.New("answer generation failed")

// AnswerService generates answers: analyze, prompt, complete, synthesize.
// Failures never escape as a missing answer; they become error answers.
type AnswerService struct {
	completion ports.CompletionService
	metrics    AnswerMetrics
	tracer     *observability.Tracer
	logger     *zap.Logger
	model      string
	timeout    time.Duration
}

// NewAnswerService creates an answer service. model names the configured
// model in error messages; timeout bounds one completion call.
func NewAnswerService(
	completion ports.CompletionService,
	metrics AnswerMetrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
	model string,
	timeout time.Duration,
) *AnswerService {
	return &AnswerService{
		completion: completion,
		metrics:    metrics,
		tracer:     tracer,
		logger:     logger,
		model:      model,
		timeout:    timeout,
	}
}

// Generate answers question. The returned answer is never nil: when
// generation fails it is an error answer and err wraps ErrGenerationFailed.
func (s *AnswerService) Generate(ctx context.Context, question string) (*entities.Answer, error) {
	question = strings.TrimSpace(question)
	a := analysis.Analyze(question)

	s.logger.Debug("Question analyzed",
		zap.String("topic", string(a.Topic)),
		zap.String("language", a.Language),
		zap.Strings("constraints", a.Constraints),
		zap.Bool("requiresDiagram", a.RequiresDiagram),
	)
	s.tracer.AddAnnotation(ctx, "topic", string(a.Topic))

	raw, err := s.complete(ctx, BuildPrompt(question, a))
	if err != nil {
		s.tracer.RecordError(ctx, err)
		s.logger.Error("Completion failed",
			zap.String("provider", s.completion.Name()),
			zap.Error(err),
		)
		s.observeAnswer(true)
		return entities.NewErrorAnswer(CompletionErrorMessage(err, s.model), CompletionFailureDetails),
			fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	answer, err := content.Synthesize(question, raw)
	if err != nil {
		s.logger.Warn("Completion could not be synthesized", zap.Error(err))
		s.observeAnswer(true)
		return entities.NewErrorAnswer(EmptyCompletionMessage, ""), fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if a.RequiresDiagram && len(content.ExtractDiagrams(answer.Sections()[0].Content)) == 0 {
		s.logger.Info("Diagram was requested but none was returned", zap.String("title", answer.Title()))
	}

	s.observeAnswer(false)
	return answer, nil
}

func (s *AnswerService) complete(ctx context.Context, prompt string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var raw string
	start := time.Now()
	err := s.tracer.TraceFunction(ctx, "completion", func(ctx context.Context) error {
		var err error
		raw, err = s.completion.Complete(ctx, prompt)
		return err
	})
	duration := time.Since(start)

	outcome := OutcomeSuccess
	switch {
	case err != nil:
		outcome = OutcomeError
	case strings.TrimSpace(raw) == "":
		outcome = OutcomeEmpty
	}
	if s.metrics != nil {
		s.metrics.ObserveCompletion(s.completion.Name(), outcome, duration)
	}

	s.logger.Info("Completion finished",
		zap.String("provider", s.completion.Name()),
		zap.String("outcome", outcome),
		zap.Int("promptLength", len(prompt)),
		zap.Int("completionLength", len(raw)),
		zap.Duration("duration", duration),
	)
	return raw, err
}

func (s *AnswerService) observeAnswer(isError bool) {
	if s.metrics == nil {
		return
	}
	kind := "answer"
	if isError {
		kind = "error"
	}
	s.metrics.ObserveAnswer(kind)
}

// CompletionErrorMessage maps a completion failure to the message shown in
// the Error section. Checks run in order: credentials, unknown model, rate
// limiting, then the raw message.
func CompletionErrorMessage(err error, model string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "API key") || strings.Contains(msg, "401"):
		return "API key error: Please check your GEMINI_API_KEY configuration."
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		return fmt.Sprintf("Model not found: %s. Please check the model name or update GEMINI_MODEL.", model)
	case strings.Contains(msg, "429"):
		return "Rate limit exceeded: Please try again in a few moments."
	case errors.Is(err, context.DeadlineExceeded):
		return "Error: the completion service did not respond in time."
	default:
		return "Error: " + msg
	}
}
