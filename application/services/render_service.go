package services

import (
	"knowspark/domain/content"
	"knowspark/domain/core/entities"

	"go.uber.org/zap"
)

// Diagram results reported to metrics
const (
	DiagramRendered    = "rendered"
	DiagramPlaceholder = "placeholder"
	DiagramInvalid     = "invalid"
)

// DiagramMetrics counts diagram candidates by result
type DiagramMetrics interface {
	ObserveDiagram(result string)
}

// RenderedSection is one answer section split into renderable segments
type RenderedSection struct {
	Name     string                   `json:"name"`
	Segments []content.ContentSegment `json:"segments"`
}

// RenderService turns stored answer text into content segments
type RenderService struct {
	metrics DiagramMetrics
	logger  *zap.Logger
}

// NewRenderService creates a render service
func NewRenderService(metrics DiagramMetrics, logger *zap.Logger) *RenderService {
	return &RenderService{
		metrics: metrics,
		logger:  logger,
	}
}

// RenderAnswer segments every section of answer in order. Bad diagram
// blocks are logged and rendered as code; they never fail the render.
func (s *RenderService) RenderAnswer(answer *entities.Answer) []RenderedSection {
	if answer == nil {
		return []RenderedSection{}
	}

	sections := answer.Sections()
	rendered := make([]RenderedSection, 0, len(sections))
	for _, sec := range sections {
		rendered = append(rendered, RenderedSection{
			Name:     sec.Name,
			Segments: s.RenderText(sec.Content),
		})
	}
	return rendered
}

// RenderText segments one block of markdown
func (s *RenderService) RenderText(text string) []content.ContentSegment {
	segments, candidates := content.SegmentText(text)

	for _, c := range candidates {
		if !c.Valid() {
			s.logger.Warn("Skipping invalid diagram block",
				zap.Int("offset", c.Start),
				zap.Error(c.Err),
			)
			s.observe(DiagramInvalid)
			continue
		}
		if dangling := c.Graph.DanglingEdges(); len(dangling) > 0 {
			ids := make([]string, 0, len(dangling))
			for _, e := range dangling {
				ids = append(ids, e.ID)
			}
			s.logger.Warn("Diagram has edges to unknown nodes",
				zap.Int("offset", c.Start),
				zap.Strings("edgeIDs", ids),
			)
		}
		if c.Graph.Renderable() {
			s.observe(DiagramRendered)
		} else {
			s.observe(DiagramPlaceholder)
		}
	}
	return segments
}

func (s *RenderService) observe(result string) {
	if s.metrics != nil {
		s.metrics.ObserveDiagram(result)
	}
}
