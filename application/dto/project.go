// Package dto holds the wire shape of projects, shared by the HTTP API,
// client sync payloads and the Supabase document store.
package dto

import (
	"fmt"

	"knowspark/domain/config"
	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	"knowspark/pkg/utils"
)

// Project is a project with its questions. Timestamps are epoch milliseconds.
type Project struct {
	ID        string     `json:"id" validate:"required,uuid"`
	UserID    string     `json:"userId,omitempty"`
	Title     string     `json:"title" validate:"max=200"`
	Questions []Question `json:"questions" validate:"dive"`
	CreatedAt int64      `json:"createdAt"`
	UpdatedAt int64      `json:"updatedAt"`
	Version   int        `json:"version,omitempty"`
}

// Question is one question with its latest answer, or null
type Question struct {
	ID        string           `json:"id" validate:"required,uuid"`
	Text      string           `json:"text" validate:"notblank"`
	Topic     string           `json:"topic,omitempty"`
	CreatedAt int64            `json:"createdAt"`
	Answer    *entities.Answer `json:"answer"`
}

// FromProject converts an aggregate to its wire shape
func FromProject(p *entities.Project) Project {
	questions := p.Questions()
	out := Project{
		ID:        p.ID().String(),
		UserID:    p.UserID(),
		Title:     p.Title().String(),
		Questions: make([]Question, 0, len(questions)),
		CreatedAt: utils.UnixMillis(p.CreatedAt()),
		UpdatedAt: utils.UnixMillis(p.UpdatedAt()),
		Version:   p.Version(),
	}
	for _, q := range questions {
		out.Questions = append(out.Questions, Question{
			ID:        q.ID().String(),
			Text:      q.Text().String(),
			Topic:     q.Topic().String(),
			CreatedAt: utils.UnixMillis(q.CreatedAt()),
			Answer:    q.Answer(),
		})
	}
	return out
}

// FromProjects converts a list of aggregates
func FromProjects(projects []*entities.Project) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, FromProject(p))
	}
	return out
}

// ToProject rebuilds an aggregate owned by userID. The stored owner is
// ignored so clients cannot claim other users' projects. An empty title
// takes the configured default.
func (d Project) ToProject(userID string, cfg *config.DomainConfig) (*entities.Project, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	id, err := valueobjects.NewProjectIDFromString(d.ID)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", d.ID, err)
	}
	title, err := valueobjects.NewProjectTitle(d.Title, cfg)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", d.ID, err)
	}

	questions := make([]*entities.Question, 0, len(d.Questions))
	for _, qd := range d.Questions {
		q, err := qd.toQuestion(cfg)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", d.ID, err)
		}
		questions = append(questions, q)
	}

	return entities.ReconstructProject(
		id,
		userID,
		title,
		questions,
		utils.FromUnixMillis(d.CreatedAt),
		utils.FromUnixMillis(d.UpdatedAt),
		d.Version,
	)
}

func (d Question) toQuestion(cfg *config.DomainConfig) (*entities.Question, error) {
	id, err := valueobjects.NewQuestionIDFromString(d.ID)
	if err != nil {
		return nil, fmt.Errorf("question %q: %w", d.ID, err)
	}
	text, err := valueobjects.NewQuestionTextWithConfig(d.Text, cfg)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", d.ID, err)
	}
	topic, err := valueobjects.NewTopic(d.Topic, cfg)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", d.ID, err)
	}
	return entities.ReconstructQuestion(id, text, topic, utils.FromUnixMillis(d.CreatedAt), d.Answer), nil
}
