package entities

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"knowspark/domain/config"
	"knowspark/domain/core/valueobjects"
	"knowspark/domain/events"
	pkgerrors "knowspark/pkg/errors"
)

// Project is the aggregate root holding a user's ordered list of questions
// This is a rich domain model with encapsulated business logic
type Project struct {
	id        valueobjects.ProjectID
	userID    string
	title     valueobjects.ProjectTitle
	questions []*Question
	createdAt time.Time
	updatedAt time.Time
	version   int

	// Domain events that occurred during this aggregate's lifetime
	events []events.DomainEvent
}

// NewProject creates a new empty project owned by userID
func NewProject(id valueobjects.ProjectID, userID string, title valueobjects.ProjectTitle) (*Project, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("project ID cannot be empty")
	}

	now := Now()
	project := &Project{
		id:        id,
		userID:    userID,
		title:     title,
		questions: []*Question{},
		createdAt: now,
		updatedAt: now,
		version:   1,
		events:    []events.DomainEvent{},
	}

	project.addEvent(events.NewProjectCreated(id, userID, title.String(), now))
	return project, nil
}

// ReconstructProject reconstructs a project from repository data with preserved timestamps
func ReconstructProject(
	id valueobjects.ProjectID,
	userID string,
	title valueobjects.ProjectTitle,
	questions []*Question,
	createdAt, updatedAt time.Time,
	version int,
) (*Project, error) {
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("project ID cannot be empty")
	}
	if questions == nil {
		questions = []*Question{}
	}
	if version < 1 {
		version = 1
	}

	return &Project{
		id:        id,
		userID:    userID,
		title:     title,
		questions: questions,
		createdAt: createdAt,
		updatedAt: updatedAt,
		version:   version,
		events:    []events.DomainEvent{},
	}, nil
}

// ID returns the project's unique identifier
func (p *Project) ID() valueobjects.ProjectID {
	return p.id
}

// UserID returns the owner's ID
func (p *Project) UserID() string {
	return p.userID
}

// Title returns the project title
func (p *Project) Title() valueobjects.ProjectTitle {
	return p.title
}

// Questions returns the questions in display order
func (p *Project) Questions() []*Question {
	return append([]*Question(nil), p.questions...)
}

// QuestionCount returns the number of questions
func (p *Project) QuestionCount() int {
	return len(p.questions)
}

// CreatedAt returns the creation time
func (p *Project) CreatedAt() time.Time {
	return p.createdAt
}

// UpdatedAt returns the time of the last change
func (p *Project) UpdatedAt() time.Time {
	return p.updatedAt
}

// Version returns the project's version for optimistic locking
func (p *Project) Version() int {
	return p.version
}

// IsOwnedBy reports whether userID owns the project
func (p *Project) IsOwnedBy(userID string) bool {
	return p.userID == userID
}

// Question finds a question by ID
func (p *Project) Question(id valueobjects.QuestionID) (*Question, error) {
	if i := p.indexOf(id); i >= 0 {
		return p.questions[i], nil
	}
	return nil, pkgerrors.NewNotFoundError("question").WithCause(ErrQuestionNotFound)
}

// Rename changes the project title
func (p *Project) Rename(title valueobjects.ProjectTitle) {
	if title.String() == p.title.String() {
		return
	}
	old := p.title
	p.title = title
	p.touch()
	p.addEvent(events.NewProjectRenamed(p.id, old.String(), title.String(), p.version, p.updatedAt))
}

// AskQuestion appends an unanswered question
func (p *Project) AskQuestion(id valueobjects.QuestionID, text valueobjects.QuestionText, cfg *config.DomainConfig) (*Question, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if text.IsEmpty() {
		return nil, pkgerrors.NewValidationError("question cannot be empty")
	}
	if p.indexOf(id) >= 0 {
		return nil, pkgerrors.NewConflictError(fmt.Sprintf("question %s already exists", id))
	}
	if len(p.questions) >= cfg.MaxQuestionsPerProject {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("project already has the maximum of %d questions", cfg.MaxQuestionsPerProject))
	}

	q := &Question{
		id:        id,
		text:      text,
		createdAt: Now(),
	}
	p.questions = append(p.questions, q)
	p.touch()
	p.addEvent(events.NewQuestionAsked(p.id, id, text.String(), p.version, p.updatedAt))
	return q, nil
}

// SetAnswer replaces a question's answer
func (p *Project) SetAnswer(id valueobjects.QuestionID, answer *Answer) error {
	if answer == nil {
		return pkgerrors.NewValidationError("answer cannot be nil")
	}
	q, err := p.Question(id)
	if err != nil {
		return err
	}

	q.answer = answer
	p.touch()
	p.addEvent(events.NewAnswerGenerated(p.id, p.userID, id, answer.ID(), answer.Title(), answer.IsError(), p.version, p.updatedAt))
	return nil
}

// EditQuestion replaces a question's text. The current answer is kept.
func (p *Project) EditQuestion(id valueobjects.QuestionID, text valueobjects.QuestionText) error {
	if text.IsEmpty() {
		return pkgerrors.NewValidationError("question cannot be empty")
	}
	q, err := p.Question(id)
	if err != nil {
		return err
	}

	q.text = text
	p.touch()
	p.addEvent(events.NewQuestionEdited(p.id, id, text.String(), p.version, p.updatedAt))
	return nil
}

// SetQuestionTopic sets or clears a question's topic
func (p *Project) SetQuestionTopic(id valueobjects.QuestionID, topic valueobjects.Topic) error {
	q, err := p.Question(id)
	if err != nil {
		return err
	}

	q.topic = topic
	p.touch()
	p.addEvent(events.NewQuestionTopicChanged(p.id, id, topic.String(), p.version, p.updatedAt))
	return nil
}

// DeleteQuestion removes a question
func (p *Project) DeleteQuestion(id valueobjects.QuestionID) error {
	i := p.indexOf(id)
	if i < 0 {
		return pkgerrors.NewNotFoundError("question").WithCause(ErrQuestionNotFound)
	}

	p.questions = append(p.questions[:i], p.questions[i+1:]...)
	p.touch()
	p.addEvent(events.NewQuestionDeleted(p.id, id, p.version, p.updatedAt))
	return nil
}

// ReorderQuestions replaces the question order with order. IDs not in the
// project and repeated IDs are skipped; questions missing from order are
// dropped. Returns how many existing questions were dropped.
func (p *Project) ReorderQuestions(order []valueobjects.QuestionID) int {
	byID := make(map[string]*Question, len(p.questions))
	for _, q := range p.questions {
		byID[q.id.String()] = q
	}

	reordered := make([]*Question, 0, len(order))
	ids := make([]string, 0, len(order))
	for _, id := range order {
		q, ok := byID[id.String()]
		if !ok {
			continue
		}
		delete(byID, id.String())
		reordered = append(reordered, q)
		ids = append(ids, id.String())
	}

	dropped := len(p.questions) - len(reordered)
	p.questions = reordered
	p.touch()
	p.addEvent(events.NewQuestionsReordered(p.id, ids, dropped, p.version, p.updatedAt))
	return dropped
}

// Topics returns the distinct topics in use, sorted case-insensitively
func (p *Project) Topics() []string {
	seen := make(map[string]struct{})
	topics := []string{}
	for _, q := range p.questions {
		t := q.topic.String()
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		return strings.ToLower(topics[i]) < strings.ToLower(topics[j])
	})
	return topics
}

// MarkDeleted records that the project is being removed
func (p *Project) MarkDeleted() {
	p.addEvent(events.NewProjectDeleted(p.id, p.userID, p.version+1, Now()))
}

// GetUncommittedEvents returns all uncommitted domain events
func (p *Project) GetUncommittedEvents() []events.DomainEvent {
	return p.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (p *Project) MarkEventsAsCommitted() {
	p.events = []events.DomainEvent{}
}

func (p *Project) indexOf(id valueobjects.QuestionID) int {
	for i, q := range p.questions {
		if q.id.Equals(id) {
			return i
		}
	}
	return -1
}

func (p *Project) touch() {
	p.updatedAt = Now()
	p.version++
}

// addEvent adds a domain event to the uncommitted list
func (p *Project) addEvent(event events.DomainEvent) {
	p.events = append(p.events, event)
}

// Now returns the current time at the millisecond precision projects are stored with
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
