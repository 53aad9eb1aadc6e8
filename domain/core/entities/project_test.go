package entities_test

import (
	"testing"
	"time"

	"knowspark/domain/config"
	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	"knowspark/domain/events"
	pkgerrors "knowspark/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProject(t *testing.T) *entities.Project {
	t.Helper()
	title, err := valueobjects.NewProjectTitle("Digital Logic", nil)
	require.NoError(t, err)
	p, err := entities.NewProject(valueobjects.NewProjectID(), "user-1", title)
	require.NoError(t, err)
	return p
}

func ask(t *testing.T, p *entities.Project, text string) valueobjects.QuestionID {
	t.Helper()
	qt, err := valueobjects.NewQuestionText(text)
	require.NoError(t, err)
	id := valueobjects.NewQuestionID()
	_, err = p.AskQuestion(id, qt, nil)
	require.NoError(t, err)
	return id
}

func questionIDs(p *entities.Project) []valueobjects.QuestionID {
	var ids []valueobjects.QuestionID
	for _, q := range p.Questions() {
		ids = append(ids, q.ID())
	}
	return ids
}

func TestNewProject(t *testing.T) {
	p := newTestProject(t)

	assert.Equal(t, "Digital Logic", p.Title().String())
	assert.Equal(t, "user-1", p.UserID())
	assert.True(t, p.IsOwnedBy("user-1"))
	assert.False(t, p.IsOwnedBy("user-2"))
	assert.Empty(t, p.Questions())
	assert.Equal(t, 1, p.Version())
	assert.Equal(t, p.CreatedAt(), p.UpdatedAt())

	evts := p.GetUncommittedEvents()
	require.Len(t, evts, 1)
	assert.Equal(t, events.TypeProjectCreated, evts[0].GetEventType())

	p.MarkEventsAsCommitted()
	assert.Empty(t, p.GetUncommittedEvents())
}

func TestNewProject_Validation(t *testing.T) {
	title, err := valueobjects.NewProjectTitle("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultDomainConfig().DefaultProjectTitle, title.String())

	_, err = entities.NewProject(valueobjects.NewProjectID(), "", title)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = entities.NewProject(valueobjects.ProjectID{}, "user-1", title)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestProject_AskQuestionAppends(t *testing.T) {
	p := newTestProject(t)
	first := ask(t, p, "What is a half adder?")
	second := ask(t, p, "What is a full adder?")

	assert.Equal(t, []valueobjects.QuestionID{first, second}, questionIDs(p))
	q, err := p.Question(second)
	require.NoError(t, err)
	assert.False(t, q.HasAnswer())
	assert.Nil(t, q.Answer())
	assert.Equal(t, 3, p.Version())
}

func TestProject_AskQuestionDuplicateAndLimit(t *testing.T) {
	p := newTestProject(t)
	id := ask(t, p, "one")

	qt, err := valueobjects.NewQuestionText("again")
	require.NoError(t, err)
	_, err = p.AskQuestion(id, qt, nil)
	assert.True(t, pkgerrors.IsConflict(err))

	cfg := config.DefaultDomainConfig()
	cfg.MaxQuestionsPerProject = 1
	_, err = p.AskQuestion(valueobjects.NewQuestionID(), qt, cfg)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestProject_EditQuestionKeepsAnswer(t *testing.T) {
	p := newTestProject(t)
	id := ask(t, p, "What is XOR?")

	answer, err := entities.NewAnswer("XOR", []entities.Section{{Name: entities.SectionOverview, Content: "exclusive or"}})
	require.NoError(t, err)
	require.NoError(t, p.SetAnswer(id, answer))

	edited, err := valueobjects.NewQuestionText("What is XNOR?")
	require.NoError(t, err)
	require.NoError(t, p.EditQuestion(id, edited))

	q, err := p.Question(id)
	require.NoError(t, err)
	assert.Equal(t, "What is XNOR?", q.Text().String())
	require.NotNil(t, q.Answer())
	assert.Equal(t, answer.ID(), q.Answer().ID())
}

func TestProject_MissingQuestion(t *testing.T) {
	p := newTestProject(t)
	missing := valueobjects.NewQuestionID()
	qt, _ := valueobjects.NewQuestionText("x")

	assert.True(t, pkgerrors.IsNotFound(p.EditQuestion(missing, qt)))
	assert.True(t, pkgerrors.IsNotFound(p.DeleteQuestion(missing)))
	assert.True(t, pkgerrors.IsNotFound(p.SetAnswer(missing, entities.NewErrorAnswer("e", ""))))
	assert.True(t, pkgerrors.IsNotFound(p.SetQuestionTopic(missing, valueobjects.Topic{})))
}

func TestProject_DeleteQuestion(t *testing.T) {
	p := newTestProject(t)
	a := ask(t, p, "a")
	b := ask(t, p, "b")
	c := ask(t, p, "c")

	require.NoError(t, p.DeleteQuestion(b))

	assert.Equal(t, []valueobjects.QuestionID{a, c}, questionIDs(p))
}

func TestProject_ReorderQuestions(t *testing.T) {
	tests := []struct {
		name        string
		order       func(a, b, c valueobjects.QuestionID) []valueobjects.QuestionID
		expected    func(a, b, c valueobjects.QuestionID) []valueobjects.QuestionID
		wantDropped int
	}{
		{
			name:     "full permutation",
			order:    func(a, b, c valueobjects.QuestionID) []valueobjects.QuestionID { return []valueobjects.QuestionID{c, a, b} },
			expected: func(a, b, c valueobjects.QuestionID) []valueobjects.QuestionID { return []valueobjects.QuestionID{c, a, b} },
		},
		{
			name:        "omitted id is dropped",
			order:       func(a, b, c valueobjects.QuestionID) []valueobjects.QuestionID { return []valueobjects.QuestionID{c, a} },
			expected:    func(a, b, c valueobjects.QuestionID) []valueobjects.QuestionID { return []valueobjects.QuestionID{c, a} },
			wantDropped: 1,
		},
		{
			name: "unknown and repeated ids are skipped",
			order: func(a, b, c valueobjects.QuestionID) []valueobjects.QuestionID {
				return []valueobjects.QuestionID{b, valueobjects.NewQuestionID(), b, a, c}
			},
			expected: func(a, b, c valueobjects.QuestionID) []valueobjects.QuestionID { return []valueobjects.QuestionID{b, a, c} },
		},
		{
			name:        "empty order drops everything",
			order:       func(a, b, c valueobjects.QuestionID) []valueobjects.QuestionID { return nil },
			expected:    func(a, b, c valueobjects.QuestionID) []valueobjects.QuestionID { return nil },
			wantDropped: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProject(t)
			a := ask(t, p, "a")
			b := ask(t, p, "b")
			c := ask(t, p, "c")

			dropped := p.ReorderQuestions(tt.order(a, b, c))

			assert.Equal(t, tt.wantDropped, dropped)
			assert.Equal(t, tt.expected(a, b, c), questionIDs(p))
		})
	}
}

func TestProject_TopicsSortedAndDistinct(t *testing.T) {
	p := newTestProject(t)
	ids := []valueobjects.QuestionID{ask(t, p, "1"), ask(t, p, "2"), ask(t, p, "3"), ask(t, p, "4")}
	names := []string{"logic", "Arithmetic", "logic", ""}

	for i, name := range names {
		topic, err := valueobjects.NewTopic(name, nil)
		require.NoError(t, err)
		require.NoError(t, p.SetQuestionTopic(ids[i], topic))
	}

	assert.Equal(t, []string{"Arithmetic", "logic"}, p.Topics())
}

func TestProject_RenameNoopKeepsVersion(t *testing.T) {
	p := newTestProject(t)
	same, _ := valueobjects.NewProjectTitle("Digital Logic", nil)

	p.Rename(same)
	assert.Equal(t, 1, p.Version())

	renamed, _ := valueobjects.NewProjectTitle("Circuits", nil)
	p.Rename(renamed)
	assert.Equal(t, 2, p.Version())
	assert.Equal(t, "Circuits", p.Title().String())
}

func TestReconstructProject_PreservesTimestamps(t *testing.T) {
	created := time.UnixMilli(1_700_000_000_000).UTC()
	updated := created.Add(time.Hour)
	title, _ := valueobjects.NewProjectTitle("Saved", nil)

	p, err := entities.ReconstructProject(valueobjects.NewProjectID(), "user-1", title, nil, created, updated, 0)

	require.NoError(t, err)
	assert.Equal(t, created, p.CreatedAt())
	assert.Equal(t, updated, p.UpdatedAt())
	assert.Equal(t, 1, p.Version())
	assert.Empty(t, p.GetUncommittedEvents())
}
