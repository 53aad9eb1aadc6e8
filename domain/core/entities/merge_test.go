package entities_test

import (
	"testing"
	"time"

	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectAt(t *testing.T, id valueobjects.ProjectID, title string, updated time.Time) *entities.Project {
	t.Helper()
	pt, err := valueobjects.NewProjectTitle(title, nil)
	require.NoError(t, err)
	p, err := entities.ReconstructProject(id, "user-1", pt, nil, updated, updated, 1)
	require.NoError(t, err)
	return p
}

func TestMergeProjects(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000).UTC()
	shared := valueobjects.NewProjectID()
	storedOnly := valueobjects.NewProjectID()
	localOnly := valueobjects.NewProjectID()

	tests := []struct {
		name       string
		local      []*entities.Project
		stored     []*entities.Project
		wantTitles []string
	}{
		{
			name:       "newer local replaces stored",
			local:      []*entities.Project{projectAt(t, shared, "local", base.Add(time.Minute))},
			stored:     []*entities.Project{projectAt(t, storedOnly, "other", base), projectAt(t, shared, "stored", base)},
			wantTitles: []string{"other", "local"},
		},
		{
			name:       "older local loses",
			local:      []*entities.Project{projectAt(t, shared, "local", base.Add(-time.Minute))},
			stored:     []*entities.Project{projectAt(t, shared, "stored", base)},
			wantTitles: []string{"stored"},
		},
		{
			name:       "equal timestamps keep stored",
			local:      []*entities.Project{projectAt(t, shared, "local", base)},
			stored:     []*entities.Project{projectAt(t, shared, "stored", base)},
			wantTitles: []string{"stored"},
		},
		{
			name:       "unknown local appended",
			local:      []*entities.Project{projectAt(t, localOnly, "new", base)},
			stored:     []*entities.Project{projectAt(t, storedOnly, "old", base)},
			wantTitles: []string{"old", "new"},
		},
		{
			name:       "both empty",
			wantTitles: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := entities.MergeProjects(tt.local, tt.stored)

			titles := []string{}
			for _, p := range merged {
				titles = append(titles, p.Title().String())
			}
			assert.Equal(t, tt.wantTitles, titles)
		})
	}
}
