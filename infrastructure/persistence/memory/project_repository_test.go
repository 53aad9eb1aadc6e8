package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	pkgerrors "knowspark/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProject(t *testing.T, userID, title string, updated time.Time) *entities.Project {
	t.Helper()
	pt, err := valueobjects.NewProjectTitle(title, nil)
	require.NoError(t, err)
	p, err := entities.ReconstructProject(valueobjects.NewProjectID(), userID, pt, nil, updated.Add(-time.Hour), updated, 1)
	require.NoError(t, err)
	return p
}

func TestProjectRepository_SaveReturnsCopies(t *testing.T) {
	repo := NewProjectRepository(nil)
	ctx := context.Background()
	p := newProject(t, "user-1", "Logic", time.Now().UTC())

	require.NoError(t, repo.Save(ctx, p))

	renamed, err := valueobjects.NewProjectTitle("Changed after save", nil)
	require.NoError(t, err)
	p.Rename(renamed)

	got, err := repo.GetByID(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "Logic", got.Title().String())
}

func TestProjectRepository_GetMissing(t *testing.T) {
	repo := NewProjectRepository(nil)

	_, err := repo.GetByID(context.Background(), valueobjects.NewProjectID())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.ErrorIs(t, err, entities.ErrProjectNotFound)
}

func TestProjectRepository_ListByUser(t *testing.T) {
	repo := NewProjectRepository(nil)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveBatch(ctx, []*entities.Project{
		newProject(t, "user-1", "First", base),
		newProject(t, "user-1", "Third", base.Add(2*time.Minute)),
		newProject(t, "user-2", "Other", base.Add(time.Hour)),
		newProject(t, "user-1", "Second", base.Add(time.Minute)),
	}))

	projects, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, "Third", projects[0].Title().String())
	assert.Equal(t, "Second", projects[1].Title().String())
	assert.Equal(t, "First", projects[2].Title().String())

	none, err := repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProjectRepository_Delete(t *testing.T) {
	repo := NewProjectRepository(nil)
	ctx := context.Background()
	p := newProject(t, "user-1", "Logic", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, p))

	require.NoError(t, repo.Delete(ctx, p.ID()))
	assert.Equal(t, 0, repo.Len())
	assert.NoError(t, repo.Delete(ctx, p.ID()))
}

func TestProjectRepository_ConcurrentAccess(t *testing.T) {
	repo := NewProjectRepository(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := newProject(t, "user-1", "Concurrent", time.Now().UTC())
			assert.NoError(t, repo.Save(ctx, p))
			_, err := repo.ListByUser(ctx, "user-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, repo.Len())
}

func TestConnectionRepository(t *testing.T) {
	repo := NewConnectionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "user-1", "b", time.Now().Add(time.Hour)))
	require.NoError(t, repo.Save(ctx, "user-1", "a", time.Now().Add(time.Hour)))
	require.NoError(t, repo.Save(ctx, "user-1", "old", time.Now().Add(-time.Second)))
	require.NoError(t, repo.Save(ctx, "user-2", "c", time.Now().Add(time.Hour)))

	ids, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, repo.Delete(ctx, "a"))
	ids, err = repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}
