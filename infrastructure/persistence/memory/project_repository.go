// Package memory holds in-process repositories for local development and
// tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"knowspark/application/dto"
	"knowspark/application/ports"
	"knowspark/domain/config"
	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	pkgerrors "knowspark/pkg/errors"
)

// ProjectRepository keeps projects in a map. Stored and returned projects
// are copies, so callers never share state through it.
type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]dto.Project
	cfg      *config.DomainConfig
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates an empty repository
func NewProjectRepository(cfg *config.DomainConfig) *ProjectRepository {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ProjectRepository{
		projects: make(map[string]dto.Project),
		cfg:      cfg,
	}
}

// Save stores a copy of the project
func (r *ProjectRepository) Save(_ context.Context, project *entities.Project) error {
	view := dto.FromProject(project)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[view.ID] = view
	return nil
}

// SaveBatch stores copies of every project
func (r *ProjectRepository) SaveBatch(ctx context.Context, projects []*entities.Project) error {
	for _, p := range projects {
		if err := r.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// GetByID returns a copy of the stored project
func (r *ProjectRepository) GetByID(_ context.Context, id valueobjects.ProjectID) (*entities.Project, error) {
	r.mu.RLock()
	view, ok := r.projects[id.String()]
	r.mu.RUnlock()

	if !ok {
		return nil, pkgerrors.NewNotFoundError("project").WithCause(entities.ErrProjectNotFound)
	}
	return r.restore(view)
}

// ListByUser returns the user's projects, most recently updated first
func (r *ProjectRepository) ListByUser(_ context.Context, userID string) ([]*entities.Project, error) {
	r.mu.RLock()
	views := make([]dto.Project, 0)
	for _, view := range r.projects {
		if view.UserID == userID {
			views = append(views, view)
		}
	}
	r.mu.RUnlock()

	sort.Slice(views, func(i, j int) bool {
		if views[i].UpdatedAt != views[j].UpdatedAt {
			return views[i].UpdatedAt > views[j].UpdatedAt
		}
		return views[i].ID < views[j].ID
	})

	out := make([]*entities.Project, 0, len(views))
	for _, view := range views {
		p, err := r.restore(view)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Delete removes a project. A missing project is not an error.
func (r *ProjectRepository) Delete(_ context.Context, id valueobjects.ProjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id.String())
	return nil
}

// Len reports how many projects are stored
func (r *ProjectRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.projects)
}

func (r *ProjectRepository) restore(view dto.Project) (*entities.Project, error) {
	p, err := view.ToProject(view.UserID, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to restore project %s: %w", view.ID, err)
	}
	return p, nil
}

// ConnectionRepository keeps websocket connections in memory
type ConnectionRepository struct {
	mu    sync.RWMutex
	conns map[string]connection
}

type connection struct {
	userID    string
	expiresAt time.Time
}

var _ ports.ConnectionRepository = (*ConnectionRepository)(nil)

// NewConnectionRepository creates an empty connection store
func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{conns: make(map[string]connection)}
}

// Save records a connection
func (r *ConnectionRepository) Save(_ context.Context, userID, connectionID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connectionID] = connection{userID: userID, expiresAt: expiresAt}
	return nil
}

// Delete forgets a connection
func (r *ConnectionRepository) Delete(_ context.Context, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connectionID)
	return nil
}

// ListByUser returns the user's unexpired connection IDs, sorted
func (r *ConnectionRepository) ListByUser(_ context.Context, userID string) ([]string, error) {
	now := time.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, c := range r.conns {
		if c.userID == userID && now.Before(c.expiresAt) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
