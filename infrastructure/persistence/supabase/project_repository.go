// Package supabase stores projects in a Supabase Postgres table through
// its REST interface.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"knowspark/application/dto"
	"knowspark/application/ports"
	"knowspark/domain/config"
	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	"knowspark/infrastructure/persistence/schema"
	pkgerrors "knowspark/pkg/errors"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// DefaultTable is the table projects live in
const DefaultTable = "projects"

// projectRow is one row of the projects table. Data holds the full
// project document.
type projectRow struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt string          `json:"updated_at"`
}

// projectDocument is the versioned document stored in the data column
type projectDocument struct {
	dto.Project
	SchemaVersion int `json:"schemaVersion"`
}

// ProjectRepository implements ports.ProjectRepository on Supabase. The
// client must use the service role key; rows are scoped by user_id here
// rather than by row level security.
type ProjectRepository struct {
	client    *supabase.Client
	table     string
	cfg       *config.DomainConfig
	evolution *schema.Evolution
	logger    *zap.Logger
}

var _ ports.ProjectRepository = (*ProjectRepository)(nil)

// NewProjectRepository creates a repository backed by table
func NewProjectRepository(client *supabase.Client, table string, cfg *config.DomainConfig, logger *zap.Logger) *ProjectRepository {
	if table == "" {
		table = DefaultTable
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ProjectRepository{
		client:    client,
		table:     table,
		cfg:       cfg,
		evolution: schema.ProjectDocuments(),
		logger:    logger,
	}
}

// Save upserts the project row on id
func (r *ProjectRepository) Save(ctx context.Context, project *entities.Project) error {
	return r.SaveBatch(ctx, []*entities.Project{project})
}

// SaveBatch upserts every project in a single request
func (r *ProjectRepository) SaveBatch(_ context.Context, projects []*entities.Project) error {
	if len(projects) == 0 {
		return nil
	}

	rows := make([]projectRow, 0, len(projects))
	for _, p := range projects {
		row, err := r.toRow(p)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if _, _, err := r.client.From(r.table).Upsert(rows, "id", "minimal", "").Execute(); err != nil {
		r.logger.Error("Failed to upsert projects", zap.Int("count", len(rows)), zap.Error(err))
		return pkgerrors.NewDatabaseError("save projects", err)
	}
	return nil
}

// GetByID loads one project
func (r *ProjectRepository) GetByID(_ context.Context, id valueobjects.ProjectID) (*entities.Project, error) {
	var rows []projectRow
	if _, err := r.client.From(r.table).Select("*", "", false).Eq("id", id.String()).ExecuteTo(&rows); err != nil {
		return nil, pkgerrors.NewDatabaseError("get project", err)
	}
	if len(rows) == 0 {
		return nil, pkgerrors.NewNotFoundError("project").WithCause(entities.ErrProjectNotFound)
	}
	return r.fromRow(rows[0])
}

// ListByUser returns the user's projects, most recently updated first.
// Rows that cannot be read are logged and skipped.
func (r *ProjectRepository) ListByUser(_ context.Context, userID string) ([]*entities.Project, error) {
	var rows []projectRow
	_, err := r.client.From(r.table).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list projects", err)
	}

	projects := make([]*entities.Project, 0, len(rows))
	for _, row := range rows {
		p, err := r.fromRow(row)
		if err != nil {
			r.logger.Warn("Skipping unreadable project row",
				zap.String("projectID", row.ID),
				zap.String("userID", userID),
				zap.Error(err),
			)
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// Delete removes a project row. A missing row is not an error.
func (r *ProjectRepository) Delete(_ context.Context, id valueobjects.ProjectID) error {
	if _, _, err := r.client.From(r.table).Delete("minimal", "").Eq("id", id.String()).Execute(); err != nil {
		return pkgerrors.NewDatabaseError("delete project", err)
	}
	return nil
}

func (r *ProjectRepository) toRow(p *entities.Project) (projectRow, error) {
	doc := projectDocument{
		Project:       dto.FromProject(p),
		SchemaVersion: r.evolution.CurrentVersion(),
	}
	// The owner lives in its own column
	doc.UserID = ""

	data, err := json.Marshal(doc)
	if err != nil {
		return projectRow{}, fmt.Errorf("failed to marshal project %s: %w", p.ID(), err)
	}
	return projectRow{
		ID:        p.ID().String(),
		UserID:    p.UserID(),
		Name:      p.Title().String(),
		Data:      data,
		UpdatedAt: p.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}, nil
}

func (r *ProjectRepository) fromRow(row projectRow) (*entities.Project, error) {
	data, from, err := r.evolution.UpgradeJSON(row.Data)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", row.ID, err)
	}
	if from != r.evolution.CurrentVersion() {
		r.logger.Debug("Upgraded stored project document",
			zap.String("projectID", row.ID),
			zap.Int("fromVersion", from),
		)
	}

	var doc projectDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("project %s: %w", row.ID, err)
	}
	if doc.ID == "" {
		doc.ID = row.ID
	}
	if doc.Title == "" {
		doc.Title = row.Name
	}
	return doc.ToProject(row.UserID, r.cfg)
}
