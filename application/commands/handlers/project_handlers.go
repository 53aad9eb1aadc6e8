package handlers

import (
	"context"
	"fmt"

	"knowspark/application/commands"
	"knowspark/application/dto"
	"knowspark/application/ports"
	"knowspark/domain/config"
	"knowspark/domain/core/entities"
	"knowspark/domain/core/valueobjects"
	pkgerrors "knowspark/pkg/errors"

	"go.uber.org/zap"
)

// ProjectHandlers handles the project lifecycle commands
type ProjectHandlers struct {
	projectWriter
	cfg *config.DomainConfig
}

// NewProjectHandlers creates the project command handlers
func NewProjectHandlers(
	repo ports.ProjectRepository,
	eventBus ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *ProjectHandlers {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ProjectHandlers{
		projectWriter: projectWriter{repo: repo, eventBus: eventBus, logger: logger},
		cfg:           cfg,
	}
}

// HandleCreate executes CreateProjectCommand
func (h *ProjectHandlers) HandleCreate(ctx context.Context, cmd commands.CreateProjectCommand) error {
	id, err := valueobjects.NewProjectIDFromString(cmd.ProjectID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	title, err := valueobjects.NewProjectTitle(cmd.Title, h.cfg)
	if err != nil {
		return err
	}

	existing, err := h.repo.ListByUser(ctx, cmd.UserID)
	if err != nil {
		return fmt.Errorf("failed to count projects: %w", err)
	}
	if len(existing) >= h.cfg.MaxProjectsPerUser {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("user already has the maximum of %d projects", h.cfg.MaxProjectsPerUser))
	}

	project, err := entities.NewProject(id, cmd.UserID, title)
	if err != nil {
		return err
	}
	if err := h.commit(ctx, project); err != nil {
		return err
	}

	h.logger.Info("Project created",
		zap.String("projectID", cmd.ProjectID),
		zap.String("userID", cmd.UserID),
	)
	return nil
}

// HandleRename executes RenameProjectCommand
func (h *ProjectHandlers) HandleRename(ctx context.Context, cmd commands.RenameProjectCommand) error {
	title, err := valueobjects.NewProjectTitle(cmd.Title, h.cfg)
	if err != nil {
		return err
	}
	project, err := h.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return err
	}

	project.Rename(title)
	return h.commit(ctx, project)
}

// HandleDelete executes DeleteProjectCommand
func (h *ProjectHandlers) HandleDelete(ctx context.Context, cmd commands.DeleteProjectCommand) error {
	project, err := h.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return err
	}

	if err := h.repo.Delete(ctx, project.ID()); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	project.MarkDeleted()
	h.publish(ctx, project.GetUncommittedEvents())
	project.MarkEventsAsCommitted()

	h.logger.Info("Project deleted",
		zap.String("projectID", cmd.ProjectID),
		zap.Int("questions", project.QuestionCount()),
	)
	return nil
}

// HandleSync executes SyncProjectsCommand. Stored projects come first; a
// client copy replaces the stored one only when it was updated later.
// Client projects that cannot be read, or whose ID belongs to another
// user, are skipped.
func (h *ProjectHandlers) HandleSync(ctx context.Context, cmd commands.SyncProjectsCommand) error {
	stored, err := h.repo.ListByUser(ctx, cmd.UserID)
	if err != nil {
		return fmt.Errorf("failed to load stored projects: %w", err)
	}
	storedIDs := make(map[string]bool, len(stored))
	for _, p := range stored {
		storedIDs[p.ID().String()] = true
	}

	skipped := 0
	local := make([]*entities.Project, 0, len(cmd.Projects))
	for _, d := range cmd.Projects {
		p, err := d.ToProject(cmd.UserID, h.cfg)
		if err != nil {
			h.logger.Warn("Skipping unreadable client project", zap.String("projectID", d.ID), zap.Error(err))
			skipped++
			continue
		}
		if !storedIDs[d.ID] && h.ownedElsewhere(ctx, p.ID(), cmd.UserID) {
			h.logger.Warn("Skipping client project owned by another user", zap.String("projectID", d.ID))
			skipped++
			continue
		}
		local = append(local, p)
	}

	merged := entities.MergeProjects(local, stored)

	fromClient := make(map[*entities.Project]bool, len(local))
	for _, p := range local {
		fromClient[p] = true
	}
	var toSave []*entities.Project
	for _, p := range merged {
		if fromClient[p] {
			toSave = append(toSave, p)
		}
	}
	if len(toSave) > 0 {
		if err := h.repo.SaveBatch(ctx, toSave); err != nil {
			return fmt.Errorf("failed to save synced projects: %w", err)
		}
	}

	h.logger.Info("Projects synced",
		zap.String("userID", cmd.UserID),
		zap.Int("uploaded", len(toSave)),
		zap.Int("total", len(merged)),
		zap.Int("skipped", skipped),
	)

	if cmd.Result != nil {
		*cmd.Result = commands.SyncResult{
			Projects: dto.FromProjects(merged),
			Uploaded: len(toSave),
			Kept:     len(merged) - len(toSave),
			Skipped:  skipped,
		}
	}
	return nil
}

func (h *ProjectHandlers) ownedElsewhere(ctx context.Context, id valueobjects.ProjectID, userID string) bool {
	existing, err := h.repo.GetByID(ctx, id)
	if err != nil {
		// Missing is the expected case; lookup failures are treated as taken.
		return !pkgerrors.IsNotFound(err)
	}
	return !existing.IsOwnedBy(userID)
}
