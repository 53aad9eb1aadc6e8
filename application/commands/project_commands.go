package commands

import (
	"knowspark/application/dto"
	"knowspark/pkg/utils"
)

// CreateProjectCommand creates an empty project. ProjectID is chosen by the
// caller so the new project can be read back after the command.
type CreateProjectCommand struct {
	ProjectID string `json:"projectId" validate:"required,uuid"`
	UserID    string `json:"userId" validate:"required"`
	Title     string `json:"title" validate:"max=200"`
}

// Validate validates the command
func (c CreateProjectCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RenameProjectCommand changes a project's title
type RenameProjectCommand struct {
	ProjectID string `json:"projectId" validate:"required,uuid"`
	UserID    string `json:"userId" validate:"required"`
	Title     string `json:"title" validate:"max=200"`
}

// Validate validates the command
func (c RenameProjectCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteProjectCommand removes a project and its questions
type DeleteProjectCommand struct {
	ProjectID string `json:"projectId" validate:"required,uuid"`
	UserID    string `json:"userId" validate:"required"`
}

// Validate validates the command
func (c DeleteProjectCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SyncProjectsCommand merges client-held projects into the user's stored
// ones. The handler fills Result when it is non-nil.
type SyncProjectsCommand struct {
	UserID   string        `json:"userId" validate:"required"`
	Projects []dto.Project `json:"projects" validate:"max=500"`
	Result   *SyncResult   `json:"-"`
}

// Validate validates the command
func (c SyncProjectsCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SyncResult reports what a sync changed
type SyncResult struct {
	Projects []dto.Project `json:"projects"`
	// Uploaded counts local projects that were new or newer than the stored copy
	Uploaded int `json:"uploaded"`
	// Kept counts stored projects that won over, or had no, local copy
	Kept int `json:"kept"`
	// Skipped counts local projects that could not be read
	Skipped int `json:"skipped"`
}
