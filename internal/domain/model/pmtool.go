package model

import "time"

// PMTool is a project-management tool registered in the workspace.
// Settings holds provider-specific options such as "repository" for GitHub.
type PMTool struct {
	ID           string
	Name         string
	Provider     Provider
	Status       ToolStatus
	ProjectCount int
	TaskCount    int
	LastSync     *time.Time
	Settings     map[string]string
	CreatedAt    time.Time
}

// SyncResult reports the outcome of syncing one PMTool.
type SyncResult struct {
	ToolID      string
	Name        string
	Provider    Provider
	Status      SyncStatus
	ItemsSynced int
	Duration    time.Duration
	SyncedAt    time.Time
	Error       string
}
