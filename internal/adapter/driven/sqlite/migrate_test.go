package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	version, err := RunMigrations(db.Writer)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestRunMigrations_SeedsPMTools(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPMToolRepo(db)

	tools, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 5)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"Jira", "Linear", "Asana", "GitHub Projects", "Trello"}, names)
}
