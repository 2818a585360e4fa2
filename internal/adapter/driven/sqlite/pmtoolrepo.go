package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PMToolStore = (*PMToolRepo)(nil)

// PMToolRepo is the SQLite implementation of the PMToolStore port interface.
type PMToolRepo struct {
	db *DB
}

// NewPMToolRepo creates a new PMToolRepo backed by the given DB.
func NewPMToolRepo(db *DB) *PMToolRepo {
	return &PMToolRepo{db: db}
}

const pmToolColumns = `id, name, provider, status, project_count, task_count, last_sync, settings, created_at`

// Add inserts a new tool. Returns driven.ErrPMToolAlreadyExists if the name is taken.
func (r *PMToolRepo) Add(ctx context.Context, tool model.PMTool) error {
	settings, err := marshalSettings(tool.Settings)
	if err != nil {
		return fmt.Errorf("add pm tool %s: %w", tool.Name, err)
	}

	createdAt := tool.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var lastSync any
	if tool.LastSync != nil {
		lastSync = formatTime(*tool.LastSync)
	}

	const query = `INSERT INTO pm_tools (` + pmToolColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Writer.ExecContext(ctx, query,
		tool.ID,
		tool.Name,
		string(tool.Provider),
		string(tool.Status),
		tool.ProjectCount,
		tool.TaskCount,
		lastSync,
		settings,
		formatTime(createdAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("add pm tool %s: %w", tool.Name, driven.ErrPMToolAlreadyExists)
		}
		return fmt.Errorf("add pm tool %s: %w", tool.Name, err)
	}

	return nil
}

// Get retrieves a tool by ID. Returns driven.ErrPMToolNotFound if it does not exist.
func (r *PMToolRepo) Get(ctx context.Context, id string) (*model.PMTool, error) {
	const query = `SELECT ` + pmToolColumns + ` FROM pm_tools WHERE id = ?`

	tool, err := scanPMTool(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get pm tool %s: %w", id, driven.ErrPMToolNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pm tool %s: %w", id, err)
	}
	return tool, nil
}

// ListAll returns all tools ordered by creation time, then name.
func (r *PMToolRepo) ListAll(ctx context.Context) ([]model.PMTool, error) {
	const query = `SELECT ` + pmToolColumns + ` FROM pm_tools ORDER BY created_at, name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pm tools: %w", err)
	}
	defer rows.Close()

	tools := []model.PMTool{}
	for rows.Next() {
		tool, err := scanPMTool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pm tool: %w", err)
		}
		tools = append(tools, *tool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pm tools: %w", err)
	}

	return tools, nil
}

// Remove deletes a tool by ID.
func (r *PMToolRepo) Remove(ctx context.Context, id string) error {
	const query = `DELETE FROM pm_tools WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("remove pm tool %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("remove pm tool %s: %w", id, driven.ErrPMToolNotFound)
	}

	return nil
}

// UpdateSync records a sync outcome.
func (r *PMToolRepo) UpdateSync(ctx context.Context, id string, status model.ToolStatus, taskCount int, syncedAt time.Time) error {
	const query = `
		UPDATE pm_tools SET
			status     = ?,
			task_count = CASE WHEN ? = 'connected' THEN ? ELSE task_count END,
			last_sync  = ?
		WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, string(status), string(status), taskCount, formatTime(syncedAt), id)
	if err != nil {
		return fmt.Errorf("update sync for pm tool %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update sync for pm tool %s: %w", id, driven.ErrPMToolNotFound)
	}

	return nil
}

// SetStatus updates the status of the tool with id.
func (r *PMToolRepo) SetStatus(ctx context.Context, id string, status model.ToolStatus) error {
	const query = `UPDATE pm_tools SET status = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("set status for pm tool %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set status for pm tool %s: %w", id, driven.ErrPMToolNotFound)
	}

	return nil
}

// SetStatusByProvider updates the status of every tool backed by provider.
// It is not an error for no tool to match.
func (r *PMToolRepo) SetStatusByProvider(ctx context.Context, provider model.Provider, status model.ToolStatus) error {
	const query = `UPDATE pm_tools SET status = ? WHERE provider = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, string(status), string(provider)); err != nil {
		return fmt.Errorf("set status for %s tools: %w", provider, err)
	}
	return nil
}

func scanPMTool(s scanner) (*model.PMTool, error) {
	var (
		tool                       model.PMTool
		provider, status, settings string
		lastSync                   sql.NullString
		createdAt                  string
	)

	err := s.Scan(
		&tool.ID, &tool.Name, &provider, &status,
		&tool.ProjectCount, &tool.TaskCount,
		&lastSync, &settings, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	tool.Provider = model.Provider(provider)
	tool.Status = model.ToolStatus(status)

	if lastSync.Valid {
		t, err := parseTime(lastSync.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_sync: %w", err)
		}
		tool.LastSync = &t
	}

	tool.Settings = map[string]string{}
	if settings != "" {
		if err := json.Unmarshal([]byte(settings), &tool.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}

	tool.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &tool, nil
}

func marshalSettings(settings map[string]string) (string, error) {
	if len(settings) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("encode settings: %w", err)
	}
	return string(data), nil
}
