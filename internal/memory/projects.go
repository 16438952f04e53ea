package memory

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

const metaCurrentProject = "current_project"

// CreateProject stores a new project and returns its id.
func (s *SQLiteStore) CreateProject(state *wizard.State) (string, error) {
	if state == nil {
		return "", fmt.Errorf("state cannot be nil")
	}
	id := uuid.NewString()
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	now := formatTime(time.Now())

	_, err = s.db.Exec(`
		INSERT INTO projects (id, name, current_step, state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, state.ProjectName, int(state.CurrentStep), string(data), now, now)
	if err != nil {
		return "", fmt.Errorf("insert project: %w", err)
	}
	return id, nil
}

// SaveState overwrites the stored snapshot of project id.
func (s *SQLiteStore) SaveState(id string, state *wizard.State) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE projects SET name = ?, current_step = ?, state_json = ?, updated_at = ?
		WHERE id = ?
	`, state.ProjectName, int(state.CurrentStep), string(data), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

// LoadState decodes the snapshot of project id. maxLog caps the activity log.
func (s *SQLiteStore) LoadState(id string, maxLog int) (*wizard.State, error) {
	var data string
	err := s.db.QueryRow("SELECT state_json FROM projects WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query project: %w", err)
	}

	var state wizard.State
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	state.Normalize(maxLog)
	return &state, nil
}

// ListProjects returns all projects, most recently updated first.
func (s *SQLiteStore) ListProjects() ([]ProjectSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, name, current_step, created_at, updated_at
		FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ProjectSummary
	for rows.Next() {
		var p ProjectSummary
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.CurrentStep, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		out = append(out, p)
	}
	if err := checkRowsErr(rows); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteProject removes a project and its chat transcript.
func (s *SQLiteStore) DeleteProject(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec("DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM meta WHERE key = ? AND value = ?", metaCurrentProject, id); err != nil {
		return fmt.Errorf("clear current project: %w", err)
	}
	return tx.Commit()
}

// SetCurrentProject records which project CLI commands operate on.
func (s *SQLiteStore) SetCurrentProject(id string) error {
	_, err := s.db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaCurrentProject, id)
	if err != nil {
		return fmt.Errorf("set current project: %w", err)
	}
	return nil
}

// CurrentProject returns the current project id, or ErrNotFound.
func (s *SQLiteStore) CurrentProject() (string, error) {
	var id string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", metaCurrentProject).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query current project: %w", err)
	}
	return id, nil
}
