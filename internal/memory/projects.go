package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ─── Projects ────────────────────────────────────────────────────────────────

func (s *Store) projectsDir() string {
	return filepath.Join(s.cfg.DataDir, "projects")
}

func (s *Store) baselinePath(projectID string) string {
	return filepath.Join(s.projectsDir(), projectID+"_baseline.md")
}

// CreateProject registers a project. A non-empty baseline document is also
// written to projects/<id>_baseline.md.
func (s *Store) CreateProject(ctx context.Context, p CreateProjectParams) (*Project, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, invalid("name", "must not be empty")
	}
	status := p.Status
	if status == "" {
		status = StatusActive
	}
	if !IsValidStatus(status) {
		return nil, invalid("status", "%q is not one of active, paused, completed, archived", status)
	}

	ts := FormatTime(s.now())
	proj := &Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: p.Description,
		BaselineDoc: p.BaselineDoc,
		Status:      status,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	if proj.BaselineDoc != "" {
		if err := os.MkdirAll(s.projectsDir(), 0o755); err != nil {
			return nil, fmt.Errorf("memory: create projects dir: %w", err)
		}
		path := s.baselinePath(proj.ID)
		if err := os.WriteFile(path, []byte(proj.BaselineDoc), 0o644); err != nil {
			return nil, fmt.Errorf("memory: write baseline: %w", err)
		}
		proj.BaselinePath = path
	}

	if _, err := s.execHook(ctx, s.db,
		`INSERT INTO projects (id, name, description, baseline_doc, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		proj.ID, proj.Name, proj.Description, nullableString(proj.BaselineDoc), proj.Status, proj.CreatedAt, proj.UpdatedAt,
	); err != nil {
		if proj.BaselinePath != "" {
			_ = os.Remove(proj.BaselinePath)
		}
		if isUniqueViolation(err) {
			return nil, invalid("name", "project %q already exists", name)
		}
		return nil, fmt.Errorf("memory: create project: %w", err)
	}
	return proj, nil
}

const projectColumns = "id, name, description, baseline_doc, status, created_at, updated_at"

// GetProjectByName looks a project up by its unique name.
func (s *Store) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE name = ?", name)
	proj, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: project %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get project: %w", err)
	}
	return proj, nil
}

// ListProjects returns projects newest first, optionally filtered by status.
func (s *Store) ListProjects(ctx context.Context, status string) ([]Project, error) {
	query := "SELECT " + projectColumns + " FROM projects"
	var args []any
	if status != "" {
		if !IsValidStatus(status) {
			return nil, invalid("status", "%q is not one of active, paused, completed, archived", status)
		}
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.queryItHook(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	projects := []Project{}
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("memory: list projects: %w", err)
		}
		projects = append(projects, *proj)
	}
	return projects, rows.Err()
}

// GetProjectBaseline returns the project's baseline document, preferring the
// file on disk over the stored column. A project without a baseline yields "".
func (s *Store) GetProjectBaseline(ctx context.Context, name string) (string, error) {
	proj, err := s.GetProjectByName(ctx, name)
	if err != nil {
		return "", err
	}
	if proj.BaselineDoc == "" {
		return "", nil
	}

	data, err := os.ReadFile(s.baselinePath(proj.ID))
	switch {
	case err == nil:
		return string(data), nil
	case errors.Is(err, fs.ErrNotExist):
		return proj.BaselineDoc, nil
	default:
		return "", fmt.Errorf("memory: read baseline: %w", err)
	}
}

// ProjectEntries returns the most important recent entries of a registered
// project. Unknown projects yield an empty list.
func (s *Store) ProjectEntries(ctx context.Context, name string, limit int) ([]Entry, error) {
	if _, err := s.GetProjectByName(ctx, name); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Entry{}, nil
		}
		return nil, err
	}
	return s.Search(ctx, SearchParams{Project: name, Limit: limit})
}

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	var p Project
	var desc, baseline sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &desc, &baseline, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Description = desc.String
	p.BaselineDoc = baseline.String
	return &p, nil
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
