package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ─── Entries ─────────────────────────────────────────────────────────────────

// Add validates and persists a new entry. The JSON document is written
// first, then the index row, FTS mirror and tag memberships in a single
// transaction. The returned entry is immediately visible to reads.
func (s *Store) Add(ctx context.Context, p AddParams) (*Entry, error) {
	if err := validateAdd(&p); err != nil {
		return nil, err
	}

	created := s.now()
	ts := FormatTime(created)
	e := &Entry{
		ID:         uuid.New().String(),
		CreatedAt:  ts,
		UpdatedAt:  ts,
		Category:   p.Category,
		Tags:       normalizeTags(p.Tags),
		Title:      p.Title,
		Content:    p.Content,
		Project:    strings.TrimSpace(p.Project),
		Importance: p.Importance,
		Source:     Source{Type: p.Source, Timestamp: ts},
	}

	path, err := s.blobs.Write(e, created)
	if err != nil {
		return nil, fmt.Errorf("memory: write entry: %w", err)
	}

	if err := s.insertIndex(ctx, e, path); err != nil {
		if rmErr := s.blobs.Remove(path); rmErr != nil {
			s.log.Warn("orphaned entry document", "path", path, "err", rmErr)
		}
		return nil, fmt.Errorf("memory: index entry: %w", err)
	}
	return e, nil
}

func (s *Store) insertIndex(ctx context.Context, e *Entry, path string) error {
	tx, err := s.beginTxHook(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := s.execHook(ctx, tx,
		`INSERT INTO memories (
			id, created_at, updated_at, category, tags, title, content,
			project, importance, archived, source_type, source_timestamp, entry_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		e.ID, e.CreatedAt, e.UpdatedAt, e.Category, encodeTags(e.Tags), e.Title, e.Content,
		nullableString(e.Project), e.Importance, e.Source.Type, e.Source.Timestamp, path,
	); err != nil {
		return err
	}

	for _, tag := range e.Tags {
		if _, err := s.execHook(ctx, tx,
			"INSERT OR IGNORE INTO memory_tags (memory_id, tag) VALUES (?, ?)", e.ID, tag,
		); err != nil {
			return err
		}
	}

	return s.commitHook(tx)
}

func validateAdd(p *AddParams) error {
	p.Category = strings.TrimSpace(p.Category)
	p.Title = strings.TrimSpace(p.Title)
	if !IsValidCategory(p.Category) {
		return invalid("category", "%q is not one of %s", p.Category, strings.Join(categories, ", "))
	}
	if p.Title == "" {
		return invalid("title", "must not be empty")
	}
	if strings.TrimSpace(p.Content) == "" {
		return invalid("content", "must not be empty")
	}
	if p.Importance == 0 {
		p.Importance = DefaultImportance
	}
	if p.Importance < MinImportance || p.Importance > MaxImportance {
		return invalid("importance", "%d is outside %d-%d", p.Importance, MinImportance, MaxImportance)
	}
	if p.Source == "" {
		p.Source = SourceManual
	}
	if !isValidSource(p.Source) {
		return invalid("source", "%q is not one of claude_ai, cursor, manual", p.Source)
	}
	return nil
}

// Get returns an entry by id, archived or not. It returns ErrNotFound when
// the id is unknown or its document is missing.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	path, err := s.entryPath(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := s.blobs.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: entry %s has no document", ErrNotFound, id)
		}
		return nil, fmt.Errorf("memory: read entry %s: %w", id, err)
	}
	return e, nil
}

func (s *Store) entryPath(ctx context.Context, id string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx, "SELECT entry_path FROM memories WHERE id = ?", id).Scan(&path)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("memory: lookup entry %s: %w", id, err)
	}
	return path, nil
}

// Update changes only the supplied fields and refreshes updated_at. The FTS
// mirror is re-indexed by trigger when title or content change. When no
// field is supplied the current entry is returned with ErrNoChanges.
// Concurrent updates of one entry apply in turn; the last one wins.
func (s *Store) Update(ctx context.Context, id string, p UpdateParams) (*Entry, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	path, err := s.entryPath(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := s.blobs.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: entry %s has no document", ErrNotFound, id)
		}
		return nil, fmt.Errorf("memory: read entry %s: %w", id, err)
	}

	if p.empty() {
		return e, ErrNoChanges
	}
	if p.ExpectedUpdatedAt != "" && p.ExpectedUpdatedAt != e.UpdatedAt {
		return nil, ErrConflict
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, invalid("title", "must not be empty")
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return nil, invalid("content", "must not be empty")
	}

	previous := e.UpdatedAt
	sets := []string{}
	args := []any{}
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
		sets = append(sets, "title = ?")
		args = append(args, e.Title)
	}
	if p.Content != nil {
		e.Content = *p.Content
		sets = append(sets, "content = ?")
		args = append(args, e.Content)
	}
	if p.Archived != nil {
		e.Archived = *p.Archived
		sets = append(sets, "archived = ?")
		args = append(args, boolToInt(e.Archived))
	}
	e.UpdatedAt = s.updatedAt(e.CreatedAt, previous)
	sets = append(sets, "updated_at = ?")
	args = append(args, e.UpdatedAt)

	query := "UPDATE memories SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)
	if p.ExpectedUpdatedAt != "" {
		query += " AND updated_at = ?"
		args = append(args, p.ExpectedUpdatedAt)
	}

	res, err := s.execHook(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: update entry %s: %w", id, err)
	}
	if p.ExpectedUpdatedAt != "" {
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, ErrConflict
		}
	}

	if err := s.blobs.Rewrite(path, e); err != nil {
		return nil, fmt.Errorf("memory: rewrite entry %s: %w", id, err)
	}
	return e, nil
}

// updatedAt returns a timestamp that never sorts before created or the
// previous update, even if the clock steps backwards.
func (s *Store) updatedAt(created, previous string) string {
	ts := FormatTime(s.now())
	for _, floor := range []string{created, previous} {
		if ts <= floor {
			if t, err := ParseTime(floor); err == nil {
				ts = FormatTime(t.Add(time.Microsecond))
			}
		}
	}
	return ts
}

// ─── Tags ────────────────────────────────────────────────────────────────────

// ListTags returns tag usage over non-archived entries, optionally scoped
// to a project, ordered by count desc then tag asc.
func (s *Store) ListTags(ctx context.Context, project string) ([]TagCount, error) {
	query := `
		SELECT mt.tag, COUNT(DISTINCT mt.memory_id) AS cnt
		FROM memory_tags mt
		INNER JOIN memories m ON mt.memory_id = m.id
		WHERE m.archived = 0`
	var args []any
	if project != "" {
		query += " AND m.project = ?"
		args = append(args, project)
	}
	query += " GROUP BY mt.tag ORDER BY cnt DESC, mt.tag ASC"

	rows, err := s.queryItHook(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: list tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := []TagCount{}
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, fmt.Errorf("memory: list tags: %w", err)
		}
		tags = append(tags, tc)
	}
	return tags, rows.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate counts. With a project, ProjectCategories holds
// that project's per-category breakdown instead of ByProject.
func (s *Store) Stats(ctx context.Context, project string) (*Stats, error) {
	stats := &Stats{
		ByCategory: map[string]int{},
		ByProject:  map[string]int{},
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memories WHERE archived = 0").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("memory: stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memories WHERE archived = 1").Scan(&stats.Archived); err != nil {
		return nil, fmt.Errorf("memory: stats: %w", err)
	}
	stats.Active = stats.Total

	if err := s.countInto(ctx, stats.ByCategory,
		"SELECT category, COUNT(*) FROM memories WHERE archived = 0 GROUP BY category"); err != nil {
		return nil, err
	}

	if project != "" {
		stats.Project = project
		stats.ProjectCategories = map[string]int{}
		if err := s.countInto(ctx, stats.ProjectCategories,
			"SELECT category, COUNT(*) FROM memories WHERE project = ? AND archived = 0 GROUP BY category",
			project); err != nil {
			return nil, err
		}
		return stats, nil
	}

	if err := s.countInto(ctx, stats.ByProject,
		"SELECT project, COUNT(*) FROM memories WHERE project IS NOT NULL AND project != '' AND archived = 0 GROUP BY project"); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) countInto(ctx context.Context, dst map[string]int, query string, args ...any) error {
	rows, err := s.queryItHook(ctx, s.db, query, args...)
	if err != nil {
		return fmt.Errorf("memory: stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("memory: stats: %w", err)
		}
		dst[key] = n
	}
	return rows.Err()
}
