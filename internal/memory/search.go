package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode"

	"github.com/HendryAvila/lumen/internal/similarity"
)

// ─── Search ──────────────────────────────────────────────────────────────────

// Search returns non-archived entries matching the query and filters,
// ordered by importance desc then created_at desc.
//
// Queries containing a CJK ideograph are matched as substrings of title or
// content (any word may match), because the FTS tokenizer does not segment
// CJK text. Other queries go through FTS5 with every token required. An
// empty query applies only the filters. Tags are ANDed.
//
// Index rows whose JSON document is missing are skipped without error.
func (s *Store) Search(ctx context.Context, p SearchParams) ([]Entry, error) {
	limit := p.Limit
	if limit == 0 {
		limit = s.cfg.DefaultSearchLimit
	}
	if limit < 0 {
		return nil, invalid("limit", "must be positive, got %d", limit)
	}
	if limit > s.cfg.MaxSearchResults {
		return nil, invalid("limit", "must be at most %d, got %d", s.cfg.MaxSearchResults, limit)
	}
	return s.query(ctx, p, limit)
}

// Scan lists non-archived entries in a category/project scope without a
// text query, capped at Config.MaxScanEntries. It feeds the consistency
// checks, which need more than a page of results.
func (s *Store) Scan(ctx context.Context, category, project string) ([]Entry, error) {
	return s.query(ctx, SearchParams{Category: category, Project: project}, s.cfg.MaxScanEntries)
}

// ScanTagged is Scan with a tag-AND filter.
func (s *Store) ScanTagged(ctx context.Context, category, project string, tags []string) ([]Entry, error) {
	return s.query(ctx, SearchParams{Category: category, Project: project, Tags: tags}, s.cfg.MaxScanEntries)
}

// textMode describes how the query text is matched.
type textMode int

const (
	textNone textMode = iota
	textSubstring
	textFTS
)

// searchPlan is the SQL built for a search.
type searchPlan struct {
	mode  textMode
	sql   string
	args  []any
	limit int
}

func planSearch(p SearchParams, limit int) searchPlan {
	plan := searchPlan{limit: limit}

	var joins []string
	var joinArgs []any
	var conds []string
	var condArgs []any

	query := strings.TrimSpace(p.Query)
	switch {
	case query == "":
		plan.mode = textNone
	case similarity.ContainsCJK(query):
		plan.mode = textSubstring
		var words []string
		for _, w := range strings.Fields(query) {
			words = append(words, `(m.title LIKE ? ESCAPE '\' OR m.content LIKE ? ESCAPE '\')`)
			pattern := "%" + likeEscaper.Replace(w) + "%"
			condArgs = append(condArgs, pattern, pattern)
		}
		if len(words) == 1 {
			conds = append(conds, words[0])
		} else {
			conds = append(conds, "("+strings.Join(words, " OR ")+")")
		}
	case !hasLetters(query):
		// Nothing the tokenizer could index: match nothing rather than
		// hand FTS5 an empty phrase.
		plan.mode = textFTS
		conds = append(conds, "0 = 1")
	default:
		plan.mode = textFTS
		joins = append(joins, "JOIN memories_fts ON memories_fts.id = m.id")
		conds = append(conds, "memories_fts MATCH ?")
		condArgs = append(condArgs, sanitizeFTS(query))
	}

	for i, tag := range normalizeTags(p.Tags) {
		alias := fmt.Sprintf("mt%d", i)
		joins = append(joins, fmt.Sprintf(
			"INNER JOIN memory_tags %[1]s ON %[1]s.memory_id = m.id AND %[1]s.tag = ?", alias))
		joinArgs = append(joinArgs, tag)
	}

	if p.Category != "" {
		conds = append(conds, "m.category = ?")
		condArgs = append(condArgs, p.Category)
	}
	if p.Project != "" {
		conds = append(conds, "m.project = ?")
		condArgs = append(condArgs, p.Project)
	}
	conds = append(conds, "m.archived = 0")

	var b strings.Builder
	b.WriteString("SELECT DISTINCT m.id, m.entry_path, m.importance, m.created_at FROM memories m")
	for _, j := range joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(conds, " AND "))
	b.WriteString(" ORDER BY m.importance DESC, m.created_at DESC LIMIT ?")

	plan.sql = b.String()
	plan.args = append(plan.args, joinArgs...)
	plan.args = append(plan.args, condArgs...)
	plan.args = append(plan.args, limit)
	return plan
}

// likeEscaper makes LIKE wildcards in a query word match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (s *Store) query(ctx context.Context, p SearchParams, limit int) ([]Entry, error) {
	plan := planSearch(p, limit)

	rows, err := s.queryItHook(ctx, s.db, plan.sql, plan.args...)
	if err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}

	type hit struct{ id, path string }
	var hits []hit
	for rows.Next() {
		var h hit
		var importance int
		var created string
		if err := rows.Scan(&h.id, &h.path, &importance, &created); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("memory: search: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("memory: search: %w", err)
	}
	_ = rows.Close()

	results := make([]Entry, 0, len(hits))
	for _, h := range hits {
		e, err := s.blobs.Read(h.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.log.Debug("skipping entry without document", "id", h.id, "path", h.path)
			} else {
				s.log.Warn("skipping unreadable entry document", "id", h.id, "err", err)
			}
			continue
		}
		results = append(results, *e)
	}
	return results, nil
}

// hasLetters reports whether s contains anything FTS could index.
func hasLetters(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	}) >= 0
}
