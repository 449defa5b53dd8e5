package memory

import (
	"encoding/json"
	"strings"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Entry categories.
const (
	CategoryIdentity     = "identity"
	CategoryGoal         = "goal"
	CategoryPlan         = "plan"
	CategoryCommitment   = "commitment"
	CategoryInsight      = "insight"
	CategoryPrinciple    = "principle"
	CategoryPattern      = "pattern"
	CategoryProgress     = "progress"
	CategoryDecision     = "decision"
	CategoryConversation = "conversation"
	CategoryKnowledge    = "knowledge"
	CategoryReference    = "reference"
	CategoryDigest       = "digest"
)

var categories = []string{
	CategoryIdentity, CategoryGoal, CategoryPlan, CategoryCommitment,
	CategoryInsight, CategoryPrinciple, CategoryPattern, CategoryProgress,
	CategoryDecision, CategoryConversation, CategoryKnowledge,
	CategoryReference, CategoryDigest,
}

// Categories returns the accepted category names in declaration order.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// IsValidCategory reports whether c is a known category.
func IsValidCategory(c string) bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Source types.
const (
	SourceClaudeAI = "claude_ai"
	SourceCursor   = "cursor"
	SourceManual   = "manual"
)

func isValidSource(s string) bool {
	return s == SourceClaudeAI || s == SourceCursor || s == SourceManual
}

// Project statuses.
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
)

// IsValidStatus reports whether s is a known project status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Importance bounds.
const (
	MinImportance     = 1
	MaxImportance     = 5
	DefaultImportance = 3
)

// Source records where an entry came from.
type Source struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// Entry is a single stored note. Its JSON form is the canonical document
// written under entries/.
type Entry struct {
	ID         string   `json:"id"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Project    string   `json:"project,omitempty"`
	Importance int      `json:"importance"`
	Archived   bool     `json:"archived"`
	Source     Source   `json:"source"`
}

// Text joins title and content the way similarity checks compare entries.
func (e *Entry) Text() string {
	return e.Title + " " + e.Content
}

func (e *Entry) clone() *Entry {
	c := *e
	c.Tags = append([]string{}, e.Tags...)
	return &c
}

// AddParams holds the input for creating a new entry.
type AddParams struct {
	Category   string   `json:"category"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Project    string   `json:"project,omitempty"`
	Importance int      `json:"importance,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// UpdateParams holds partial update fields for an entry. Nil fields are
// left unchanged.
type UpdateParams struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Archived *bool   `json:"archived,omitempty"`
	// ExpectedUpdatedAt enables optimistic locking when non-empty.
	ExpectedUpdatedAt string `json:"expected_updated_at,omitempty"`
}

func (p UpdateParams) empty() bool {
	return p.Title == nil && p.Content == nil && p.Archived == nil
}

// SearchParams holds query and filters for Search.
type SearchParams struct {
	Query    string   `json:"query,omitempty"`
	Category string   `json:"category,omitempty"`
	Project  string   `json:"project,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	// Limit 0 means the configured default.
	Limit int `json:"limit,omitempty"`
}

// TagCount is a tag with the number of active entries carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats holds aggregate entry statistics. Archived entries only count
// towards Archived.
type Stats struct {
	// Total counts non-archived entries.
	Total    int `json:"total"`
	Archived int `json:"archived"`
	// Active always equals Total. Both keys are part of the stats payload
	// existing clients read, so neither is dropped.
	Active     int            `json:"active"`
	ByCategory map[string]int `json:"by_category"`
	ByProject  map[string]int `json:"by_project"`
	// Project and ProjectCategories are set when stats are scoped to one project.
	Project           string         `json:"project,omitempty"`
	ProjectCategories map[string]int `json:"project_categories,omitempty"`
}

// Project is a named container entries can refer to.
type Project struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	BaselineDoc  string `json:"baseline_doc,omitempty"`
	BaselinePath string `json:"baseline_path,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// CreateProjectParams holds the input for creating a project.
type CreateProjectParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	BaselineDoc string `json:"baseline_doc,omitempty"`
	Status      string `json:"status,omitempty"`
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// normalizeTags trims, drops empties and de-duplicates while keeping order.
// It never returns nil so documents always carry a tags array.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func encodeTags(tags []string) string {
	data, _ := json.Marshal(tags)
	return string(data)
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	return normalizeTags(tags), nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Truncate shortens a string to max runes with an ellipsis.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "fix auth bug" → `"fix" "auth" "bug"`
func sanitizeFTS(query string) string {
	var quoted []string
	for _, w := range strings.Fields(query) {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
