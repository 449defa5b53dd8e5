// detail_level.go provides shared constants and shaping for the detail_level
// parameter used by search-style tools.
//
// Three verbosity levels:
//   - summary: ids, titles and metadata only
//   - standard: default behavior, truncated content snippets
//   - full: complete untruncated entries
package memory

import "fmt"

// Detail level constants.
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// snippetRunes is the content length kept at standard detail.
const snippetRunes = 200

// DetailLevelValues returns the enum values for MCP tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to "standard"
// for empty or unrecognized values.
func ParseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

// EntryView is an entry shaped for a detail level. Fields dropped at a
// level are left empty and omitted from JSON.
type EntryView struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Importance int      `json:"importance"`
	CreatedAt  string   `json:"created_at"`
	Tags       []string `json:"tags"`
	Project    string   `json:"project,omitempty"`
	Content    string   `json:"content,omitempty"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
	Source     *Source  `json:"source,omitempty"`
}

// View shapes e for the given detail level.
func (e *Entry) View(level string) EntryView {
	v := EntryView{
		ID:         e.ID,
		Title:      e.Title,
		Category:   e.Category,
		Importance: e.Importance,
		CreatedAt:  e.CreatedAt,
		Tags:       e.Tags,
	}
	switch ParseDetailLevel(level) {
	case DetailSummary:
	case DetailFull:
		src := e.Source
		v.Project = e.Project
		v.Content = e.Content
		v.UpdatedAt = e.UpdatedAt
		v.Source = &src
	default:
		v.Project = e.Project
		v.Content = Truncate(e.Content, snippetRunes)
	}
	return v
}

// NavigationHint returns a one-line footer when results are capped by a limit.
// Returns an empty string when all results fit (showing >= total) or total is 0.
func NavigationHint(showing, total int, hint string) string {
	if total <= 0 || showing >= total {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("Showing %d of %d. %s", showing, total, hint)
	}
	return fmt.Sprintf("Showing %d of %d.", showing, total)
}

// ─── Token Estimation ───────────────────────────────────────────────────────

// EstimateTokens approximates the token count of text with the chars/4
// heuristic. Returns 0 for empty strings, at least 1 otherwise.
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	tokens := n / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}
