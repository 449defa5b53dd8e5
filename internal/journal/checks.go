package journal

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/lumen/internal/consistency"
	"github.com/HendryAvila/lumen/internal/memory"
)

// Check types accepted by CheckConflicts.
const (
	CheckContradict = "contradict"
	CheckOutdated   = "outdated"
	CheckDuplicate  = "duplicate"
)

// MsgTooFewEntries is reported when a duplicate scan has nothing to compare.
const MsgTooFewEntries = "条目数量不足，无法检测重复"

// Scope restricts a scan to a category and/or project.
type Scope struct {
	Category string `json:"category,omitempty"`
	Project  string `json:"project,omitempty"`
}

// ConflictOptions selects what CheckConflicts examines.
type ConflictOptions struct {
	// NewEntryID checks one entry against its neighbours instead of
	// scanning the whole scope.
	NewEntryID string `json:"new_entry_id,omitempty"`
	Scope
	// Checks defaults to all three check types.
	Checks []string `json:"check_type,omitempty"`
}

// ConflictReport is the combined result of CheckConflicts.
type ConflictReport struct {
	Count     int                    `json:"count"`
	Conflicts []consistency.Conflict `json:"conflicts"`
	Outdated  []consistency.Finding  `json:"outdated"`
}

// DuplicateReport is the result of CheckDuplicates.
type DuplicateReport struct {
	Count      int                    `json:"count"`
	Message    string                 `json:"message,omitempty"`
	Duplicates []consistency.Conflict `json:"duplicates"`
}

// ArchivedRef names an entry archived by an automatic fix.
type ArchivedRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// OutdatedReport is the result of CheckOutdated.
type OutdatedReport struct {
	Count        int                   `json:"count"`
	Outdated     []consistency.Finding `json:"outdated"`
	AutoArchived []ArchivedRef         `json:"auto_archived,omitempty"`
	Diagnostics  []Diagnostic          `json:"diagnostics,omitempty"`
}

// ─── Conflicts ───────────────────────────────────────────────────────────────

// CheckConflicts runs the selected checks. With NewEntryID the candidates
// are the entry's neighbours (same title start, category and project) and
// contradictions are checked; otherwise the scope is scanned in full.
func (j *Journal) CheckConflicts(ctx context.Context, opts ConflictOptions) (*ConflictReport, error) {
	checks, err := parseChecks(opts.Checks)
	if err != nil {
		return nil, err
	}

	report := &ConflictReport{
		Conflicts: []consistency.Conflict{},
		Outdated:  []consistency.Finding{},
	}

	var candidates []memory.Entry
	if opts.NewEntryID != "" {
		e, err := j.store.Get(ctx, opts.NewEntryID)
		if err != nil {
			return nil, err
		}
		category := firstNonEmpty(opts.Category, e.Category)
		project := firstNonEmpty(opts.Project, e.Project)
		candidates, err = j.neighbours(ctx, e, category, project)
		if err != nil {
			return nil, err
		}
		if checks[CheckContradict] {
			report.Conflicts = append(report.Conflicts, j.detector.Contradictions(*e, candidates)...)
		}
	} else {
		candidates, err = j.store.Scan(ctx, opts.Category, opts.Project)
		if err != nil {
			return nil, err
		}
	}

	if checks[CheckOutdated] {
		report.Outdated = j.detector.Outdated(candidates)
	}
	if checks[CheckDuplicate] {
		report.Conflicts = append(report.Conflicts, j.detector.Duplicates(candidates, j.duplicateThreshold)...)
	}

	report.Count = len(report.Conflicts) + len(report.Outdated)
	return report, nil
}

func parseChecks(requested []string) (map[string]bool, error) {
	if len(requested) == 0 {
		return map[string]bool{CheckContradict: true, CheckOutdated: true, CheckDuplicate: true}, nil
	}
	checks := map[string]bool{}
	for _, c := range requested {
		c = strings.TrimSpace(c)
		switch c {
		case CheckContradict, CheckOutdated, CheckDuplicate:
			checks[c] = true
		default:
			return nil, &memory.ValidationError{
				Field:   "check_type",
				Message: fmt.Sprintf("%q is not one of contradict, outdated, duplicate", c),
			}
		}
	}
	return checks, nil
}

// ─── Duplicates ──────────────────────────────────────────────────────────────

// CheckDuplicates reports near-identical pairs within a scope. A zero
// threshold uses the configured default.
func (j *Journal) CheckDuplicates(ctx context.Context, scope Scope, threshold float64) (*DuplicateReport, error) {
	if threshold < 0 || threshold > 1 {
		return nil, &memory.ValidationError{
			Field:   "similarity_threshold",
			Message: fmt.Sprintf("must be within 0-1, got %v", threshold),
		}
	}
	if threshold == 0 {
		threshold = j.duplicateThreshold
	}

	entries, err := j.store.Scan(ctx, scope.Category, scope.Project)
	if err != nil {
		return nil, err
	}
	if len(entries) < 2 {
		return &DuplicateReport{Message: MsgTooFewEntries, Duplicates: []consistency.Conflict{}}, nil
	}

	dups := j.detector.Duplicates(entries, threshold)
	return &DuplicateReport{Count: len(dups), Duplicates: dups}, nil
}

// ─── Outdated ────────────────────────────────────────────────────────────────

// CheckOutdated reports stale entries within a scope. With autoFix, stale
// low-importance knowledge is archived and listed in AutoArchived instead.
func (j *Journal) CheckOutdated(ctx context.Context, scope Scope, autoFix bool) (*OutdatedReport, error) {
	entries, err := j.store.Scan(ctx, scope.Category, scope.Project)
	if err != nil {
		return nil, err
	}

	report := &OutdatedReport{Outdated: []consistency.Finding{}}
	archived := true
	for _, f := range j.detector.Outdated(entries) {
		if !autoFix || !f.Archivable() {
			report.Outdated = append(report.Outdated, f)
			continue
		}

		res, err := j.Update(ctx, f.Entry.ID, memory.UpdateParams{Archived: &archived})
		if err != nil {
			j.log.Warn("journal: auto-archive failed", "id", f.Entry.ID, "err", err)
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				Stage:   StageArchive,
				Message: fmt.Sprintf("%s: %v", f.Entry.ID, err),
			})
			report.Outdated = append(report.Outdated, f)
			continue
		}
		report.Diagnostics = append(report.Diagnostics, res.Diagnostics...)
		report.AutoArchived = append(report.AutoArchived, ArchivedRef{ID: f.Entry.ID, Title: f.Entry.Title})
	}

	report.Count = len(report.Outdated)
	return report, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
