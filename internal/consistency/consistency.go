// Package consistency implements the rule-based checks run over stored
// entries: near-duplicates, possible contradictions and stale content.
//
// The detectors are pure functions of their input and the detector clock.
// Fetching candidates and acting on results (archiving) is the caller's job.
package consistency

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/HendryAvila/lumen/internal/memory"
	"github.com/HendryAvila/lumen/internal/similarity"
)

// Conflict and finding types.
const (
	TypeDuplicate         = "duplicate"
	TypeContradiction     = "contradict"
	TypeOutdatedGoal      = "outdated_goal"
	TypeOutdatedPlan      = "outdated_plan"
	TypeOutdatedKnowledge = "outdated_knowledge"
)

// Severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// DefaultDuplicateThreshold is the similarity at which two entries are
// reported as duplicates.
const DefaultDuplicateThreshold = 0.8

// Contradiction window: similar enough to be the same topic, not so similar
// that it is a restatement.
const (
	contradictionMin      = 0.6
	contradictionMax      = 0.95
	contradictionTitleMin = 0.7
)

// Staleness rules, in months of 30 days.
const (
	goalStaleMonths      = 6
	planStaleMonths      = 3
	knowledgeStaleMonths = 6
	knowledgeMaxPriority = 2
)

// goalMarkers are literal age/year tokens that make a goal time-bound.
var goalMarkers = []string{"50岁", "50", "2026", "2027", "2028", "2029", "2030"}

// contradictionCategories are the categories where a later entry can
// supersede an earlier one.
var contradictionCategories = map[string]bool{
	memory.CategoryDecision:   true,
	memory.CategoryGoal:       true,
	memory.CategoryCommitment: true,
	memory.CategoryPlan:       true,
}

// Conflict relates two entries.
type Conflict struct {
	Type       string       `json:"type"`
	Severity   string       `json:"severity"`
	Entry      memory.Entry `json:"entry"`
	Related    memory.Entry `json:"related_entry"`
	Similarity float64      `json:"similarity"`
	Suggestion string       `json:"suggestion"`
}

// Finding flags a single stale entry.
type Finding struct {
	Type              string       `json:"type"`
	Severity          string       `json:"severity"`
	Entry             memory.Entry `json:"entry"`
	MonthsOld         float64      `json:"months_old"`
	MonthsSinceUpdate float64      `json:"months_since_update"`
	Suggestion        string       `json:"suggestion"`
}

// Archivable reports whether the finding may be resolved by archiving.
func (f Finding) Archivable() bool {
	return f.Type == TypeOutdatedKnowledge
}

// Detector runs the checks with a fixed scorer and clock.
type Detector struct {
	scorer similarity.Scorer
	now    func() time.Time
}

// New returns a Detector. A nil clock means time.Now.
func New(scorer similarity.Scorer, now func() time.Time) *Detector {
	if now == nil {
		now = time.Now
	}
	return &Detector{scorer: scorer, now: now}
}

// ─── Duplicates ──────────────────────────────────────────────────────────────

// Duplicates reports every pair of entries whose title+content similarity
// is at least threshold, highest first. A threshold <= 0 uses the default.
func (d *Detector) Duplicates(entries []memory.Entry, threshold float64) []Conflict {
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}

	items := make([]similarity.Item[memory.Entry], len(entries))
	for i, e := range entries {
		items[i] = similarity.Item[memory.Entry]{ID: e.ID, Text: e.Text(), Value: e}
	}

	pairs := similarity.FindSimilarPairs(d.scorer, items, threshold)
	conflicts := make([]Conflict, 0, len(pairs))
	for _, p := range pairs {
		score := round2(p.Score)
		conflicts = append(conflicts, Conflict{
			Type:       TypeDuplicate,
			Severity:   SeverityMedium,
			Entry:      p.First,
			Related:    p.Second,
			Similarity: score,
			Suggestion: fmt.Sprintf("发现重复内容（相似度 %s）：'%s' 与 '%s' 高度相似，是否合并？",
				formatScore(score), p.First.Title, p.Second.Title),
		})
	}
	return conflicts
}

// ─── Contradictions ──────────────────────────────────────────────────────────

// ContradictionFlagged is the contradiction rule on precomputed scores.
func ContradictionFlagged(sim, titleSim float64) bool {
	return sim > contradictionMin && sim < contradictionMax && titleSim > contradictionTitleMin
}

// AppliesToCategory reports whether contradiction checks run for category.
func AppliesToCategory(category string) bool {
	return contradictionCategories[category]
}

// Contradictions compares a new entry against candidates of the same
// category and reports those that look like a diverging restatement.
func (d *Detector) Contradictions(entry memory.Entry, candidates []memory.Entry) []Conflict {
	if !AppliesToCategory(entry.Category) {
		return []Conflict{}
	}

	conflicts := []Conflict{}
	text := entry.Text()
	for _, c := range candidates {
		if c.ID == entry.ID || c.Category != entry.Category {
			continue
		}
		sim := d.scorer.Score(text, c.Text())
		if sim <= contradictionMin || sim >= contradictionMax {
			continue
		}
		if !ContradictionFlagged(sim, d.scorer.Score(entry.Title, c.Title)) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Type:       TypeContradiction,
			Severity:   SeverityMedium,
			Entry:      entry,
			Related:    c,
			Similarity: round2(sim),
			Suggestion: fmt.Sprintf("发现可能矛盾：新条目与 %s 相似但内容有差异，是否更新旧条目？", c.Title),
		})
	}
	return conflicts
}

// ─── Outdated ────────────────────────────────────────────────────────────────

// Outdated applies the per-category staleness rules. Archived entries and
// entries with unreadable timestamps are skipped.
func (d *Detector) Outdated(entries []memory.Entry) []Finding {
	now := d.now()
	findings := []Finding{}

	for _, e := range entries {
		if e.Archived {
			continue
		}
		created, err := memory.ParseTime(e.CreatedAt)
		if err != nil {
			continue
		}
		monthsOld := monthsBetween(created, now)
		monthsSinceUpdate := monthsOld
		if updated, err := memory.ParseTime(e.UpdatedAt); err == nil {
			monthsSinceUpdate = monthsBetween(updated, now)
		}

		switch e.Category {
		case memory.CategoryGoal:
			if monthsOld > goalStaleMonths && mentionsDeadline(e.Text()) {
				findings = append(findings, Finding{
					Type:              TypeOutdatedGoal,
					Severity:          SeverityHigh,
					Entry:             e,
					MonthsOld:         round1(monthsOld),
					MonthsSinceUpdate: round1(monthsSinceUpdate),
					Suggestion:        fmt.Sprintf("目标 '%s' 已创建 %.1f 个月，是否需要更新状态？", e.Title, monthsOld),
				})
			}
		case memory.CategoryPlan:
			if monthsOld > planStaleMonths {
				findings = append(findings, Finding{
					Type:              TypeOutdatedPlan,
					Severity:          SeverityMedium,
					Entry:             e,
					MonthsOld:         round1(monthsOld),
					MonthsSinceUpdate: round1(monthsSinceUpdate),
					Suggestion:        fmt.Sprintf("计划 '%s' 已创建 %.1f 个月，是否已完成或需要更新？", e.Title, monthsOld),
				})
			}
		case memory.CategoryKnowledge, memory.CategoryReference:
			if monthsSinceUpdate > knowledgeStaleMonths && e.Importance <= knowledgeMaxPriority {
				findings = append(findings, Finding{
					Type:              TypeOutdatedKnowledge,
					Severity:          SeverityLow,
					Entry:             e,
					MonthsOld:         round1(monthsOld),
					MonthsSinceUpdate: round1(monthsSinceUpdate),
					Suggestion:        fmt.Sprintf("知识库条目 '%s' 已 %.1f 个月未更新且重要性较低，建议归档", e.Title, monthsSinceUpdate),
				})
			}
		}
	}
	return findings
}

// monthsBetween counts whole elapsed days and divides by 30.
func monthsBetween(from, to time.Time) float64 {
	days := math.Floor(to.Sub(from).Hours() / 24)
	return days / 30
}

func mentionsDeadline(text string) bool {
	for _, m := range goalMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// formatScore prints a rounded score without trailing zeros (0.8, 0.85, 1).
func formatScore(v float64) string {
	return fmt.Sprint(v)
}
