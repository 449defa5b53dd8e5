package journal

import (
	"context"

	"github.com/HendryAvila/lumen/internal/memory"
)

// MsgNothingToSync is reported when there are no active entries.
const MsgNothingToSync = "没有找到需要同步的记忆"

// defaultRecentEntries is how many entries a project context carries.
const defaultRecentEntries = 5

// maxSyncFailures bounds the failure details kept in a report.
const maxSyncFailures = 5

// ─── Sync ────────────────────────────────────────────────────────────────────

// SyncFailure describes one entry the notifier rejected.
type SyncFailure struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// SyncReport is the result of SyncAll.
type SyncReport struct {
	Total    int           `json:"total"`
	Synced   int           `json:"synced"`
	Failed   int           `json:"failed"`
	DryRun   bool          `json:"dry_run"`
	Message  string        `json:"message,omitempty"`
	Failures []SyncFailure `json:"failures,omitempty"`
}

// SyncAll pushes every active entry through the notifier. A dry run only
// counts. limit <= 0 means all scanned entries.
func (j *Journal) SyncAll(ctx context.Context, dryRun bool, limit int) (*SyncReport, error) {
	entries, err := j.store.Scan(ctx, "", "")
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	report := &SyncReport{Total: len(entries), DryRun: dryRun}
	if len(entries) == 0 {
		report.Message = MsgNothingToSync
		return report, nil
	}
	if dryRun {
		report.Synced = len(entries)
		return report, nil
	}

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		e := &entries[i]
		if err := j.notifier.Notify(ctx, e); err != nil {
			report.Failed++
			if len(report.Failures) < maxSyncFailures {
				report.Failures = append(report.Failures, SyncFailure{ID: e.ID, Title: e.Title, Error: err.Error()})
			}
			continue
		}
		report.Synced++
	}
	if report.Failed > 0 {
		j.log.Warn("journal: sync finished with failures", "synced", report.Synced, "failed", report.Failed)
	}
	return report, nil
}

// ─── Projects ────────────────────────────────────────────────────────────────

// ProjectContext bundles a project with its baseline and recent entries.
type ProjectContext struct {
	Project       *memory.Project `json:"project"`
	Baseline      string          `json:"baseline,omitempty"`
	RecentEntries []memory.Entry  `json:"recent_memories"`
	EntryCount    int             `json:"memory_count"`
}

// ProjectContext loads a project by name. Unknown projects yield
// memory.ErrNotFound. recentLimit <= 0 uses the default of 5.
func (j *Journal) ProjectContext(ctx context.Context, name string, includeBaseline bool, recentLimit int) (*ProjectContext, error) {
	proj, err := j.store.GetProjectByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if recentLimit <= 0 {
		recentLimit = defaultRecentEntries
	}

	pc := &ProjectContext{Project: proj}
	if includeBaseline {
		if pc.Baseline, err = j.store.GetProjectBaseline(ctx, name); err != nil {
			return nil, err
		}
	}
	if pc.RecentEntries, err = j.store.ProjectEntries(ctx, name, recentLimit); err != nil {
		return nil, err
	}
	pc.EntryCount = len(pc.RecentEntries)
	return pc, nil
}

// ─── Seed ────────────────────────────────────────────────────────────────────

// seedEntries is the starter set written by Seed.
var seedEntries = []memory.AddParams{
	{
		Category:   memory.CategoryGoal,
		Title:      "核心目标：50岁退休",
		Content:    "为50岁退休做好身体与精神的双重准备。不是'再赢一次'，而是'不再走错'。",
		Importance: 5,
	},
	{
		Category:   memory.CategoryPattern,
		Title:      "行为模式：研究替代到达",
		Content:    "爱研究不爱到达。研究→优化→迭代→下一个研究的循环给掌控感，但永远在起点附近打转。",
		Importance: 5,
	},
	{
		Category:   memory.CategoryCommitment,
		Title:      "三个锚点",
		Content:    "晨间定课、身体运动、睡前回顾。锚点是身份不是任务，可以缩短但不能取消。",
		Importance: 5,
	},
	{
		Category:   memory.CategoryPrinciple,
		Title:      "止损规则",
		Content:    "工具迭代每周最多2小时；久坐45-60分钟必须起身；没有明确目的不开新项目。",
		Importance: 4,
	},
}

// SeedReport lists what Seed wrote.
type SeedReport struct {
	Created []memory.Entry `json:"created"`
	Skipped int            `json:"skipped"`
}

// Seed writes the starter entries. Entries whose category and title already
// exist are skipped, so seeding twice is harmless.
func (j *Journal) Seed(ctx context.Context) (*SeedReport, error) {
	report := &SeedReport{Created: []memory.Entry{}}
	for _, p := range seedEntries {
		existing, err := j.store.Scan(ctx, p.Category, "")
		if err != nil {
			return nil, err
		}
		if hasTitle(existing, p.Title) {
			report.Skipped++
			continue
		}

		p.Source = memory.SourceManual
		e, err := j.store.Add(ctx, p)
		if err != nil {
			return nil, err
		}
		report.Created = append(report.Created, *e)
	}
	return report, nil
}

func hasTitle(entries []memory.Entry, title string) bool {
	for _, e := range entries {
		if e.Title == title {
			return true
		}
	}
	return false
}
