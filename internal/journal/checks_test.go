package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/HendryAvila/lumen/internal/consistency"
	"github.com/HendryAvila/lumen/internal/memory"
)

// ─── CheckConflicts ─────────────────────────────────────────────────────────

func TestCheckConflicts_ScopeScan(t *testing.T) {
	f := newFixture(t)
	f.add(t, memory.AddParams{Category: memory.CategoryPlan, Title: "renovate kitchen", Content: "order cabinets"})
	f.add(t, memory.AddParams{Category: memory.CategoryInsight, Title: "focus morning", Content: "deep work before noon"})
	f.add(t, memory.AddParams{Category: memory.CategoryInsight, Title: "focus morning", Content: "deep work before noon"})

	report, err := f.j.CheckConflicts(context.Background(), ConflictOptions{})
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(report.Outdated) != 1 || report.Outdated[0].Type != consistency.TypeOutdatedPlan {
		t.Errorf("Outdated = %+v", report.Outdated)
	}
	if len(report.Conflicts) != 1 || report.Conflicts[0].Type != consistency.TypeDuplicate {
		t.Errorf("Conflicts = %+v", report.Conflicts)
	}
	if report.Count != 2 {
		t.Errorf("Count = %d, want 2", report.Count)
	}
}

func TestCheckConflicts_SelectedChecksOnly(t *testing.T) {
	f := newFixture(t)
	f.add(t, memory.AddParams{Category: memory.CategoryPlan, Title: "renovate kitchen", Content: "order cabinets"})

	report, err := f.j.CheckConflicts(context.Background(), ConflictOptions{Checks: []string{CheckDuplicate}})
	if err != nil {
		t.Fatal(err)
	}
	if report.Count != 0 || len(report.Outdated) != 0 {
		t.Errorf("outdated ran although not selected: %+v", report)
	}
}

func TestCheckConflicts_UnknownCheck(t *testing.T) {
	f := newFixture(t)
	_, err := f.j.CheckConflicts(context.Background(), ConflictOptions{Checks: []string{"spelling"}})
	if !memory.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckConflicts_NewEntry(t *testing.T) {
	f := newFixture(t)
	older := f.add(t, memory.AddParams{Category: memory.CategoryDecision, Title: "database choice", Content: "use sqlite for storage"})
	newer := f.add(t, memory.AddParams{Category: memory.CategoryDecision, Title: "database choice", Content: "use postgres for storage"})

	report, err := f.j.CheckConflicts(context.Background(), ConflictOptions{
		NewEntryID: newer.Entry.ID,
		Checks:     []string{CheckContradict},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Conflicts) != 1 || report.Conflicts[0].Related.ID != older.Entry.ID {
		t.Errorf("Conflicts = %+v", report.Conflicts)
	}
}

func TestCheckConflicts_UnknownEntry(t *testing.T) {
	f := newFixture(t)
	_, err := f.j.CheckConflicts(context.Background(), ConflictOptions{NewEntryID: "missing"})
	if !errors.Is(err, memory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ─── CheckDuplicates ────────────────────────────────────────────────────────

func TestCheckDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.j.CheckDuplicates(ctx, Scope{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if report.Message != MsgTooFewEntries || report.Count != 0 {
		t.Errorf("empty store report = %+v", report)
	}

	f.add(t, memory.AddParams{Category: memory.CategoryInsight, Title: "focus morning", Content: "deep work before noon", Project: "p"})
	f.add(t, memory.AddParams{Category: memory.CategoryInsight, Title: "focus morning", Content: "deep work before noon", Project: "p"})
	f.add(t, memory.AddParams{Category: memory.CategoryInsight, Title: "focus morning", Content: "deep work before noon", Project: "q"})

	report, err = f.j.CheckDuplicates(ctx, Scope{Project: "p"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if report.Count != 1 {
		t.Errorf("scoped duplicates = %d, want 1", report.Count)
	}

	report, err = f.j.CheckDuplicates(ctx, Scope{}, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if report.Count != 3 {
		t.Errorf("unscoped duplicates = %d, want 3", report.Count)
	}
}

func TestCheckDuplicates_ThresholdRange(t *testing.T) {
	f := newFixture(t)
	for _, th := range []float64{-0.1, 1.5} {
		if _, err := f.j.CheckDuplicates(context.Background(), Scope{}, th); !memory.IsValidation(err) {
			t.Errorf("threshold %v: expected validation error, got %v", th, err)
		}
	}
}

// ─── CheckOutdated ──────────────────────────────────────────────────────────

func TestCheckOutdated_ReportOnly(t *testing.T) {
	f := newFixture(t)
	f.add(t, memory.AddParams{Category: memory.CategoryKnowledge, Title: "old api notes", Importance: 1})
	f.add(t, memory.AddParams{Category: memory.CategoryPlan, Title: "renovate kitchen"})
	f.add(t, memory.AddParams{Category: memory.CategoryGoal, Title: "marathon by 2027"})
	f.add(t, memory.AddParams{Category: memory.CategoryKnowledge, Title: "important api notes", Importance: 4})

	report, err := f.j.CheckOutdated(context.Background(), Scope{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if report.Count != 3 || len(report.AutoArchived) != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestCheckOutdated_AutoFixArchivesKnowledge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stale := f.add(t, memory.AddParams{Category: memory.CategoryKnowledge, Title: "old api notes", Importance: 1})
	f.add(t, memory.AddParams{Category: memory.CategoryPlan, Title: "renovate kitchen"})

	report, err := f.j.CheckOutdated(ctx, Scope{}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.AutoArchived) != 1 || report.AutoArchived[0].ID != stale.Entry.ID {
		t.Fatalf("AutoArchived = %+v", report.AutoArchived)
	}
	if report.Count != 1 || report.Outdated[0].Type != consistency.TypeOutdatedPlan {
		t.Errorf("Outdated = %+v", report.Outdated)
	}

	got, err := f.store.Get(ctx, stale.Entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Archived {
		t.Error("stale knowledge was not archived")
	}

	again, err := f.j.CheckOutdated(ctx, Scope{}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.AutoArchived) != 0 {
		t.Errorf("archived entry considered again: %+v", again.AutoArchived)
	}
}
