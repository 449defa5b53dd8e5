// Package journal is the write pipeline around the entry store.
//
// A write runs in fixed stages: optional classification, the store write,
// notification, then consistency checks against neighbouring entries. Only
// the store write can fail the call. Failures in later stages are reported
// as Diagnostics on the WriteResult and logged.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/HendryAvila/lumen/internal/classify"
	"github.com/HendryAvila/lumen/internal/consistency"
	"github.com/HendryAvila/lumen/internal/memory"
	"github.com/HendryAvila/lumen/internal/notify"
	"github.com/HendryAvila/lumen/internal/similarity"
)

// Result messages.
const (
	MsgAdded             = "已记录"
	MsgAddedWithConflict = "已记录（检测到冲突，请查看 conflicts 字段）"
	MsgUpdated           = "已更新"
	MsgNoChanges         = "没有需要更新的字段"
	MsgConversationSaved = "对话已压缩保存"
)

// Diagnostic stages.
const (
	StageNotify    = "notify"
	StageConflicts = "conflicts"
	StageArchive   = "archive"
)

// contradictionCandidates bounds the neighbourhood searched after a write.
const contradictionCandidates = 50

// titleQueryRunes is how much of a title is used to find neighbours.
const titleQueryRunes = 20

// Diagnostic records a best-effort stage that failed.
type Diagnostic struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// WriteResult is returned by every write operation.
type WriteResult struct {
	Message        string                 `json:"message"`
	Entry          *memory.Entry          `json:"entry"`
	Classification *classify.Suggestion   `json:"category_suggestion,omitempty"`
	Conflicts      []consistency.Conflict `json:"conflicts,omitempty"`
	Diagnostics    []Diagnostic           `json:"diagnostics,omitempty"`
}

// AutoClassified reports whether the category came from the classifier.
func (r *WriteResult) AutoClassified() bool {
	return r.Classification != nil
}

// AddRequest is an entry to store. With AutoClassify set, or with an empty
// category, the classifier picks the category before the write.
type AddRequest struct {
	memory.AddParams
	AutoClassify bool `json:"auto_classify,omitempty"`
}

// DefaultNotifyTimeout bounds the notification sent with each write.
const DefaultNotifyTimeout = 2 * time.Second

// Options configures a Journal. Zero values select defaults.
type Options struct {
	Detector           *consistency.Detector
	Notifier           notify.Notifier
	Logger             *log.Logger
	DuplicateThreshold float64
	// NotifyTimeout bounds the notification made inline with Add and
	// Update. SyncAll is bounded only by the caller's context.
	NotifyTimeout time.Duration
}

// Journal runs writes and checks against a Store.
type Journal struct {
	store              *memory.Store
	detector           *consistency.Detector
	notifier           notify.Notifier
	log                *log.Logger
	duplicateThreshold float64
	notifyTimeout      time.Duration
}

// New creates a Journal over store.
func New(store *memory.Store, opts Options) *Journal {
	j := &Journal{
		store:              store,
		detector:           opts.Detector,
		notifier:           opts.Notifier,
		log:                opts.Logger,
		duplicateThreshold: opts.DuplicateThreshold,
		notifyTimeout:      opts.NotifyTimeout,
	}
	if j.detector == nil {
		j.detector = consistency.New(similarity.NewScorer(similarity.TFIDF), nil)
	}
	if j.notifier == nil {
		j.notifier = notify.Nop{}
	}
	if j.log == nil {
		j.log = log.Default()
	}
	if j.duplicateThreshold <= 0 {
		j.duplicateThreshold = consistency.DefaultDuplicateThreshold
	}
	if j.notifyTimeout <= 0 {
		j.notifyTimeout = DefaultNotifyTimeout
	}
	return j
}

// Store returns the underlying entry store.
func (j *Journal) Store() *memory.Store {
	return j.store
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// Add stores a new entry, notifies, and checks it for contradictions and
// duplicates among entries of the same category and project.
func (j *Journal) Add(ctx context.Context, req AddRequest) (*WriteResult, error) {
	res := &WriteResult{}
	params := req.AddParams

	if req.AutoClassify || params.Category == "" {
		s := classify.Suggest(params.Title, params.Content)
		params.Category = s.Category
		res.Classification = &s
	}

	e, err := j.store.Add(ctx, params)
	if err != nil {
		return nil, err
	}
	res.Entry = e
	res.Message = MsgAdded

	j.notify(ctx, e, res)

	conflicts, err := j.neighbourConflicts(ctx, e)
	if err != nil {
		res.diagnose(j.log, StageConflicts, err)
	} else if len(conflicts) > 0 {
		res.Conflicts = conflicts
		res.Message = MsgAddedWithConflict
	}
	return res, nil
}

// Update applies a partial update and notifies. Supplying no fields is not
// an error: the current entry comes back with MsgNoChanges.
func (j *Journal) Update(ctx context.Context, id string, p memory.UpdateParams) (*WriteResult, error) {
	e, err := j.store.Update(ctx, id, p)
	if errors.Is(err, memory.ErrNoChanges) {
		return &WriteResult{Message: MsgNoChanges, Entry: e}, nil
	}
	if err != nil {
		return nil, err
	}

	res := &WriteResult{Message: MsgUpdated, Entry: e}
	j.notify(ctx, e, res)
	return res, nil
}

func (j *Journal) notify(ctx context.Context, e *memory.Entry, res *WriteResult) {
	ctx, cancel := context.WithTimeout(ctx, j.notifyTimeout)
	defer cancel()
	if err := j.notifier.Notify(ctx, e); err != nil {
		res.diagnose(j.log, StageNotify, err)
	}
}

func (r *WriteResult) diagnose(logger *log.Logger, stage string, err error) {
	id := ""
	if r.Entry != nil {
		id = r.Entry.ID
	}
	logger.Warn("journal: best-effort stage failed", "stage", stage, "id", id, "err", err)
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Stage: stage, Message: err.Error()})
}

// neighbourConflicts runs the post-write checks for a new entry.
func (j *Journal) neighbourConflicts(ctx context.Context, e *memory.Entry) ([]consistency.Conflict, error) {
	candidates, err := j.neighbours(ctx, e, e.Category, e.Project)
	if err != nil {
		return nil, err
	}

	conflicts := j.detector.Contradictions(*e, candidates)
	conflicts = append(conflicts, duplicatesOf(e.ID, j.detector.Duplicates(candidates, j.duplicateThreshold))...)
	return conflicts, nil
}

// neighbours finds entries sharing the start of e's title, scoped to a
// category and project.
func (j *Journal) neighbours(ctx context.Context, e *memory.Entry, category, project string) ([]memory.Entry, error) {
	limit := min(contradictionCandidates, j.store.Config().MaxSearchResults)
	return j.store.Search(ctx, memory.SearchParams{
		Query:    titlePrefix(e.Title),
		Category: category,
		Project:  project,
		Limit:    limit,
	})
}

// duplicatesOf keeps the pairs that involve id.
func duplicatesOf(id string, pairs []consistency.Conflict) []consistency.Conflict {
	var out []consistency.Conflict
	for _, c := range pairs {
		if c.Entry.ID == id || c.Related.ID == id {
			out = append(out, c)
		}
	}
	return out
}

func titlePrefix(title string) string {
	r := []rune(title)
	if len(r) > titleQueryRunes {
		r = r[:titleQueryRunes]
	}
	return string(r)
}
