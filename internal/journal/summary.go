package journal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/HendryAvila/lumen/internal/memory"
)

// MsgNothingToSummarize is reported when no entry matches the filters.
const MsgNothingToSummarize = "指定条件下没有找到相关记录"

const (
	topCategories    = 5
	topTags          = 10
	maxKeyInsights   = 10
	textCategories   = 3
	textTags         = 5
	textInsights     = 5
	digestImportance = 4
	digestProject    = "digest"
	dateLayout       = "2006-01-02"
)

// insightCategories feed the key insights of a summary.
var insightCategories = map[string]bool{
	memory.CategoryInsight:  true,
	memory.CategoryDecision: true,
	memory.CategoryGoal:     true,
}

// SummaryRequest selects the entries to summarize. Dates are YYYY-MM-DD and
// inclusive; either may be empty.
type SummaryRequest struct {
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	Project      string   `json:"project,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	SaveAsDigest bool     `json:"save_as_digest,omitempty"`
}

// Count is a name with its number of occurrences.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// KeyInsight is a headline entry surfaced in a summary.
type KeyInsight struct {
	Category  string `json:"category"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// Summary is the result of Summarize.
type Summary struct {
	Period         string        `json:"period"`
	TotalCount     int           `json:"total_count"`
	Message        string        `json:"message,omitempty"`
	CategoryCounts []Count       `json:"category_counts"`
	TopTags        []Count       `json:"high_frequency_topics"`
	KeyInsights    []KeyInsight  `json:"key_insights"`
	Text           string        `json:"summary_text,omitempty"`
	DigestSaved    bool          `json:"digest_saved"`
	Digest         *memory.Entry `json:"digest,omitempty"`
	Diagnostics    []Diagnostic  `json:"diagnostics,omitempty"`
}

// ─── Summaries ───────────────────────────────────────────────────────────────

// Summarize aggregates entries in a date range into category and tag counts,
// key insights and a markdown digest. With SaveAsDigest the markdown is
// stored as a digest entry.
func (j *Journal) Summarize(ctx context.Context, req SummaryRequest) (*Summary, error) {
	for field, v := range map[string]string{"start_date": req.StartDate, "end_date": req.EndDate} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			return nil, &memory.ValidationError{Field: field, Message: fmt.Sprintf("%q is not YYYY-MM-DD", v)}
		}
	}

	entries, err := j.store.ScanTagged(ctx, "", req.Project, req.Tags)
	if err != nil {
		return nil, err
	}
	entries = inPeriod(entries, req.StartDate, req.EndDate)

	sum := &Summary{
		Period:         period(req.StartDate, req.EndDate),
		TotalCount:     len(entries),
		CategoryCounts: []Count{},
		TopTags:        []Count{},
		KeyInsights:    []KeyInsight{},
	}
	if len(entries) == 0 {
		sum.Message = MsgNothingToSummarize
		return sum, nil
	}

	categories := map[string]int{}
	tags := map[string]int{}
	for _, e := range entries {
		categories[e.Category]++
		for _, t := range e.Tags {
			tags[t]++
		}
		if insightCategories[e.Category] && e.Title != "" && len(sum.KeyInsights) < maxKeyInsights {
			sum.KeyInsights = append(sum.KeyInsights, KeyInsight{
				Category: e.Category, Title: e.Title, CreatedAt: e.CreatedAt,
			})
		}
	}
	sum.CategoryCounts = topCounts(categories, topCategories)
	sum.TopTags = topCounts(tags, topTags)
	sum.Text = summaryText(sum)

	if req.SaveAsDigest {
		j.saveDigest(ctx, req, sum)
	}
	return sum, nil
}

func (j *Journal) saveDigest(ctx context.Context, req SummaryRequest, sum *Summary) {
	title := sum.Period + " 总结"
	if req.Project != "" {
		title = req.Project + " - " + title
	}
	e, err := j.store.Add(ctx, memory.AddParams{
		Category:   memory.CategoryDigest,
		Title:      title,
		Content:    sum.Text,
		Project:    firstNonEmpty(req.Project, digestProject),
		Importance: digestImportance,
		Tags:       append([]string{"总结", "复盘"}, req.Tags...),
	})
	if err != nil {
		j.log.Warn("journal: saving digest failed", "err", err)
		sum.Diagnostics = append(sum.Diagnostics, Diagnostic{Stage: "digest", Message: err.Error()})
		return
	}

	res := &WriteResult{Entry: e}
	j.notify(ctx, e, res)
	sum.Diagnostics = append(sum.Diagnostics, res.Diagnostics...)
	sum.DigestSaved = true
	sum.Digest = e
}

// inPeriod keeps entries whose creation date falls within [start, end].
func inPeriod(entries []memory.Entry, start, end string) []memory.Entry {
	if start == "" && end == "" {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		date := e.CreatedAt
		if len(date) > len(dateLayout) {
			date = date[:len(dateLayout)]
		}
		if start != "" && date < start {
			continue
		}
		if end != "" && date > end {
			continue
		}
		out = append(out, e)
	}
	return out
}

func period(start, end string) string {
	if start == "" && end == "" {
		return "全部时间"
	}
	return firstNonEmpty(start, "开始") + " ~ " + firstNonEmpty(end, "结束")
}

// topCounts sorts by count desc then name asc and keeps n.
func topCounts(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for name, c := range m {
		out = append(out, Count{Name: name, Count: c})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Name < out[b].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func summaryText(sum *Summary) string {
	var b strings.Builder
	b.WriteString("## 总结周期\n")
	b.WriteString(sum.Period)
	b.WriteString("\n\n## 本期重点\n")
	fmt.Fprintf(&b, "- 共 %d 条记录\n", sum.TotalCount)

	var cats []string
	for _, c := range head(sum.CategoryCounts, textCategories) {
		cats = append(cats, fmt.Sprintf("%s(%d次)", c.Name, c.Count))
	}
	fmt.Fprintf(&b, "- 主要类别：%s\n", strings.Join(cats, ", "))

	b.WriteString("\n## 高频主题\n")
	for _, t := range head(sum.TopTags, textTags) {
		fmt.Fprintf(&b, "- %s（出现%d次）\n", t.Name, t.Count)
	}

	b.WriteString("\n## 关键洞察\n")
	for i, in := range sum.KeyInsights {
		if i == textInsights {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", in.Category, in.Title)
	}

	b.WriteString("\n## 待深入方向\n")
	b.WriteString("- 根据高频主题和关键洞察，确定下一步学习重点\n")
	return b.String()
}

func head(counts []Count, n int) []Count {
	if len(counts) > n {
		return counts[:n]
	}
	return counts
}

// ─── Conversations ───────────────────────────────────────────────────────────

// conversationTitleRunes is the summary prefix used as the entry title.
const conversationTitleRunes = 30

// ConversationRequest is a conversation condensed by the caller.
type ConversationRequest struct {
	Summary      string   `json:"summary"`
	KeyDecisions []string `json:"key_decisions,omitempty"`
	KeyInsights  []string `json:"key_insights,omitempty"`
	ActionItems  []string `json:"action_items,omitempty"`
	Project      string   `json:"project,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// CompressConversation stores a conversation summary with numbered
// decision, insight and action sections as a conversation entry.
func (j *Journal) CompressConversation(ctx context.Context, req ConversationRequest) (*WriteResult, error) {
	if strings.TrimSpace(req.Summary) == "" {
		return nil, &memory.ValidationError{Field: "summary", Message: "must not be empty"}
	}

	e, err := j.store.Add(ctx, memory.AddParams{
		Category:   memory.CategoryConversation,
		Title:      memory.Truncate(req.Summary, conversationTitleRunes),
		Content:    conversationContent(req),
		Project:    req.Project,
		Importance: memory.DefaultImportance,
		Tags:       req.Tags,
		Source:     memory.SourceClaudeAI,
	})
	if err != nil {
		return nil, err
	}

	res := &WriteResult{Message: MsgConversationSaved, Entry: e}
	j.notify(ctx, e, res)
	return res, nil
}

func conversationContent(req ConversationRequest) string {
	parts := []string{req.Summary}
	section := func(heading string, items []string) {
		if len(items) == 0 {
			return
		}
		parts = append(parts, "\n\n"+heading+":")
		for i, item := range items {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, item))
		}
	}
	section("关键决定", req.KeyDecisions)
	section("关键洞察", req.KeyInsights)
	section("行动项", req.ActionItems)
	return strings.Join(parts, "\n")
}
