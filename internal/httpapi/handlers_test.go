package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/HendryAvila/lumen/internal/journal"
	"github.com/HendryAvila/lumen/internal/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := memory.New(memory.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return New(journal.New(store, journal.Options{}), log.New(io.Discard))
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d: %s", w.Code, want, w.Body.String())
	}
}

func addEntry(t *testing.T, s *Server, req map[string]any) *memory.Entry {
	t.Helper()
	w := do(t, s, http.MethodPost, "/entries", req)
	expectStatus(t, w, http.StatusCreated)
	var res journal.WriteResult
	decodeBody(t, w, &res)
	if res.Entry == nil || res.Entry.ID == "" {
		t.Fatalf("add returned no entry: %s", w.Body.String())
	}
	return res.Entry
}

// ─── Tests ───────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestEntries_AddGetUpdate(t *testing.T) {
	s := newTestServer(t)
	e := addEntry(t, s, map[string]any{
		"category": "decision", "title": "用 sqlite", "content": "单文件部署", "tags": []string{"存储"},
	})
	if e.Importance != memory.DefaultImportance || e.Source.Type != memory.SourceManual {
		t.Errorf("defaults not applied: %+v", e)
	}

	w := do(t, s, http.MethodGet, "/entries/"+e.ID, nil)
	expectStatus(t, w, http.StatusOK)
	var got memory.Entry
	decodeBody(t, w, &got)
	if got.Title != "用 sqlite" || len(got.Tags) != 1 {
		t.Errorf("got %+v", got)
	}

	w = do(t, s, http.MethodPatch, "/entries/"+e.ID, map[string]any{
		"content": "单文件部署，备份简单", "expected_updated_at": got.UpdatedAt,
	})
	expectStatus(t, w, http.StatusOK)
	var res journal.WriteResult
	decodeBody(t, w, &res)
	if res.Message != journal.MsgUpdated || res.Entry.Content != "单文件部署，备份简单" {
		t.Errorf("update = %s", w.Body.String())
	}

	w = do(t, s, http.MethodPatch, "/entries/"+e.ID, map[string]any{
		"archived": true, "expected_updated_at": "2000-01-01T00:00:00.000000Z",
	})
	expectStatus(t, w, http.StatusConflict)
}

func TestEntries_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{"unknown entry", http.MethodGet, "/entries/nope", nil, http.StatusNotFound},
		{"missing content", http.MethodPost, "/entries", map[string]any{"category": "plan", "title": "t"}, http.StatusBadRequest},
		{"bad category", http.MethodPost, "/entries", map[string]any{"category": "auto", "title": "t", "content": "c"}, http.StatusBadRequest},
		{"update unknown", http.MethodPatch, "/entries/nope", map[string]any{"title": "x"}, http.StatusNotFound},
		{"zero importance", http.MethodPost, "/entries", map[string]any{"category": "plan", "title": "t", "content": "c", "importance": 0}, http.StatusBadRequest},
		{"importance too high", http.MethodPost, "/entries", map[string]any{"category": "plan", "title": "t", "content": "c", "importance": 6}, http.StatusBadRequest},
		{"fractional importance", http.MethodPost, "/entries", map[string]any{"category": "plan", "title": "t", "content": "c", "importance": 2.5}, http.StatusBadRequest},
		{"zero recent", http.MethodGet, "/projects/p?recent=0", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, tt.method, tt.target, tt.body)
			expectStatus(t, w, tt.want)
			var body map[string]string
			decodeBody(t, w, &body)
			if body["error"] == "" {
				t.Errorf("missing error message: %s", w.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestEntries_AutoClassify(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/entries", map[string]any{
		"title": "我意识到", "content": "我发现早起后专注力更好", "auto_classify": true,
	})
	expectStatus(t, w, http.StatusCreated)
	var res journal.WriteResult
	decodeBody(t, w, &res)
	if !res.AutoClassified() || res.Entry.Category != res.Classification.Category {
		t.Errorf("expected classifier category, got %s", w.Body.String())
	}
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	addEntry(t, s, map[string]any{"category": "goal", "title": "核心目标：50岁退休", "content": "身体与精神的双重准备", "tags": []string{"人生"}})
	addEntry(t, s, map[string]any{"category": "knowledge", "title": "wal mode", "content": "sqlite journal"})

	w := do(t, s, http.MethodGet, "/search?q=退休&detail_level=full", nil)
	expectStatus(t, w, http.StatusOK)
	var resp struct {
		Count   int                `json:"count"`
		Results []memory.EntryView `json:"results"`
	}
	decodeBody(t, w, &resp)
	if resp.Count != 1 || resp.Results[0].Title != "核心目标：50岁退休" {
		t.Errorf("search = %s", w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/search?tag=人生&category=goal", nil)
	expectStatus(t, w, http.StatusOK)
	decodeBody(t, w, &resp)
	if resp.Count != 1 {
		t.Errorf("tag search = %s", w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/search?q=quantum", nil)
	expectStatus(t, w, http.StatusOK)
	var empty map[string]any
	decodeBody(t, w, &empty)
	if empty["count"] != float64(0) || empty["message"] != msgNoResults {
		t.Errorf("empty search = %s", w.Body.String())
	}

	for _, limit := range []string{"abc", "500", "0", "-2", "2.9", ""} {
		expectStatus(t, do(t, s, http.MethodGet, "/search?limit="+limit, nil), http.StatusBadRequest)
	}
	w = do(t, s, http.MethodGet, "/search?limit=1", nil)
	expectStatus(t, w, http.StatusOK)
	decodeBody(t, w, &resp)
	if resp.Count != 1 {
		t.Errorf("limit=1 search = %s", w.Body.String())
	}
}

func TestTagsAndStats(t *testing.T) {
	s := newTestServer(t)
	addEntry(t, s, map[string]any{"category": "insight", "title": "a", "content": "x", "tags": []string{"工具"}})
	addEntry(t, s, map[string]any{"category": "insight", "title": "b", "content": "y", "tags": []string{"工具", "习惯"}})

	w := do(t, s, http.MethodGet, "/tags", nil)
	expectStatus(t, w, http.StatusOK)
	var tags struct {
		Count int               `json:"count"`
		Tags  []memory.TagCount `json:"tags"`
	}
	decodeBody(t, w, &tags)
	if tags.Count != 2 || tags.Tags[0].Name != "工具" || tags.Tags[0].Count != 2 {
		t.Errorf("tags = %s", w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/stats", nil)
	expectStatus(t, w, http.StatusOK)
	var stats memory.Stats
	decodeBody(t, w, &stats)
	if stats.Total != 2 || stats.ByCategory["insight"] != 2 {
		t.Errorf("stats = %s", w.Body.String())
	}
}

func TestClassify(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/classify", map[string]any{"title": "我意识到", "content": "原来我一直在拖延"})
	expectStatus(t, w, http.StatusOK)
	var got map[string]any
	decodeBody(t, w, &got)
	if got["suggested_category"] == "" || got["suggested_category"] == nil {
		t.Errorf("classify = %s", w.Body.String())
	}

	expectStatus(t, do(t, s, http.MethodPost, "/classify", map[string]any{}), http.StatusBadRequest)
}

func TestConflicts(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 2; i++ {
		addEntry(t, s, map[string]any{"category": "insight", "title": "早起让我更专注", "content": "早上六点起床后专注力明显提升"})
	}
	addEntry(t, s, map[string]any{"category": "knowledge", "title": "冷知识", "content": "无关内容", "importance": 1})

	w := do(t, s, http.MethodGet, "/conflicts/duplicates?threshold=0.9", nil)
	expectStatus(t, w, http.StatusOK)
	var dups journal.DuplicateReport
	decodeBody(t, w, &dups)
	if dups.Count != 1 {
		t.Errorf("duplicates = %s", w.Body.String())
	}

	expectStatus(t, do(t, s, http.MethodGet, "/conflicts/duplicates?threshold=high", nil), http.StatusBadRequest)
	expectStatus(t, do(t, s, http.MethodGet, "/conflicts/duplicates?threshold=2", nil), http.StatusBadRequest)

	w = do(t, s, http.MethodGet, "/conflicts/outdated", nil)
	expectStatus(t, w, http.StatusOK)
	var outdated journal.OutdatedReport
	decodeBody(t, w, &outdated)
	if len(outdated.AutoArchived) != 0 {
		t.Errorf("outdated endpoint must not archive: %s", w.Body.String())
	}
}

func TestProjects(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/projects", map[string]any{
		"name": "lumen", "description": "记忆库", "baseline_doc": "# 基线\n目标",
	})
	expectStatus(t, w, http.StatusCreated)
	expectStatus(t, do(t, s, http.MethodPost, "/projects", map[string]any{"name": "lumen"}), http.StatusBadRequest)

	addEntry(t, s, map[string]any{"category": "plan", "title": "迁移", "content": "先写迁移", "project": "lumen"})

	w = do(t, s, http.MethodGet, "/projects?status=active", nil)
	expectStatus(t, w, http.StatusOK)
	var list struct {
		Count    int              `json:"count"`
		Projects []memory.Project `json:"projects"`
	}
	decodeBody(t, w, &list)
	if list.Count != 1 || list.Projects[0].Name != "lumen" {
		t.Errorf("projects = %s", w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/projects/lumen", nil)
	expectStatus(t, w, http.StatusOK)
	var pc journal.ProjectContext
	decodeBody(t, w, &pc)
	if pc.Baseline != "" || len(pc.RecentEntries) != 1 {
		t.Errorf("project context = %s", w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/projects/lumen/baseline", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "基线") {
		t.Errorf("baseline = %s", w.Body.String())
	}

	expectStatus(t, do(t, s, http.MethodGet, "/projects/missing", nil), http.StatusNotFound)
	expectStatus(t, do(t, s, http.MethodGet, "/projects/lumen?recent=x", nil), http.StatusBadRequest)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{memory.ErrNotFound, http.StatusNotFound},
		{memory.ErrConflict, http.StatusConflict},
		{&memory.ValidationError{Field: "limit", Message: "too big"}, http.StatusBadRequest},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
