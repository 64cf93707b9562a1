package storage

import (
	"context"
	"testing"
	"time"

	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/classifier"
	"github.com/overhuman/overlay/internal/render"
	"github.com/overhuman/overlay/internal/validator"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// steppedClock advances one second per call.
func steppedClock() func() time.Time {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func seed(t *testing.T, s *SQLiteStore, entries ...Entry) []string {
	t.Helper()
	s.now = steppedClock()
	var ids []string
	for _, e := range entries {
		id, err := s.Save(context.Background(), e)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestSQLiteStore_SaveGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Entry{
		Content:    "传统教学 vs 在线教学",
		Template:   "split-screen",
		Confidence: 0.9,
		Score:      100,
		Valid:      true,
		Success:    true,
		Repairs:    1,
		Language:   "zh",
		RenderMS:   2.5,
		Source:     "cli",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(id) != 36 {
		t.Errorf("generated id = %q, want a uuid", id)
	}

	e, err := s.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if e == nil {
		t.Fatal("entry not found")
	}
	if e.Content != "传统教学 vs 在线教学" || e.Template != "split-screen" {
		t.Errorf("entry = %+v", e)
	}
	if !e.Valid || !e.Success || e.Repairs != 1 || e.RenderMS != 2.5 || e.Source != "cli" {
		t.Errorf("entry fields = %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestSQLiteStore_Get_NotFound(t *testing.T) {
	s := newTestStore(t)
	e, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if e != nil {
		t.Error("expected nil for missing id")
	}
}

func TestSQLiteStore_Save_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Save(ctx, Entry{ID: "r1", Content: "v1"})
	s.Save(ctx, Entry{ID: "r1", Content: "v2", Success: true})

	e, _ := s.Get(ctx, "r1")
	if e.Content != "v2" || !e.Success {
		t.Errorf("entry = %+v, want updated", e)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestSQLiteStore_Recent(t *testing.T) {
	s := newTestStore(t)
	seed(t, s,
		Entry{ID: "a", Content: "first"},
		Entry{ID: "b", Content: "second"},
		Entry{ID: "c", Content: "third"},
	)

	got, err := s.Recent(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("Recent = %+v, want c, b", got)
	}
}

func TestSQLiteStore_Search(t *testing.T) {
	s := newTestStore(t)
	seed(t, s,
		Entry{ID: "dialog", Content: "重要提醒：会议将于下午3点开始", Template: "dialog-popup", Success: true},
		Entry{ID: "chart", Content: "A产品 45%，B产品 30%", Template: "chart-analysis", Success: true},
		Entry{ID: "timeline", Content: "2010年成立，2015年发布", Template: "timeline-display", Success: true},
	)
	ctx := context.Background()

	got, err := s.Search(ctx, "下午3点", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "dialog" {
		t.Errorf("Search(下午3点) = %+v", got)
	}

	got, err = s.Search(ctx, "chart-analysis", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "chart" {
		t.Errorf("Search(template) = %+v", got)
	}

	// Two-character terms take the substring path.
	got, err = s.Search(ctx, "成立 会议", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("Search(short) = %d results, want 2", len(got))
	}

	got, err = s.Search(ctx, "   ", 10)
	if err != nil || got != nil {
		t.Errorf("Search(blank) = %v, %v", got, err)
	}

	got, err = s.Search(ctx, "100%", 10)
	if err != nil || len(got) != 0 {
		t.Errorf("Search(100%%) = %v, %v; want no match", got, err)
	}
}

func TestSQLiteStore_CountByTemplate(t *testing.T) {
	s := newTestStore(t)
	seed(t, s,
		Entry{Content: "a", Template: "dialog-popup", Success: true},
		Entry{Content: "b", Template: "dialog-popup", Success: true},
		Entry{Content: "c", Template: "split-screen", Success: true},
		Entry{Content: "d", Template: "split-screen", Success: false},
		Entry{Content: "", Success: false, Error: "empty content"},
	)
	ctx := context.Background()

	counts, err := s.CountByTemplate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 || counts["dialog-popup"] != 2 || counts["split-screen"] != 1 {
		t.Errorf("CountByTemplate = %v", counts)
	}
	if n, _ := s.Count(ctx); n != 5 {
		t.Errorf("Count = %d, want 5", n)
	}
}

func TestSQLiteStore_FileBacked(t *testing.T) {
	path := t.TempDir() + "/nested/history.db"
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(context.Background(), Entry{ID: "x", Content: "persisted"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if e, _ := s.Get(context.Background(), "x"); e == nil || e.Content != "persisted" {
		t.Errorf("reopened entry = %+v", e)
	}
}

func TestEntryFrom(t *testing.T) {
	res := &render.RenderResult{
		ID:      "r-1",
		Success: true,
		Template: &classifier.Result{
			Type:       catalog.SplitScreen,
			Confidence: 0.8,
			Content:    classifier.ParsedContent{Metadata: classifier.Metadata{Language: "zh"}},
		},
		Validation:  &validator.Result{IsValid: false, Score: 80},
		Repairs:     []render.Repair{{Fixed: true}, {Fixed: false}},
		Performance: render.Performance{RenderTime: 1500 * time.Microsecond},
	}
	e := EntryFrom("传统 vs 在线", "http", res)
	if e.ID != "r-1" || e.Template != "split-screen" || e.Confidence != 0.8 || e.Language != "zh" {
		t.Errorf("entry = %+v", e)
	}
	if e.Score != 80 || e.Valid || e.Repairs != 2 || e.RenderMS != 1.5 || e.Source != "http" {
		t.Errorf("entry = %+v", e)
	}

	failed := EntryFrom("", "cli", &render.RenderResult{ID: "r-2", Error: "empty content"})
	if failed.Template != "" || failed.Success || failed.Error != "empty content" {
		t.Errorf("failed entry = %+v", failed)
	}
}
