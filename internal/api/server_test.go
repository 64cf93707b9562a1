package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/overhuman/overlay/internal/render"
	"github.com/overhuman/overlay/internal/storage"
	"github.com/overhuman/overlay/internal/validator"
)

func newTestServer(t *testing.T, withHistory bool) (*Server, *httptest.Server) {
	t.Helper()
	deps := Dependencies{}
	if withHistory {
		store, err := storage.NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { store.Close() })
		deps.History = store
	}
	s, err := New("127.0.0.1:0", deps)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// renderBody mirrors renderResponse without the interface-typed content,
// which cannot be decoded.
type renderBody struct {
	Result struct {
		ID       string `json:"id"`
		Success  bool   `json:"success"`
		Error    string `json:"error"`
		Template *struct {
			Type    string `json:"type"`
			Content struct {
				ProcessedContent string `json:"processed_content"`
			} `json:"content"`
		} `json:"template"`
	} `json:"result"`
	SVG string `json:"svg"`
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, false)
	resp := get(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if id := resp.Header.Get("Content-Type"); id != "application/json" {
		t.Errorf("Content-Type = %q", id)
	}
	var body healthResponse
	decodeBody(t, resp, &body)
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
}

func TestCatalog(t *testing.T) {
	_, ts := newTestServer(t, false)
	var configs []map[string]any
	decodeBody(t, get(t, ts.URL+"/catalog"), &configs)
	if len(configs) != 5 {
		t.Errorf("catalog has %d templates, want 5", len(configs))
	}
}

func TestClassify(t *testing.T) {
	_, ts := newTestServer(t, false)

	resp := post(t, ts.URL+"/classify", map[string]any{"content": "传统教学 vs 在线教学"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var res struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	}
	decodeBody(t, resp, &res)
	if res.Type != "split-screen" || res.Confidence <= 0 {
		t.Errorf("result = %+v, want split-screen", res)
	}

	resp = post(t, ts.URL+"/classify", map[string]any{"content": "重要提醒", "template": "emphasis"})
	decodeBody(t, resp, &res)
	if res.Type != "emphasis-focus" {
		t.Errorf("forced type = %q", res.Type)
	}
}

func TestClassify_BadRequests(t *testing.T) {
	_, ts := newTestServer(t, false)
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"content":`},
		{"missing content", `{}`},
		{"number content", `{"content": 42}`},
		{"unknown template", `{"content": "x", "template": "qqqqqq"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/classify", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var body errorResponse
			json.NewDecoder(resp.Body).Decode(&body)
			if body.Error == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	_, ts := newTestServer(t, false)
	resp := post(t, ts.URL+"/validate", map[string]any{
		"template":    "split-screen",
		"adjustments": map[string]any{"position": "bottom-left"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var res validator.Result
	decodeBody(t, resp, &res)
	if res.IsValid || !res.Has(validator.PositionInvalid) {
		t.Errorf("result = %+v, want POSITION_INVALID", res)
	}
}

func TestReport(t *testing.T) {
	_, ts := newTestServer(t, false)
	body := map[string]any{
		"template":    "dialog-popup",
		"adjustments": map[string]any{"colors": map[string]any{"text": "#777777", "background": "#ffffff"}},
	}

	var rep reportResponse
	decodeBody(t, post(t, ts.URL+"/report", body), &rep)
	if rep.Report.Compliant || !strings.HasPrefix(rep.Markdown, "# Compliance report: dialog-popup") {
		t.Errorf("report = %+v", rep.Report)
	}

	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/report", bytes.NewReader(data))
	req.Header.Set("Accept", "text/markdown")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	md, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/markdown") || !strings.Contains(string(md), "not compliant") {
		t.Errorf("markdown response = %q (%s)", md, resp.Header.Get("Content-Type"))
	}
}

func TestRender_RecordsHistory(t *testing.T) {
	_, ts := newTestServer(t, true)

	resp := post(t, ts.URL+"/render", map[string]any{"content": "重要提醒：会议将于下午3点开始"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out renderBody
	decodeBody(t, resp, &out)
	if !out.Result.Success || out.Result.ID == "" {
		t.Fatalf("result = %+v", out.Result)
	}
	if !strings.HasPrefix(out.SVG, "<svg") {
		t.Errorf("svg = %.40q", out.SVG)
	}

	var entries []storage.Entry
	decodeBody(t, get(t, ts.URL+"/history"), &entries)
	if len(entries) != 1 || entries[0].ID != out.Result.ID || entries[0].Source != "http" {
		t.Fatalf("history = %+v", entries)
	}

	var e storage.Entry
	decodeBody(t, get(t, ts.URL+"/history/"+out.Result.ID), &e)
	if e.Content != "重要提醒：会议将于下午3点开始" {
		t.Errorf("entry = %+v", e)
	}
	if resp := get(t, ts.URL+"/history/nope"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing entry status = %d", resp.StatusCode)
	}

	decodeBody(t, get(t, ts.URL+"/history?q="+url.QueryEscape("下午3点")), &entries)
	if len(entries) != 1 {
		t.Errorf("search = %+v", entries)
	}

	var sum historySummary
	decodeBody(t, get(t, ts.URL+"/history/summary"), &sum)
	if sum.Count != 1 || len(sum.ByTemplate) != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRender_HTMLAndForcedTemplate(t *testing.T) {
	_, ts := newTestServer(t, false)
	resp := post(t, ts.URL+"/render", map[string]any{
		"content":  "<html><body><script>x()</script><p>2010年成立</p><p>2015年发布</p></body></html>",
		"format":   "html",
		"template": "timeline-display",
	})
	var out renderBody
	decodeBody(t, resp, &out)
	if !out.Result.Success || out.Result.Template == nil || out.Result.Template.Type != "timeline-display" {
		t.Fatalf("result = %+v", out.Result)
	}
	if strings.Contains(out.Result.Template.Content.ProcessedContent, "x()") {
		t.Error("script text reached the classifier")
	}
}

func TestRender_EmptyContent(t *testing.T) {
	_, ts := newTestServer(t, false)
	resp := post(t, ts.URL+"/render", map[string]any{"content": "   "})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out renderBody
	decodeBody(t, resp, &out)
	if !out.Result.Success || out.Result.Template == nil || out.Result.Template.Type != "dialog-popup" {
		t.Errorf("result = %+v, want default dialog-popup", out.Result)
	}
}

func TestRender_Failure(t *testing.T) {
	s, ts := newTestServer(t, false)
	s.deps.Engine.Destroy()

	resp := post(t, ts.URL+"/render", map[string]any{"content": "重要提醒"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	var out renderBody
	decodeBody(t, resp, &out)
	if out.Result.Success || out.Result.Error == "" || out.SVG != "" {
		t.Errorf("response = %+v", out)
	}

	if resp := post(t, ts.URL+"/render", map[string]any{"content": "x", "format": "pdf"}); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad format status = %d", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	s, ts := newTestServer(t, false)
	post(t, ts.URL+"/render", map[string]any{"content": "重要提醒"})
	post(t, ts.URL+"/render", map[string]any{"content": ""})
	s.deps.Engine.Destroy()
	post(t, ts.URL+"/render", map[string]any{"content": "重要提醒"})

	var stats render.RenderStats
	decodeBody(t, get(t, ts.URL+"/stats"), &stats)
	if stats.TotalRenders != 3 || stats.FailedRenders != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestHistoryDisabled(t *testing.T) {
	_, ts := newTestServer(t, false)
	for _, path := range []string{"/history", "/history/summary", "/history/abc"} {
		if resp := get(t, ts.URL+path); resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestServer_StartStop(t *testing.T) {
	s, err := New("127.0.0.1:0", Dependencies{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for s.Addr() == "127.0.0.1:0" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
