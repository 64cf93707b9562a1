package draw_test

import (
	"strings"
	"testing"

	"github.com/overhuman/overlay/internal/canvas"
	"github.com/overhuman/overlay/internal/draw"
)

func newRecorder() *canvas.Recorder {
	return canvas.NewRecorder(1920, 1080)
}

func TestRoundedRect_FillAndStroke(t *testing.T) {
	r := newRecorder()
	draw.RoundedRect(r, draw.Rect{X: 10, Y: 10, W: 200, H: 100}, 16, draw.Color("#fff"), draw.Color("#000"), 2)

	if r.Count("QuadTo") != 4 {
		t.Errorf("QuadTo = %d, want 4", r.Count("QuadTo"))
	}
	if r.Count("Fill") != 1 || r.Count("Stroke") != 1 {
		t.Errorf("Fill=%d Stroke=%d, want 1/1", r.Count("Fill"), r.Count("Stroke"))
	}
}

func TestRoundedRect_NoStrokeWithoutWidth(t *testing.T) {
	r := newRecorder()
	draw.RoundedRect(r, draw.Rect{W: 100, H: 100}, 8, draw.Color("#fff"), draw.Color("#000"), 0)
	if r.Count("Stroke") != 0 {
		t.Errorf("Stroke = %d, want 0", r.Count("Stroke"))
	}
}

func TestRoundedRect_RadiusClamped(t *testing.T) {
	r := newRecorder()
	draw.RoundedRectPath(r, draw.Rect{X: 0, Y: 0, W: 20, H: 10}, 100)
	first := r.Ops()[1]
	if first.Name != "MoveTo" || first.Args[0] != 5 {
		t.Errorf("first op = %+v, want MoveTo(5, 0)", first)
	}
}

func TestBackground_Opacity(t *testing.T) {
	r := newRecorder()
	draw.Background(r, draw.Rect{W: 100, H: 50}, 0, draw.Color("#123456"), 0.5)

	var fill *canvas.Op
	for i, op := range r.Ops() {
		if op.Name == "FillRect" {
			fill = &r.Ops()[i]
		}
	}
	if fill == nil {
		t.Fatal("no FillRect recorded")
	}
	if fill.Alpha != 0.5 {
		t.Errorf("alpha = %f, want 0.5", fill.Alpha)
	}
	if r.Depth() != 0 {
		t.Errorf("unbalanced save/restore: depth %d", r.Depth())
	}
}

func TestBackground_NilPaint(t *testing.T) {
	r := newRecorder()
	draw.Background(r, draw.Rect{W: 100, H: 50}, 0, nil, 1)
	if len(r.Ops()) != 0 {
		t.Errorf("ops = %d, want 0", len(r.Ops()))
	}
}

func TestWithShadow_RestoresOnPanic(t *testing.T) {
	r := newRecorder()
	func() {
		defer func() { _ = recover() }()
		draw.WithShadow(r, draw.Shadow{Color: "rgba(0,0,0,0.3)", Blur: 10}, func() {
			panic("boom")
		})
	}()
	if r.Depth() != 0 {
		t.Errorf("depth = %d after panic, want 0", r.Depth())
	}
	if r.Count("Restore") != 1 {
		t.Errorf("Restore = %d, want 1", r.Count("Restore"))
	}
}

func TestWrapLines_Latin(t *testing.T) {
	r := newRecorder()
	r.SetFont(draw.Font{Size: 10})
	// Each letter is 5.5 wide, a space 3.
	lines := draw.WrapLines(r, "aaaa bbbb cccc", 50)
	want := []string{"aaaa bbbb", "cccc"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("WrapLines = %q, want %q", lines, want)
	}
}

func TestWrapLines_CJK(t *testing.T) {
	r := newRecorder()
	r.SetFont(draw.Font{Size: 10})
	lines := draw.WrapLines(r, "重要提醒会议", 30)
	if len(lines) != 2 || lines[0] != "重要提" || lines[1] != "醒会议" {
		t.Errorf("WrapLines = %q", lines)
	}
}

func TestWrapLines_PunctuationSticks(t *testing.T) {
	r := newRecorder()
	r.SetFont(draw.Font{Size: 10})
	lines := draw.WrapLines(r, "你好，世界", 20)
	for _, l := range lines {
		if strings.HasPrefix(l, "，") {
			t.Errorf("line starts with punctuation: %q", lines)
		}
	}
}

func TestWrapLines_LongWordAlone(t *testing.T) {
	r := newRecorder()
	r.SetFont(draw.Font{Size: 10})
	lines := draw.WrapLines(r, "a supercalifragilistic b", 30)
	if len(lines) != 3 || lines[1] != "supercalifragilistic" {
		t.Errorf("WrapLines = %q", lines)
	}
}

func TestWrappedText_MaxLines(t *testing.T) {
	r := newRecorder()
	n := draw.WrappedText(r, "一二三四五六七八九十", 0, 0, 20, 12, 2, draw.TextStyle{Font: draw.Font{Size: 10}})
	if n != 2 {
		t.Errorf("lines = %d, want 2", n)
	}
	if len(r.Texts()) != 2 {
		t.Errorf("texts = %q", r.Texts())
	}
}

func TestTimeline_EvenSpacing(t *testing.T) {
	r := newRecorder()
	xs := draw.Timeline(r, draw.Rect{X: 0, Y: 0, W: 400, H: 100}, draw.TimelineOptions{
		Years:    []string{"2010", "2015", "2020"},
		Events:   []string{"a", "b", "c"},
		Progress: 1,
	})
	want := []float64{100, 200, 300}
	for i := range want {
		if xs[i] != want[i] {
			t.Errorf("x[%d] = %f, want %f", i, xs[i], want[i])
		}
	}
	if r.Count("Arc") != 3 {
		t.Errorf("markers = %d, want 3", r.Count("Arc"))
	}
	texts := strings.Join(r.Texts(), ",")
	if texts != "2010,a,2015,b,2020,c" {
		t.Errorf("texts = %s", texts)
	}
}

func TestTimeline_Progress(t *testing.T) {
	r := newRecorder()
	draw.Timeline(r, draw.Rect{W: 400, H: 100}, draw.TimelineOptions{
		Years:    []string{"2010", "2015", "2020"},
		Progress: 0.5,
	})
	if r.Count("Arc") != 2 {
		t.Errorf("markers at half progress = %d, want 2", r.Count("Arc"))
	}
}

func TestSplitDivider_Dashed(t *testing.T) {
	r := newRecorder()
	draw.SplitDivider(r, 100, 0, 200, "#94a3b8", 2)
	found := false
	for _, op := range r.Ops() {
		if op.Name == "SetLineDash" && len(op.Args) == 2 {
			found = true
		}
	}
	if !found {
		t.Error("divider is not dashed")
	}
	if r.Depth() != 0 {
		t.Errorf("depth = %d", r.Depth())
	}
}

func TestBarChart_Normalised(t *testing.T) {
	r := newRecorder()
	rects := draw.BarChart(r, draw.Rect{W: 300, H: 200}, draw.BarChartOptions{
		Bars:       []draw.Bar{{Label: "A", Value: 50}, {Label: "B", Value: 100}, {Label: "C", Value: 0}},
		LabelStyle: draw.TextStyle{Font: draw.Font{Size: 10}},
		ValueStyle: draw.TextStyle{Font: draw.Font{Size: 10}},
		Progress:   1,
	})
	if len(rects) != 3 {
		t.Fatalf("bars = %d", len(rects))
	}
	if rects[1].H != 2*rects[0].H {
		t.Errorf("heights %f, %f not proportional", rects[0].H, rects[1].H)
	}
	if rects[2].H != 0 {
		t.Errorf("zero bar height = %f", rects[2].H)
	}
	if !strings.Contains(strings.Join(r.Texts(), ","), "100") {
		t.Errorf("value label missing: %q", r.Texts())
	}
}

func TestBarChart_AllZero(t *testing.T) {
	r := newRecorder()
	rects := draw.BarChart(r, draw.Rect{W: 100, H: 100}, draw.BarChartOptions{
		Bars:     []draw.Bar{{Label: "A"}, {Label: "B"}},
		Progress: 1,
	})
	for _, b := range rects {
		if b.H != 0 {
			t.Errorf("height = %f, want 0", b.H)
		}
	}
}

func TestGradients_EvenStops(t *testing.T) {
	g := draw.LinearGradient(0, 0, 100, 0, "#000", "#888", "#fff")
	if len(g.Stops) != 3 || g.Stops[1].Offset != 0.5 || g.Stops[2].Offset != 1 {
		t.Errorf("stops = %+v", g.Stops)
	}
	rg := draw.RadialGradient(50, 50, 0, 50, "#7c3aed", "#1e1b4b")
	if rg.Kind != draw.Radial || rg.R1 != 50 {
		t.Errorf("radial = %+v", rg)
	}
}

func TestRect_Inset(t *testing.T) {
	r := draw.Rect{X: 0, Y: 0, W: 10, H: 10}.Inset(8)
	if r.W != 0 || r.H != 0 {
		t.Errorf("Inset = %+v, want collapsed", r)
	}
}
