package render

import (
	"testing"

	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/draw"
	"github.com/overhuman/overlay/internal/validator"
)

func TestPlace(t *testing.T) {
	size := catalog.Size{Width: 0.5, Height: 0.25}
	tests := []struct {
		pos  catalog.Position
		want draw.Rect
	}{
		{catalog.PositionCenter, draw.Rect{X: 250, Y: 150, W: 500, H: 100}},
		{catalog.PositionTopLeft, draw.Rect{X: 20, Y: 20, W: 500, H: 100}},
		{catalog.PositionTopRight, draw.Rect{X: 480, Y: 20, W: 500, H: 100}},
		{catalog.PositionBottomLeft, draw.Rect{X: 20, Y: 280, W: 500, H: 100}},
		{catalog.PositionBottomRight, draw.Rect{X: 480, Y: 280, W: 500, H: 100}},
		{catalog.PositionBottom, draw.Rect{X: 250, Y: 280, W: 500, H: 100}},
		{catalog.PositionLeftToRight, draw.Rect{X: 20, Y: 150, W: 500, H: 100}},
		{catalog.Position("nowhere"), draw.Rect{X: 250, Y: 150, W: 500, H: 100}},
	}
	for _, tt := range tests {
		t.Run(string(tt.pos), func(t *testing.T) {
			v := catalog.VisualSpec{Position: tt.pos, Size: size}
			if got := Place(v, 1000, 400, nil); got != tt.want {
				t.Errorf("Place = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlace_LeftToRightClampsWidth(t *testing.T) {
	v := catalog.VisualSpec{Position: catalog.PositionLeftToRight, Size: catalog.Size{Width: 1, Height: 0.5}}
	got := Place(v, 1000, 400, nil)
	if got.W != 960 || got.X != EdgeMargin {
		t.Errorf("Place = %+v, want width 960 from x=20", got)
	}
}

func TestPlace_FullScreenAndCoordinates(t *testing.T) {
	full := catalog.VisualSpec{Shape: catalog.ShapeFullScreen, Size: catalog.Size{Width: 0.3, Height: 0.3}}
	if got := Place(full, 800, 600, nil); got != (draw.Rect{W: 800, H: 600}) {
		t.Errorf("full screen = %+v", got)
	}

	v := catalog.VisualSpec{Position: catalog.PositionCenter, Size: catalog.Size{Width: 0.5, Height: 0.5}}
	got := Place(v, 800, 600, &validator.Point{X: 10, Y: 30})
	if got != (draw.Rect{X: 10, Y: 30, W: 400, H: 300}) {
		t.Errorf("pinned = %+v", got)
	}
}

func TestInset(t *testing.T) {
	r := draw.Rect{X: 10, Y: 10, W: 100, H: 40}
	if got := Inset(r, 10); got != (draw.Rect{X: 20, Y: 20, W: 80, H: 20}) {
		t.Errorf("Inset(10) = %+v", got)
	}
	if got := Inset(r, 30); got.H != 0 || got.Y != 30 || got.W != 40 {
		t.Errorf("Inset(30) = %+v, want collapsed height", got)
	}
	if got := Inset(r, -5); got != r {
		t.Errorf("Inset(-5) = %+v, want unchanged", got)
	}
}

func TestBackgroundPaint(t *testing.T) {
	r := draw.Rect{X: 0, Y: 0, W: 100, H: 50}
	if p := backgroundPaint(catalog.Background{}, r); p != nil {
		t.Errorf("no colours = %v, want nil", p)
	}
	solid := backgroundPaint(catalog.Background{Kind: catalog.BackgroundSolid, Colors: []string{"#fff"}}, r)
	if solid != draw.Color("#fff") {
		t.Errorf("solid = %v", solid)
	}
	lin, ok := backgroundPaint(catalog.Background{Kind: catalog.BackgroundLinearGradient, Colors: []string{"#000", "#fff"}}, r).(*draw.Gradient)
	if !ok || lin.Kind != draw.Linear || lin.Y1 != 50 || len(lin.Stops) != 2 {
		t.Errorf("linear = %+v", lin)
	}
	rad, ok := backgroundPaint(catalog.Background{Kind: catalog.BackgroundRadialGradient, Colors: []string{"#000", "#fff"}}, r).(*draw.Gradient)
	if !ok || rad.Kind != draw.Radial || rad.X0 != 50 || rad.Y0 != 25 {
		t.Errorf("radial = %+v", rad)
	}
}

func TestFrameFor(t *testing.T) {
	tests := []struct {
		kind catalog.AnimationKind
		p    float64
		want frame
	}{
		{catalog.FadeInScale, 0.5, frame{alpha: 0.5, scale: 0.9, textAlpha: 1, reveal: 1}},
		{catalog.ProgressBar, 0.25, frame{alpha: 1, scale: 1, textAlpha: 1, reveal: 0.25}},
		{catalog.SlideInSync, 0.25, frame{alpha: 0.25, scale: 1, textAlpha: 1, reveal: 1, slide: 0.75}},
		{catalog.DataAnimation, 0.5, frame{alpha: 1, scale: 1, textAlpha: 1, reveal: 0.5}},
		{catalog.FadeInText, 0.5, frame{alpha: 1, scale: 1, textAlpha: 0.5, reveal: 1}},
		{catalog.FadeInScale, 1, still},
	}
	for _, tt := range tests {
		got, ok := frameFor(tt.kind, tt.p)
		if !ok || got != tt.want {
			t.Errorf("frameFor(%s, %v) = %+v, %v; want %+v", tt.kind, tt.p, got, ok, tt.want)
		}
	}
	if f, ok := frameFor(catalog.AnimationKind(99), 0.5); ok || f != still {
		t.Errorf("unknown kind = %+v, %v; want still, false", f, ok)
	}
}

func TestAutoRepair(t *testing.T) {
	cfg := catalog.Default().MustGet(catalog.ChartAnalysis)
	sc := &scene{cfg: cfg, content: catalog.EmptyContent(catalog.ChartAnalysis), at: &validator.Point{X: 1, Y: 1}}
	text := "数据"
	adj := validator.Adjustments{Text: &text, Coordinates: &validator.Point{X: 1, Y: 1}}

	violations := []validator.Issue{
		{Type: validator.SizeTooLarge, Field: "size.height", Max: 1},
		{Type: validator.PositionInvalid, Field: "position", Allowed: []string{"top-right", "center"}},
		{Type: validator.AlignmentInvalid, Field: "layout.alignment"},
	}
	got := autoRepair(sc, &adj, violations, nil)

	if len(got) != 3 {
		t.Fatalf("repairs = %+v", got)
	}
	if !got[0].Fixed || sc.cfg.Visual.Size.Height != 1 || sc.cfg.Visual.Size.Width != cfg.Visual.Size.Width {
		t.Errorf("size repair = %+v, size %+v", got[0], sc.cfg.Visual.Size)
	}
	if !got[1].Fixed || sc.cfg.Visual.Position != catalog.PositionTopRight || *adj.Position != catalog.PositionTopRight {
		t.Errorf("position repair = %+v, position %s", got[1], sc.cfg.Visual.Position)
	}
	if sc.at != nil || adj.Coordinates != nil {
		t.Error("coordinates kept after position repair")
	}
	if got[2].Fixed {
		t.Errorf("alignment repair = %+v, want unfixed", got[2])
	}
	if orig := catalog.Default().MustGet(catalog.ChartAnalysis).Visual.Position; orig != catalog.PositionCenter {
		t.Errorf("catalog position = %s, catalog was mutated", orig)
	}
}
