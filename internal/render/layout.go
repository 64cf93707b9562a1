package render

import (
	"math"

	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/draw"
	"github.com/overhuman/overlay/internal/validator"
)

// EdgeMargin is the gap kept between an anchored overlay and the canvas edge.
const EdgeMargin = 20

// Place computes the overlay box on a canvas of w x h pixels. Absolute size
// is the relative size times the canvas; at, when set, pins the top-left
// corner and overrides the anchor.
func Place(v catalog.VisualSpec, w, h float64, at *validator.Point) draw.Rect {
	if v.Shape == catalog.ShapeFullScreen {
		return draw.Rect{W: w, H: h}
	}
	bw := v.Size.Width * w
	bh := v.Size.Height * h
	if at != nil {
		return draw.Rect{X: at.X, Y: at.Y, W: bw, H: bh}
	}

	r := draw.Rect{W: bw, H: bh}
	switch v.Position {
	case catalog.PositionTopLeft:
		r.X, r.Y = EdgeMargin, EdgeMargin
	case catalog.PositionTopRight:
		r.X, r.Y = w-bw-EdgeMargin, EdgeMargin
	case catalog.PositionBottomLeft:
		r.X, r.Y = EdgeMargin, h-bh-EdgeMargin
	case catalog.PositionBottomRight:
		r.X, r.Y = w-bw-EdgeMargin, h-bh-EdgeMargin
	case catalog.PositionBottom:
		r.X, r.Y = (w-bw)/2, h-bh-EdgeMargin
	case catalog.PositionLeftToRight:
		r.W = math.Min(bw, w-2*EdgeMargin)
		r.X, r.Y = EdgeMargin, (h-bh)/2
	default:
		r.X, r.Y = (w-bw)/2, (h-bh)/2
	}
	return r
}

// Inset shrinks r by pad on every side, never below zero size.
func Inset(r draw.Rect, pad float64) draw.Rect {
	pad = math.Max(0, pad)
	out := draw.Rect{X: r.X + pad, Y: r.Y + pad, W: r.W - 2*pad, H: r.H - 2*pad}
	if out.W < 0 {
		out.X, out.W = r.X+r.W/2, 0
	}
	if out.H < 0 {
		out.Y, out.H = r.Y+r.H/2, 0
	}
	return out
}

// backgroundPaint turns a template background into a paint spanning r. A
// background without colours yields nil.
func backgroundPaint(bg catalog.Background, r draw.Rect) draw.Paint {
	if len(bg.Colors) == 0 {
		return nil
	}
	switch bg.Kind {
	case catalog.BackgroundLinearGradient:
		return draw.LinearGradient(r.X, r.Y, r.X, r.Y+r.H, bg.Colors...)
	case catalog.BackgroundRadialGradient:
		cx, cy := r.X+r.W/2, r.Y+r.H/2
		return draw.RadialGradient(cx, cy, 0, math.Hypot(r.W, r.H)/2, bg.Colors...)
	}
	return draw.Color(bg.Colors[0])
}

func shadowOf(s catalog.Shadow) draw.Shadow {
	return draw.Shadow{Color: s.Color, Blur: s.Blur, OffsetX: s.OffsetX, OffsetY: s.OffsetY}
}

func textStyle(ts catalog.TextStyle, a draw.Align, b draw.Baseline) draw.TextStyle {
	return draw.TextStyle{
		Font:     draw.Font{Family: ts.FontFamily, Size: ts.FontSize, Weight: ts.FontWeight},
		Color:    ts.Color,
		Align:    a,
		Baseline: b,
	}
}

// lineHeight is the pixel advance between wrapped lines of ts.
func lineHeight(ts catalog.TextStyle) float64 {
	lh := ts.LineHeight
	if lh <= 0 {
		lh = 1.2
	}
	return ts.FontSize * lh
}
