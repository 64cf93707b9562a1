package draw

import (
	"math"
	"strconv"
)

// RoundedRectPath traces a rounded rectangle as the current path. The radius
// is clamped to half the shorter side.
func RoundedRectPath(s Surface, r Rect, radius float64) {
	radius = math.Max(0, math.Min(radius, math.Min(r.W, r.H)/2))
	s.BeginPath()
	s.MoveTo(r.X+radius, r.Y)
	s.LineTo(r.X+r.W-radius, r.Y)
	s.QuadTo(r.X+r.W, r.Y, r.X+r.W, r.Y+radius)
	s.LineTo(r.X+r.W, r.Y+r.H-radius)
	s.QuadTo(r.X+r.W, r.Y+r.H, r.X+r.W-radius, r.Y+r.H)
	s.LineTo(r.X+radius, r.Y+r.H)
	s.QuadTo(r.X, r.Y+r.H, r.X, r.Y+r.H-radius)
	s.LineTo(r.X, r.Y+radius)
	s.QuadTo(r.X, r.Y, r.X+radius, r.Y)
	s.ClosePath()
}

// RoundedRect fills and/or strokes a rounded rectangle. A nil paint skips
// that half; stroke also needs lineWidth > 0.
func RoundedRect(s Surface, r Rect, radius float64, fill, stroke Paint, lineWidth float64) {
	RoundedRectPath(s, r, radius)
	if fill != nil {
		s.SetFill(fill)
		s.Fill()
	}
	if stroke != nil && lineWidth > 0 {
		s.SetLineWidth(lineWidth)
		s.SetStroke(stroke)
		s.Stroke()
	}
}

// Background fills r with paint at the given opacity, rounding the corners
// when radius > 0.
func Background(s Surface, r Rect, radius float64, paint Paint, opacity float64) {
	if paint == nil {
		return
	}
	s.Save()
	defer s.Restore()
	if opacity > 0 && opacity < 1 {
		s.SetGlobalAlpha(opacity)
	}
	if radius > 0 {
		RoundedRect(s, r, radius, paint, nil, 0)
		return
	}
	s.SetFill(paint)
	s.FillRect(r.X, r.Y, r.W, r.H)
}

// WithShadow runs fn with sh as the active shadow. The previous surface state
// is restored even if fn panics.
func WithShadow(s Surface, sh Shadow, fn func()) {
	s.Save()
	defer s.Restore()
	s.SetShadow(sh)
	fn()
}

// TimelineOptions configures Timeline.
type TimelineOptions struct {
	Years       []string
	Events      []string
	LineColor   string
	MarkerColor string
	LineWidth   float64
	MarkerSize  float64
	YearStyle   TextStyle
	EventStyle  TextStyle
	// Progress in [0,1] reveals the line and markers left to right.
	Progress float64
}

// Timeline draws a horizontal line through the middle of r with one marker
// per year, evenly spaced, years above and events below. It returns the
// marker x coordinates.
func Timeline(s Surface, r Rect, o TimelineOptions) []float64 {
	progress := clamp01(o.Progress)
	n := len(o.Years)
	if n == 0 {
		n = len(o.Events)
	}
	if o.LineWidth <= 0 {
		o.LineWidth = 4
	}
	if o.MarkerSize <= 0 {
		o.MarkerSize = 10
	}
	midY := r.Y + r.H/2
	endX := r.X + r.W*progress

	s.Save()
	defer s.Restore()
	s.SetLineWidth(o.LineWidth)
	s.SetStroke(Color(o.LineColor))
	s.BeginPath()
	s.MoveTo(r.X, midY)
	s.LineTo(endX, midY)
	s.Stroke()

	xs := make([]float64, 0, n)
	if n == 0 {
		return xs
	}
	step := r.W / float64(n+1)
	labelGap := o.MarkerSize + 8
	for i := 0; i < n; i++ {
		x := r.X + step*float64(i+1)
		xs = append(xs, x)
		if x > endX+1e-9 {
			continue
		}
		s.SetFill(Color(o.MarkerColor))
		s.BeginPath()
		s.Arc(x, midY, o.MarkerSize, 0, 2*math.Pi)
		s.Fill()

		ys := o.YearStyle
		ys.Align, ys.Baseline = AlignCenter, BaselineBottom
		if i < len(o.Years) {
			Text(s, o.Years[i], x, midY-labelGap, ys)
		}
		es := o.EventStyle
		es.Align, es.Baseline = AlignCenter, BaselineTop
		if i < len(o.Events) {
			lh := es.Font.Size * 1.3
			WrappedText(s, o.Events[i], x, midY+labelGap, step*0.9, lh, 2, es)
		}
	}
	return xs
}

// SplitDivider draws a dashed vertical line at x from top to bottom.
func SplitDivider(s Surface, x, top, bottom float64, color string, width float64) {
	if width <= 0 {
		width = 2
	}
	s.Save()
	defer s.Restore()
	s.SetStroke(Color(color))
	s.SetLineWidth(width)
	s.SetLineDash([]float64{8, 6})
	s.BeginPath()
	s.MoveTo(x, top)
	s.LineTo(x, bottom)
	s.Stroke()
}

// Bar is one bar of a BarChart.
type Bar struct {
	Label   string
	Value   float64
	Display string
}

// BarChartOptions configures BarChart.
type BarChartOptions struct {
	Bars       []Bar
	Palette    []string
	LabelStyle TextStyle
	ValueStyle TextStyle
	// Gap is the fraction of each slot left empty between bars.
	Gap float64
	// Progress in [0,1] scales bar heights.
	Progress float64
}

// BarChart draws bars along the bottom of r, heights proportional to
// value/max, colours cycling through the palette, with the label under and
// the display value over each bar. It returns the bar rectangles.
func BarChart(s Surface, r Rect, o BarChartOptions) []Rect {
	if len(o.Bars) == 0 {
		return nil
	}
	progress := clamp01(o.Progress)
	gap := o.Gap
	if gap <= 0 || gap >= 1 {
		gap = 0.3
	}
	palette := o.Palette
	if len(palette) == 0 {
		palette = []string{"#3b82f6"}
	}
	maxV := 0.0
	for _, b := range o.Bars {
		maxV = math.Max(maxV, b.Value)
	}

	labelH := o.LabelStyle.Font.Size * 1.5
	valueH := o.ValueStyle.Font.Size * 1.5
	plotTop := r.Y + valueH
	plotBottom := r.Y + r.H - labelH
	plotH := math.Max(0, plotBottom-plotTop)
	slot := r.W / float64(len(o.Bars))
	barW := slot * (1 - gap)

	s.Save()
	defer s.Restore()
	rects := make([]Rect, 0, len(o.Bars))
	for i, b := range o.Bars {
		h := 0.0
		if maxV > 0 && b.Value > 0 {
			h = plotH * (b.Value / maxV) * progress
		}
		x := r.X + slot*float64(i) + (slot-barW)/2
		br := Rect{X: x, Y: plotBottom - h, W: barW, H: h}
		rects = append(rects, br)

		s.SetFill(Color(palette[i%len(palette)]))
		s.FillRect(br.X, br.Y, br.W, br.H)

		ls := o.LabelStyle
		ls.Align, ls.Baseline = AlignCenter, BaselineTop
		Text(s, b.Label, x+barW/2, plotBottom+4, ls)

		display := b.Display
		if display == "" {
			display = strconv.FormatFloat(b.Value, 'f', -1, 64)
		}
		vs := o.ValueStyle
		vs.Align, vs.Baseline = AlignCenter, BaselineBottom
		Text(s, display, x+barW/2, br.Y-4, vs)
	}
	return rects
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
