package render

import (
	"strings"
	"unicode/utf8"

	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/draw"
	"github.com/overhuman/overlay/internal/validator"
)

// scene is everything needed to redraw an overlay.
type scene struct {
	cfg     catalog.TemplateConfig
	content catalog.Content
	at      *validator.Point
}

// frame is the animation state of one redraw.
type frame struct {
	alpha     float64
	scale     float64
	textAlpha float64
	// reveal drives timeline and bar growth.
	reveal float64
	// slide is the remaining split-panel offset as a fraction of half the box.
	slide float64
}

var still = frame{alpha: 1, scale: 1, textAlpha: 1, reveal: 1}

// frameFor maps eased progress p of animation k to a frame. ok is false for
// kinds the renderer does not know.
func frameFor(k catalog.AnimationKind, p float64) (f frame, ok bool) {
	f = still
	switch k {
	case catalog.FadeInScale:
		f.alpha = p
		f.scale = 0.8 + 0.2*p
	case catalog.ProgressBar:
		f.reveal = p
	case catalog.SlideInSync:
		f.alpha = p
		f.slide = 1 - p
	case catalog.DataAnimation:
		f.reveal = p
	case catalog.FadeInText:
		f.textAlpha = p
	default:
		return still, false
	}
	return f, true
}

const (
	titleGap    = 12
	splitGutter = 24
)

// paint clears s and draws sc in frame f. It returns the overlay box.
func paint(s draw.Surface, sc *scene, f frame) draw.Rect {
	s.ClearRect(0, 0, s.Width(), s.Height())

	v := sc.cfg.Visual
	box := Place(v, s.Width(), s.Height(), sc.at)

	s.Save()
	defer s.Restore()
	if f.alpha < 1 {
		s.SetGlobalAlpha(f.alpha)
	}
	if f.scale != 1 {
		cx, cy := box.X+box.W/2, box.Y+box.H/2
		s.Translate(cx, cy)
		s.Scale(f.scale, f.scale)
		s.Translate(-cx, -cy)
	}

	st := sc.cfg.Style
	text := func(fn func()) { withAlpha(s, f.alpha*f.textAlpha, f.textAlpha < 1, fn) }

	if c, ok := sc.content.(catalog.SplitContent); ok {
		drawSplit(s, sc.cfg, box, c, f, text)
		return box
	}

	drawBox(s, v, box, f.alpha)
	inner := Inset(box, v.Padding)
	switch c := sc.content.(type) {
	case catalog.DialogContent:
		text(func() { drawDialog(s, st, inner, c) })
	case catalog.TimelineContent:
		text(func() { drawTimeline(s, st, inner, c, f.reveal) })
	case catalog.ChartContent:
		text(func() { drawChart(s, st, inner, c, f.reveal) })
	case catalog.EmphasisContent:
		text(func() { drawEmphasis(s, st, inner, c) })
	}
	return box
}

func withAlpha(s draw.Surface, a float64, apply bool, fn func()) {
	if !apply {
		fn()
		return
	}
	s.Save()
	defer s.Restore()
	s.SetGlobalAlpha(a)
	fn()
}

// drawBox paints the background, shadow and border of one overlay box.
// alpha is the frame opacity the background opacity is multiplied into.
func drawBox(s draw.Surface, v catalog.VisualSpec, box draw.Rect, alpha float64) {
	radius := 0.0
	if v.Shape == catalog.ShapeRoundedRect {
		radius = v.CornerRadius
	}
	opacity := v.Background.Opacity
	if opacity <= 0 {
		opacity = 1
	}
	fill := func() {
		withAlpha(s, alpha*opacity, opacity < 1, func() {
			draw.Background(s, box, radius, backgroundPaint(v.Background, box), 1)
		})
	}
	if v.Shadow.Color != "" {
		draw.WithShadow(s, shadowOf(v.Shadow), fill)
	} else {
		fill()
	}
	if v.Border.Width > 0 && v.Border.Color != "" {
		draw.RoundedRect(s, box, radius, nil, draw.Color(v.Border.Color), v.Border.Width)
	}
}

func drawDialog(s draw.Surface, st catalog.ContentStyle, r draw.Rect, c catalog.DialogContent) {
	y := r.Y
	if c.Title != "" {
		lh := lineHeight(st.Title)
		n := draw.WrappedText(s, c.Title, r.X, y, r.W, lh, 2, textStyle(st.Title, draw.AlignLeft, draw.BaselineTop))
		y += float64(n)*lh + titleGap
	}
	if c.Text == "" {
		return
	}
	lh := lineHeight(st.Body)
	maxLines := int((r.Y + r.H - y) / lh)
	if maxLines < 1 {
		maxLines = 1
	}
	draw.WrappedText(s, c.Text, r.X, y, r.W, lh, maxLines, textStyle(st.Body, draw.AlignLeft, draw.BaselineTop))
}

func drawTimeline(s draw.Surface, st catalog.ContentStyle, r draw.Rect, c catalog.TimelineContent, reveal float64) {
	accent := st.Accent
	if accent == "" {
		accent = st.Label.Color
	}
	draw.Timeline(s, r, draw.TimelineOptions{
		Years:       c.Years,
		Events:      c.Events,
		LineColor:   accent,
		MarkerColor: accent,
		YearStyle:   textStyle(st.Label, draw.AlignCenter, draw.BaselineBottom),
		EventStyle:  textStyle(st.Body, draw.AlignCenter, draw.BaselineTop),
		Progress:    reveal,
	})
}

// drawSplit draws two panels that slide in from opposite sides with a
// dashed divider between them. Each panel shows its label in the title style,
// coloured from the palette, and its body below.
func drawSplit(s draw.Surface, cfg catalog.TemplateConfig, box draw.Rect, c catalog.SplitContent, f frame, text func(func())) {
	v, st := cfg.Visual, cfg.Style
	half := (box.W - splitGutter) / 2
	off := f.slide * box.W / 2
	panels := []struct {
		r    draw.Rect
		side string
	}{
		{draw.Rect{X: box.X - off, Y: box.Y, W: half, H: box.H}, c.Left},
		{draw.Rect{X: box.X + half + splitGutter + off, Y: box.Y, W: half, H: box.H}, c.Right},
	}
	for i, p := range panels {
		drawBox(s, v, p.r, f.alpha)
		inner := Inset(p.r, v.Padding)
		label, body := panelText(p.side)

		labelStyle := textStyle(st.Title, draw.AlignCenter, draw.BaselineTop)
		if i < len(st.Palette) {
			labelStyle.Color = st.Palette[i]
		}
		text(func() {
			y := inner.Y
			lh := lineHeight(st.Title)
			n := draw.WrappedText(s, label, inner.X+inner.W/2, y, inner.W, lh, 2, labelStyle)
			if body == "" {
				return
			}
			y += float64(n)*lh + titleGap
			blh := lineHeight(st.Body)
			maxLines := int((inner.Y + inner.H - y) / blh)
			if maxLines < 1 {
				maxLines = 1
			}
			draw.WrappedText(s, body, inner.X+inner.W/2, y, inner.W, blh, maxLines,
				textStyle(st.Body, draw.AlignCenter, draw.BaselineTop))
		})
	}
	accent := st.Accent
	if accent == "" {
		accent = st.Body.Color
	}
	draw.SplitDivider(s, box.X+box.W/2, box.Y, box.Y+box.H, accent, 2)
}

// panelText cuts one side of a comparison at its first colon into a label
// and a body. A side without a colon is all label.
func panelText(side string) (label, body string) {
	side = strings.TrimSpace(side)
	i := strings.IndexAny(side, ":：")
	if i < 0 {
		return side, ""
	}
	_, size := utf8.DecodeRuneInString(side[i:])
	label = strings.TrimSpace(side[:i])
	body = strings.TrimSpace(side[i+size:])
	if label == "" {
		return body, ""
	}
	return label, body
}

func drawChart(s draw.Surface, st catalog.ContentStyle, r draw.Rect, c catalog.ChartContent, reveal float64) {
	y := r.Y
	if c.Title != "" {
		draw.Text(s, c.Title, r.X+r.W/2, y, textStyle(st.Title, draw.AlignCenter, draw.BaselineTop))
		y += lineHeight(st.Title) + titleGap
	}
	bars := make([]draw.Bar, 0, len(c.Data))
	for _, d := range c.Data {
		bars = append(bars, draw.Bar{Label: d.Label, Value: d.Value, Display: d.Display})
	}
	palette := st.Palette
	if len(palette) == 0 && st.Accent != "" {
		palette = []string{st.Accent}
	}
	draw.BarChart(s, draw.Rect{X: r.X, Y: y, W: r.W, H: r.Y + r.H - y}, draw.BarChartOptions{
		Bars:       bars,
		Palette:    palette,
		LabelStyle: textStyle(st.Label, draw.AlignCenter, draw.BaselineTop),
		ValueStyle: textStyle(st.Value, draw.AlignCenter, draw.BaselineBottom),
		Progress:   reveal,
	})
}

// drawEmphasis centres the title block above the canvas midline and the
// subtitle below it.
func drawEmphasis(s draw.Surface, st catalog.ContentStyle, r draw.Rect, c catalog.EmphasisContent) {
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	if c.Title != "" {
		ts := textStyle(st.Title, draw.AlignCenter, draw.BaselineTop)
		s.SetFont(ts.Font)
		n := len(draw.WrapLines(s, c.Title, r.W))
		if n > 2 {
			n = 2
		}
		lh := lineHeight(st.Title)
		draw.WrappedText(s, c.Title, cx, cy-float64(n)*lh-titleGap/2, r.W, lh, 2, ts)
	}
	if c.Subtitle != "" {
		draw.WrappedText(s, c.Subtitle, cx, cy+titleGap/2, r.W, lineHeight(st.Body), 3,
			textStyle(st.Body, draw.AlignCenter, draw.BaselineTop))
	}
}
