// Package canvas provides implementations of draw.Surface: an operation
// Recorder for tests and display lists, an SVG document builder and an
// in-memory raster backed by *image.RGBA.
package canvas

import (
	"math"
	"unicode"

	"github.com/overhuman/overlay/internal/draw"
)

// matrix is a 2D affine transform: x' = a*x + c*y + e, y' = b*x + d*y + f.
type matrix struct {
	a, b, c, d, e, f float64
}

var identity = matrix{a: 1, d: 1}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m.a*x + m.c*y + m.e, m.b*x + m.d*y + m.f
}

func (m matrix) translate(x, y float64) matrix {
	m.e += m.a*x + m.c*y
	m.f += m.b*x + m.d*y
	return m
}

func (m matrix) scale(sx, sy float64) matrix {
	m.a *= sx
	m.b *= sx
	m.c *= sy
	m.d *= sy
	return m
}

// scaleFactor is the uniform scale used for lengths such as line widths,
// radii and font sizes.
func (m matrix) scaleFactor() float64 {
	return math.Sqrt(math.Abs(m.a*m.d - m.b*m.c))
}

// state is the save/restore-able drawing state shared by the surfaces.
type state struct {
	m         matrix
	fill      draw.Paint
	stroke    draw.Paint
	lineWidth float64
	dash      []float64
	alpha     float64
	shadow    draw.Shadow
	font      draw.Font
	align     draw.Align
	baseline  draw.Baseline
}

func defaultState() state {
	return state{
		m:         identity,
		fill:      draw.Color("#000000"),
		stroke:    draw.Color("#000000"),
		lineWidth: 1,
		alpha:     1,
		font:      draw.Font{Family: "sans-serif", Size: 10, Weight: "normal"},
	}
}

// stateStack implements the state half of draw.Surface.
type stateStack struct {
	cur   state
	saved []state
}

func newStateStack() stateStack {
	return stateStack{cur: defaultState()}
}

func (s *stateStack) Save() {
	st := s.cur
	st.dash = append([]float64(nil), s.cur.dash...)
	s.saved = append(s.saved, st)
}

// Restore pops the last saved state. An unbalanced Restore is ignored.
func (s *stateStack) Restore() {
	if len(s.saved) == 0 {
		return
	}
	s.cur = s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
}

func (s *stateStack) Translate(x, y float64) { s.cur.m = s.cur.m.translate(x, y) }
func (s *stateStack) Scale(sx, sy float64) { s.cur.m = s.cur.m.scale(sx, sy) }
func (s *stateStack) SetFill(p draw.Paint) { s.cur.fill = p }
func (s *stateStack) SetStroke(p draw.Paint) { s.cur.stroke = p }
func (s *stateStack) SetLineWidth(w float64) { s.cur.lineWidth = w }
func (s *stateStack) SetShadow(sh draw.Shadow) { s.cur.shadow = sh }
func (s *stateStack) SetFont(f draw.Font) { s.cur.font = f }
func (s *stateStack) SetTextAlign(a draw.Align) { s.cur.align = a }
func (s *stateStack) SetTextBaseline(b draw.Baseline) { s.cur.baseline = b }

func (s *stateStack) SetLineDash(pattern []float64) {
	s.cur.dash = append([]float64(nil), pattern...)
}

func (s *stateStack) SetGlobalAlpha(a float64) {
	s.cur.alpha = math.Max(0, math.Min(1, a))
}

// Depth is the number of unmatched Save calls.
func (s *stateStack) Depth() int { return len(s.saved) }

type segKind int

const (
	segMove segKind = iota
	segLine
	segQuad
	segClose
)

// seg is one path command in device coordinates. Quads use (cx,cy) as the
// control point.
type seg struct {
	kind   segKind
	x, y   float64
	cx, cy float64
}

// pathBuilder records path commands transformed into device space. Arcs are
// approximated with quadratic segments of at most 45 degrees.
type pathBuilder struct {
	segs           []seg
	startX, startY float64
	lastX, lastY   float64
	open           bool
}

func (p *pathBuilder) begin() {
	p.segs = p.segs[:0]
	p.open = false
}

func (p *pathBuilder) moveTo(m matrix, x, y float64) {
	dx, dy := m.apply(x, y)
	p.segs = append(p.segs, seg{kind: segMove, x: dx, y: dy})
	p.startX, p.startY, p.lastX, p.lastY = dx, dy, dx, dy
	p.open = true
}

func (p *pathBuilder) lineTo(m matrix, x, y float64) {
	if !p.open {
		p.moveTo(m, x, y)
		return
	}
	dx, dy := m.apply(x, y)
	p.segs = append(p.segs, seg{kind: segLine, x: dx, y: dy})
	p.lastX, p.lastY = dx, dy
}

func (p *pathBuilder) quadTo(m matrix, cx, cy, x, y float64) {
	if !p.open {
		p.moveTo(m, cx, cy)
	}
	dcx, dcy := m.apply(cx, cy)
	dx, dy := m.apply(x, y)
	p.segs = append(p.segs, seg{kind: segQuad, x: dx, y: dy, cx: dcx, cy: dcy})
	p.lastX, p.lastY = dx, dy
}

func (p *pathBuilder) arc(m matrix, x, y, r, start, end float64) {
	if r <= 0 {
		return
	}
	sweep := end - start
	if sweep > 2*math.Pi {
		sweep = 2 * math.Pi
	}
	n := int(math.Ceil(math.Abs(sweep) / (math.Pi / 4)))
	if n == 0 {
		n = 1
	}
	step := sweep / float64(n)
	sx, sy := x+r*math.Cos(start), y+r*math.Sin(start)
	if p.open {
		p.lineTo(m, sx, sy)
	} else {
		p.moveTo(m, sx, sy)
	}
	for i := 0; i < n; i++ {
		a0 := start + step*float64(i)
		a1 := a0 + step
		mid := (a0 + a1) / 2
		k := r / math.Cos(step/2)
		p.quadTo(m, x+k*math.Cos(mid), y+k*math.Sin(mid), x+r*math.Cos(a1), y+r*math.Sin(a1))
	}
}

func (p *pathBuilder) closePath() {
	if !p.open {
		return
	}
	p.segs = append(p.segs, seg{kind: segClose, x: p.startX, y: p.startY})
	p.lastX, p.lastY = p.startX, p.startY
}

type point struct{ x, y float64 }

// polyline is a flattened subpath.
type polyline struct {
	pts    []point
	closed bool
}

// flatten converts the path into polylines, splitting each quad into a fixed
// number of line steps.
func (p *pathBuilder) flatten() []polyline {
	var out []polyline
	var lx, ly float64
	for _, s := range p.segs {
		last := len(out) - 1
		switch s.kind {
		case segMove:
			out = append(out, polyline{pts: []point{{s.x, s.y}}})
		case segLine:
			if last < 0 {
				continue
			}
			out[last].pts = append(out[last].pts, point{s.x, s.y})
		case segQuad:
			if last < 0 {
				continue
			}
			const steps = 8
			for i := 1; i <= steps; i++ {
				t := float64(i) / steps
				it := 1 - t
				x := it*it*lx + 2*it*t*s.cx + t*t*s.x
				y := it*it*ly + 2*it*t*s.cy + t*t*s.y
				out[last].pts = append(out[last].pts, point{x, y})
			}
		case segClose:
			if last >= 0 {
				out[last].closed = true
			}
		}
		lx, ly = s.x, s.y
	}
	return out
}

// EstimateWidth approximates the advance of text in font f: full-width
// runes take one em, everything else a little over half.
func EstimateWidth(f draw.Font, text string) float64 {
	size := f.Size
	if size <= 0 {
		size = 10
	}
	w := 0.0
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r) || unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Hangul) ||
			(r >= 0xFF00 && r <= 0xFFEF) || (r >= 0x3000 && r <= 0x303F):
			w += size
		case unicode.IsSpace(r):
			w += size * 0.3
		default:
			w += size * 0.55
		}
	}
	if f.Weight == "bold" {
		w *= 1.05
	}
	return w
}

// textOrigin shifts (x,y) from the requested anchor to the left/alphabetic
// origin for a run of width w and font size size.
func textOrigin(x, y, w, size float64, a draw.Align, b draw.Baseline) (float64, float64) {
	switch a {
	case draw.AlignCenter:
		x -= w / 2
	case draw.AlignRight:
		x -= w
	}
	switch b {
	case draw.BaselineTop:
		y += size * 0.8
	case draw.BaselineMiddle:
		y += size * 0.3
	case draw.BaselineBottom:
		y -= size * 0.2
	}
	return x, y
}
