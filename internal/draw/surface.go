// Package draw holds the immediate-mode drawing surface contract and the
// stateless routines the renderer composes overlays from. Routines only call
// Surface methods; they keep no state between calls.
package draw

// Surface is a 2D immediate-mode drawing target. Colours are CSS strings
// (#rgb, #rrggbb, rgba(), named). Implementations live in package canvas.
type Surface interface {
	Width() float64
	Height() float64

	Save()
	Restore()
	Translate(x, y float64)
	Scale(sx, sy float64)

	SetFill(p Paint)
	SetStroke(p Paint)
	SetLineWidth(w float64)
	SetLineDash(pattern []float64)
	SetGlobalAlpha(a float64)
	SetShadow(s Shadow)
	SetFont(f Font)
	SetTextAlign(a Align)
	SetTextBaseline(b Baseline)

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadTo(cx, cy, x, y float64)
	Arc(x, y, r, start, end float64)
	ClosePath()
	Fill()
	Stroke()

	FillRect(x, y, w, h float64)
	StrokeRect(x, y, w, h float64)
	ClearRect(x, y, w, h float64)

	FillText(text string, x, y float64)
	MeasureText(text string) float64
}

// Paint is a fill or stroke source: a Color or a *Gradient.
type Paint interface {
	isPaint()
}

// Color is a solid CSS colour.
type Color string

func (Color) isPaint() {}

// GradientKind selects linear or radial interpolation.
type GradientKind int

const (
	Linear GradientKind = iota
	Radial
)

// Stop is a colour at a relative offset in [0,1].
type Stop struct {
	Offset float64
	Color  string
}

// Gradient is a linear gradient from (X0,Y0) to (X1,Y1), or a radial one
// between circles (X0,Y0,R0) and (X1,Y1,R1).
type Gradient struct {
	Kind       GradientKind
	X0, Y0, R0 float64
	X1, Y1, R1 float64
	Stops      []Stop
}

func (*Gradient) isPaint() {}

// LinearGradient spreads colors evenly along the segment.
func LinearGradient(x0, y0, x1, y1 float64, colors ...string) *Gradient {
	return &Gradient{Kind: Linear, X0: x0, Y0: y0, X1: x1, Y1: y1, Stops: evenStops(colors)}
}

// RadialGradient spreads colors evenly from radius r0 to r1 around (cx,cy).
func RadialGradient(cx, cy, r0, r1 float64, colors ...string) *Gradient {
	return &Gradient{Kind: Radial, X0: cx, Y0: cy, R0: r0, X1: cx, Y1: cy, R1: r1, Stops: evenStops(colors)}
}

func evenStops(colors []string) []Stop {
	stops := make([]Stop, len(colors))
	for i, c := range colors {
		off := 0.0
		if len(colors) > 1 {
			off = float64(i) / float64(len(colors)-1)
		}
		stops[i] = Stop{Offset: off, Color: c}
	}
	return stops
}

// Shadow is the drop shadow applied to subsequent fills. The zero value
// disables shadows.
type Shadow struct {
	Color   string
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// Font selects the text face. Weight is "normal" or "bold".
type Font struct {
	Family string
	Size   float64
	Weight string
}

// Align is the horizontal text anchor.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Baseline is the vertical text anchor.
type Baseline int

const (
	BaselineAlphabetic Baseline = iota
	BaselineTop
	BaselineMiddle
	BaselineBottom
)

// Rect is an axis-aligned rectangle in surface pixels.
type Rect struct {
	X, Y, W, H float64
}

// Inset shrinks r by p on every side. Negative results collapse to zero.
func (r Rect) Inset(p float64) Rect {
	out := Rect{X: r.X + p, Y: r.Y + p, W: r.W - 2*p, H: r.H - 2*p}
	if out.W < 0 {
		out.W = 0
	}
	if out.H < 0 {
		out.H = 0
	}
	return out
}

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}
