package canvas

import (
	"github.com/overhuman/overlay/internal/draw"
)

// Op is one recorded surface call.
type Op struct {
	Name  string
	Args  []float64
	Text  string
	Paint draw.Paint
	// Alpha is the global alpha in effect when the op was recorded.
	Alpha float64
}

// Recorder is a draw.Surface that records every call. It tracks the state
// stack but produces no pixels.
type Recorder struct {
	stateStack
	width, height float64
	ops           []Op
}

// NewRecorder returns an empty recorder of the given size.
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{stateStack: newStateStack(), width: width, height: height}
}

var _ draw.Surface = (*Recorder)(nil)

func (r *Recorder) record(name string, args ...float64) {
	r.ops = append(r.ops, Op{Name: name, Args: args, Alpha: r.cur.alpha})
}

func (r *Recorder) Width() float64 { return r.width }
func (r *Recorder) Height() float64 { return r.height }

// Resize changes the surface dimensions.
func (r *Recorder) Resize(width, height float64) {
	r.width, r.height = width, height
}

func (r *Recorder) Save() {
	r.stateStack.Save()
	r.record("Save")
}

func (r *Recorder) Restore() {
	r.stateStack.Restore()
	r.record("Restore")
}

func (r *Recorder) Translate(x, y float64) {
	r.stateStack.Translate(x, y)
	r.record("Translate", x, y)
}

func (r *Recorder) Scale(sx, sy float64) {
	r.stateStack.Scale(sx, sy)
	r.record("Scale", sx, sy)
}

func (r *Recorder) SetFill(p draw.Paint) {
	r.stateStack.SetFill(p)
	r.ops = append(r.ops, Op{Name: "SetFill", Paint: p, Alpha: r.cur.alpha})
}

func (r *Recorder) SetStroke(p draw.Paint) {
	r.stateStack.SetStroke(p)
	r.ops = append(r.ops, Op{Name: "SetStroke", Paint: p, Alpha: r.cur.alpha})
}

func (r *Recorder) SetLineDash(pattern []float64) {
	r.stateStack.SetLineDash(pattern)
	r.record("SetLineDash", pattern...)
}

func (r *Recorder) SetGlobalAlpha(a float64) {
	r.stateStack.SetGlobalAlpha(a)
	r.record("SetGlobalAlpha", a)
}

func (r *Recorder) SetShadow(sh draw.Shadow) {
	r.stateStack.SetShadow(sh)
	r.ops = append(r.ops, Op{Name: "SetShadow", Text: sh.Color, Args: []float64{sh.Blur, sh.OffsetX, sh.OffsetY}, Alpha: r.cur.alpha})
}

func (r *Recorder) SetFont(f draw.Font) {
	r.stateStack.SetFont(f)
	r.ops = append(r.ops, Op{Name: "SetFont", Text: f.Family, Args: []float64{f.Size}, Alpha: r.cur.alpha})
}

func (r *Recorder) BeginPath() { r.record("BeginPath") }
func (r *Recorder) MoveTo(x, y float64) { r.record("MoveTo", x, y) }
func (r *Recorder) LineTo(x, y float64) { r.record("LineTo", x, y) }
func (r *Recorder) QuadTo(cx, cy, x, y float64) { r.record("QuadTo", cx, cy, x, y) }
func (r *Recorder) Arc(x, y, rad, start, end float64) { r.record("Arc", x, y, rad, start, end) }
func (r *Recorder) ClosePath() { r.record("ClosePath") }

func (r *Recorder) Fill() {
	r.ops = append(r.ops, Op{Name: "Fill", Paint: r.cur.fill, Alpha: r.cur.alpha})
}

func (r *Recorder) Stroke() {
	r.ops = append(r.ops, Op{Name: "Stroke", Paint: r.cur.stroke, Alpha: r.cur.alpha})
}

func (r *Recorder) FillRect(x, y, w, h float64) {
	r.ops = append(r.ops, Op{Name: "FillRect", Args: []float64{x, y, w, h}, Paint: r.cur.fill, Alpha: r.cur.alpha})
}

func (r *Recorder) StrokeRect(x, y, w, h float64) {
	r.ops = append(r.ops, Op{Name: "StrokeRect", Args: []float64{x, y, w, h}, Paint: r.cur.stroke, Alpha: r.cur.alpha})
}

func (r *Recorder) ClearRect(x, y, w, h float64) { r.record("ClearRect", x, y, w, h) }

func (r *Recorder) FillText(text string, x, y float64) {
	r.ops = append(r.ops, Op{Name: "FillText", Text: text, Args: []float64{x, y}, Paint: r.cur.fill, Alpha: r.cur.alpha})
}

// MeasureText uses EstimateWidth with the current font.
func (r *Recorder) MeasureText(text string) float64 {
	return EstimateWidth(r.cur.font, text)
}

// Ops returns the recorded calls.
func (r *Recorder) Ops() []Op { return r.ops }

// Count returns how many ops named name were recorded.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, op := range r.ops {
		if op.Name == name {
			n++
		}
	}
	return n
}

// Texts returns the strings passed to FillText, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.ops {
		if op.Name == "FillText" {
			out = append(out, op.Text)
		}
	}
	return out
}

// Reset discards recorded ops and restores the default state.
func (r *Recorder) Reset() {
	r.ops = r.ops[:0]
	r.stateStack = newStateStack()
}
