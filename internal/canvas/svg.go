package canvas

import (
	"bytes"
	"fmt"
	"html"
	"image/color"
	"strings"

	"github.com/overhuman/overlay/internal/draw"
	"github.com/overhuman/overlay/internal/palette"
)

// SVG is a draw.Surface that builds an SVG document. Coordinates are written
// already transformed, so the output needs no transform attributes.
type SVG struct {
	stateStack
	width, height float64
	path          pathBuilder
	defs          bytes.Buffer
	body          bytes.Buffer
	nextID        int
}

// NewSVG returns an empty document of the given size.
func NewSVG(width, height float64) *SVG {
	return &SVG{stateStack: newStateStack(), width: width, height: height}
}

var _ draw.Surface = (*SVG)(nil)

func (s *SVG) Width() float64 { return s.width }
func (s *SVG) Height() float64 { return s.height }

// Resize changes the document size and drops its content.
func (s *SVG) Resize(width, height float64) {
	s.width, s.height = width, height
	s.Reset()
}

// Reset drops every element and restores the default state.
func (s *SVG) Reset() {
	s.defs.Reset()
	s.body.Reset()
	s.path.begin()
	s.stateStack = newStateStack()
	s.nextID = 0
}

func (s *SVG) BeginPath() { s.path.begin() }
func (s *SVG) MoveTo(x, y float64) { s.path.moveTo(s.cur.m, x, y) }
func (s *SVG) LineTo(x, y float64) { s.path.lineTo(s.cur.m, x, y) }
func (s *SVG) ClosePath() { s.path.closePath() }

func (s *SVG) QuadTo(cx, cy, x, y float64) {
	s.path.quadTo(s.cur.m, cx, cy, x, y)
}

func (s *SVG) Arc(x, y, r, start, end float64) {
	s.path.arc(s.cur.m, x, y, r, start, end)
}

func (s *SVG) pathData() string {
	var b strings.Builder
	for _, sg := range s.path.segs {
		switch sg.kind {
		case segMove:
			fmt.Fprintf(&b, "M%s %s ", num(sg.x), num(sg.y))
		case segLine:
			fmt.Fprintf(&b, "L%s %s ", num(sg.x), num(sg.y))
		case segQuad:
			fmt.Fprintf(&b, "Q%s %s %s %s ", num(sg.cx), num(sg.cy), num(sg.x), num(sg.y))
		case segClose:
			b.WriteString("Z ")
		}
	}
	return strings.TrimSpace(b.String())
}

func (s *SVG) Fill() {
	if len(s.path.segs) == 0 {
		return
	}
	fmt.Fprintf(&s.body, "<path d=\"%s\"%s%s/>\n", s.pathData(), s.paintAttrs("fill", s.cur.fill), s.shadowAttr())
}

func (s *SVG) Stroke() {
	if len(s.path.segs) == 0 {
		return
	}
	fmt.Fprintf(&s.body, "<path d=\"%s\" fill=\"none\"%s%s/>\n", s.pathData(), s.paintAttrs("stroke", s.cur.stroke), s.strokeAttrs())
}

func (s *SVG) FillRect(x, y, w, h float64) {
	s.rectPath(x, y, w, h)
	s.Fill()
}

func (s *SVG) StrokeRect(x, y, w, h float64) {
	s.rectPath(x, y, w, h)
	s.Stroke()
}

func (s *SVG) rectPath(x, y, w, h float64) {
	s.path.begin()
	s.path.moveTo(s.cur.m, x, y)
	s.path.lineTo(s.cur.m, x+w, y)
	s.path.lineTo(s.cur.m, x+w, y+h)
	s.path.lineTo(s.cur.m, x, y+h)
	s.path.closePath()
}

// ClearRect drops all content when the rect covers the whole document.
// Partial clears cannot erase emitted elements and are ignored.
func (s *SVG) ClearRect(x, y, w, h float64) {
	x0, y0 := s.cur.m.apply(x, y)
	x1, y1 := s.cur.m.apply(x+w, y+h)
	if x0 <= 0 && y0 <= 0 && x1 >= s.width && y1 >= s.height {
		s.defs.Reset()
		s.body.Reset()
		s.nextID = 0
	}
}

func (s *SVG) FillText(text string, x, y float64) {
	if text == "" {
		return
	}
	f := s.cur.font
	size := f.Size * s.cur.m.scaleFactor()
	dx, dy := s.cur.m.apply(x, y)
	anchor := "start"
	switch s.cur.align {
	case draw.AlignCenter:
		anchor = "middle"
	case draw.AlignRight:
		anchor = "end"
	}
	baseline := "alphabetic"
	switch s.cur.baseline {
	case draw.BaselineTop:
		baseline = "hanging"
	case draw.BaselineMiddle:
		baseline = "middle"
	case draw.BaselineBottom:
		baseline = "text-after-edge"
	}
	weight := f.Weight
	if weight == "" {
		weight = "normal"
	}
	fmt.Fprintf(&s.body,
		"<text x=\"%s\" y=\"%s\" font-family=\"%s\" font-size=\"%s\" font-weight=\"%s\" text-anchor=\"%s\" dominant-baseline=\"%s\"%s%s>%s</text>\n",
		num(dx), num(dy), html.EscapeString(f.Family), num(size), weight, anchor, baseline,
		s.paintAttrs("fill", s.cur.fill), s.shadowAttr(), html.EscapeString(text))
}

func (s *SVG) MeasureText(text string) float64 {
	return EstimateWidth(s.cur.font, text)
}

func (s *SVG) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

// paintAttrs renders attr (fill or stroke) plus its opacity for p.
func (s *SVG) paintAttrs(attr string, p draw.Paint) string {
	switch v := p.(type) {
	case draw.Color:
		c, err := palette.Parse(string(v))
		if err != nil {
			return fmt.Sprintf(" %s=\"none\"", attr)
		}
		return fmt.Sprintf(" %s=\"%s\"%s", attr, rgbHex(c), opacityAttr(attr, float64(c.A)/255*s.cur.alpha))
	case *draw.Gradient:
		if v == nil || len(v.Stops) == 0 {
			return fmt.Sprintf(" %s=\"none\"", attr)
		}
		return fmt.Sprintf(" %s=\"url(#%s)\"%s", attr, s.gradientDef(v), opacityAttr(attr, s.cur.alpha))
	}
	return fmt.Sprintf(" %s=\"none\"", attr)
}

func (s *SVG) gradientDef(g *draw.Gradient) string {
	id := s.id("g")
	m := s.cur.m
	x0, y0 := m.apply(g.X0, g.Y0)
	x1, y1 := m.apply(g.X1, g.Y1)
	k := m.scaleFactor()
	if g.Kind == draw.Radial {
		fmt.Fprintf(&s.defs, "<radialGradient id=\"%s\" gradientUnits=\"userSpaceOnUse\" cx=\"%s\" cy=\"%s\" r=\"%s\" fx=\"%s\" fy=\"%s\" fr=\"%s\">",
			id, num(x1), num(y1), num(g.R1*k), num(x0), num(y0), num(g.R0*k))
	} else {
		fmt.Fprintf(&s.defs, "<linearGradient id=\"%s\" gradientUnits=\"userSpaceOnUse\" x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\">",
			id, num(x0), num(y0), num(x1), num(y1))
	}
	for _, st := range g.Stops {
		c, err := palette.Parse(st.Color)
		if err != nil {
			continue
		}
		fmt.Fprintf(&s.defs, "<stop offset=\"%s\" stop-color=\"%s\"%s/>", num(st.Offset), rgbHex(c), opacityAttr("stop", float64(c.A)/255))
	}
	if g.Kind == draw.Radial {
		s.defs.WriteString("</radialGradient>\n")
	} else {
		s.defs.WriteString("</linearGradient>\n")
	}
	return id
}

func (s *SVG) shadowAttr() string {
	sh := s.cur.shadow
	if sh.Color == "" {
		return ""
	}
	c, err := palette.Parse(sh.Color)
	if err != nil || c.A == 0 {
		return ""
	}
	id := s.id("s")
	k := s.cur.m.scaleFactor()
	fmt.Fprintf(&s.defs, "<filter id=\"%s\" x=\"-50%%\" y=\"-50%%\" width=\"200%%\" height=\"200%%\"><feDropShadow dx=\"%s\" dy=\"%s\" stdDeviation=\"%s\" flood-color=\"%s\" flood-opacity=\"%s\"/></filter>\n",
		id, num(sh.OffsetX*k), num(sh.OffsetY*k), num(sh.Blur*k/2), rgbHex(c), num(float64(c.A)/255))
	return fmt.Sprintf(" filter=\"url(#%s)\"", id)
}

func (s *SVG) strokeAttrs() string {
	var b strings.Builder
	fmt.Fprintf(&b, " stroke-width=\"%s\"", num(s.cur.lineWidth*s.cur.m.scaleFactor()))
	if len(s.cur.dash) > 0 {
		parts := make([]string, len(s.cur.dash))
		for i, d := range s.cur.dash {
			parts[i] = num(d * s.cur.m.scaleFactor())
		}
		fmt.Fprintf(&b, " stroke-dasharray=\"%s\"", strings.Join(parts, " "))
	}
	return b.String()
}

// String returns the complete SVG document.
func (s *SVG) String() string {
	var out bytes.Buffer
	fmt.Fprintf(&out, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\">\n",
		num(s.width), num(s.height), num(s.width), num(s.height))
	if s.defs.Len() > 0 {
		out.WriteString("<defs>\n")
		out.Write(s.defs.Bytes())
		out.WriteString("</defs>\n")
	}
	out.Write(s.body.Bytes())
	out.WriteString("</svg>\n")
	return out.String()
}

// Bytes returns the document as bytes.
func (s *SVG) Bytes() []byte { return []byte(s.String()) }

func opacityAttr(attr string, a float64) string {
	if a >= 1 {
		return ""
	}
	return fmt.Sprintf(" %s-opacity=\"%s\"", attr, num(a))
}

func rgbHex(c color.RGBA) string {
	c.A = 255
	return palette.Hex(c)
}

// num formats coordinates with at most two decimals.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
