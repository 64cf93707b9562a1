package canvas

import (
	"image"
	"image/color"
	stddraw "image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/overhuman/overlay/internal/draw"
	"github.com/overhuman/overlay/internal/palette"
)

// glyphHeight is the native line height of basicfont.Face7x13.
const glyphHeight = 13

// Raster is a draw.Surface that paints into an *image.RGBA. Fills are
// anti-aliased through x/image/vector; strokes are emitted as quads; text is
// drawn with basicfont and scaled to the requested size. Shadows are a single
// offset pass without blur.
type Raster struct {
	stateStack
	img  *image.RGBA
	path pathBuilder
}

// NewRaster returns a transparent raster of the given size.
func NewRaster(width, height int) *Raster {
	return &Raster{
		stateStack: newStateStack(),
		img:        image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1))),
	}
}

var _ draw.Surface = (*Raster)(nil)

func (r *Raster) Width() float64 { return float64(r.img.Bounds().Dx()) }
func (r *Raster) Height() float64 { return float64(r.img.Bounds().Dy()) }

// Image returns the backing image. It is shared, not copied.
func (r *Raster) Image() *image.RGBA { return r.img }

// Snapshot returns a copy of the current pixels.
func (r *Raster) Snapshot() *image.RGBA {
	out := image.NewRGBA(r.img.Bounds())
	copy(out.Pix, r.img.Pix)
	return out
}

// Resize replaces the backing image with a transparent one of the new size.
func (r *Raster) Resize(width, height int) {
	r.img = image.NewRGBA(image.Rect(0, 0, max(width, 1), max(height, 1)))
	r.stateStack = newStateStack()
	r.path.begin()
}

func (r *Raster) BeginPath() { r.path.begin() }
func (r *Raster) MoveTo(x, y float64) { r.path.moveTo(r.cur.m, x, y) }
func (r *Raster) LineTo(x, y float64) { r.path.lineTo(r.cur.m, x, y) }
func (r *Raster) ClosePath() { r.path.closePath() }

func (r *Raster) QuadTo(cx, cy, x, y float64) {
	r.path.quadTo(r.cur.m, cx, cy, x, y)
}

func (r *Raster) Arc(x, y, rad, start, end float64) {
	r.path.arc(r.cur.m, x, y, rad, start, end)
}

func (r *Raster) Fill() {
	polys := r.path.flatten()
	if len(polys) == 0 {
		return
	}
	r.paintShadow(polys)
	r.rasterize(polys, r.source(r.cur.fill))
}

func (r *Raster) Stroke() {
	polys := r.path.flatten()
	if len(polys) == 0 {
		return
	}
	w := r.cur.lineWidth * r.cur.m.scaleFactor()
	if w <= 0 {
		return
	}
	var dash []float64
	for _, d := range r.cur.dash {
		dash = append(dash, d*r.cur.m.scaleFactor())
	}
	quads := strokeQuads(polys, w, dash)
	r.rasterize(quads, r.source(r.cur.stroke))
}

func (r *Raster) FillRect(x, y, w, h float64) {
	r.rectPath(x, y, w, h)
	r.Fill()
}

func (r *Raster) StrokeRect(x, y, w, h float64) {
	r.rectPath(x, y, w, h)
	r.Stroke()
}

func (r *Raster) rectPath(x, y, w, h float64) {
	r.path.begin()
	r.path.moveTo(r.cur.m, x, y)
	r.path.lineTo(r.cur.m, x+w, y)
	r.path.lineTo(r.cur.m, x+w, y+h)
	r.path.lineTo(r.cur.m, x, y+h)
	r.path.closePath()
}

// ClearRect resets the covered pixels to transparent.
func (r *Raster) ClearRect(x, y, w, h float64) {
	x0, y0 := r.cur.m.apply(x, y)
	x1, y1 := r.cur.m.apply(x+w, y+h)
	rect := image.Rect(int(math.Floor(math.Min(x0, x1))), int(math.Floor(math.Min(y0, y1))),
		int(math.Ceil(math.Max(x0, x1))), int(math.Ceil(math.Max(y0, y1))))
	stddraw.Draw(r.img, rect.Intersect(r.img.Bounds()), image.Transparent, image.Point{}, stddraw.Src)
}

func (r *Raster) FillText(text string, x, y float64) {
	if text == "" {
		return
	}
	size := r.cur.font.Size * r.cur.m.scaleFactor()
	if size <= 0 {
		return
	}
	k := size / glyphHeight
	nativeW := font.MeasureString(basicfont.Face7x13, text).Ceil()
	if nativeW <= 0 {
		return
	}

	mask := image.NewAlpha(image.Rect(0, 0, nativeW, glyphHeight))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, basicfont.Face7x13.Ascent),
	}
	d.DrawString(text)

	w := float64(nativeW) * k
	dx, dy := r.cur.m.apply(x, y)
	ox, oy := textOrigin(dx, dy, w, size, r.cur.align, r.cur.baseline)
	top := oy - float64(basicfont.Face7x13.Ascent)*k
	dst := image.Rect(int(math.Round(ox)), int(math.Round(top)),
		int(math.Round(ox+w)), int(math.Round(top+size)))
	if dst.Empty() {
		return
	}
	scaled := image.NewAlpha(image.Rect(0, 0, dst.Dx(), dst.Dy()))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), mask, mask.Bounds(), xdraw.Src, nil)

	if sh := r.cur.shadow; sh.Color != "" {
		if c, err := palette.Parse(sh.Color); err == nil && c.A > 0 {
			off := image.Pt(int(math.Round(sh.OffsetX)), int(math.Round(sh.OffsetY)))
			stddraw.DrawMask(r.img, dst.Add(off), image.NewUniform(r.nrgba(c)), image.Point{}, scaled, image.Point{}, stddraw.Over)
		}
	}
	stddraw.DrawMask(r.img, dst, r.source(r.cur.fill), dst.Min, scaled, image.Point{}, stddraw.Over)
}

// MeasureText is the scaled basicfont advance, in user units.
func (r *Raster) MeasureText(text string) float64 {
	size := r.cur.font.Size
	if size <= 0 {
		return 0
	}
	return float64(font.MeasureString(basicfont.Face7x13, text).Ceil()) * size / glyphHeight
}

func (r *Raster) paintShadow(polys []polyline) {
	sh := r.cur.shadow
	if sh.Color == "" {
		return
	}
	c, err := palette.Parse(sh.Color)
	if err != nil || c.A == 0 {
		return
	}
	k := r.cur.m.scaleFactor()
	dx, dy := sh.OffsetX*k, sh.OffsetY*k
	moved := make([]polyline, len(polys))
	for i, p := range polys {
		pts := make([]point, len(p.pts))
		for j, pt := range p.pts {
			pts[j] = point{pt.x + dx, pt.y + dy}
		}
		moved[i] = polyline{pts: pts, closed: true}
	}
	r.rasterize(moved, image.NewUniform(r.nrgba(c)))
}

func (r *Raster) rasterize(polys []polyline, src image.Image) {
	b := r.img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = stddraw.Over
	for _, p := range polys {
		if len(p.pts) < 2 {
			continue
		}
		z.MoveTo(float32(p.pts[0].x), float32(p.pts[0].y))
		for _, pt := range p.pts[1:] {
			z.LineTo(float32(pt.x), float32(pt.y))
		}
		z.ClosePath()
	}
	z.Draw(r.img, b, src, image.Point{})
}

// nrgba converts a straight-alpha colour to NRGBA with global alpha applied.
func (r *Raster) nrgba(c color.RGBA) color.NRGBA {
	c = palette.Fade(c, r.cur.alpha)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func (r *Raster) source(p draw.Paint) image.Image {
	switch v := p.(type) {
	case draw.Color:
		c, err := palette.Parse(string(v))
		if err != nil {
			return image.Transparent
		}
		return image.NewUniform(r.nrgba(c))
	case *draw.Gradient:
		if v == nil || len(v.Stops) == 0 {
			return image.Transparent
		}
		return newGradientImage(v, r.cur.m, r.cur.alpha, r.img.Bounds())
	}
	return image.Transparent
}

// gradientImage evaluates a draw.Gradient per pixel in device space.
type gradientImage struct {
	kind           draw.GradientKind
	x0, y0, x1, y1 float64
	r0, r1         float64
	offsets        []float64
	colors         []color.RGBA
	alpha          float64
	bounds         image.Rectangle
}

func newGradientImage(g *draw.Gradient, m matrix, alpha float64, b image.Rectangle) *gradientImage {
	gi := &gradientImage{kind: g.Kind, alpha: alpha, bounds: b}
	gi.x0, gi.y0 = m.apply(g.X0, g.Y0)
	gi.x1, gi.y1 = m.apply(g.X1, g.Y1)
	k := m.scaleFactor()
	gi.r0, gi.r1 = g.R0*k, g.R1*k
	for _, st := range g.Stops {
		c, err := palette.Parse(st.Color)
		if err != nil {
			continue
		}
		gi.offsets = append(gi.offsets, st.Offset)
		gi.colors = append(gi.colors, c)
	}
	return gi
}

func (g *gradientImage) ColorModel() color.Model { return color.NRGBAModel }
func (g *gradientImage) Bounds() image.Rectangle { return g.bounds }

func (g *gradientImage) At(x, y int) color.Color {
	if len(g.colors) == 0 {
		return color.NRGBA{}
	}
	px, py := float64(x)+0.5, float64(y)+0.5
	var t float64
	if g.kind == draw.Radial {
		d := math.Hypot(px-g.x1, py-g.y1)
		span := g.r1 - g.r0
		if span > 0 {
			t = (d - g.r0) / span
		}
	} else {
		vx, vy := g.x1-g.x0, g.y1-g.y0
		l2 := vx*vx + vy*vy
		if l2 > 0 {
			t = ((px-g.x0)*vx + (py-g.y0)*vy) / l2
		}
	}
	t = math.Max(0, math.Min(1, t))
	c := g.colors[len(g.colors)-1]
	for i := 0; i < len(g.offsets); i++ {
		if t <= g.offsets[i] {
			if i == 0 {
				c = g.colors[0]
				break
			}
			span := g.offsets[i] - g.offsets[i-1]
			f := 0.0
			if span > 0 {
				f = (t - g.offsets[i-1]) / span
			}
			c = palette.Lerp(g.colors[i-1], g.colors[i], f)
			break
		}
	}
	c = palette.Fade(c, g.alpha)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// strokeQuads expands each polyline segment into a quad of width w, skipping
// the gaps of the dash pattern.
func strokeQuads(polys []polyline, w float64, dash []float64) []polyline {
	var out []polyline
	half := w / 2
	for _, p := range polys {
		pts := p.pts
		if p.closed && len(pts) > 1 {
			pts = append(append([]point(nil), pts...), pts[0])
		}
		dashIdx, dashLeft, on := 0, 0.0, true
		if len(dash) > 0 {
			dashLeft = dash[0]
		}
		for i := 1; i < len(pts); i++ {
			a, b := pts[i-1], pts[i]
			segLen := math.Hypot(b.x-a.x, b.y-a.y)
			if segLen == 0 {
				continue
			}
			ux, uy := (b.x-a.x)/segLen, (b.y-a.y)/segLen
			nx, ny := -uy*half, ux*half
			pos := 0.0
			for pos < segLen {
				step := segLen - pos
				if len(dash) > 0 && dashLeft < step {
					step = dashLeft
				}
				if on {
					sx, sy := a.x+ux*pos, a.y+uy*pos
					ex, ey := a.x+ux*(pos+step), a.y+uy*(pos+step)
					out = append(out, polyline{closed: true, pts: []point{
						{sx + nx, sy + ny}, {ex + nx, ey + ny}, {ex - nx, ey - ny}, {sx - nx, sy - ny},
					}})
				}
				pos += step
				if len(dash) > 0 {
					dashLeft -= step
					if dashLeft <= 1e-9 {
						dashIdx = (dashIdx + 1) % len(dash)
						dashLeft = dash[dashIdx]
						on = !on
						if dashLeft <= 0 {
							dashLeft = 1
						}
					}
				}
			}
		}
	}
	return out
}
