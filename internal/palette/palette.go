// Package palette holds the colour math shared by the validator and the
// drawing surfaces: CSS-style colour parsing, WCAG relative luminance and
// contrast, and the RGB distance used for "similar colour" checks.
package palette

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// named covers the handful of keywords the catalog and callers use.
var named = map[string]color.RGBA{
	"transparent": {0, 0, 0, 0},
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"lime":        {0, 255, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"orange":      {255, 165, 0, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
}

// Parse converts "#rgb", "#rrggbb", "#rrggbbaa", "rgb(r,g,b)", "rgba(r,g,b,a)"
// or a basic colour keyword into an RGBA value.
func Parse(s string) (color.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return color.RGBA{}, fmt.Errorf("empty colour")
	}
	if c, ok := named[v]; ok {
		return c, nil
	}
	switch {
	case strings.HasPrefix(v, "rgba(") || strings.HasPrefix(v, "rgb("):
		return parseFunc(v)
	case strings.HasPrefix(v, "#") && len(v) == 9:
		base, err := colorful.Hex(v[:7])
		if err != nil {
			return color.RGBA{}, fmt.Errorf("parse colour %q: %w", s, err)
		}
		a, err := strconv.ParseUint(v[7:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("parse alpha of %q: %w", s, err)
		}
		r, g, b := base.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: uint8(a)}, nil
	case strings.HasPrefix(v, "#"):
		c, err := colorful.Hex(v)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("parse colour %q: %w", s, err)
		}
		r, g, b := c.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: 255}, nil
	}
	return color.RGBA{}, fmt.Errorf("unsupported colour %q", s)
}

// MustParse is Parse for compile-time constants; it panics on bad input.
func MustParse(s string) color.RGBA {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseFunc(v string) (color.RGBA, error) {
	open := strings.IndexByte(v, '(')
	end := strings.LastIndexByte(v, ')')
	if open < 0 || end < open {
		return color.RGBA{}, fmt.Errorf("malformed colour %q", v)
	}
	parts := strings.Split(v[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("malformed colour %q", v)
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("parse channel of %q: %w", v, err)
		}
		ch[i] = uint8(math.Round(clamp(n, 0, 255)))
	}
	alpha := uint8(255)
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("parse alpha of %q: %w", v, err)
		}
		alpha = uint8(math.Round(clamp(a, 0, 1) * 255))
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}

func toColorful(c color.RGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Luminance is the WCAG 2.x relative luminance of c (alpha ignored).
func Luminance(c color.RGBA) float64 {
	r, g, b := toColorful(c).LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// Contrast returns the WCAG contrast ratio between two colours, in [1, 21].
func Contrast(a, b color.RGBA) float64 {
	l1, l2 := Luminance(a), Luminance(b)
	hi, lo := math.Max(l1, l2), math.Min(l1, l2)
	return (hi + 0.05) / (lo + 0.05)
}

// Distance is the Euclidean distance between two colours in 0-255 RGB space.
func Distance(a, b color.RGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Lerp blends a toward b by t in RGB space, alpha included.
func Lerp(a, b color.RGBA, t float64) color.RGBA {
	t = clamp(t, 0, 1)
	mixed := toColorful(a).BlendRgb(toColorful(b), t)
	r, g, bl := mixed.RGB255()
	alpha := float64(a.A) + (float64(b.A)-float64(a.A))*t
	return color.RGBA{R: r, G: g, B: bl, A: uint8(math.Round(alpha))}
}

// Fade scales the alpha of c by f in [0,1].
func Fade(c color.RGBA, f float64) color.RGBA {
	c.A = uint8(math.Round(float64(c.A) * clamp(f, 0, 1)))
	return c
}

// Hex formats c as "#rrggbb", or "#rrggbbaa" when not opaque.
func Hex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
