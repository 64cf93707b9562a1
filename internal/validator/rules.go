package validator

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"unicode"

	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/palette"
)

// Thresholds shared by the rule groups.
const (
	MinTextLength     = 1
	MinDiversity      = 0.3
	EdgeMargin        = 20.0
	MinRelativeSize   = 0.1
	MaxRelativeSize   = 1.0
	MinContrast       = 4.5
	EnhancedContrast  = 7.0
	AvoidDistance     = 50.0
	MinLuminance      = 0.2
	MaxLuminance      = 0.9
	MinMargin         = 10.0
	MinSpacing        = 8.0
	MinTouchTarget    = 44.0
	ComfortableTarget = 48.0
	MaxLineLength     = 80
	MinLineLength     = 40
)

// Limits are the per-template bounds.
type Limits struct {
	MaxText   int
	Positions []catalog.Position
	MinAspect float64
	MaxAspect float64
}

var limits = map[catalog.TemplateType]Limits{
	catalog.DialogPopup: {
		MaxText: 200,
		Positions: []catalog.Position{
			catalog.PositionCenter, catalog.PositionTopLeft, catalog.PositionTopRight,
			catalog.PositionBottomLeft, catalog.PositionBottomRight,
		},
		MinAspect: 0.8, MaxAspect: 3,
	},
	catalog.TimelineDisplay: {
		MaxText:   300,
		Positions: []catalog.Position{catalog.PositionBottom, catalog.PositionLeftToRight, catalog.PositionCenter},
		MinAspect: 2, MaxAspect: 10,
	},
	catalog.SplitScreen: {
		MaxText:   240,
		Positions: []catalog.Position{catalog.PositionCenter},
		MinAspect: 1, MaxAspect: 4,
	},
	catalog.ChartAnalysis: {
		MaxText:   300,
		Positions: []catalog.Position{catalog.PositionCenter, catalog.PositionTopRight, catalog.PositionBottomRight},
		MinAspect: 0.8, MaxAspect: 3,
	},
	catalog.EmphasisFocus: {
		MaxText:   80,
		Positions: []catalog.Position{catalog.PositionCenter},
		MinAspect: 0.5, MaxAspect: 3,
	},
}

// LimitsFor returns the bounds of t. Unknown types get dialog bounds.
func LimitsFor(t catalog.TemplateType) Limits {
	l, ok := limits[t]
	if !ok {
		l = limits[catalog.DialogPopup]
	}
	l.Positions = append([]catalog.Position(nil), l.Positions...)
	return l
}

// avoidPairs are colour combinations that read poorly regardless of
// contrast. Order within a pair does not matter.
var avoidPairs = [][2]string{
	{"#ff0000", "#00ff00"},
	{"#ff0000", "#0000ff"},
	{"#00ff00", "#0000ff"},
	{"#ffff00", "#ffffff"},
}

var alignments = []string{"left", "center", "right", "justify"}

// findings collects issues for one validation run.
type findings struct {
	violations  []Issue
	warnings    []Issue
	suggestions []Issue
}

func (f *findings) add(is Issue) {
	switch is.Severity {
	case SeverityViolation:
		f.violations = append(f.violations, is)
	case SeverityWarning:
		f.warnings = append(f.warnings, is)
	default:
		f.suggestions = append(f.suggestions, is)
	}
}

func checkText(f *findings, text string, lim Limits) {
	n := catalog.RuneLen(text)
	switch {
	case n > lim.MaxText:
		f.add(Issue{
			Type:     TextTooLong,
			Severity: SeverityViolation,
			Field:    "text",
			Message:  fmt.Sprintf("text has %d characters, limit is %d", n, lim.MaxText),
			Limit:    float64(lim.MaxText),
			Current:  float64(n),
		})
	case n < MinTextLength:
		f.add(Issue{
			Type:     TextTooShort,
			Severity: SeverityViolation,
			Field:    "text",
			Message:  "text is empty",
			Limit:    MinTextLength,
			Current:  float64(n),
		})
	}

	if bad := invalidRunes(text); len(bad) > 0 {
		f.add(Issue{
			Type:     InvalidCharacters,
			Severity: SeverityWarning,
			Field:    "text",
			Message:  fmt.Sprintf("unsupported characters %q", string(bad)),
			Current:  float64(len(bad)),
		})
	}

	tokens := catalog.Tokens(text)
	if len(tokens) > 0 {
		uniq := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			uniq[t] = struct{}{}
		}
		ratio := float64(len(uniq)) / float64(len(tokens))
		if ratio < MinDiversity {
			f.add(Issue{
				Type:     LowDiversity,
				Severity: SeveritySuggestion,
				Field:    "text",
				Message:  fmt.Sprintf("only %.0f%% of words are distinct", ratio*100),
				Ratio:    ratio,
				Min:      MinDiversity,
			})
		}
	}
}

// invalidRunes returns the distinct runes outside CJK, Latin, digits,
// whitespace and common punctuation.
func invalidRunes(text string) []rune {
	var bad []rune
	seen := map[rune]bool{}
	for _, r := range text {
		if allowedRune(r) || seen[r] {
			continue
		}
		seen[r] = true
		bad = append(bad, r)
	}
	return bad
}

func allowedRune(r rune) bool {
	switch {
	case unicode.Is(unicode.Han, r), unicode.Is(unicode.Latin, r), unicode.IsDigit(r), unicode.IsSpace(r):
		return true
	case unicode.IsPunct(r):
		return true
	}
	return strings.ContainsRune("%％+-=<>/$¥€£°~^|@#&*·…", r)
}

func checkPosition(f *findings, adj Adjustments, lim Limits, vctx *Context) {
	if adj.Position != nil && !containsPosition(lim.Positions, *adj.Position) {
		allowed := make([]string, len(lim.Positions))
		for i, p := range lim.Positions {
			allowed[i] = string(p)
		}
		f.add(Issue{
			Type:     PositionInvalid,
			Severity: SeverityViolation,
			Field:    "position",
			Message:  fmt.Sprintf("position %q is not allowed", string(*adj.Position)),
			Allowed:  allowed,
		})
	}
	if adj.Coordinates != nil {
		c := *adj.Coordinates
		near := c.X < EdgeMargin || c.Y < EdgeMargin
		if vctx != nil && vctx.CanvasWidth > 0 && vctx.CanvasHeight > 0 {
			near = near || c.X > vctx.CanvasWidth-EdgeMargin || c.Y > vctx.CanvasHeight-EdgeMargin
		}
		if near {
			f.add(Issue{
				Type:     PositionNearEdge,
				Severity: SeverityWarning,
				Field:    "coordinates",
				Message:  fmt.Sprintf("(%.0f, %.0f) is within %.0fpx of the edge", c.X, c.Y, EdgeMargin),
				Min:      EdgeMargin,
			})
		}
	}
}

func containsPosition(list []catalog.Position, p catalog.Position) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}

func checkSize(f *findings, size catalog.Size, lim Limits, vctx *Context) {
	for _, d := range []struct {
		field string
		v     float64
	}{{"size.width", size.Width}, {"size.height", size.Height}} {
		switch {
		case d.v < MinRelativeSize:
			f.add(Issue{
				Type:     SizeTooSmall,
				Severity: SeverityViolation,
				Field:    d.field,
				Message:  fmt.Sprintf("%s %.2f is below %.1f", d.field, d.v, MinRelativeSize),
				Current:  d.v,
				Min:      MinRelativeSize,
			})
		case d.v > MaxRelativeSize:
			f.add(Issue{
				Type:     SizeTooLarge,
				Severity: SeverityViolation,
				Field:    d.field,
				Message:  fmt.Sprintf("%s %.2f exceeds %.1f", d.field, d.v, MaxRelativeSize),
				Current:  d.v,
				Max:      MaxRelativeSize,
			})
		}
	}

	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	ratio := size.Width / size.Height
	if vctx != nil && vctx.CanvasWidth > 0 && vctx.CanvasHeight > 0 {
		ratio = (size.Width * vctx.CanvasWidth) / (size.Height * vctx.CanvasHeight)
	}
	if ratio < lim.MinAspect || ratio > lim.MaxAspect {
		f.add(Issue{
			Type:     AspectRatio,
			Severity: SeverityWarning,
			Field:    "size",
			Message:  fmt.Sprintf("aspect ratio %.2f outside [%.1f, %.1f]", ratio, lim.MinAspect, lim.MaxAspect),
			Ratio:    ratio,
			Min:      lim.MinAspect,
			Max:      lim.MaxAspect,
		})
	}
}

func checkColors(f *findings, c Colors) {
	parse := func(field, v string) (ok bool) {
		if v == "" {
			return false
		}
		if _, err := palette.Parse(v); err != nil {
			f.add(Issue{
				Type:     ColorInvalid,
				Severity: SeverityWarning,
				Field:    field,
				Message:  fmt.Sprintf("cannot parse colour %q", v),
			})
			return false
		}
		return true
	}
	bgOK := parse("colors.background", c.Background)
	textOK := parse("colors.text", c.Text)
	accentOK := parse("colors.accent", c.Accent)

	if bgOK && textOK {
		bg, text := palette.MustParse(c.Background), palette.MustParse(c.Text)
		ratio := palette.Contrast(bg, text)
		switch {
		case ratio < MinContrast:
			f.add(Issue{
				Type:     ContrastRatio,
				Severity: SeverityViolation,
				Field:    "colors",
				Message:  fmt.Sprintf("contrast %.2f:1 is below %.1f:1", ratio, MinContrast),
				Ratio:    ratio,
				Min:      MinContrast,
			})
		case ratio < EnhancedContrast:
			f.add(Issue{
				Type:     ContrastLow,
				Severity: SeverityWarning,
				Field:    "colors",
				Message:  fmt.Sprintf("contrast %.2f:1 is below the enhanced %.1f:1", ratio, EnhancedContrast),
				Ratio:    ratio,
				Min:      EnhancedContrast,
			})
		}
		if avoided(bg, text) {
			f.add(Issue{
				Type:     ColorCombination,
				Severity: SeverityWarning,
				Field:    "colors",
				Message:  fmt.Sprintf("%s on %s is a combination to avoid", c.Text, c.Background),
			})
		}
	}
	if bgOK && accentOK && avoided(palette.MustParse(c.Background), palette.MustParse(c.Accent)) {
		f.add(Issue{
			Type:     ColorCombination,
			Severity: SeverityWarning,
			Field:    "colors.accent",
			Message:  fmt.Sprintf("accent %s on %s is a combination to avoid", c.Accent, c.Background),
		})
	}
	for _, ch := range []struct {
		ok          bool
		field, name string
		value       string
	}{
		{bgOK, "colors.background", "background", c.Background},
		{textOK, "colors.text", "text", c.Text},
	} {
		if !ch.ok {
			continue
		}
		lum := palette.Luminance(palette.MustParse(ch.value))
		if lum < MinLuminance || lum > MaxLuminance {
			f.add(Issue{
				Type:     LuminanceRange,
				Severity: SeveritySuggestion,
				Field:    ch.field,
				Message:  fmt.Sprintf("%s luminance %.2f outside [%.1f, %.1f]", ch.name, lum, MinLuminance, MaxLuminance),
				Current:  lum,
				Min:      MinLuminance,
				Max:      MaxLuminance,
			})
		}
	}
}

func avoided(a, b color.RGBA) bool {
	for _, p := range avoidPairs {
		x, y := palette.MustParse(p[0]), palette.MustParse(p[1])
		if (palette.Distance(a, x) < AvoidDistance && palette.Distance(b, y) < AvoidDistance) ||
			(palette.Distance(a, y) < AvoidDistance && palette.Distance(b, x) < AvoidDistance) {
			return true
		}
	}
	return false
}

func checkLayout(f *findings, l Layout) {
	if l.Alignment != "" {
		ok := false
		for _, a := range alignments {
			if strings.EqualFold(l.Alignment, a) {
				ok = true
				break
			}
		}
		if !ok {
			f.add(Issue{
				Type:     AlignmentInvalid,
				Severity: SeverityViolation,
				Field:    "layout.alignment",
				Message:  fmt.Sprintf("alignment %q is not one of %s", l.Alignment, strings.Join(alignments, ", ")),
				Allowed:  append([]string(nil), alignments...),
			})
		}
	}
	if l.Margin != nil && *l.Margin < MinMargin {
		f.add(Issue{
			Type:     MarginTooSmall,
			Severity: SeverityWarning,
			Field:    "layout.margin",
			Message:  fmt.Sprintf("margin %.0fpx is below %.0fpx", *l.Margin, MinMargin),
			Current:  *l.Margin,
			Min:      MinMargin,
		})
	}
	if l.Spacing != nil && *l.Spacing < MinSpacing {
		f.add(Issue{
			Type:     SpacingTight,
			Severity: SeveritySuggestion,
			Field:    "layout.spacing",
			Message:  fmt.Sprintf("spacing %.0fpx is below %.0fpx", *l.Spacing, MinSpacing),
			Current:  *l.Spacing,
			Min:      MinSpacing,
		})
	}
}

func checkRequired(f *findings, t catalog.TemplateType, content catalog.Content) {
	missing := func(field string) {
		f.add(Issue{
			Type:     RequiredElementMissing,
			Severity: SeverityViolation,
			Field:    field,
			Message:  fmt.Sprintf("%s requires %s", t, field),
		})
	}
	if content.Kind() != t {
		missing("content." + t.String())
		return
	}
	switch c := content.(type) {
	case catalog.DialogContent:
		if strings.TrimSpace(c.Title) == "" {
			missing("content.title")
		}
	case catalog.TimelineContent:
		switch n := len(c.Years); {
		case n == 0:
			missing("content.years")
		case n < 2:
			f.add(Issue{
				Type:     InsufficientEvents,
				Severity: SeverityWarning,
				Field:    "content.events",
				Message:  fmt.Sprintf("timeline has %d event, want at least 2", n),
				Current:  float64(n),
				Min:      2,
			})
		}
	case catalog.SplitContent:
		if strings.TrimSpace(c.Left) == "" {
			missing("content.left")
		}
		if strings.TrimSpace(c.Right) == "" {
			missing("content.right")
		}
	case catalog.ChartContent:
		switch n := len(c.Data); {
		case n == 0:
			missing("content.data")
		case n < 2:
			f.add(Issue{
				Type:     InsufficientData,
				Severity: SeverityWarning,
				Field:    "content.data",
				Message:  fmt.Sprintf("chart has %d data point, want at least 2", n),
				Current:  float64(n),
				Min:      2,
			})
		}
	case catalog.EmphasisContent:
		if strings.TrimSpace(c.Title) == "" {
			missing("content.title")
		}
	}
}

func checkUX(f *findings, adj Adjustments) {
	if adj.TouchTargetSize != nil {
		v := *adj.TouchTargetSize
		switch {
		case v < MinTouchTarget:
			f.add(Issue{
				Type:     TouchTargetTooSmall,
				Severity: SeverityViolation,
				Field:    "touch_target_size",
				Message:  fmt.Sprintf("touch target %.0fpx is below %.0fpx", v, MinTouchTarget),
				Current:  v,
				Min:      MinTouchTarget,
			})
		case v < ComfortableTarget:
			f.add(Issue{
				Type:     TouchTargetSmall,
				Severity: SeverityWarning,
				Field:    "touch_target_size",
				Message:  fmt.Sprintf("touch target %.0fpx is below the comfortable %.0fpx", v, ComfortableTarget),
				Current:  v,
				Min:      ComfortableTarget,
			})
		}
	}
	if adj.LineLength != nil {
		n := *adj.LineLength
		switch {
		case n > MaxLineLength:
			f.add(Issue{
				Type:     LineTooLong,
				Severity: SeverityWarning,
				Field:    "line_length",
				Message:  fmt.Sprintf("line length %d exceeds %d characters", n, MaxLineLength),
				Current:  float64(n),
				Max:      MaxLineLength,
			})
		case n < MinLineLength:
			f.add(Issue{
				Type:     LineTooShort,
				Severity: SeveritySuggestion,
				Field:    "line_length",
				Message:  fmt.Sprintf("line length %d is below %d characters", n, MinLineLength),
				Current:  float64(n),
				Min:      MinLineLength,
			})
		}
	}
	if a := adj.Accessibility; a != nil {
		if strings.TrimSpace(a.AltText) == "" {
			f.add(Issue{
				Type:     AltTextMissing,
				Severity: SeverityViolation,
				Field:    "accessibility.alt_text",
				Message:  "alternative text is empty",
			})
		}
		if !a.FocusIndicator {
			f.add(Issue{
				Type:     FocusIndicatorMissing,
				Severity: SeverityWarning,
				Field:    "accessibility.focus_indicator",
				Message:  "no visible focus indicator",
			})
		}
	}
}

// score applies 100 - 20 per violation - 5 per warning, floored at 0.
func score(violations, warnings int) float64 {
	return math.Max(0, 100-20*float64(violations)-5*float64(warnings))
}
