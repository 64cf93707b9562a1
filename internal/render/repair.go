package render

import (
	"fmt"

	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/classifier"
	"github.com/overhuman/overlay/internal/observability"
	"github.com/overhuman/overlay/internal/validator"
)

// Colours applied when text contrast fails.
const (
	RepairBackground = "#1a1a1a"
	RepairText       = "#ffffff"
)

// Repair records one auto-repair attempt.
type Repair struct {
	Issue  validator.IssueType `json:"issue"`
	Field  string              `json:"field"`
	Fixed  bool                `json:"fixed"`
	Detail string              `json:"detail,omitempty"`
}

// autoRepair applies the deterministic fix of every violation to sc and
// adj. Violations without a fix are logged and left in place.
func autoRepair(sc *scene, adj *validator.Adjustments, violations []validator.Issue, log *observability.Logger) []Repair {
	out := make([]Repair, 0, len(violations))
	for _, is := range violations {
		r := Repair{Issue: is.Type, Field: is.Field}

		switch is.Type {
		case validator.TextTooLong:
			var text string
			if adj.Text != nil {
				text = *adj.Text
			}
			text = catalog.Truncate(text, int(is.Limit))
			adj.Text = &text
			sc.content = classifier.Extract(sc.cfg.Type, text)
			r.Fixed = true
			r.Detail = fmt.Sprintf("truncated to %d characters", int(is.Limit))

		case validator.PositionInvalid:
			if len(is.Allowed) == 0 {
				break
			}
			p := catalog.Position(is.Allowed[0])
			sc.cfg = sc.cfg.WithPosition(p)
			adj.Position = &p
			// Explicit coordinates would still override the anchor.
			adj.Coordinates = nil
			sc.at = nil
			r.Fixed = true
			r.Detail = "moved to " + string(p)

		case validator.SizeTooSmall, validator.SizeTooLarge:
			bound := is.Min
			if is.Type == validator.SizeTooLarge {
				bound = is.Max
			}
			size := sc.cfg.Visual.Size
			switch is.Field {
			case "size.width":
				size.Width = bound
			case "size.height":
				size.Height = bound
			}
			sc.cfg = sc.cfg.WithSize(size)
			adj.Size = &size
			r.Fixed = true
			r.Detail = fmt.Sprintf("%s clamped to %.1f", is.Field, bound)

		case validator.ContrastRatio:
			sc.cfg = sc.cfg.WithColors(RepairBackground, RepairText)
			colors := validator.Colors{Background: RepairBackground, Text: RepairText}
			if adj.Colors != nil {
				colors.Accent = adj.Colors.Accent
			}
			adj.Colors = &colors
			r.Fixed = true
			r.Detail = fmt.Sprintf("background %s, text %s", RepairBackground, RepairText)
		}

		log.RepairEvent(string(is.Type), r.Fixed, "field", is.Field)
		out = append(out, r)
	}
	return out
}
