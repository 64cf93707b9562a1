package validator

import (
	"fmt"
	"strings"

	"github.com/overhuman/overlay/internal/catalog"
)

// Recommendation is a fixed remediation entry for one issue type.
type Recommendation struct {
	Issue       IssueType `json:"issue"`
	Priority    string    `json:"priority"`
	Category    string    `json:"category"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Hint        string    `json:"hint"`
}

// Report summarises a validation result for humans.
type Report struct {
	Template        catalog.TemplateType `json:"template"`
	Score           float64              `json:"score"`
	Compliant       bool                 `json:"compliant"`
	Violations      int                  `json:"violations"`
	Warnings        int                  `json:"warnings"`
	Suggestions     int                  `json:"suggestions"`
	Checked         []string             `json:"checked"`
	Recommendations []Recommendation     `json:"recommendations"`
}

var remediations = map[IssueType]Recommendation{
	TextTooLong:            {Priority: "high", Category: "content", Action: "shorten text", Description: "Text exceeds what the template can show legibly.", Hint: "Cut to the key message or pick a template with more room."},
	TextTooShort:           {Priority: "high", Category: "content", Action: "add text", Description: "The overlay has nothing to display.", Hint: "Provide at least one character of content."},
	InvalidCharacters:      {Priority: "medium", Category: "content", Action: "remove unsupported characters", Description: "Some characters may not render in the overlay fonts.", Hint: "Replace emoji and rare symbols with words."},
	PositionInvalid:        {Priority: "high", Category: "layout", Action: "move the overlay", Description: "The template does not support this anchor.", Hint: "Use one of the allowed positions."},
	PositionNearEdge:       {Priority: "medium", Category: "layout", Action: "add edge clearance", Description: "Content close to the frame edge can be cropped by players.", Hint: "Keep at least 20px from every edge."},
	SizeTooSmall:           {Priority: "high", Category: "layout", Action: "enlarge the overlay", Description: "The overlay is too small to read.", Hint: "Use at least 10% of the canvas in each direction."},
	SizeTooLarge:           {Priority: "high", Category: "layout", Action: "shrink the overlay", Description: "The overlay extends past the canvas.", Hint: "Keep width and height at or below 100%."},
	AspectRatio:            {Priority: "medium", Category: "layout", Action: "adjust proportions", Description: "The overlay shape does not suit this template.", Hint: "Bring width/height back into the template's range."},
	ContrastRatio:          {Priority: "high", Category: "accessibility", Action: "increase contrast", Description: "Text does not meet the 4.5:1 contrast minimum.", Hint: "Darken the background or lighten the text."},
	ContrastLow:            {Priority: "medium", Category: "accessibility", Action: "improve contrast", Description: "Text is below the enhanced 7:1 contrast level.", Hint: "Small text on video benefits from stronger contrast."},
	ColorCombination:       {Priority: "medium", Category: "design", Action: "change colour pairing", Description: "This pairing is hard to read for colour-blind viewers.", Hint: "Avoid red/green and saturated red/blue combinations."},
	AlignmentInvalid:       {Priority: "high", Category: "layout", Action: "fix alignment", Description: "Alignment value is not recognised.", Hint: "Use left, center, right or justify."},
	MarginTooSmall:         {Priority: "medium", Category: "layout", Action: "widen margins", Description: "Content is cramped against the overlay border.", Hint: "Use margins of at least 10px."},
	RequiredElementMissing: {Priority: "high", Category: "content", Action: "supply required content", Description: "A field the template needs is empty.", Hint: "Check the extracted title, sides, years or data."},
	InsufficientData:       {Priority: "medium", Category: "content", Action: "add data points", Description: "A chart with one value says little.", Hint: "Provide at least two figures."},
	InsufficientEvents:     {Priority: "medium", Category: "content", Action: "add events", Description: "A timeline with one event says little.", Hint: "Provide at least two dated events."},
	TouchTargetTooSmall:    {Priority: "high", Category: "accessibility", Action: "enlarge touch targets", Description: "Interactive areas are below 44px.", Hint: "Make targets at least 44x44px."},
	TouchTargetSmall:       {Priority: "low", Category: "accessibility", Action: "enlarge touch targets", Description: "Interactive areas are below the comfortable 48px.", Hint: "Prefer 48x48px targets."},
	LineTooLong:            {Priority: "medium", Category: "readability", Action: "shorten lines", Description: "Long lines are hard to follow.", Hint: "Keep lines under 80 characters."},
	AltTextMissing:         {Priority: "high", Category: "accessibility", Action: "add alt text", Description: "Screen readers cannot describe the overlay.", Hint: "Describe the overlay's message in one sentence."},
	FocusIndicatorMissing:  {Priority: "medium", Category: "accessibility", Action: "add focus indicator", Description: "Keyboard users cannot see what is focused.", Hint: "Draw a visible outline on focus."},
}

// GenerateComplianceReport maps the issues of res to remediation entries.
// Each issue type appears once; types without a remediation are skipped.
func GenerateComplianceReport(adj Adjustments, t catalog.TemplateType, res Result) Report {
	rep := Report{
		Template:        t,
		Score:           res.Score,
		Compliant:       res.IsValid,
		Violations:      len(res.Violations),
		Warnings:        len(res.Warnings),
		Suggestions:     len(res.Suggestions),
		Checked:         checkedFields(adj),
		Recommendations: []Recommendation{},
	}
	seen := map[IssueType]bool{}
	for _, is := range res.Issues() {
		if seen[is.Type] {
			continue
		}
		seen[is.Type] = true
		rec, ok := remediations[is.Type]
		if !ok {
			continue
		}
		rec.Issue = is.Type
		rep.Recommendations = append(rep.Recommendations, rec)
	}
	return rep
}

func checkedFields(adj Adjustments) []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(adj.Text != nil, "text")
	add(adj.Position != nil, "position")
	add(adj.Coordinates != nil, "coordinates")
	add(adj.Size != nil, "size")
	add(adj.Colors != nil, "colors")
	add(adj.Layout != nil, "layout")
	add(adj.TouchTargetSize != nil, "touch_target_size")
	add(adj.LineLength != nil, "line_length")
	add(adj.Accessibility != nil, "accessibility")
	if out == nil {
		out = []string{}
	}
	return out
}

// Markdown renders the report as a markdown document.
func (r Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Compliance report: %s\n\n", r.Template)
	status := "compliant"
	if !r.Compliant {
		status = "not compliant"
	}
	fmt.Fprintf(&b, "**Score:** %.0f/100 (%s)\n\n", r.Score, status)
	fmt.Fprintf(&b, "| Violations | Warnings | Suggestions |\n|---|---|---|\n| %d | %d | %d |\n\n",
		r.Violations, r.Warnings, r.Suggestions)
	if len(r.Checked) > 0 {
		fmt.Fprintf(&b, "Checked: %s\n\n", strings.Join(r.Checked, ", "))
	}
	if len(r.Recommendations) == 0 {
		b.WriteString("No recommendations.\n")
		return b.String()
	}
	b.WriteString("## Recommendations\n\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "- **[%s] %s** (`%s`, %s): %s %s\n",
			rec.Priority, rec.Action, rec.Issue, rec.Category, rec.Description, rec.Hint)
	}
	return b.String()
}
