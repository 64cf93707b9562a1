package validator

import "github.com/overhuman/overlay/internal/catalog"

// Severity grades an issue. Violations make a result invalid, warnings only
// lower its score and suggestions are informational.
type Severity string

const (
	SeverityViolation  Severity = "violation"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// IssueType identifies the rule that produced an issue.
type IssueType string

const (
	TextTooLong            IssueType = "TEXT_TOO_LONG"
	TextTooShort           IssueType = "TEXT_TOO_SHORT"
	InvalidCharacters      IssueType = "INVALID_CHARACTERS"
	LowDiversity           IssueType = "LOW_DIVERSITY"
	PositionInvalid        IssueType = "POSITION_INVALID"
	PositionNearEdge       IssueType = "POSITION_NEAR_EDGE"
	SizeTooSmall           IssueType = "SIZE_TOO_SMALL"
	SizeTooLarge           IssueType = "SIZE_TOO_LARGE"
	AspectRatio            IssueType = "ASPECT_RATIO"
	ContrastRatio          IssueType = "CONTRAST_RATIO"
	ContrastLow            IssueType = "CONTRAST_LOW"
	ColorCombination       IssueType = "COLOR_COMBINATION"
	LuminanceRange         IssueType = "LUMINANCE_RANGE"
	ColorInvalid           IssueType = "COLOR_INVALID"
	AlignmentInvalid       IssueType = "ALIGNMENT_INVALID"
	MarginTooSmall         IssueType = "MARGIN_TOO_SMALL"
	SpacingTight           IssueType = "SPACING_TIGHT"
	RequiredElementMissing IssueType = "REQUIRED_ELEMENT_MISSING"
	InsufficientData       IssueType = "INSUFFICIENT_DATA"
	InsufficientEvents     IssueType = "INSUFFICIENT_EVENTS"
	TouchTargetTooSmall    IssueType = "TOUCH_TARGET_TOO_SMALL"
	TouchTargetSmall       IssueType = "TOUCH_TARGET_SMALL"
	LineTooLong            IssueType = "LINE_TOO_LONG"
	LineTooShort           IssueType = "LINE_TOO_SHORT"
	AltTextMissing         IssueType = "ALT_TEXT_MISSING"
	FocusIndicatorMissing  IssueType = "FOCUS_INDICATOR_MISSING"
)

// Issue is one rule finding. Bound fields are set when they apply to the
// rule; Limit on TEXT_TOO_LONG and Min/Max on SIZE_* drive auto-repair.
type Issue struct {
	Type     IssueType `json:"type"`
	Severity Severity  `json:"severity"`
	Field    string    `json:"field"`
	Message  string    `json:"message"`
	Limit    float64   `json:"limit,omitempty"`
	Current  float64   `json:"current,omitempty"`
	Min      float64   `json:"min,omitempty"`
	Max      float64   `json:"max,omitempty"`
	Allowed  []string  `json:"allowed,omitempty"`
	Ratio    float64   `json:"ratio,omitempty"`
}

// Result is the outcome of one validation.
type Result struct {
	IsValid     bool    `json:"is_valid"`
	Violations  []Issue `json:"violations"`
	Warnings    []Issue `json:"warnings"`
	Suggestions []Issue `json:"suggestions"`
	Score       float64 `json:"score"`
}

// Point is an absolute canvas coordinate in pixels.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Colors overrides template colours. Empty strings are not checked.
type Colors struct {
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
	Accent     string `json:"accent,omitempty" yaml:"accent,omitempty"`
}

// Layout overrides spacing. Nil numbers are not checked.
type Layout struct {
	Alignment string   `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	Margin    *float64 `json:"margin,omitempty" yaml:"margin,omitempty"`
	Spacing   *float64 `json:"spacing,omitempty" yaml:"spacing,omitempty"`
}

// Accessibility declares assistive features of the overlay.
type Accessibility struct {
	AltText        string `json:"alt_text" yaml:"alt_text"`
	FocusIndicator bool   `json:"focus_indicator" yaml:"focus_indicator"`
}

// Adjustments are caller overrides to validate. Nil fields are skipped.
type Adjustments struct {
	Text            *string           `json:"text,omitempty" yaml:"text,omitempty"`
	Position        *catalog.Position `json:"position,omitempty" yaml:"position,omitempty"`
	Coordinates     *Point            `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Size            *catalog.Size     `json:"size,omitempty" yaml:"size,omitempty"`
	Colors          *Colors           `json:"colors,omitempty" yaml:"colors,omitempty"`
	Layout          *Layout           `json:"layout,omitempty" yaml:"layout,omitempty"`
	TouchTargetSize *float64          `json:"touch_target_size,omitempty" yaml:"touch_target_size,omitempty"`
	LineLength      *int              `json:"line_length,omitempty" yaml:"line_length,omitempty"`
	Accessibility   *Accessibility    `json:"accessibility,omitempty" yaml:"accessibility,omitempty"`
}

// Clone returns a deep copy of a.
func (a Adjustments) Clone() Adjustments {
	out := a
	if a.Text != nil {
		s := *a.Text
		out.Text = &s
	}
	if a.Position != nil {
		p := *a.Position
		out.Position = &p
	}
	if a.Coordinates != nil {
		c := *a.Coordinates
		out.Coordinates = &c
	}
	if a.Size != nil {
		s := *a.Size
		out.Size = &s
	}
	if a.Colors != nil {
		c := *a.Colors
		out.Colors = &c
	}
	if a.Layout != nil {
		l := *a.Layout
		if a.Layout.Margin != nil {
			m := *a.Layout.Margin
			l.Margin = &m
		}
		if a.Layout.Spacing != nil {
			s := *a.Layout.Spacing
			l.Spacing = &s
		}
		out.Layout = &l
	}
	if a.TouchTargetSize != nil {
		v := *a.TouchTargetSize
		out.TouchTargetSize = &v
	}
	if a.LineLength != nil {
		v := *a.LineLength
		out.LineLength = &v
	}
	if a.Accessibility != nil {
		v := *a.Accessibility
		out.Accessibility = &v
	}
	return out
}

// Context carries what the rules need beyond the adjustments. Content
// enables the required-element rules; canvas size enables the far-edge
// proximity checks and absolute aspect ratios.
type Context struct {
	Content      catalog.Content
	CanvasWidth  float64
	CanvasHeight float64
}
