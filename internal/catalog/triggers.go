package catalog

import "strings"

// Structural signals reported by Match.
const (
	SignalShortText   = "short-text"
	SignalYears       = "year-pattern"
	SignalSeparator   = "separator"
	SignalNumbers     = "numeric-pattern"
	SignalPercent     = "percent"
	SignalExclamation = "exclamation"
)

// ShortTextTokens is the token count at or below which text counts as short.
const ShortTextTokens = 30

// Match is the outcome of a template's trigger predicate on some text.
type Match struct {
	Type      TemplateType
	Triggered bool
	Keywords  []string
	Signals   []string
}

// Match evaluates the trigger predicate of c against text: keyword hits plus
// the structural signal characteristic of the template kind.
func (c TemplateConfig) Match(text string) Match {
	m := Match{Type: c.Type, Keywords: MatchKeywords(text, c.Keywords)}
	hasKeyword := len(m.Keywords) > 0

	switch c.Type {
	case DialogPopup:
		if len(Tokens(text)) <= ShortTextTokens {
			m.Signals = append(m.Signals, SignalShortText)
		}
		m.Triggered = hasKeyword || len(m.Signals) > 0

	case TimelineDisplay:
		if len(Years(text)) > 0 {
			m.Signals = append(m.Signals, SignalYears)
		}
		m.Triggered = hasKeyword || len(m.Signals) > 0

	case SplitScreen:
		if sep, _ := FindSeparator(text); sep != "" {
			m.Signals = append(m.Signals, SignalSeparator)
		}
		m.Triggered = hasKeyword || len(m.Signals) > 0

	case ChartAnalysis:
		var data, percents int
		for _, n := range Numbers(text) {
			switch {
			case IsPercent(n):
				percents++
				data++
			case !IsYear(n):
				data++
			}
		}
		if data >= 2 {
			m.Signals = append(m.Signals, SignalNumbers)
		}
		if percents > 0 {
			m.Signals = append(m.Signals, SignalPercent)
		}
		m.Triggered = data >= 2 || percents > 0 || (hasKeyword && data > 0)

	case EmphasisFocus:
		if strings.ContainsAny(text, "!！") {
			m.Signals = append(m.Signals, SignalExclamation)
		}
		m.Triggered = hasKeyword || len(m.Signals) > 0
	}
	return m
}
