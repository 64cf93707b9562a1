package classifier

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/overhuman/overlay/internal/catalog"
)

// Extract builds the structured content of template t from text. Empty
// text yields catalog.EmptyContent(t).
func Extract(t catalog.TemplateType, text string) catalog.Content {
	text = strings.TrimSpace(text)
	if text == "" {
		return catalog.EmptyContent(t)
	}
	switch t {
	case catalog.DialogPopup:
		return extractDialog(text)
	case catalog.TimelineDisplay:
		return extractTimeline(text)
	case catalog.SplitScreen:
		return extractSplit(text)
	case catalog.ChartAnalysis:
		return extractChart(text)
	case catalog.EmphasisFocus:
		return extractEmphasis(text)
	}
	return catalog.EmptyContent(t)
}

func extractDialog(text string) catalog.DialogContent {
	title, rest, _ := strings.Cut(text, "\n")
	return catalog.DialogContent{
		Title: strings.TrimSpace(title),
		Text:  strings.TrimSpace(rest),
	}
}

// extractTimeline pairs each year with the text that follows it up to the
// next year.
func extractTimeline(text string) catalog.TimelineContent {
	locs := catalog.YearPattern.FindAllStringIndex(text, -1)
	out := catalog.TimelineContent{
		Years:  make([]string, 0, len(locs)),
		Events: make([]string, 0, len(locs)),
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		event := strings.TrimSpace(text[loc[1]:end])
		event = strings.TrimPrefix(event, "年")
		out.Years = append(out.Years, text[loc[0]:loc[1]])
		out.Events = append(out.Events, strings.TrimFunc(event, isFiller))
	}
	return out
}

func extractSplit(text string) catalog.SplitContent {
	sep, at := catalog.FindSeparator(text)
	if sep == "" {
		return catalog.SplitContent{Left: text, Right: text}
	}
	return catalog.SplitContent{
		Left:  strings.TrimSpace(text[:at]),
		Right: strings.TrimSpace(text[at+len(sep):]),
	}
}

// extractChart reads every numeric or percent token as a value, years
// included. The text is cut at the same tokens: segment 0 is the title and
// segment i+1 labels value i, so a label holding a digit shifts the pairing.
func extractChart(text string) catalog.ChartContent {
	segments := catalog.NumberPattern.Split(text, -1)
	out := catalog.ChartContent{
		Title: strings.TrimFunc(segments[0], isFiller),
		Data:  []catalog.DataPoint{},
	}
	for i, raw := range catalog.Numbers(text) {
		v, err := strconv.ParseFloat(strings.TrimRight(raw, "%％"), 64)
		if err != nil {
			continue
		}
		label := ""
		if i+1 < len(segments) {
			label = strings.TrimFunc(segments[i+1], isFiller)
		}
		if label == "" {
			label = fmt.Sprintf("Item %d", i+1)
		}
		out.Data = append(out.Data, catalog.DataPoint{Label: label, Value: v, Display: raw})
	}
	return out
}

// extractEmphasis uses the first sentence as the title and the rest as the
// subtitle.
func extractEmphasis(text string) catalog.EmphasisContent {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return catalog.EmphasisContent{}
	}
	return catalog.EmphasisContent{
		Title:    sentences[0],
		Subtitle: strings.Join(sentences[1:], " "),
	}
}

// splitSentences splits after '.', '!' and '?'. A full stop between two
// digits is a decimal point, not a terminator.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.':
			if i > 0 && i+1 < len(text) && isDigit(text[i-1]) && isDigit(text[i+1]) {
				continue
			}
		case '!', '?':
		default:
			continue
		}
		if sentence := strings.TrimSpace(text[start:i]); sentence != "" {
			out = append(out, sentence)
		}
		start = i + 1
	}
	if sentence := strings.TrimSpace(text[start:]); sentence != "" {
		out = append(out, sentence)
	}
	return out
}

func isDigit(b byte) bool { return '0' <= b && b <= '9' }

func isFiller(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
