package draw

import (
	"strings"
	"unicode"
)

// TextStyle bundles the text state set before each text draw.
type TextStyle struct {
	Font     Font
	Color    string
	Align    Align
	Baseline Baseline
}

func applyText(s Surface, st TextStyle) {
	s.SetFont(st.Font)
	s.SetFill(Color(st.Color))
	s.SetTextAlign(st.Align)
	s.SetTextBaseline(st.Baseline)
}

// Text draws a single line at (x,y).
func Text(s Surface, text string, x, y float64, st TextStyle) {
	if text == "" {
		return
	}
	applyText(s, st)
	s.FillText(text, x, y)
}

// WrappedText greedily wraps text into maxWidth and draws the lines starting
// at y, lineHeight apart. At most maxLines lines are drawn when maxLines > 0.
// It returns the number of lines drawn.
func WrappedText(s Surface, text string, x, y, maxWidth, lineHeight float64, maxLines int, st TextStyle) int {
	applyText(s, st)
	lines := WrapLines(s, text, maxWidth)
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	for i, line := range lines {
		s.FillText(line, x, y+float64(i)*lineHeight)
	}
	return len(lines)
}

// WrapLines splits text into lines no wider than maxWidth, measured with the
// surface's current font. Latin words and single CJK characters are the break
// units; a unit wider than maxWidth sits alone on its line. Newlines force a
// break.
func WrapLines(s Surface, text string, maxWidth float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		units := breakUnits(para)
		if len(units) == 0 {
			if strings.TrimSpace(para) == "" && len(lines) > 0 {
				lines = append(lines, "")
			}
			continue
		}
		var cur strings.Builder
		for _, u := range units {
			candidate := cur.String()
			if candidate != "" && u.spaced {
				candidate += " "
			}
			candidate += u.text
			if cur.Len() > 0 && maxWidth > 0 && s.MeasureText(candidate) > maxWidth {
				lines = append(lines, cur.String())
				cur.Reset()
				cur.WriteString(u.text)
				continue
			}
			cur.Reset()
			cur.WriteString(candidate)
		}
		if cur.Len() > 0 {
			lines = append(lines, cur.String())
		}
	}
	return lines
}

type unit struct {
	text   string
	spaced bool
}

func breakUnits(s string) []unit {
	var units []unit
	var word strings.Builder
	spaced := false
	flush := func() {
		if word.Len() > 0 {
			units = append(units, unit{text: word.String(), spaced: spaced})
			word.Reset()
			spaced = false
		}
	}
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()
			spaced = len(units) > 0
		case unicode.Is(unicode.Han, r) || unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
			flush()
			units = append(units, unit{text: string(r), spaced: spaced})
			spaced = false
		case unicode.Is(unicode.P, r) && word.Len() == 0 && len(units) > 0 && !spaced:
			// Punctuation right after a CJK rune sticks to it.
			units[len(units)-1].text += string(r)
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return units
}
