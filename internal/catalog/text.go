package catalog

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// YearPattern matches four-digit years 1900-2099.
	YearPattern = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	// NumberPattern matches integers, decimals and percentages.
	NumberPattern = regexp.MustCompile(`\d+(?:\.\d+)?[%％]?`)
)

// SplitSeparators are the comparison separators, in lookup order.
var SplitSeparators = []string{" vs ", " VS ", " 对比 ", " 比较 ", " vs. ", " VS. "}

// Tokens splits s into lower-cased units: runs of letters/digits form one
// token and every CJK ideograph is a token of its own.
func Tokens(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// RuneLen is the length of s in characters.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// MatchKeywords returns the keywords contained in text, case-insensitively,
// in keyword order.
func MatchKeywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			matched = append(matched, k)
		}
	}
	return matched
}

// Years returns every year token in s, in order of appearance.
func Years(s string) []string {
	return YearPattern.FindAllString(s, -1)
}

// Numbers returns every numeric or percent token in s.
func Numbers(s string) []string {
	return NumberPattern.FindAllString(s, -1)
}

// IsPercent reports whether a numeric token carries a percent sign.
func IsPercent(tok string) bool {
	return strings.HasSuffix(tok, "%") || strings.HasSuffix(tok, "％")
}

// IsYear reports whether a numeric token is a bare year.
func IsYear(tok string) bool {
	return YearPattern.MatchString(tok) && len(tok) == 4
}

// FindSeparator returns the comparison separator that occurs earliest in s
// and its byte offset, or ("", -1).
func FindSeparator(s string) (string, int) {
	best, at := "", -1
	for _, sep := range SplitSeparators {
		if i := strings.Index(s, sep); i >= 0 && (at < 0 || i < at) {
			best, at = sep, i
		}
	}
	return best, at
}

// Ellipsis marks truncated text.
const Ellipsis = "..."

// Truncate shortens s to at most max characters, ending it with Ellipsis
// when there is room for it. A non-positive max leaves s unchanged.
func Truncate(s string, max int) string {
	if max <= 0 || RuneLen(s) <= max {
		return s
	}
	r := []rune(s)
	if max <= len(Ellipsis) {
		return string(r[:max])
	}
	return strings.TrimRightFunc(string(r[:max-len(Ellipsis)]), unicode.IsSpace) + Ellipsis
}
