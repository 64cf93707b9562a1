package classifier

import (
	"math"
	"strings"
	"time"

	"github.com/overhuman/overlay/internal/catalog"
)

// Confidence weights.
const (
	weightKeywords   = 0.4
	weightFeatures   = 0.3
	weightContext    = 0.2
	weightUniqueness = 0.1
)

// TieMargin is how close to the best confidence a candidate must be for the
// priority order to decide between them.
const TieMargin = 0.1

// Duration bands for the context factor.
const (
	shortVideo = 30 * time.Second
	longVideo  = 120 * time.Second
)

var (
	progressWords = []string{"发展", "历程", "阶段", "之后", "随后", "然后", "到", "从", "then", "later", "until", "after"}
	contrastWords = []string{"传统", "创新", "优势", "劣势", "相比", "不同", "而", "但是", "better", "worse", "old", "new"}
	dataWords     = []string{"数据", "统计", "占比", "比例", "增长", "下降", "提升", "倍", "亿", "万", "%", "％", "growth", "percent", "rate"}
	emphasisWords = []string{"重要", "关键", "核心", "一定", "务必", "必须", "记住", "强调", "key", "must", "important", "remember"}
)

// suitable maps a content type to the templates that fit it.
var suitable = map[string][]catalog.TemplateType{
	"educational": {catalog.TimelineDisplay, catalog.ChartAnalysis, catalog.SplitScreen},
	"marketing":   {catalog.EmphasisFocus, catalog.SplitScreen},
	"news":        {catalog.DialogPopup, catalog.TimelineDisplay},
	"data":        {catalog.ChartAnalysis},
	"story":       {catalog.TimelineDisplay, catalog.DialogPopup},
}

type candidate struct {
	match      catalog.Match
	confidence float64
}

func confidence(cfg catalog.TemplateConfig, m catalog.Match, text string, cctx *Context) float64 {
	var overlap float64
	if len(cfg.Keywords) > 0 {
		overlap = float64(len(m.Keywords)) / float64(len(cfg.Keywords))
	}
	c := weightKeywords*overlap +
		weightFeatures*featureScore(cfg.Type, text) +
		weightContext*contextScore(cfg.Type, cctx) +
		weightUniqueness*cfg.Uniqueness
	return clamp01(c)
}

// featureScore rates how well the structure of text suits t, in [0,1].
func featureScore(t catalog.TemplateType, text string) float64 {
	tokens := len(catalog.Tokens(text))
	switch t {
	case catalog.DialogPopup:
		switch {
		case tokens <= 10:
			return 1
		case tokens <= catalog.ShortTextTokens:
			return 0.7
		case tokens <= 60:
			return 0.4
		}
		return 0.1

	case catalog.TimelineDisplay:
		years := float64(len(catalog.Years(text)))
		s := years * 0.25
		if tokens > 0 {
			s += years / float64(tokens)
		}
		if len(catalog.MatchKeywords(text, progressWords)) > 0 {
			s += 0.2
		}
		return clamp01(s)

	case catalog.SplitScreen:
		var s float64
		if sep, _ := catalog.FindSeparator(text); sep != "" {
			s = 0.5
		}
		s += 0.1 * float64(len(catalog.MatchKeywords(text, contrastWords)))
		return clamp01(s)

	case catalog.ChartAnalysis:
		var data int
		for _, n := range catalog.Numbers(text) {
			if catalog.IsPercent(n) || !catalog.IsYear(n) {
				data++
			}
		}
		var density float64
		if tokens > 0 {
			density = math.Min(1, 3*float64(data)/float64(tokens))
		}
		var vocab float64
		if len(catalog.MatchKeywords(text, dataWords)) > 0 {
			vocab = 1
		}
		return clamp01(0.6*density + 0.4*vocab)

	case catalog.EmphasisFocus:
		var s float64
		if len(catalog.MatchKeywords(text, emphasisWords)) > 0 {
			s += 0.5
		}
		if tokens <= 20 {
			s += 0.3
		}
		if strings.ContainsAny(text, "!！") {
			s += 0.2
		}
		return clamp01(s)
	}
	return 0
}

// contextScore rates t against the viewing context, in [0,1].
func contextScore(t catalog.TemplateType, cctx *Context) float64 {
	s := 0.5
	if cctx == nil {
		return s
	}
	if cctx.PreviousTemplate != nil && *cctx.PreviousTemplate == t {
		s -= 0.2
	}
	if d := cctx.VideoDuration; d > 0 {
		switch {
		case d < shortVideo && (t == catalog.EmphasisFocus || t == catalog.DialogPopup):
			s += 0.1
		case d > longVideo && (t == catalog.TimelineDisplay || t == catalog.ChartAnalysis):
			s += 0.1
		}
	}
	if types, ok := suitable[strings.ToLower(strings.TrimSpace(cctx.ContentType))]; ok {
		fits := false
		for _, st := range types {
			if st == t {
				fits = true
				break
			}
		}
		if fits {
			s += 0.2
		} else {
			s -= 0.1
		}
	}
	return clamp01(s)
}

// rank orders candidates: repeatedly take the best remaining confidence m,
// then among those within TieMargin of m pick the highest catalog priority.
func rank(cands []candidate, cat *catalog.Catalog) []candidate {
	rest := append([]candidate(nil), cands...)

	out := make([]candidate, 0, len(rest))
	for len(rest) > 0 {
		m := rest[0].confidence
		for _, c := range rest[1:] {
			if c.confidence > m {
				m = c.confidence
			}
		}
		pick := -1
		for i, c := range rest {
			if c.confidence < m-TieMargin-1e-9 {
				continue
			}
			if pick < 0 || cat.Rank(c.match.Type) < cat.Rank(rest[pick].match.Type) {
				pick = i
			}
		}
		out = append(out, rest[pick])
		rest = append(rest[:pick], rest[pick+1:]...)
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
