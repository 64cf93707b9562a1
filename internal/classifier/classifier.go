// Package classifier picks the overlay template that best fits a piece of
// text. Classification is heuristic: trigger predicates select candidates,
// a weighted confidence ranks them and a priority order breaks near-ties.
// It never fails; unmatched or empty input falls back to a dialog popup.
package classifier

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pemistahl/lingua-go"

	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/observability"
)

// DefaultConfidence is reported when no template matches.
const DefaultConfidence = 0.5

// MaxAlternatives bounds Result.Alternatives.
const MaxAlternatives = 2

// Context is optional information about where the overlay will be shown.
type Context struct {
	PreviousTemplate *catalog.TemplateType `json:"previous_template,omitempty"`
	VideoDuration    time.Duration         `json:"video_duration,omitempty"`
	// ContentType is one of educational, marketing, news, data, story.
	ContentType string       `json:"content_type,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`
}

// Constraints restrict the chosen configuration. Zero fields are ignored.
type Constraints struct {
	MaxSize          *catalog.Size      `json:"max_size,omitempty"`
	AllowedPositions []catalog.Position `json:"allowed_positions,omitempty"`
	MaxLength        int                `json:"max_length,omitempty"`
}

// Alternative is a runner-up template.
type Alternative struct {
	Type       catalog.TemplateType `json:"type"`
	Confidence float64              `json:"confidence"`
}

// Metadata describes the processed text.
type Metadata struct {
	Length     int    `json:"length"`
	TokenCount int    `json:"token_count"`
	Language   string `json:"language"`
	Years      int    `json:"years"`
	Numbers    int    `json:"numbers"`
	Separator  string `json:"separator,omitempty"`
	Truncated  bool   `json:"truncated"`
}

// ParsedContent is the text after constraints plus its structured form.
type ParsedContent struct {
	OriginalContent  string          `json:"original_content"`
	ProcessedContent string          `json:"processed_content"`
	Metadata         Metadata        `json:"metadata"`
	Content          catalog.Content `json:"content"`
}

// Result is the outcome of one classification.
type Result struct {
	Type         catalog.TemplateType   `json:"type"`
	Config       catalog.TemplateConfig `json:"config"`
	Confidence   float64                `json:"confidence"`
	Reason       string                 `json:"reason"`
	Alternatives []Alternative          `json:"alternatives"`
	Content      ParsedContent          `json:"content"`
}

// LanguageDetector is the subset of lingua.LanguageDetector the classifier uses.
type LanguageDetector interface {
	DetectLanguageOf(text string) (lingua.Language, bool)
}

// Dependencies are the optional collaborators of a Classifier.
type Dependencies struct {
	Catalog  *catalog.Catalog
	Logger   *observability.Logger
	Detector LanguageDetector
}

// Classifier is stateless apart from its collaborators and safe for
// concurrent use.
type Classifier struct {
	deps         Dependencies
	detectorOnce sync.Once
}

// New creates a Classifier. A nil Catalog means catalog.Default(); a nil
// Detector is built lazily on first use.
func New(deps Dependencies) *Classifier {
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	return &Classifier{deps: deps}
}

var (
	defaultDetector     LanguageDetector
	defaultDetectorOnce sync.Once
)

func (c *Classifier) detector() LanguageDetector {
	c.detectorOnce.Do(func() {
		if c.deps.Detector != nil {
			return
		}
		defaultDetectorOnce.Do(func() {
			defaultDetector = lingua.NewLanguageDetectorBuilder().
				FromLanguages(lingua.English, lingua.Chinese).
				Build()
		})
		c.deps.Detector = defaultDetector
	})
	return c.deps.Detector
}

// Classify selects a template for content. cctx may be nil.
func (c *Classifier) Classify(content string, cctx *Context) Result {
	if strings.TrimSpace(content) == "" {
		return c.fallback(content, cctx, "empty content")
	}

	var cands []candidate
	for _, cfg := range c.deps.Catalog.Configs() {
		m := cfg.Match(content)
		if !m.Triggered {
			continue
		}
		cands = append(cands, candidate{
			match:      m,
			confidence: confidence(cfg, m, content, cctx),
		})
	}
	if len(cands) == 0 {
		return c.fallback(content, cctx, "no template matched")
	}

	ranked := rank(cands, c.deps.Catalog)
	best := ranked[0]
	cfg := c.deps.Catalog.MustGet(best.match.Type)

	res := Result{
		Type:         best.match.Type,
		Confidence:   best.confidence,
		Reason:       reason(best.match),
		Alternatives: []Alternative{},
	}
	for _, alt := range ranked[1:] {
		if len(res.Alternatives) == MaxAlternatives {
			break
		}
		res.Alternatives = append(res.Alternatives, Alternative{Type: alt.match.Type, Confidence: alt.confidence})
	}
	res.Config, res.Content = c.finish(cfg, content, cctx)

	c.deps.Logger.Debug("classified",
		"template", res.Type.String(),
		"confidence", res.Confidence,
		"candidates", len(cands),
	)
	return res
}

// ClassifyAs builds a result for a caller-chosen template. Confidence is the
// score t would have received, or 0 when its trigger does not fire. ok is
// false when t is not a catalog type.
func (c *Classifier) ClassifyAs(t catalog.TemplateType, content string, cctx *Context) (res Result, ok bool) {
	cfg, ok := c.deps.Catalog.Get(t)
	if !ok {
		return Result{}, false
	}
	res = Result{
		Type:         t,
		Reason:       "requested " + t.String(),
		Alternatives: []Alternative{},
	}
	if m := cfg.Match(content); m.Triggered {
		res.Confidence = confidence(cfg, m, content, cctx)
		res.Reason = reason(m) + "; requested"
	}
	res.Config, res.Content = c.finish(cfg, content, cctx)
	return res, true
}

func (c *Classifier) fallback(content string, cctx *Context, why string) Result {
	cfg := c.deps.Catalog.MustGet(catalog.DialogPopup)
	res := Result{
		Type:         catalog.DialogPopup,
		Confidence:   DefaultConfidence,
		Reason:       why + "; defaulting to " + catalog.DialogPopup.String(),
		Alternatives: []Alternative{},
	}
	res.Config, res.Content = c.finish(cfg, content, cctx)
	if strings.TrimSpace(content) == "" {
		res.Content.Content = catalog.EmptyContent(catalog.DialogPopup)
	}
	c.deps.Logger.Debug("classification fallback", "reason", why)
	return res
}

// finish applies caller constraints to a copy of cfg and extracts the
// structured content from the processed text.
func (c *Classifier) finish(cfg catalog.TemplateConfig, content string, cctx *Context) (catalog.TemplateConfig, ParsedContent) {
	var cons *Constraints
	if cctx != nil {
		cons = cctx.Constraints
	}
	cfg = applyConstraints(cfg, cons)

	processed := content
	if cons != nil && cons.MaxLength > 0 {
		processed = catalog.Truncate(content, cons.MaxLength)
	}

	sep, _ := catalog.FindSeparator(processed)
	pc := ParsedContent{
		OriginalContent:  content,
		ProcessedContent: processed,
		Metadata: Metadata{
			Length:     catalog.RuneLen(processed),
			TokenCount: len(catalog.Tokens(processed)),
			Language:   c.language(processed),
			Years:      len(catalog.Years(processed)),
			Numbers:    len(catalog.Numbers(processed)),
			Separator:  sep,
			Truncated:  processed != content,
		},
		Content: Extract(cfg.Type, processed),
	}
	return cfg, pc
}

// language returns an ISO 639-1 code, or "und" when undetermined.
func (c *Classifier) language(text string) string {
	if strings.TrimSpace(text) == "" {
		return "und"
	}
	lang, ok := c.detector().DetectLanguageOf(text)
	if !ok {
		return "und"
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

func reason(m catalog.Match) string {
	parts := []string{"matched " + m.Type.String()}
	if len(m.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("keywords [%s]", strings.Join(m.Keywords, ", ")))
	}
	if len(m.Signals) > 0 {
		parts = append(parts, fmt.Sprintf("patterns [%s]", strings.Join(m.Signals, ", ")))
	}
	return strings.Join(parts, "; ")
}

// ContentFrom converts a host payload into classifiable text. Strings pass
// through, Stringers are formatted and everything else becomes "".
func ContentFrom(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	}
	return ""
}
