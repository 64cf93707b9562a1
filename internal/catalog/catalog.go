package catalog

import (
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/overhuman/overlay/internal/anim"
)

// Catalog is the read-only set of template configurations. Accessors return
// copies, so callers can never mutate a catalog entry.
type Catalog struct {
	entries  [numTypes]TemplateConfig
	priority []TemplateType
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the process-wide catalog, built on first use.
func Default() *Catalog {
	defaultOnce.Do(func() { defaultCat = build() })
	return defaultCat
}

// Get returns the configuration of t.
func (c *Catalog) Get(t TemplateType) (TemplateConfig, bool) {
	if !t.Valid() {
		return TemplateConfig{}, false
	}
	return c.entries[t].clone(), true
}

// MustGet is Get for types known to be valid.
func (c *Catalog) MustGet(t TemplateType) TemplateConfig {
	cfg, ok := c.Get(t)
	if !ok {
		panic("catalog: invalid template type " + t.String())
	}
	return cfg
}

// Configs returns every configuration in declaration order.
func (c *Catalog) Configs() []TemplateConfig {
	out := make([]TemplateConfig, 0, numTypes)
	for _, e := range c.entries {
		out = append(out, e.clone())
	}
	return out
}

// Priority returns the tie-break order, highest priority first.
func (c *Catalog) Priority() []TemplateType {
	return append([]TemplateType(nil), c.priority...)
}

// Rank is the position of t in the priority order; lower wins ties.
func (c *Catalog) Rank(t TemplateType) int {
	for i, p := range c.priority {
		if p == t {
			return i
		}
	}
	return len(c.priority)
}

var aliases = map[string]TemplateType{
	"dialog":   DialogPopup,
	"popup":    DialogPopup,
	"timeline": TimelineDisplay,
	"history":  TimelineDisplay,
	"split":    SplitScreen,
	"compare":  SplitScreen,
	"chart":    ChartAnalysis,
	"data":     ChartAnalysis,
	"emphasis": EmphasisFocus,
	"focus":    EmphasisFocus,
}

// Lookup resolves a user-typed template name: exact name, alias, then the
// best fuzzy match against the canonical names.
func (c *Catalog) Lookup(name string) (TemplateType, bool) {
	if t, err := ParseTemplateType(name); err == nil {
		return t, true
	}
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return DialogPopup, false
	}
	if t, ok := aliases[key]; ok {
		return t, true
	}
	names := make([]string, 0, numTypes)
	for _, t := range Types() {
		names = append(names, t.String())
	}
	matches := fuzzy.Find(key, names)
	if len(matches) == 0 {
		return DialogPopup, false
	}
	return Types()[matches[0].Index], true
}

const sans = "Helvetica, Arial, \"PingFang SC\", \"Microsoft YaHei\", sans-serif"

func build() *Catalog {
	c := &Catalog{
		priority: []TemplateType{EmphasisFocus, ChartAnalysis, SplitScreen, TimelineDisplay, DialogPopup},
	}

	c.entries[DialogPopup] = TemplateConfig{
		Type:        DialogPopup,
		Name:        "Dialog Popup",
		Description: "Rounded callout box for short notices and reminders",
		Keywords:    []string{"提醒", "注意", "提示", "重要", "通知", "警告", "会议", "tip", "note", "notice", "reminder", "warning"},
		Uniqueness:  0.4,
		Visual: VisualSpec{
			Position:     PositionCenter,
			Size:         Size{Width: 0.4, Height: 0.3},
			Shape:        ShapeRoundedRect,
			CornerRadius: 16,
			Padding:      32,
			Background:   Background{Kind: BackgroundSolid, Colors: []string{"#ffffff"}, Opacity: 0.95},
			Border:       Border{Color: "#e0e0e0", Width: 1},
			Shadow:       Shadow{Color: "rgba(0,0,0,0.25)", Blur: 20, OffsetY: 8},
			Animation:    AnimationSpec{Kind: FadeInScale, Duration: 500 * time.Millisecond, Easing: anim.EaseOut},
		},
		Style: ContentStyle{
			Title:  TextStyle{FontFamily: sans, FontSize: 32, FontWeight: "bold", Color: "#1a1a1a", LineHeight: 1.3},
			Body:   TextStyle{FontFamily: sans, FontSize: 24, FontWeight: "normal", Color: "#333333", LineHeight: 1.5},
			Accent: "#2563eb",
		},
	}

	c.entries[TimelineDisplay] = TemplateConfig{
		Type:        TimelineDisplay,
		Name:        "Timeline Display",
		Description: "Horizontal timeline with year markers and event labels",
		Keywords:    []string{"年", "历程", "历史", "发展", "阶段", "成立", "发布", "上市", "timeline", "history", "milestone", "since"},
		Uniqueness:  0.6,
		Visual: VisualSpec{
			Position:     PositionBottom,
			Size:         Size{Width: 0.9, Height: 0.25},
			Shape:        ShapeRect,
			CornerRadius: 8,
			Padding:      24,
			Background:   Background{Kind: BackgroundLinearGradient, Colors: []string{"#1e293b", "#334155"}, Opacity: 0.9},
			Animation:    AnimationSpec{Kind: ProgressBar, Duration: 1500 * time.Millisecond, Easing: anim.EaseInOut},
		},
		Style: ContentStyle{
			Label:  TextStyle{FontFamily: sans, FontSize: 28, FontWeight: "bold", Color: "#fbbf24", LineHeight: 1.2},
			Body:   TextStyle{FontFamily: sans, FontSize: 20, FontWeight: "normal", Color: "#f1f5f9", LineHeight: 1.4},
			Accent: "#38bdf8",
		},
	}

	c.entries[SplitScreen] = TemplateConfig{
		Type:        SplitScreen,
		Name:        "Split Screen",
		Description: "Two side-by-side panels for comparisons",
		Keywords:    []string{"vs", "对比", "比较", "相比", "传统", "创新", "优势", "劣势", "before", "after", "versus", "compare"},
		Uniqueness:  0.7,
		Visual: VisualSpec{
			Position:     PositionCenter,
			Size:         Size{Width: 0.9, Height: 0.6},
			Shape:        ShapeRoundedRect,
			CornerRadius: 12,
			Padding:      32,
			Background:   Background{Kind: BackgroundSolid, Colors: []string{"#0f172a"}, Opacity: 0.9},
			Border:       Border{Color: "#475569", Width: 2},
			Animation:    AnimationSpec{Kind: SlideInSync, Duration: 800 * time.Millisecond, Easing: anim.EaseOut},
		},
		Style: ContentStyle{
			Title:   TextStyle{FontFamily: sans, FontSize: 32, FontWeight: "bold", Color: "#f8fafc", LineHeight: 1.3},
			Body:    TextStyle{FontFamily: sans, FontSize: 22, FontWeight: "normal", Color: "#cbd5e1", LineHeight: 1.5},
			Accent:  "#94a3b8",
			Palette: []string{"#f87171", "#4ade80"},
		},
	}

	c.entries[ChartAnalysis] = TemplateConfig{
		Type:        ChartAnalysis,
		Name:        "Chart Analysis",
		Description: "Bar chart of the figures found in the text",
		Keywords:    []string{"数据", "增长", "下降", "提升", "占比", "比例", "统计", "百分比", "data", "growth", "percent", "rate"},
		Uniqueness:  0.8,
		Visual: VisualSpec{
			Position:     PositionCenter,
			Size:         Size{Width: 0.7, Height: 0.6},
			Shape:        ShapeRoundedRect,
			CornerRadius: 12,
			Padding:      32,
			Background:   Background{Kind: BackgroundSolid, Colors: []string{"#ffffff"}, Opacity: 0.95},
			Shadow:       Shadow{Color: "rgba(0,0,0,0.2)", Blur: 16, OffsetY: 6},
			Animation:    AnimationSpec{Kind: DataAnimation, Duration: 1200 * time.Millisecond, Easing: anim.EaseOut},
		},
		Style: ContentStyle{
			Title:   TextStyle{FontFamily: sans, FontSize: 30, FontWeight: "bold", Color: "#111827", LineHeight: 1.3},
			Label:   TextStyle{FontFamily: sans, FontSize: 18, FontWeight: "normal", Color: "#374151", LineHeight: 1.3},
			Value:   TextStyle{FontFamily: sans, FontSize: 18, FontWeight: "bold", Color: "#111827", LineHeight: 1.3},
			Accent:  "#3b82f6",
			Palette: []string{"#3b82f6", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6"},
		},
	}

	c.entries[EmphasisFocus] = TemplateConfig{
		Type:        EmphasisFocus,
		Name:        "Emphasis Focus",
		Description: "Full-frame statement with centred headline",
		Keywords:    []string{"关键", "核心", "强调", "总结", "结论", "记住", "必须", "key", "core", "summary", "conclusion", "highlight"},
		Uniqueness:  0.9,
		Visual: VisualSpec{
			Position:   PositionCenter,
			Size:       Size{Width: 1, Height: 1},
			Shape:      ShapeFullScreen,
			Padding:    80,
			Background: Background{Kind: BackgroundRadialGradient, Colors: []string{"#7c3aed", "#1e1b4b"}, Opacity: 1},
			Animation:  AnimationSpec{Kind: FadeInText, Duration: time.Second, Easing: anim.EaseInOut},
		},
		Style: ContentStyle{
			Title:  TextStyle{FontFamily: sans, FontSize: 64, FontWeight: "bold", Color: "#ffffff", LineHeight: 1.2},
			Body:   TextStyle{FontFamily: sans, FontSize: 32, FontWeight: "normal", Color: "#e9d5ff", LineHeight: 1.4},
			Accent: "#c4b5fd",
		},
	}

	return c
}
