package catalog

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefault_AllTypes(t *testing.T) {
	c := Default()
	for _, tt := range Types() {
		cfg, ok := c.Get(tt)
		if !ok {
			t.Fatalf("Get(%s) missing", tt)
		}
		if cfg.Type != tt {
			t.Errorf("Get(%s).Type = %s", tt, cfg.Type)
		}
		if len(cfg.Keywords) == 0 {
			t.Errorf("%s has no keywords", tt)
		}
		if cfg.Uniqueness <= 0 || cfg.Uniqueness > 1 {
			t.Errorf("%s uniqueness = %f", tt, cfg.Uniqueness)
		}
		if cfg.Visual.Animation.Duration <= 0 {
			t.Errorf("%s animation duration = %v", tt, cfg.Visual.Animation.Duration)
		}
	}
}

func TestDefault_Singleton(t *testing.T) {
	if Default() != Default() {
		t.Error("Default should return the same catalog")
	}
}

func TestGet_Invalid(t *testing.T) {
	if _, ok := Default().Get(TemplateType(42)); ok {
		t.Error("Get(42) should fail")
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	c := Default()
	cfg := c.MustGet(DialogPopup)
	cfg.Keywords[0] = "mutated"
	cfg.Visual.Background.Colors[0] = "#000000"

	again := c.MustGet(DialogPopup)
	if again.Keywords[0] == "mutated" {
		t.Error("catalog keywords were mutated through a copy")
	}
	if again.Visual.Background.Colors[0] == "#000000" {
		t.Error("catalog background was mutated through a copy")
	}
}

func TestWithMethods_DoNotShare(t *testing.T) {
	base := Default().MustGet(ChartAnalysis)
	moved := base.WithPosition(PositionTopRight)
	if base.Visual.Position != PositionCenter {
		t.Errorf("base position = %s", base.Visual.Position)
	}
	if moved.Visual.Position != PositionTopRight {
		t.Errorf("moved position = %s", moved.Visual.Position)
	}

	recolored := base.WithColors("#1a1a1a", "#ffffff")
	if recolored.PrimaryBackground() != "#1a1a1a" {
		t.Errorf("background = %s", recolored.PrimaryBackground())
	}
	if recolored.Style.Title.Color != "#ffffff" || recolored.Style.Label.Color != "#ffffff" {
		t.Errorf("text colours not applied: %+v", recolored.Style)
	}
	if base.PrimaryBackground() != "#ffffff" {
		t.Errorf("base background changed to %s", base.PrimaryBackground())
	}

	recolored.Style.Palette[0] = "#000000"
	if Default().MustGet(ChartAnalysis).Style.Palette[0] == "#000000" {
		t.Error("palette shared with catalog")
	}

	resized := base.WithSize(Size{Width: 0.5, Height: 0.5})
	if resized.Visual.Size.Width != 0.5 || base.Visual.Size.Width != 0.7 {
		t.Errorf("WithSize: resized=%v base=%v", resized.Visual.Size, base.Visual.Size)
	}
}

func TestPriority(t *testing.T) {
	c := Default()
	want := []TemplateType{EmphasisFocus, ChartAnalysis, SplitScreen, TimelineDisplay, DialogPopup}
	got := c.Priority()
	if len(got) != len(want) {
		t.Fatalf("Priority len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Priority[%d] = %s, want %s", i, got[i], want[i])
		}
		if c.Rank(want[i]) != i {
			t.Errorf("Rank(%s) = %d, want %d", want[i], c.Rank(want[i]), i)
		}
	}
	got[0] = DialogPopup
	if c.Priority()[0] != EmphasisFocus {
		t.Error("Priority returned shared slice")
	}
}

func TestLookup(t *testing.T) {
	c := Default()
	tests := []struct {
		in   string
		want TemplateType
		ok   bool
	}{
		{"dialog-popup", DialogPopup, true},
		{"ChartAnalysis", ChartAnalysis, true},
		{"compare", SplitScreen, true},
		{"focus", EmphasisFocus, true},
		{"timln", TimelineDisplay, true},
		{"emph", EmphasisFocus, true},
		{"", DialogPopup, false},
		{"zzzz", DialogPopup, false},
	}
	for _, tt := range tests {
		got, ok := c.Lookup(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Lookup(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTemplateType_Text(t *testing.T) {
	for _, tt := range Types() {
		b, err := json.Marshal(tt)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", tt, err)
		}
		var back TemplateType
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", b, err)
		}
		if back != tt {
			t.Errorf("round trip %s -> %s", tt, back)
		}
	}
	if _, err := ParseTemplateType("sidebar"); err == nil {
		t.Error("ParseTemplateType(sidebar) should fail")
	}
}

func TestConfigs_YAML(t *testing.T) {
	out, err := yaml.Marshal(Default().Configs())
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	s := string(out)
	for _, want := range []string{"type: dialog-popup", "kind: radial-gradient", "easing: ease-in-out", "duration: 1.5s"} {
		if !strings.Contains(s, want) {
			t.Errorf("yaml missing %q", want)
		}
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Hello, World 2020 重要")
	want := []string{"hello", "world", "2020", "重", "要"}
	if len(got) != len(want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokens[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if len(Tokens("   ")) != 0 {
		t.Error("blank text should have no tokens")
	}
}

func TestFindSeparator(t *testing.T) {
	tests := []struct {
		in  string
		sep string
	}{
		{"A vs B", " vs "},
		{"A 对比 B vs C", " 对比 "},
		{"A VS. B", " VS. "},
		{"no separator", ""},
	}
	for _, tt := range tests {
		sep, _ := FindSeparator(tt.in)
		if sep != tt.sep {
			t.Errorf("FindSeparator(%q) = %q, want %q", tt.in, sep, tt.sep)
		}
	}
}

func TestMatch(t *testing.T) {
	c := Default()
	tests := []struct {
		tt   TemplateType
		text string
		want bool
	}{
		{DialogPopup, "重要提醒：明天下午3点开会", true},
		{TimelineDisplay, "公司2010年成立", true},
		{TimelineDisplay, "plain words", false},
		{SplitScreen, "传统方法 vs 创新方法", true},
		{SplitScreen, "nothing here", false},
		{ChartAnalysis, "A 30 B 40", true},
		{ChartAnalysis, "增长了 15%", true},
		{ChartAnalysis, "2010 2015 2020", false},
		{ChartAnalysis, "one 7", false},
		{EmphasisFocus, "Go now!", true},
		{EmphasisFocus, "calm sentence", false},
	}
	for _, tt := range tests {
		m := c.MustGet(tt.tt).Match(tt.text)
		if m.Triggered != tt.want {
			t.Errorf("%s.Match(%q) = %v, want %v (signals %v)", tt.tt, tt.text, m.Triggered, tt.want, m.Signals)
		}
	}
}

func TestEmptyContent(t *testing.T) {
	for _, tt := range Types() {
		c := EmptyContent(tt)
		if c.Kind() != tt {
			t.Errorf("EmptyContent(%s).Kind = %s", tt, c.Kind())
		}
		if !c.Empty() {
			t.Errorf("EmptyContent(%s) not empty", tt)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"重要提醒会议开始", 5, "重要..."},
		{"abcdef", 2, "ab"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
		if tt.max > 0 && RuneLen(got) > tt.max {
			t.Errorf("Truncate(%q, %d) length %d exceeds max", tt.in, tt.max, RuneLen(got))
		}
	}
}
