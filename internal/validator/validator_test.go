package validator

import (
	"reflect"
	"strings"
	"testing"

	"github.com/overhuman/overlay/internal/catalog"
)

func ptr[T any](v T) *T { return &v }

func types(issues []Issue) []IssueType {
	out := make([]IssueType, len(issues))
	for i, is := range issues {
		out[i] = is.Type
	}
	return out
}

func find(t *testing.T, r Result, it IssueType) Issue {
	t.Helper()
	for _, is := range r.Issues() {
		if is.Type == it {
			return is
		}
	}
	t.Fatalf("issue %s not found in %v", it, types(r.Issues()))
	return Issue{}
}

func TestValidate_Empty(t *testing.T) {
	res := New(nil).Validate(Adjustments{}, catalog.DialogPopup, nil)
	if !res.IsValid || res.Score != 100 {
		t.Errorf("empty adjustments = valid %v score %v", res.IsValid, res.Score)
	}
	if res.Violations == nil || res.Warnings == nil || res.Suggestions == nil {
		t.Error("issue lists should be non-nil")
	}
}

func TestValidate_ZeroValueValidator(t *testing.T) {
	var v *Validator
	res := v.Validate(Adjustments{Text: ptr("hi")}, catalog.DialogPopup, nil)
	if !res.IsValid {
		t.Errorf("nil validator result = %+v", res)
	}
}

func TestValidate_Text(t *testing.T) {
	tests := []struct {
		name string
		t    catalog.TemplateType
		text string
		want []IssueType
	}{
		{"fits", catalog.DialogPopup, "会议三点开始", nil},
		{"emphasis limit", catalog.EmphasisFocus, strings.Repeat("字", 81), []IssueType{TextTooLong, LowDiversity}},
		{"dialog allows 200", catalog.DialogPopup, strings.Repeat("ab ", 66), []IssueType{LowDiversity}},
		{"empty", catalog.DialogPopup, "", []IssueType{TextTooShort}},
		{"emoji", catalog.DialogPopup, "上线啦 🎉", []IssueType{InvalidCharacters}},
		{"punctuation ok", catalog.DialogPopup, "注意：「会议」(3点) 开始！100% ok?", nil},
	}
	v := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(Adjustments{Text: ptr(tt.text)}, tt.t, nil)
			got := types(res.Issues())
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("issues = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate_TextTooLongLimit(t *testing.T) {
	res := New(nil).Validate(Adjustments{Text: ptr(strings.Repeat("a", 250))}, catalog.SplitScreen, nil)
	is := find(t, res, TextTooLong)
	if is.Limit != 240 || is.Current != 250 {
		t.Errorf("limit/current = %v/%v, want 240/250", is.Limit, is.Current)
	}
}

func TestValidate_InvalidPosition(t *testing.T) {
	res := New(nil).Validate(Adjustments{Position: ptr(catalog.PositionTopLeft)}, catalog.SplitScreen, nil)
	if res.IsValid {
		t.Fatal("top-left split screen should be invalid")
	}
	is := find(t, res, PositionInvalid)
	if !reflect.DeepEqual(is.Allowed, []string{"center"}) {
		t.Errorf("Allowed = %v", is.Allowed)
	}
	if res.Score != 80 {
		t.Errorf("Score = %v, want 80", res.Score)
	}
}

func TestValidate_NearEdge(t *testing.T) {
	v := New(nil)
	canvas := &Context{CanvasWidth: 1920, CanvasHeight: 1080}
	tests := []struct {
		p    Point
		vctx *Context
		want bool
	}{
		{Point{10, 500}, nil, true},
		{Point{100, 100}, canvas, false},
		{Point{1910, 500}, canvas, true},
		{Point{1910, 500}, nil, false},
		{Point{500, 1070}, canvas, true},
	}
	for _, tt := range tests {
		res := v.Validate(Adjustments{Coordinates: &tt.p}, catalog.DialogPopup, tt.vctx)
		if got := res.Has(PositionNearEdge); got != tt.want {
			t.Errorf("near edge %+v = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestValidate_Size(t *testing.T) {
	v := New(nil)
	res := v.Validate(Adjustments{Size: &catalog.Size{Width: 0.05, Height: 1.2}}, catalog.DialogPopup, nil)
	small, large := find(t, res, SizeTooSmall), find(t, res, SizeTooLarge)
	if small.Field != "size.width" || small.Min != MinRelativeSize {
		t.Errorf("small = %+v", small)
	}
	if large.Field != "size.height" || large.Max != MaxRelativeSize {
		t.Errorf("large = %+v", large)
	}

	res = v.Validate(Adjustments{Size: &catalog.Size{Width: 0.3, Height: 0.3}}, catalog.TimelineDisplay,
		&Context{CanvasWidth: 1920, CanvasHeight: 1080})
	if !res.Has(AspectRatio) || !res.IsValid {
		t.Errorf("timeline 0.3x0.3 = %v", types(res.Issues()))
	}

	for _, tt := range catalog.Types() {
		cfg := catalog.Default().MustGet(tt)
		res := v.Validate(Adjustments{Size: &cfg.Visual.Size}, tt, &Context{CanvasWidth: 1920, CanvasHeight: 1080})
		if len(res.Issues()) != 0 {
			t.Errorf("default size of %s has issues %v", tt, types(res.Issues()))
		}
	}
}

func TestValidate_ContrastBoundaries(t *testing.T) {
	v := New(nil)
	tests := []struct {
		text string
		want IssueType
	}{
		{"#777777", ContrastRatio}, // 4.48:1
		{"#767676", ContrastLow},   // 4.54:1
		{"#000000", ""},            // 21:1
	}
	for _, tt := range tests {
		res := v.Validate(Adjustments{Colors: &Colors{Background: "#ffffff", Text: tt.text}}, catalog.DialogPopup, nil)
		hasRatio, hasLow := res.Has(ContrastRatio), res.Has(ContrastLow)
		switch tt.want {
		case ContrastRatio:
			if !hasRatio || hasLow || res.IsValid {
				t.Errorf("%s: issues %v, want CONTRAST_RATIO violation", tt.text, types(res.Issues()))
			}
		case ContrastLow:
			if hasRatio || !hasLow || !res.IsValid {
				t.Errorf("%s: issues %v, want CONTRAST_LOW warning", tt.text, types(res.Issues()))
			}
		default:
			if hasRatio || hasLow {
				t.Errorf("%s: unexpected contrast issue %v", tt.text, types(res.Issues()))
			}
		}
	}
}

func TestValidate_ColorRules(t *testing.T) {
	v := New(nil)
	res := v.Validate(Adjustments{Colors: &Colors{Background: "#fe0101", Text: "#00fe00", Accent: "#0000ff"}}, catalog.DialogPopup, nil)
	n := 0
	for _, is := range res.Warnings {
		if is.Type == ColorCombination {
			n++
		}
	}
	if n != 2 {
		t.Errorf("COLOR_COMBINATION warnings = %d, want 2 (%v)", n, types(res.Issues()))
	}

	res = v.Validate(Adjustments{Colors: &Colors{Background: "#ffffff", Text: "not-a-colour"}}, catalog.DialogPopup, nil)
	if !res.Has(ColorInvalid) || !res.Has(LuminanceRange) || res.Has(ContrastRatio) {
		t.Errorf("issues = %v", types(res.Issues()))
	}
	if find(t, res, LuminanceRange).Severity != SeveritySuggestion {
		t.Error("luminance should be a suggestion")
	}
}

func TestValidate_LuminancePerColour(t *testing.T) {
	v := New(nil)
	tests := []struct {
		name       string
		colors     Colors
		wantFields []string
	}{
		{"both in range", Colors{Background: "#808080", Text: "#e0e0e0"}, nil},
		{"text too bright", Colors{Background: "#808080", Text: "#ffffff"}, []string{"colors.text"}},
		{"both out of range", Colors{Background: "#000000", Text: "#ffffff"}, []string{"colors.background", "colors.text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(Adjustments{Colors: &tt.colors}, catalog.DialogPopup, nil)
			var got []string
			for _, is := range res.Suggestions {
				if is.Type == LuminanceRange {
					got = append(got, is.Field)
				}
			}
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("LUMINANCE_RANGE fields = %v, want %v", got, tt.wantFields)
			}
		})
	}
}

func TestValidate_Layout(t *testing.T) {
	res := New(nil).Validate(Adjustments{Layout: &Layout{
		Alignment: "diagonal",
		Margin:    ptr(4.0),
		Spacing:   ptr(2.0),
	}}, catalog.DialogPopup, nil)
	want := []IssueType{AlignmentInvalid, MarginTooSmall, SpacingTight}
	if got := types(res.Issues()); !reflect.DeepEqual(got, want) {
		t.Errorf("issues = %v, want %v", got, want)
	}

	res = New(nil).Validate(Adjustments{Layout: &Layout{Alignment: "Center", Margin: ptr(10.0), Spacing: ptr(8.0)}}, catalog.DialogPopup, nil)
	if len(res.Issues()) != 0 {
		t.Errorf("boundary values flagged: %v", types(res.Issues()))
	}
}

func TestValidate_RequiredElements(t *testing.T) {
	tests := []struct {
		name    string
		t       catalog.TemplateType
		content catalog.Content
		want    []IssueType
	}{
		{"dialog ok", catalog.DialogPopup, catalog.DialogContent{Title: "t"}, nil},
		{"dialog empty", catalog.DialogPopup, catalog.DialogContent{}, []IssueType{RequiredElementMissing}},
		{"split one side", catalog.SplitScreen, catalog.SplitContent{Left: "a"}, []IssueType{RequiredElementMissing}},
		{"chart one point", catalog.ChartAnalysis, catalog.ChartContent{Data: []catalog.DataPoint{{Value: 1}}}, []IssueType{InsufficientData}},
		{"chart none", catalog.ChartAnalysis, catalog.ChartContent{}, []IssueType{RequiredElementMissing}},
		{"timeline one", catalog.TimelineDisplay, catalog.TimelineContent{Years: []string{"2020"}, Events: []string{"x"}}, []IssueType{InsufficientEvents}},
		{"emphasis ok", catalog.EmphasisFocus, catalog.EmphasisContent{Title: "Go"}, nil},
		{"kind mismatch", catalog.ChartAnalysis, catalog.DialogContent{Title: "t"}, []IssueType{RequiredElementMissing}},
	}
	v := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(Adjustments{}, tt.t, &Context{Content: tt.content})
			got := types(res.Issues())
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("issues = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate_UX(t *testing.T) {
	v := New(nil)
	tests := []struct {
		adj  Adjustments
		want IssueType
	}{
		{Adjustments{TouchTargetSize: ptr(40.0)}, TouchTargetTooSmall},
		{Adjustments{TouchTargetSize: ptr(46.0)}, TouchTargetSmall},
		{Adjustments{LineLength: ptr(90)}, LineTooLong},
		{Adjustments{LineLength: ptr(20)}, LineTooShort},
		{Adjustments{Accessibility: &Accessibility{FocusIndicator: true}}, AltTextMissing},
		{Adjustments{Accessibility: &Accessibility{AltText: "chart of sales"}}, FocusIndicatorMissing},
	}
	for _, tt := range tests {
		res := v.Validate(tt.adj, catalog.DialogPopup, nil)
		if got := types(res.Issues()); len(got) != 1 || got[0] != tt.want {
			t.Errorf("issues = %v, want [%s]", got, tt.want)
		}
	}
	res := v.Validate(Adjustments{TouchTargetSize: ptr(48.0), LineLength: ptr(60)}, catalog.DialogPopup, nil)
	if len(res.Issues()) != 0 {
		t.Errorf("comfortable values flagged: %v", types(res.Issues()))
	}
}

func TestValidate_Score(t *testing.T) {
	v := New(nil)
	res := v.Validate(Adjustments{
		Text:     ptr(strings.Repeat("x", 100)),
		Position: ptr(catalog.PositionBottom),
		Layout:   &Layout{Margin: ptr(1.0)},
	}, catalog.EmphasisFocus, nil)
	// TEXT_TOO_LONG and POSITION_INVALID violations, MARGIN_TOO_SMALL warning.
	if len(res.Violations) != 2 || len(res.Warnings) != 1 {
		t.Fatalf("issues = %v", types(res.Issues()))
	}
	if res.Score != 55 {
		t.Errorf("Score = %v, want 55", res.Score)
	}

	res = v.Validate(Adjustments{
		Text:            ptr(""),
		Position:        ptr(catalog.Position("nowhere")),
		Size:            &catalog.Size{Width: 0, Height: 0},
		Layout:          &Layout{Alignment: "x"},
		TouchTargetSize: ptr(1.0),
		Accessibility:   &Accessibility{},
	}, catalog.DialogPopup, nil)
	if res.Score != 0 {
		t.Errorf("Score = %v, want floor 0", res.Score)
	}
}

func TestValidate_Pure(t *testing.T) {
	v := New(nil)
	adj := Adjustments{
		Text:   ptr("重要提醒"),
		Size:   &catalog.Size{Width: 2, Height: 0.5},
		Colors: &Colors{Background: "#ffffff", Text: "#777777"},
	}
	before := adj.Clone()
	a := v.Validate(adj, catalog.DialogPopup, nil)
	b := v.Validate(adj, catalog.DialogPopup, nil)
	if !reflect.DeepEqual(a, b) {
		t.Error("Validate is not deterministic")
	}
	if !reflect.DeepEqual(adj, before) {
		t.Error("Validate modified its input")
	}
}

func TestAdjustments_Clone(t *testing.T) {
	adj := Adjustments{
		Text:   ptr("a"),
		Layout: &Layout{Margin: ptr(5.0)},
		Colors: &Colors{Background: "#000"},
	}
	c := adj.Clone()
	*c.Text = "b"
	*c.Layout.Margin = 50
	c.Colors.Background = "#fff"
	if *adj.Text != "a" || *adj.Layout.Margin != 5 || adj.Colors.Background != "#000" {
		t.Error("Clone shares state")
	}
}

func TestLimitsFor_ReturnsCopy(t *testing.T) {
	l := LimitsFor(catalog.SplitScreen)
	l.Positions[0] = catalog.PositionBottom
	if LimitsFor(catalog.SplitScreen).Positions[0] != catalog.PositionCenter {
		t.Error("LimitsFor shares its position slice")
	}
}

func TestGenerateComplianceReport(t *testing.T) {
	adj := Adjustments{
		Text:   ptr("重要提醒"),
		Colors: &Colors{Background: "#ff0000", Text: "#00ff00", Accent: "#0000ff"},
		Layout: &Layout{Spacing: ptr(1.0)},
	}
	res := New(nil).Validate(adj, catalog.DialogPopup, nil)
	rep := GenerateComplianceReport(adj, catalog.DialogPopup, res)

	if rep.Compliant || rep.Score != res.Score {
		t.Errorf("report header = %+v", rep)
	}
	var issues []IssueType
	for _, rec := range rep.Recommendations {
		issues = append(issues, rec.Issue)
		if rec.Action == "" || rec.Priority == "" {
			t.Errorf("incomplete recommendation %+v", rec)
		}
	}
	// COLOR_COMBINATION occurs twice but is reported once; SPACING_TIGHT has
	// no remediation entry.
	want := []IssueType{ContrastRatio, ColorCombination}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("recommendations = %v, want %v", issues, want)
	}
	if !reflect.DeepEqual(rep.Checked, []string{"text", "colors", "layout"}) {
		t.Errorf("Checked = %v", rep.Checked)
	}

	md := rep.Markdown()
	for _, s := range []string{"# Compliance report: dialog-popup", "not compliant", "CONTRAST_RATIO"} {
		if !strings.Contains(md, s) {
			t.Errorf("markdown missing %q:\n%s", s, md)
		}
	}
}

func TestGenerateComplianceReport_Clean(t *testing.T) {
	rep := GenerateComplianceReport(Adjustments{}, catalog.ChartAnalysis, New(nil).Validate(Adjustments{}, catalog.ChartAnalysis, nil))
	if !rep.Compliant || len(rep.Recommendations) != 0 || len(rep.Checked) != 0 {
		t.Errorf("clean report = %+v", rep)
	}
	if !strings.Contains(rep.Markdown(), "No recommendations.") {
		t.Error("clean markdown missing the empty marker")
	}
}
