package catalog

import "strings"

// Content is the structured, type-specific data extracted from input text.
// The set of implementations is closed: DialogContent, TimelineContent,
// SplitContent, ChartContent and EmphasisContent.
type Content interface {
	Kind() TemplateType
	// Empty reports whether every field is blank.
	Empty() bool
	isContent()
}

// DialogContent is a title line plus body text.
type DialogContent struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// TimelineContent pairs years with events positionally.
type TimelineContent struct {
	Years  []string `json:"years"`
	Events []string `json:"events"`
}

// SplitContent is the two sides of a comparison.
type SplitContent struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// DataPoint is one bar of a chart.
type DataPoint struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

// ChartContent is a titled series of data points.
type ChartContent struct {
	Title string      `json:"title"`
	Data  []DataPoint `json:"data"`
}

// EmphasisContent is a headline with an optional subtitle.
type EmphasisContent struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

func (DialogContent) Kind() TemplateType   { return DialogPopup }
func (TimelineContent) Kind() TemplateType { return TimelineDisplay }
func (SplitContent) Kind() TemplateType    { return SplitScreen }
func (ChartContent) Kind() TemplateType    { return ChartAnalysis }
func (EmphasisContent) Kind() TemplateType { return EmphasisFocus }

func (c DialogContent) Empty() bool   { return blank(c.Title) && blank(c.Text) }
func (c TimelineContent) Empty() bool { return len(c.Years) == 0 && len(c.Events) == 0 }
func (c SplitContent) Empty() bool    { return blank(c.Left) && blank(c.Right) }
func (c ChartContent) Empty() bool    { return blank(c.Title) && len(c.Data) == 0 }
func (c EmphasisContent) Empty() bool { return blank(c.Title) && blank(c.Subtitle) }

func (DialogContent) isContent()   {}
func (TimelineContent) isContent() {}
func (SplitContent) isContent()    {}
func (ChartContent) isContent()    {}
func (EmphasisContent) isContent() {}

// EmptyContent returns the zero structured content for t.
func EmptyContent(t TemplateType) Content {
	switch t {
	case TimelineDisplay:
		return TimelineContent{Years: []string{}, Events: []string{}}
	case SplitScreen:
		return SplitContent{}
	case ChartAnalysis:
		return ChartContent{Data: []DataPoint{}}
	case EmphasisFocus:
		return EmphasisContent{}
	}
	return DialogContent{}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
