// Package catalog is the read-only table of overlay templates: the five
// template kinds, their trigger keywords, visual layout and content styling,
// and the global tie-break priority.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/overhuman/overlay/internal/anim"
)

// TemplateType is the closed set of overlay layouts.
type TemplateType int

const (
	DialogPopup TemplateType = iota
	TimelineDisplay
	SplitScreen
	ChartAnalysis
	EmphasisFocus
)

// numTypes is the number of TemplateType values.
const numTypes = 5

// Types returns every template type in declaration order.
func Types() []TemplateType {
	return []TemplateType{DialogPopup, TimelineDisplay, SplitScreen, ChartAnalysis, EmphasisFocus}
}

// String returns the kebab-case name used in config, JSON and the CLI.
func (t TemplateType) String() string {
	switch t {
	case DialogPopup:
		return "dialog-popup"
	case TimelineDisplay:
		return "timeline-display"
	case SplitScreen:
		return "split-screen"
	case ChartAnalysis:
		return "chart-analysis"
	case EmphasisFocus:
		return "emphasis-focus"
	}
	return fmt.Sprintf("template(%d)", int(t))
}

// Valid reports whether t is one of the five declared kinds.
func (t TemplateType) Valid() bool {
	return t >= DialogPopup && t <= EmphasisFocus
}

// ParseTemplateType accepts the kebab-case name or the CamelCase identifier.
func ParseTemplateType(s string) (TemplateType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types() {
		if key == t.String() || key == strings.ReplaceAll(t.String(), "-", "") {
			return t, nil
		}
	}
	return DialogPopup, fmt.Errorf("unknown template type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t TemplateType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid template type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TemplateType) UnmarshalText(b []byte) error {
	v, err := ParseTemplateType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Position is a named placement anchor. It stays a string because caller
// adjustments may carry values outside the known set.
type Position string

const (
	PositionCenter      Position = "center"
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
	PositionBottom      Position = "bottom"
	PositionLeftToRight Position = "left-to-right"
)

// Positions returns every known anchor.
func Positions() []Position {
	return []Position{
		PositionCenter, PositionTopLeft, PositionTopRight,
		PositionBottomLeft, PositionBottomRight, PositionBottom, PositionLeftToRight,
	}
}

// Known reports whether p is a recognised anchor.
func (p Position) Known() bool {
	for _, k := range Positions() {
		if p == k {
			return true
		}
	}
	return false
}

// Shape is the outline of the overlay box.
type Shape string

const (
	ShapeRoundedRect Shape = "rounded-rect"
	ShapeRect        Shape = "rect"
	ShapeFullScreen  Shape = "full-screen"
)

// BackgroundKind selects how the overlay box is filled.
type BackgroundKind string

const (
	BackgroundSolid          BackgroundKind = "solid"
	BackgroundLinearGradient BackgroundKind = "linear-gradient"
	BackgroundRadialGradient BackgroundKind = "radial-gradient"
)

// AnimationKind is the closed set of entrance animations.
type AnimationKind int

const (
	FadeInScale AnimationKind = iota
	ProgressBar
	SlideInSync
	DataAnimation
	FadeInText
)

// String returns the kebab-case animation name.
func (k AnimationKind) String() string {
	switch k {
	case FadeInScale:
		return "fade-in-scale"
	case ProgressBar:
		return "progress-bar"
	case SlideInSync:
		return "slide-in-sync"
	case DataAnimation:
		return "data-animation"
	case FadeInText:
		return "fade-in-text"
	}
	return fmt.Sprintf("animation(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k AnimationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *AnimationKind) UnmarshalText(b []byte) error {
	for _, c := range []AnimationKind{FadeInScale, ProgressBar, SlideInSync, DataAnimation, FadeInText} {
		if string(b) == c.String() {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown animation kind %q", string(b))
}

// Size is a width/height pair relative to the canvas, each in (0,1].
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Background describes the overlay fill.
type Background struct {
	Kind    BackgroundKind `json:"kind" yaml:"kind"`
	Colors  []string       `json:"colors" yaml:"colors"`
	Opacity float64        `json:"opacity" yaml:"opacity"`
}

// Border is drawn when Width > 0.
type Border struct {
	Color string  `json:"color,omitempty" yaml:"color,omitempty"`
	Width float64 `json:"width,omitempty" yaml:"width,omitempty"`
}

// Shadow is applied when Color is set.
type Shadow struct {
	Color   string  `json:"color,omitempty" yaml:"color,omitempty"`
	Blur    float64 `json:"blur,omitempty" yaml:"blur,omitempty"`
	OffsetX float64 `json:"offset_x,omitempty" yaml:"offset_x,omitempty"`
	OffsetY float64 `json:"offset_y,omitempty" yaml:"offset_y,omitempty"`
}

// AnimationSpec is the entrance animation of a template.
type AnimationSpec struct {
	Kind     AnimationKind `json:"kind" yaml:"kind"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Easing   anim.Easing   `json:"easing" yaml:"easing"`
}

// VisualSpec is the layout half of a template.
type VisualSpec struct {
	Position     Position      `json:"position" yaml:"position"`
	Size         Size          `json:"size" yaml:"size"`
	Shape        Shape         `json:"shape" yaml:"shape"`
	CornerRadius float64       `json:"corner_radius" yaml:"corner_radius"`
	Padding      float64       `json:"padding" yaml:"padding"`
	Background   Background    `json:"background" yaml:"background"`
	Border       Border        `json:"border" yaml:"border"`
	Shadow       Shadow        `json:"shadow" yaml:"shadow"`
	Animation    AnimationSpec `json:"animation" yaml:"animation"`
}

// TextStyle styles one text sub-element.
type TextStyle struct {
	FontFamily string  `json:"font_family" yaml:"font_family"`
	FontSize   float64 `json:"font_size" yaml:"font_size"`
	FontWeight string  `json:"font_weight" yaml:"font_weight"`
	Color      string  `json:"color" yaml:"color"`
	LineHeight float64 `json:"line_height" yaml:"line_height"`
}

// ContentStyle is the typography half of a template. Sub-element roles:
// dialog title/body, timeline label(year)/body(event), split title(panel
// label)/body, chart title/label/value, emphasis title/body(subtitle).
type ContentStyle struct {
	Title   TextStyle `json:"title" yaml:"title"`
	Body    TextStyle `json:"body" yaml:"body"`
	Label   TextStyle `json:"label" yaml:"label"`
	Value   TextStyle `json:"value" yaml:"value"`
	Accent  string    `json:"accent" yaml:"accent"`
	Palette []string  `json:"palette,omitempty" yaml:"palette,omitempty"`
}

// TemplateConfig is the immutable descriptor of one template kind. Use the
// With* methods to derive adjusted copies.
type TemplateConfig struct {
	Type        TemplateType `json:"type" yaml:"type"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
	Keywords    []string     `json:"keywords" yaml:"keywords"`
	Uniqueness  float64      `json:"uniqueness" yaml:"uniqueness"`
	Visual      VisualSpec   `json:"visual" yaml:"visual"`
	Style       ContentStyle `json:"style" yaml:"style"`
}

// clone returns a deep copy so no slice is shared with the receiver.
func (c TemplateConfig) clone() TemplateConfig {
	out := c
	out.Keywords = append([]string(nil), c.Keywords...)
	out.Visual.Background.Colors = append([]string(nil), c.Visual.Background.Colors...)
	out.Style.Palette = append([]string(nil), c.Style.Palette...)
	return out
}

// WithPosition returns a copy anchored at p.
func (c TemplateConfig) WithPosition(p Position) TemplateConfig {
	out := c.clone()
	out.Visual.Position = p
	return out
}

// WithSize returns a copy with relative size s.
func (c TemplateConfig) WithSize(s Size) TemplateConfig {
	out := c.clone()
	out.Visual.Size = s
	return out
}

// WithColors returns a copy with a solid background and the given text
// colour. Empty arguments leave the corresponding colour unchanged.
func (c TemplateConfig) WithColors(background, text string) TemplateConfig {
	out := c.clone()
	if background != "" {
		out.Visual.Background = Background{
			Kind:    BackgroundSolid,
			Colors:  []string{background},
			Opacity: out.Visual.Background.Opacity,
		}
	}
	if text != "" {
		out.Style.Title.Color = text
		out.Style.Body.Color = text
		out.Style.Label.Color = text
		out.Style.Value.Color = text
	}
	return out
}

// WithAccent returns a copy with accent colour a.
func (c TemplateConfig) WithAccent(a string) TemplateConfig {
	out := c.clone()
	if a != "" {
		out.Style.Accent = a
	}
	return out
}

// PrimaryBackground is the first background colour, used for contrast checks.
func (c TemplateConfig) PrimaryBackground() string {
	if len(c.Visual.Background.Colors) == 0 {
		return ""
	}
	return c.Visual.Background.Colors[0]
}
