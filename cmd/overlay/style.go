package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/overhuman/overlay/internal/classifier"
	"github.com/overhuman/overlay/internal/render"
	"github.com/overhuman/overlay/internal/validator"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// styles are plain when output is not a terminal.
type styles struct {
	title, label, good, bad, dim lipgloss.Style
}

func newStyles(w io.Writer) styles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain}
	}
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label: lipgloss.NewStyle().Bold(true),
		good:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		bad:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:   lipgloss.NewStyle().Faint(true),
	}
}

func (s styles) row(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "%s %v\n", s.label.Render(fmt.Sprintf("%-12s", label+":")), value)
}

func (s styles) verdict(ok bool, yes, no string) string {
	if ok {
		return s.good.Render(yes)
	}
	return s.bad.Render(no)
}

func printClassification(w io.Writer, res classifier.Result) {
	s := newStyles(w)
	fmt.Fprintln(w, s.title.Render(res.Config.Name))
	s.row(w, "template", res.Type)
	s.row(w, "confidence", fmt.Sprintf("%.2f", res.Confidence))
	s.row(w, "reason", res.Reason)
	if lang := res.Content.Metadata.Language; lang != "" {
		s.row(w, "language", lang)
	}
	if res.Content.Metadata.Truncated {
		s.row(w, "truncated", s.bad.Render("yes"))
	}
	if len(res.Alternatives) > 0 {
		alts := make([]string, 0, len(res.Alternatives))
		for _, a := range res.Alternatives {
			alts = append(alts, fmt.Sprintf("%s (%.2f)", a.Type, a.Confidence))
		}
		s.row(w, "alternatives", s.dim.Render(strings.Join(alts, ", ")))
	}
}

func printValidation(w io.Writer, res validator.Result) {
	s := newStyles(w)
	s.row(w, "valid", s.verdict(res.IsValid, "yes", "no"))
	s.row(w, "score", fmt.Sprintf("%.0f", res.Score))
	for _, group := range []struct {
		name   string
		issues []validator.Issue
		style  lipgloss.Style
	}{
		{"violation", res.Violations, s.bad},
		{"warning", res.Warnings, s.label},
		{"suggestion", res.Suggestions, s.dim},
	} {
		for _, is := range group.issues {
			fmt.Fprintf(w, "  %s %s %s\n", group.style.Render(group.name), is.Type, s.dim.Render(is.Message))
		}
	}
}

func printRender(w io.Writer, res *render.RenderResult, written []string) {
	s := newStyles(w)
	s.row(w, "id", res.ID)
	s.row(w, "success", s.verdict(res.Success, "yes", "no"))
	if res.Error != "" {
		s.row(w, "error", s.bad.Render(res.Error))
	}
	if res.Template != nil {
		s.row(w, "template", fmt.Sprintf("%s (%.2f)", res.Template.Type, res.Template.Confidence))
	}
	if res.Validation != nil {
		s.row(w, "score", fmt.Sprintf("%.0f", res.Validation.Score))
	}
	for _, r := range res.Repairs {
		s.row(w, "repair", fmt.Sprintf("%s %s %s", r.Issue, r.Field, s.verdict(r.Fixed, "fixed", "unfixed")))
	}
	s.row(w, "render time", res.Performance.RenderTime)
	for _, p := range written {
		s.row(w, "wrote", p)
	}
}

// renderMarkdown styles md for a terminal. Other writers get md unchanged.
func renderMarkdown(w io.Writer, md string) (string, error) {
	if !isTerminal(w) {
		return md, nil
	}
	width := 80
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 20 {
			width = cols - 4
		}
	}
	return styledMarkdown(md, width, "auto")
}

func styledMarkdown(md string, width int, style string) (string, error) {
	opt := glamour.WithStandardStyle(style)
	if style == "auto" {
		opt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
