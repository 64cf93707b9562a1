// Package validator checks overlay adjustments against the design rules of a
// template. Every rule group is a pure function of its inputs; Validate never
// fails and always returns a scored Result.
package validator

import (
	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/observability"
)

// Validator runs the rule groups. The zero value is ready to use.
type Validator struct {
	logger *observability.Logger
}

// New creates a Validator. logger may be nil.
func New(logger *observability.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate checks adj against the rules of template t. vctx may be nil.
func (v *Validator) Validate(adj Adjustments, t catalog.TemplateType, vctx *Context) Result {
	lim := LimitsFor(t)
	var f findings

	// 1. Text.
	if adj.Text != nil {
		checkText(&f, *adj.Text, lim)
	}

	// 2. Position.
	checkPosition(&f, adj, lim, vctx)

	// 3. Size.
	if adj.Size != nil {
		checkSize(&f, *adj.Size, lim, vctx)
	}

	// 4. Colour.
	if adj.Colors != nil {
		checkColors(&f, *adj.Colors)
	}

	// 5. Layout.
	if adj.Layout != nil {
		checkLayout(&f, *adj.Layout)
	}

	// 6. Required elements.
	if vctx != nil && vctx.Content != nil {
		checkRequired(&f, t, vctx.Content)
	}

	// 7. UX and accessibility.
	checkUX(&f, adj)

	res := Result{
		IsValid:     len(f.violations) == 0,
		Violations:  nonNil(f.violations),
		Warnings:    nonNil(f.warnings),
		Suggestions: nonNil(f.suggestions),
		Score:       score(len(f.violations), len(f.warnings)),
	}
	if v != nil {
		v.logger.Debug("validated",
			"template", t.String(),
			"violations", len(res.Violations),
			"warnings", len(res.Warnings),
			"score", res.Score,
		)
	}
	return res
}

// Issues returns every issue of r, violations first.
func (r Result) Issues() []Issue {
	out := make([]Issue, 0, len(r.Violations)+len(r.Warnings)+len(r.Suggestions))
	out = append(out, r.Violations...)
	out = append(out, r.Warnings...)
	return append(out, r.Suggestions...)
}

// Has reports whether r contains an issue of type t.
func (r Result) Has(t IssueType) bool {
	for _, is := range r.Issues() {
		if is.Type == t {
			return true
		}
	}
	return false
}

func nonNil(s []Issue) []Issue {
	if s == nil {
		return []Issue{}
	}
	return s
}
