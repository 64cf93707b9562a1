// Package render orchestrates one overlay render: classify the content,
// validate the resulting layout, auto-repair violations, draw the template
// and optionally animate it. Errors and panics never escape RenderTemplate;
// they are reported in the RenderResult.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/overhuman/overlay/internal/anim"
	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/classifier"
	"github.com/overhuman/overlay/internal/draw"
	"github.com/overhuman/overlay/internal/observability"
	"github.com/overhuman/overlay/internal/validator"
)

var (
	ErrUnsupportedTemplate = errors.New("render: unsupported template")
	ErrInvalidCanvas       = errors.New("render: invalid canvas size")
	ErrDestroyed           = errors.New("render: engine destroyed")
	ErrNothingToReplay     = errors.New("render: nothing rendered yet")
)

// DefaultSampleSize bounds the render-time buffer behind Stats.
const DefaultSampleSize = 100

// animationName is the scheduler key of the overlay entrance animation.
const animationName = "overlay"

// Dependencies holds the collaborators of an Engine. Surface is required;
// everything else falls back to a default when nil.
type Dependencies struct {
	Surface draw.Surface
	// Frames drives animations. Nil completes every animation immediately.
	Frames     anim.FrameSource
	Clock      anim.Clock
	Catalog    *catalog.Catalog
	Classifier *classifier.Classifier
	Validator  *validator.Validator
	Logger     *observability.Logger
	Metrics    *observability.MetricsCollector
}

// Options tune a single render. The zero value classifies and draws a still
// overlay.
type Options struct {
	Context     *classifier.Context    `json:"context,omitempty"`
	Adjustments *validator.Adjustments `json:"adjustments,omitempty"`
	Template    *catalog.TemplateType  `json:"template,omitempty"`
	Animate     bool                   `json:"animate,omitempty"`
}

// Performance holds the timings of one render.
type Performance struct {
	RenderTime   time.Duration `json:"render_time"`
	ClassifyTime time.Duration `json:"classify_time"`
	ValidateTime time.Duration `json:"validate_time"`
	DrawTime     time.Duration `json:"draw_time"`
}

// RenderResult is the outcome of one RenderTemplate call.
type RenderResult struct {
	ID          string             `json:"id"`
	Success     bool               `json:"success"`
	Error       string             `json:"error,omitempty"`
	Template    *classifier.Result `json:"template,omitempty"`
	Validation  *validator.Result  `json:"validation,omitempty"`
	Repairs     []Repair           `json:"repairs,omitempty"`
	Frame       draw.Rect          `json:"frame"`
	Animated    bool               `json:"animated"`
	Performance Performance        `json:"performance"`
}

// Engine renders overlays onto one surface. It is safe for concurrent use;
// renders and animation frames are serialised.
type Engine struct {
	deps  Dependencies
	sched *anim.Scheduler

	mu        sync.Mutex
	state     State
	current   *scene
	animate   bool
	destroyed bool
}

// New creates an Engine drawing onto deps.Surface.
func New(deps Dependencies) (*Engine, error) {
	if deps.Surface == nil {
		return nil, fmt.Errorf("nil surface: %w", ErrInvalidCanvas)
	}
	if w, h := deps.Surface.Width(), deps.Surface.Height(); w <= 0 || h <= 0 {
		return nil, fmt.Errorf("canvas %gx%g: %w", w, h, ErrInvalidCanvas)
	}
	if deps.Clock == nil {
		deps.Clock = anim.SystemClock{}
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.New(classifier.Dependencies{
			Catalog: deps.Catalog,
			Logger:  deps.Logger.Named("classifier"),
		})
	}
	if deps.Validator == nil {
		deps.Validator = validator.New(deps.Logger.Named("validator"))
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetricsCollector(DefaultSampleSize)
	}
	return &Engine{
		deps:  deps,
		sched: anim.NewScheduler(deps.Frames, deps.Clock),
	}, nil
}

// State returns the current stage.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// setState must be called with e.mu held.
func (e *Engine) setState(s State) {
	e.state = s
	e.deps.Logger.Stage(s.String(), "state")
}

// RenderTemplate classifies content, validates and repairs the chosen
// layout and draws it. It never panics; failures are reported through
// Success and Error. opts may be nil.
func (e *Engine) RenderTemplate(ctx context.Context, content string, opts *Options) *RenderResult {
	if opts == nil {
		opts = &Options{}
	}
	start := e.deps.Clock.Now()
	res := &RenderResult{ID: uuid.NewString(), Repairs: []Repair{}}

	sc, err := e.render(ctx, content, opts, res)
	res.Performance.RenderTime = e.deps.Clock.Now().Sub(start)
	if err != nil {
		res.Error = err.Error()
		e.record(res)
		e.deps.Logger.Error("render failed", "id", res.ID, "error", err)
		return res
	}
	res.Success = true
	e.record(res)
	e.deps.Logger.RenderEvent(res.Template.Type.String(), res.Template.Confidence,
		res.Validation.Score, res.Performance.RenderTime,
		"id", res.ID,
		"repairs", len(res.Repairs),
	)

	if opts.Animate {
		res.Animated = e.startAnimation(sc)
	}
	return res
}

// render runs the locked stages. A panic in any stage becomes an error.
func (e *Engine) render(ctx context.Context, content string, opts *Options, res *RenderResult) (sc *scene, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			sc, err = nil, fmt.Errorf("render: panic: %v", r)
		}
		if err != nil {
			e.state = Idle
		}
	}()

	if e.destroyed {
		return nil, ErrDestroyed
	}
	e.sched.Cancel(animationName)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}

	// 1. Classify.
	e.setState(Classifying)
	t0 := e.deps.Clock.Now()
	cls, err := e.classify(content, opts)
	if err != nil {
		return nil, err
	}
	res.Template = &cls
	res.Performance.ClassifyTime = e.deps.Clock.Now().Sub(t0)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}

	// 2. Validate the effective layout.
	e.setState(Validating)
	t0 = e.deps.Clock.Now()
	sc = &scene{
		cfg:     applyAdjustments(cls.Config, opts.Adjustments),
		content: cls.Content.Content,
	}
	adj := effectiveAdjustments(opts.Adjustments, sc.cfg, cls.Content.ProcessedContent)
	if opts.Adjustments != nil && opts.Adjustments.Text != nil {
		sc.content = classifier.Extract(sc.cfg.Type, *adj.Text)
	}
	if adj.Coordinates != nil {
		p := *adj.Coordinates
		sc.at = &p
	}
	w, h := e.deps.Surface.Width(), e.deps.Surface.Height()
	val := e.deps.Validator.Validate(adj, sc.cfg.Type, &validator.Context{
		Content:      sc.content,
		CanvasWidth:  w,
		CanvasHeight: h,
	})
	res.Validation = &val
	res.Performance.ValidateTime = e.deps.Clock.Now().Sub(t0)

	// 3. Repair.
	if !val.IsValid {
		e.setState(AutoRepairing)
		res.Repairs = autoRepair(sc, &adj, val.Violations, e.deps.Logger)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}

	// 4. Draw.
	e.setState(Drawing)
	t0 = e.deps.Clock.Now()
	f := still
	if opts.Animate {
		if af, ok := frameFor(sc.cfg.Visual.Animation.Kind, 0); ok {
			f = af
		}
	}
	res.Frame = paint(e.deps.Surface, sc, f)
	res.Performance.DrawTime = e.deps.Clock.Now().Sub(t0)

	e.current = sc
	e.animate = opts.Animate
	e.setState(Idle)
	return sc, nil
}

func (e *Engine) classify(content string, opts *Options) (classifier.Result, error) {
	if opts.Template == nil {
		return e.deps.Classifier.Classify(content, opts.Context), nil
	}
	res, ok := e.deps.Classifier.ClassifyAs(*opts.Template, content, opts.Context)
	if !ok {
		return classifier.Result{}, fmt.Errorf("%w: %s", ErrUnsupportedTemplate, opts.Template)
	}
	return res, nil
}

// applyAdjustments derives the configuration to draw from the caller's
// overrides. cfg is never modified in place.
func applyAdjustments(cfg catalog.TemplateConfig, adj *validator.Adjustments) catalog.TemplateConfig {
	if adj == nil {
		return cfg
	}
	if adj.Position != nil {
		cfg = cfg.WithPosition(*adj.Position)
	}
	if adj.Size != nil {
		cfg = cfg.WithSize(*adj.Size)
	}
	if adj.Colors != nil {
		cfg = cfg.WithColors(adj.Colors.Background, adj.Colors.Text).WithAccent(adj.Colors.Accent)
	}
	return cfg
}

// effectiveAdjustments fills the fields the caller left unset with what will
// actually be drawn, so the validator sees the real layout.
func effectiveAdjustments(in *validator.Adjustments, cfg catalog.TemplateConfig, text string) validator.Adjustments {
	var adj validator.Adjustments
	if in != nil {
		adj = in.Clone()
	}
	if adj.Text == nil {
		adj.Text = &text
	}
	if adj.Position == nil {
		p := cfg.Visual.Position
		adj.Position = &p
	}
	if adj.Size == nil && cfg.Visual.Shape != catalog.ShapeFullScreen {
		s := cfg.Visual.Size
		adj.Size = &s
	}
	return adj
}

// startAnimation registers the entrance animation of sc. It reports false
// when the kind is unknown and the still frame stays on screen.
func (e *Engine) startAnimation(sc *scene) bool {
	spec := sc.cfg.Visual.Animation
	if _, ok := frameFor(spec.Kind, 0); !ok {
		e.deps.Logger.Warn("unsupported animation", "kind", spec.Kind.String())
		e.mu.Lock()
		if e.current == sc {
			paint(e.deps.Surface, sc, still)
		}
		e.mu.Unlock()
		return false
	}

	e.mu.Lock()
	if e.current != sc {
		e.mu.Unlock()
		return false
	}
	e.setState(Animating)
	e.mu.Unlock()

	e.sched.Register(animationName, anim.Animation{
		Duration:   spec.Duration,
		Easing:     spec.Easing,
		OnProgress: func(p float64) { e.drawFrame(sc, spec.Kind, p) },
		OnComplete: func() {
			e.mu.Lock()
			if e.current == sc && e.state == Animating {
				e.setState(Idle)
			}
			e.mu.Unlock()
		},
	})
	return true
}

// drawFrame redraws sc at progress p. Frames of a scene that has since
// been replaced are dropped.
func (e *Engine) drawFrame(sc *scene, k catalog.AnimationKind, p float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != sc || e.destroyed {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.sched.Cancel(animationName)
			e.state = Idle
			e.deps.Logger.Error("animation frame panicked", "panic", fmt.Sprint(r))
		}
	}()
	f, _ := frameFor(k, p)
	paint(e.deps.Surface, sc, f)
}

// Replay redraws the last rendered overlay, restarting its animation when
// it was rendered animated.
func (e *Engine) Replay(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return ErrDestroyed
	}
	sc, animated := e.current, e.animate
	if sc == nil {
		e.mu.Unlock()
		return ErrNothingToReplay
	}
	e.sched.Cancel(animationName)
	// A fresh scene value so frames of the previous run are dropped.
	next := *sc
	e.current = &next
	f := still
	if animated {
		if af, ok := frameFor(next.cfg.Visual.Animation.Kind, 0); ok {
			f = af
		}
	}
	paint(e.deps.Surface, &next, f)
	e.mu.Unlock()

	if animated {
		e.startAnimation(&next)
	}
	return nil
}

// resizer is implemented by surfaces with float dimensions (Recorder, SVG).
type resizer interface {
	Resize(width, height float64)
}

// pixelResizer is implemented by pixel surfaces (Raster).
type pixelResizer interface {
	Resize(width, height int)
}

// ResizeCanvas changes the surface size and redraws the current overlay as
// a still frame.
func (e *Engine) ResizeCanvas(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("canvas %gx%g: %w", width, height, ErrInvalidCanvas)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	switch s := e.deps.Surface.(type) {
	case resizer:
		s.Resize(width, height)
	case pixelResizer:
		s.Resize(int(width), int(height))
	default:
		return fmt.Errorf("surface %T cannot be resized: %w", e.deps.Surface, ErrInvalidCanvas)
	}
	e.sched.Cancel(animationName)
	if e.current != nil {
		paint(e.deps.Surface, e.current, still)
	}
	e.state = Idle
	return nil
}

// Destroy stops animations and releases the current overlay. The engine
// rejects further renders.
func (e *Engine) Destroy() {
	e.sched.Clear()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed = true
	e.current = nil
	e.state = Idle
}
