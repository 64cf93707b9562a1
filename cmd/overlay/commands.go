package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/overhuman/overlay/internal/anim"
	"github.com/overhuman/overlay/internal/canvas"
	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/classifier"
	"github.com/overhuman/overlay/internal/config"
	"github.com/overhuman/overlay/internal/draw"
	"github.com/overhuman/overlay/internal/export"
	"github.com/overhuman/overlay/internal/observability"
	"github.com/overhuman/overlay/internal/render"
	"github.com/overhuman/overlay/internal/storage"
	"github.com/overhuman/overlay/internal/validator"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "print machine-readable JSON"}
}

func contentTypeFlag() cli.Flag {
	return &cli.StringFlag{Name: "content-type", Usage: "educational, marketing, news, data or story"}
}

func classifyContext(c *cli.Context) *classifier.Context {
	if ct := c.String("content-type"); ct != "" {
		return &classifier.Context{ContentType: ct}
	}
	return nil
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// --- classify ---

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "pick the best template for content",
		ArgsUsage: "[text]",
		Flags:     flags(inputFlags(), []cli.Flag{templateFlag(), contentTypeFlag(), jsonFlag()}),
		Action:    classifyAction,
	}
}

func classifyAction(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	text, err := readContent(c, e)
	if err != nil {
		return err
	}

	cat := catalog.Default()
	t, forced, err := templateOf(c, e, cat)
	if err != nil {
		return err
	}
	cls := classifier.New(classifier.Dependencies{Catalog: cat, Logger: e.log.Named("classifier")})

	var res classifier.Result
	if forced {
		res, _ = cls.ClassifyAs(t, text, classifyContext(c))
	} else {
		res = cls.Classify(text, classifyContext(c))
	}

	if c.Bool("json") {
		return writeJSON(e.out, res)
	}
	printClassification(e.out, res)
	return nil
}

// --- validate ---

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check adjustments against a template's rules",
		ArgsUsage: "[text]",
		Flags: flags(inputFlags(), adjustFlags(), []cli.Flag{
			templateFlag(),
			&cli.BoolFlag{Name: "report", Aliases: []string{"r"}, Usage: "print a compliance report"},
			jsonFlag(),
		}),
		Action: validateAction,
	}
}

func validateAction(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	t, ok, err := templateOf(c, e, catalog.Default())
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("--template is required")
	}
	adj, err := readAdjustments(c)
	if err != nil {
		return err
	}
	if adj == nil {
		adj = &validator.Adjustments{}
	}

	vctx := &validator.Context{
		CanvasWidth:  float64(e.cfg.Canvas.Width),
		CanvasHeight: float64(e.cfg.Canvas.Height),
	}
	// Content is optional here; stdin is only read when asked for.
	if c.NArg() > 0 || c.String("file") != "" {
		text, err := readContent(c, e)
		if err != nil {
			return err
		}
		vctx.Content = classifier.Extract(t, text)
		if adj.Text == nil {
			adj.Text = &text
		}
	}

	res := validator.New(e.log.Named("validator")).Validate(*adj, t, vctx)

	switch {
	case c.Bool("report"):
		rep := validator.GenerateComplianceReport(*adj, t, res)
		if c.Bool("json") {
			err = writeJSON(e.out, rep)
			break
		}
		var md string
		if md, err = renderMarkdown(e.out, rep.Markdown()); err == nil {
			fmt.Fprint(e.out, md)
		}
	case c.Bool("json"):
		err = writeJSON(e.out, res)
	default:
		printValidation(e.out, res)
	}
	if err != nil {
		return err
	}
	if !res.IsValid {
		return errNotCompliant
	}
	return nil
}

// --- render ---

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "render content to an overlay image",
		ArgsUsage: "[text]",
		Flags: flags(inputFlags(), adjustFlags(), []cli.Flag{
			templateFlag(),
			contentTypeFlag(),
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output `PATH` (default overlay.<format>)"},
			&cli.StringFlag{Name: "format", Usage: "png, jpeg or svg (default: from --out)"},
			&cli.StringFlag{Name: "canvas", Usage: "canvas size WIDTHxHEIGHT (default from config)"},
			&cli.BoolFlag{Name: "animate", Usage: "play the entrance animation before the still is taken"},
			&cli.StringFlag{Name: "frames", Usage: "write every animation frame as PNG into `DIR`"},
			&cli.IntFlag{Name: "thumb", Usage: "scale the output to `WIDTH` pixels"},
			&cli.BoolFlag{Name: "chrome", Usage: "rasterise through headless Chrome instead of the built-in rasteriser"},
			&cli.StringFlag{Name: "backdrop", Value: "#000000", Usage: "background colour for JPEG output"},
			&cli.BoolFlag{Name: "no-history", Usage: "do not record this render"},
			jsonFlag(),
		}),
		Action: renderAction,
	}
}

// frozenClock pins animation start times so frame capture is deterministic.
type frozenClock struct{ t time.Time }

func (c frozenClock) Now() time.Time { return c.t }

func renderAction(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}

	// 1. Resolve options before touching input.
	cat := catalog.Default()
	t, forced, err := templateOf(c, e, cat)
	if err != nil {
		return err
	}
	adj, err := readAdjustments(c)
	if err != nil {
		return err
	}
	size := e.cfg.Canvas
	if v := c.String("canvas"); v != "" {
		if size, err = config.ParseCanvas(v); err != nil {
			return err
		}
	}
	out := c.String("out")
	format := export.FormatFromPath(out)
	if f := c.String("format"); f != "" {
		if format, err = export.ParseFormat(f); err != nil {
			return err
		}
	}
	framesDir := c.String("frames")
	vector := format == export.SVG || c.Bool("chrome")
	switch {
	case c.Bool("chrome") && format == export.SVG:
		return errors.New("--chrome produces a raster image; use --format png or jpeg")
	case vector && framesDir != "":
		return errors.New("--frames needs the built-in rasteriser")
	}
	if out == "" {
		out = "overlay." + string(format)
	}

	text, err := readContent(c, e)
	if err != nil {
		return err
	}

	// 2. Build the surface and engine.
	var (
		surface draw.Surface
		svg     *canvas.SVG
		raster  *canvas.Raster
	)
	if vector {
		svg = canvas.NewSVG(float64(size.Width), float64(size.Height))
		surface = svg
	} else {
		raster = canvas.NewRaster(size.Width, size.Height)
		surface = raster
	}

	animate := c.Bool("animate") || framesDir != ""
	start := time.Now()
	frames := anim.NewManualFrames()
	deps := render.Dependencies{
		Surface: surface,
		Catalog: cat,
		Logger:  e.log.Named("render"),
		Metrics: observability.NewMetricsCollector(e.cfg.SampleSize),
	}
	if animate && raster != nil {
		deps.Frames = frames
		deps.Clock = frozenClock{start}
	}
	eng, err := render.New(deps)
	if err != nil {
		return err
	}
	defer eng.Destroy()

	// 3. Render and record.
	opts := &render.Options{Context: classifyContext(c), Adjustments: adj, Animate: animate}
	if forced {
		opts.Template = &t
	}
	res := eng.RenderTemplate(c.Context, text, opts)
	if !c.Bool("no-history") {
		e.remember(c.Context, text, res)
	}
	if !res.Success {
		if c.Bool("json") {
			writeJSON(e.out, res)
		} else {
			printRender(e.out, res, nil)
		}
		return fmt.Errorf("render failed: %s", res.Error)
	}

	// 4. Play the animation out and write frames.
	var written []string
	if animate && raster != nil {
		shots, err := export.Capture(c.Context, frames, raster, start, e.cfg.FPS, 0)
		if err != nil {
			return err
		}
		if framesDir != "" {
			paths, err := export.WriteFrames(framesDir, "frame", shots)
			if err != nil {
				return err
			}
			written = append(written, paths...)
		}
		e.log.Info("animation captured", "frames", len(shots), "fps", e.cfg.FPS)
	}

	// 5. Write the still.
	var img image.Image
	switch {
	case format == export.SVG:
		if err := writeSVG(out, svg); err != nil {
			return err
		}
	case c.Bool("chrome"):
		if img, err = rasterizeWithChrome(c.Context, e.cfg, svg); err != nil {
			return err
		}
	default:
		img = raster.Image()
	}
	if img != nil {
		if err := writeImage(out, img, format, c.Int("thumb"), c.String("backdrop")); err != nil {
			return err
		}
	}
	written = append(written, out)

	if c.Bool("json") {
		return writeJSON(e.out, res)
	}
	printRender(e.out, res, written)
	return nil
}

func writeSVG(path string, svg *canvas.SVG) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(path, svg.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func writeImage(path string, img image.Image, format export.Format, thumb int, backdrop string) error {
	if thumb > 0 {
		img = export.Thumbnail(img, thumb)
	}
	if format == export.JPEG {
		img = export.Flatten(img, backdrop)
	}
	return export.WriteFile(path, img, format)
}

func rasterizeWithChrome(ctx context.Context, cfg config.Config, svg *canvas.SVG) (image.Image, error) {
	var opts []chromedp.ExecAllocatorOption
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	data, err := export.RasterizeSVG(ctx, svg.Bytes(), 0, opts...)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

// remember records res in the history store, including renders that were
// cancelled. Failures are logged, never returned.
func (e *env) remember(ctx context.Context, text string, res *render.RenderResult) {
	ctx = context.WithoutCancel(ctx)
	if !e.cfg.History.Enabled {
		return
	}
	store, err := storage.NewSQLiteStore(e.cfg.HistoryPath())
	if err != nil {
		e.log.Warn("history unavailable", "error", err)
		return
	}
	defer store.Close()
	if _, err := store.Save(ctx, storage.EntryFrom(text, "cli", res)); err != nil {
		e.log.Warn("history save failed", "id", res.ID, "error", err)
	}
}

// --- catalog ---

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:      "catalog",
		Usage:     "print template configurations as YAML",
		ArgsUsage: "[template]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "names", Usage: "list template names only"},
		},
		Action: catalogAction,
	}
}

func catalogAction(c *cli.Context) error {
	cat := catalog.Default()
	w := c.App.Writer

	if c.NArg() > 0 {
		t, ok := cat.Lookup(c.Args().First())
		if !ok {
			return fmt.Errorf("unknown template %q", c.Args().First())
		}
		return writeYAML(w, cat.MustGet(t))
	}
	if c.Bool("names") {
		s := newStyles(w)
		for _, cfg := range cat.Configs() {
			fmt.Fprintf(w, "%s %s\n", s.label.Render(fmt.Sprintf("%-18s", cfg.Type)), s.dim.Render(cfg.Description))
		}
		return nil
	}
	return writeYAML(w, cat.Configs())
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}
