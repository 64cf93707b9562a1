package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/overhuman/overlay/internal/api"
	"github.com/overhuman/overlay/internal/canvas"
	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/classifier"
	"github.com/overhuman/overlay/internal/deploy"
	"github.com/overhuman/overlay/internal/observability"
	"github.com/overhuman/overlay/internal/render"
	"github.com/overhuman/overlay/internal/storage"
	"github.com/overhuman/overlay/internal/validator"
)

// --- serve / stop ---

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (default from config)"},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	e, err := loadEnv(c)
	if err != nil {
		return err
	}
	addr := e.cfg.Addr
	if a := c.String("addr"); a != "" {
		addr = a
	}

	// 1. One server per data directory.
	pf := deploy.NewPIDFile(e.cfg.PIDPath())
	if err := pf.Guard(addr); err != nil {
		return err
	}
	defer pf.Remove()

	// 2. History.
	var history storage.Store
	if e.cfg.History.Enabled {
		store, err := storage.NewSQLiteStore(e.cfg.HistoryPath())
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		history = store
	}

	// 3. Pipeline on an SVG surface shared with the API.
	cat := catalog.Default()
	cls := classifier.New(classifier.Dependencies{Catalog: cat, Logger: e.log.Named("classifier")})
	val := validator.New(e.log.Named("validator"))
	svg := canvas.NewSVG(float64(e.cfg.Canvas.Width), float64(e.cfg.Canvas.Height))
	eng, err := render.New(render.Dependencies{
		Surface:    svg,
		Catalog:    cat,
		Classifier: cls,
		Validator:  val,
		Logger:     e.log.Named("render"),
		Metrics:    observability.NewMetricsCollector(e.cfg.SampleSize),
	})
	if err != nil {
		return err
	}
	defer eng.Destroy()

	srv, err := api.New(addr, api.Dependencies{
		Engine:     eng,
		SVG:        svg,
		Catalog:    cat,
		Classifier: cls,
		Validator:  val,
		History:    history,
		Logger:     e.log.Named("api"),
	})
	if err != nil {
		return err
	}

	// 4. Serve until SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	e.log.Info("starting", "addr", addr, "data_dir", e.cfg.DataDir, "canvas", e.cfg.Canvas.String(), "pid", os.Getpid())
	if err := srv.Start(ctx); err != nil {
		return err
	}
	e.log.Info("stopped")
	return nil
}

func stopCommand() *cli.Command {
	return &cli.Command{
		Name:  "stop",
		Usage: "stop the server recorded in the PID file",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "how long to wait for exit"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			pf := deploy.NewPIDFile(e.cfg.PIDPath())
			info, err := pf.Stop(c.Duration("timeout"))
			if errors.Is(err, deploy.ErrNotRunning) {
				return fmt.Errorf("%w (no live process in %s)", err, pf.Path())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "stopped pid %d (%s)\n", info.PID, info.Addr)
			return nil
		},
	}
}

// --- history ---

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list or search past renders",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "maximum entries"},
			&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "full-text search over content and template"},
			jsonFlag(),
		},
		Action: historyAction,
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "print one entry",
				ArgsUsage: "<id>",
				Action:    historyShowAction,
			},
			{
				Name:   "summary",
				Usage:  "count renders per template",
				Action: historySummaryAction,
			},
		},
	}
}

func openHistory(c *cli.Context) (*env, *storage.SQLiteStore, error) {
	e, err := loadEnv(c)
	if err != nil {
		return nil, nil, err
	}
	if !e.cfg.History.Enabled {
		return nil, nil, errors.New("history is disabled in config")
	}
	store, err := storage.NewSQLiteStore(e.cfg.HistoryPath())
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	return e, store, nil
}

func historyAction(c *cli.Context) error {
	e, store, err := openHistory(c)
	if err != nil {
		return err
	}
	defer store.Close()

	var entries []storage.Entry
	if q := c.String("search"); q != "" {
		entries, err = store.Search(c.Context, q, c.Int("limit"))
	} else {
		entries, err = store.Recent(c.Context, c.Int("limit"))
	}
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(e.out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(e.out, "No renders found")
		return nil
	}

	s := newStyles(e.out)
	fmt.Fprintln(e.out, s.label.Render(fmt.Sprintf("%-36s %-19s %-17s %-5s %s", "ID", "Created", "Template", "Score", "Content")))
	fmt.Fprintln(e.out, strings.Repeat("-", 110))
	for _, en := range entries {
		tmpl := en.Template
		if !en.Success {
			tmpl = s.bad.Render(fmt.Sprintf("%-17s", "failed"))
		} else {
			tmpl = fmt.Sprintf("%-17s", tmpl)
		}
		content := strings.ReplaceAll(catalog.Truncate(en.Content, 40), "\n", " ")
		fmt.Fprintf(e.out, "%-36s %-19s %s %5.0f %s\n",
			en.ID, en.CreatedAt.Local().Format("2006-01-02 15:04:05"), tmpl, en.Score, content)
	}
	fmt.Fprintf(e.out, "\nTotal: %d entries\n", len(entries))
	return nil
}

func historyShowAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: overlay history show <id>")
	}
	e, store, err := openHistory(c)
	if err != nil {
		return err
	}
	defer store.Close()

	en, err := store.Get(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	if en == nil {
		return fmt.Errorf("no render with id %q", c.Args().First())
	}
	return writeJSON(e.out, en)
}

func historySummaryAction(c *cli.Context) error {
	e, store, err := openHistory(c)
	if err != nil {
		return err
	}
	defer store.Close()

	total, err := store.Count(c.Context)
	if err != nil {
		return err
	}
	counts, err := store.CountByTemplate(c.Context)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	s := newStyles(e.out)
	s.row(e.out, "renders", total)
	for _, name := range names {
		s.row(e.out, name, counts[name])
	}
	return nil
}

// --- service ---

func serviceCommand() *cli.Command {
	return &cli.Command{
		Name:  "service",
		Usage: "manage the user service that runs `overlay serve`",
		Subcommands: []*cli.Command{
			{Name: "install", Usage: "write and register the service file", Action: serviceAction(deploy.InstallService)},
			{Name: "uninstall", Usage: "remove the service file", Action: serviceAction(deploy.UninstallService)},
			{
				Name:  "print",
				Usage: "print the service file without installing it",
				Action: func(c *cli.Context) error {
					e, sc, err := serviceConfig(c)
					if err != nil {
						return err
					}
					body, err := deploy.GenerateService(sc)
					if err != nil {
						return err
					}
					fmt.Fprint(e.out, body)
					return nil
				},
			},
		},
	}
}

func serviceConfig(c *cli.Context) (*env, deploy.ServiceConfig, error) {
	e, err := loadEnv(c)
	if err != nil {
		return nil, deploy.ServiceConfig{}, err
	}
	sc := deploy.ServiceConfig{DataDir: e.cfg.DataDir, Addr: e.cfg.Addr}
	if p := c.String("config"); p != "" {
		if sc.ConfigPath, err = filepath.Abs(p); err != nil {
			return nil, sc, err
		}
	}
	return e, sc, nil
}

func serviceAction(fn func(deploy.ServiceConfig) (deploy.ServiceFile, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, sc, err := serviceConfig(c)
		if err != nil {
			return err
		}
		sf, err := fn(sc)
		if err != nil {
			return err
		}
		s := newStyles(e.out)
		s.row(e.out, "platform", sf.Platform)
		s.row(e.out, "file", sf.Path)
		s.row(e.out, "next", sf.Hint)
		return nil
	}
}
