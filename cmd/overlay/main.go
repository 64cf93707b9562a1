// Package main is the overlay command-line tool.
//
// Usage:
//
//	overlay classify [text]     pick a template for content
//	overlay validate            check adjustments against a template
//	overlay render [text]       render an overlay to PNG, JPEG or SVG
//	overlay catalog [name]      dump template configurations as YAML
//	overlay serve               run the HTTP API
//	overlay stop                stop a running server
//	overlay history             list or search past renders
//	overlay service install     install a user service for `overlay serve`
//	overlay version             print version
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/overhuman/overlay/internal/config"
	"github.com/overhuman/overlay/internal/observability"
)

const (
	version = "0.1.0"
	appName = "overlay"
)

// errNotCompliant makes validate exit with status 2.
var errNotCompliant = errors.New("adjustments are not compliant")

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, errNotCompliant) {
		return 2
	}
	return 1
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      appName,
		Usage:     "content-adaptive frame overlays for video",
		Version:   version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default <data>/config.yaml)",
				EnvVars: []string{config.EnvConfig},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (overrides config)",
			},
		},
		Commands: []*cli.Command{
			classifyCommand(),
			validateCommand(),
			renderCommand(),
			catalogCommand(),
			serveCommand(),
			stopCommand(),
			historyCommand(),
			serviceCommand(),
			{
				Name:  "version",
				Usage: "print version",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "%s v%s\n", appName, version)
					return nil
				},
			},
		},
	}
}

// env is what every action needs: settings, a logger and the app streams.
type env struct {
	cfg config.Config
	log *observability.Logger
	in  io.Reader
	out io.Writer
}

// loadEnv reads the config named by --config and builds the logger on the
// app's error stream.
func loadEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	in := c.App.Reader
	if in == nil {
		in = os.Stdin
	}
	return &env{
		cfg: cfg,
		log: observability.NewLoggerWithOptions(appName, c.App.ErrWriter, cfg.Log.Level, cfg.Log.Format),
		in:  in,
		out: c.App.Writer,
	}, nil
}
