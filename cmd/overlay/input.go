package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/ingest"
	"github.com/overhuman/overlay/internal/validator"
)

// inputFlags select where content comes from. Positional arguments win over
// --file, which wins over stdin.
func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read content from `PATH` (- for stdin)"},
		&cli.StringFlag{Name: "input", Usage: "input format: text, html or article (default: sniff)"},
		&cli.StringFlag{Name: "encoding", Usage: "input encoding: utf-8, gbk, gb18030 (default: detect)"},
		&cli.StringFlag{Name: "url", Usage: "source URL for article extraction"},
	}
}

func templateFlag() cli.Flag {
	return &cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "force a template (name, alias or close match)"}
}

func adjustFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "adjust", Aliases: []string{"a"}, Usage: "adjustments YAML `FILE`"},
		&cli.StringFlag{Name: "position", Usage: "override the anchor position"},
	}
}

// readContent ingests the command's content and returns its text.
func readContent(c *cli.Context, e *env) (string, error) {
	var r io.Reader
	switch {
	case c.NArg() > 0:
		r = strings.NewReader(strings.Join(c.Args().Slice(), " "))
	case c.String("file") != "" && c.String("file") != "-":
		f, err := os.Open(c.String("file"))
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	default:
		r = e.in
	}

	doc, err := ingest.Read(r, ingest.Options{
		Format:   ingest.Format(c.String("input")),
		Encoding: c.String("encoding"),
		URL:      c.String("url"),
	})
	if err != nil {
		return "", err
	}
	e.log.Debug("ingested", "format", string(doc.Format), "title", doc.Title, "chars", catalog.RuneLen(doc.Text))
	return doc.Text, nil
}

// templateOf resolves --template, falling back to the configured default
// template; ok is false when neither is set.
func templateOf(c *cli.Context, e *env, cat *catalog.Catalog) (t catalog.TemplateType, ok bool, err error) {
	name := c.String("template")
	if name == "" {
		name = e.cfg.DefaultType
	}
	if name == "" {
		return 0, false, nil
	}
	t, ok = cat.Lookup(name)
	if !ok {
		return 0, false, fmt.Errorf("unknown template %q", name)
	}
	return t, true, nil
}

// readAdjustments loads --adjust and applies --position on top. It returns
// nil when neither is given.
func readAdjustments(c *cli.Context) (*validator.Adjustments, error) {
	var adj validator.Adjustments
	set := false
	if path := c.String("adjust"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read adjustments: %w", err)
		}
		if err := yaml.Unmarshal(data, &adj); err != nil {
			return nil, fmt.Errorf("parse adjustments %s: %w", path, err)
		}
		set = true
	}
	if p := c.String("position"); p != "" {
		pos := catalog.Position(p)
		adj.Position = &pos
		set = true
	}
	if !set {
		return nil, nil
	}
	return &adj, nil
}
