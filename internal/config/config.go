// Package config loads overlay settings from a YAML file with environment
// overrides. Every field has a default, so a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfig   = "OVERLAY_CONFIG"
	EnvData     = "OVERLAY_DATA"
	EnvAddr     = "OVERLAY_ADDR"
	EnvLogLevel = "OVERLAY_LOG_LEVEL"
	EnvCanvas   = "OVERLAY_CANVAS"
)

// Canvas is the render surface size in pixels.
type Canvas struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (c Canvas) String() string { return fmt.Sprintf("%dx%d", c.Width, c.Height) }

// Log configures the structured logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// History configures the render history store.
type History struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty means <data_dir>/history.db
}

// Config is the full settings tree.
type Config struct {
	DataDir     string  `yaml:"data_dir"`
	Addr        string  `yaml:"addr"`
	Canvas      Canvas  `yaml:"canvas"`
	FPS         int     `yaml:"fps"`
	SampleSize  int     `yaml:"sample_size"`
	Log         Log     `yaml:"log"`
	History     History `yaml:"history"`
	ChromePath  string  `yaml:"chrome_path,omitempty"`
	DefaultType string  `yaml:"default_template,omitempty"` // forced by the CLI when --template is unset
}

// Default returns the built-in settings rooted at dataDir.
func Default(dataDir string) Config {
	return Config{
		DataDir:    dataDir,
		Addr:       "127.0.0.1:9191",
		Canvas:     Canvas{Width: 1920, Height: 1080},
		FPS:        60,
		SampleSize: 100,
		Log:        Log{Level: "info", Format: "json"},
		History:    History{Enabled: true},
	}
}

// DataDir resolves the data directory: $OVERLAY_DATA, else ~/.overlay.
func DataDir(getenv func(string) string) string {
	if d := getenv(EnvData); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".overlay"
	}
	return filepath.Join(home, ".overlay")
}

// Load reads settings from path, or from $OVERLAY_CONFIG, or from
// <data_dir>/config.yaml, then applies environment overrides.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	cfg := Default(DataDir(getenv))
	if path == "" {
		path = getenv(EnvConfig)
	}
	explicit := path != ""
	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults only.
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvData); v != "" {
		c.DataDir = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Addr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvCanvas); v != "" {
		canvas, err := ParseCanvas(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCanvas, err)
		}
		c.Canvas = canvas
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas %s: width and height must be positive", c.Canvas)
	}
	if c.FPS <= 0 || c.FPS > 240 {
		return fmt.Errorf("fps %d out of range (1-240)", c.FPS)
	}
	if c.SampleSize <= 0 {
		return fmt.Errorf("sample_size %d must be positive", c.SampleSize)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log format %q: want json or text", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log level %q: want debug, info, warn or error", c.Log.Level)
	}
	return nil
}

// HistoryPath is where the history database lives.
func (c Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(c.DataDir, "history.db")
}

// PIDPath is where the server writes its PID file.
func (c Config) PIDPath() string {
	return filepath.Join(c.DataDir, "overlay.pid")
}

// Save writes c to path as YAML, creating the directory.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ParseCanvas parses "WIDTHxHEIGHT", e.g. "1280x720".
func ParseCanvas(s string) (Canvas, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Canvas{}, fmt.Errorf("canvas %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return Canvas{}, fmt.Errorf("canvas width %q: %w", w, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return Canvas{}, fmt.Errorf("canvas height %q: %w", h, err)
	}
	if width <= 0 || height <= 0 {
		return Canvas{}, fmt.Errorf("canvas %q: width and height must be positive", s)
	}
	return Canvas{Width: width, Height: height}, nil
}
