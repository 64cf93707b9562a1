package deploy

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

// ServiceConfig describes the user service that runs `overlay serve`.
type ServiceConfig struct {
	BinaryPath string
	ConfigPath string // optional --config flag
	DataDir    string
	Addr       string
	// Home and GOOS default to the current user and platform.
	Home string
	GOOS string
}

// ServiceFile is an installed (or removed) service definition.
type ServiceFile struct {
	Path     string
	Platform string // systemd or launchd
	Hint     string // follow-up command for the user
}

const serviceLabel = "io.overlay.server"

var systemdUnit = template.Must(template.New("unit").Parse(`[Unit]
Description=Overlay template server
After=network-online.target

[Service]
Type=simple
ExecStart={{.BinaryPath}}{{if .ConfigPath}} --config {{.ConfigPath}}{{end}} serve
Environment=OVERLAY_DATA={{.DataDir}}
Environment=OVERLAY_ADDR={{.Addr}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

var launchdPlist = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
  <key>Label</key><string>{{.Label}}</string>
  <key>ProgramArguments</key>
  <array>
    <string>{{.BinaryPath}}</string>{{if .ConfigPath}}
    <string>--config</string>
    <string>{{.ConfigPath}}</string>{{end}}
    <string>serve</string>
  </array>
  <key>EnvironmentVariables</key>
  <dict>
    <key>OVERLAY_DATA</key><string>{{.DataDir}}</string>
    <key>OVERLAY_ADDR</key><string>{{.Addr}}</string>
  </dict>
  <key>RunAtLoad</key><true/>
  <key>KeepAlive</key><true/>
  <key>StandardErrorPath</key><string>{{.LogPath}}</string>
</dict>
</plist>
`))

func (c ServiceConfig) withDefaults() (ServiceConfig, error) {
	if c.GOOS == "" {
		c.GOOS = runtime.GOOS
	}
	if c.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return c, fmt.Errorf("home dir: %w", err)
		}
		c.Home = home
	}
	if c.BinaryPath == "" {
		exe, err := os.Executable()
		if err != nil {
			return c, fmt.Errorf("locate binary: %w", err)
		}
		c.BinaryPath = exe
	}
	return c, nil
}

func (c ServiceConfig) servicePath() (string, string, error) {
	switch c.GOOS {
	case "linux":
		return filepath.Join(c.Home, ".config", "systemd", "user", "overlay.service"), "systemd", nil
	case "darwin":
		return filepath.Join(c.Home, "Library", "LaunchAgents", serviceLabel+".plist"), "launchd", nil
	}
	return "", "", fmt.Errorf("unsupported platform: %s (use macOS or Linux)", c.GOOS)
}

// GenerateService renders the service definition for cfg.GOOS.
func GenerateService(cfg ServiceConfig) (string, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	switch cfg.GOOS {
	case "linux":
		err = systemdUnit.Execute(&buf, cfg)
	case "darwin":
		err = launchdPlist.Execute(&buf, struct {
			ServiceConfig
			Label   string
			LogPath string
		}{cfg, serviceLabel, filepath.Join(cfg.DataDir, "overlay.log")})
	default:
		return "", fmt.Errorf("unsupported platform: %s", cfg.GOOS)
	}
	if err != nil {
		return "", fmt.Errorf("render service file: %w", err)
	}
	return buf.String(), nil
}

// InstallService writes the user service definition for `overlay serve`.
func InstallService(cfg ServiceConfig) (ServiceFile, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return ServiceFile{}, err
	}
	path, platform, err := cfg.servicePath()
	if err != nil {
		return ServiceFile{}, err
	}
	body, err := GenerateService(cfg)
	if err != nil {
		return ServiceFile{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ServiceFile{}, fmt.Errorf("create service dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return ServiceFile{}, fmt.Errorf("write service file: %w", err)
	}

	hint := "systemctl --user daemon-reload && systemctl --user enable --now overlay"
	if platform == "launchd" {
		hint = "launchctl load " + path
	}
	return ServiceFile{Path: path, Platform: platform, Hint: hint}, nil
}

// UninstallService removes the service definition.
func UninstallService(cfg ServiceConfig) (ServiceFile, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return ServiceFile{}, err
	}
	path, platform, err := cfg.servicePath()
	if err != nil {
		return ServiceFile{}, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ServiceFile{}, fmt.Errorf("service not installed (no file at %s)", path)
		}
		return ServiceFile{}, fmt.Errorf("remove service file: %w", err)
	}

	hint := "systemctl --user disable overlay && systemctl --user daemon-reload"
	if platform == "launchd" {
		hint = "launchctl unload " + path
	}
	return ServiceFile{Path: path, Platform: platform, Hint: hint}, nil
}
