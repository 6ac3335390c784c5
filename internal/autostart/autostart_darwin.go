//go:build darwin

package autostart

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"
)

const serviceLabel = "com.vitalis.dashboard"

var plistTemplate = template.Must(template.New("plist").Funcs(template.FuncMap{
	"xml": xmlEscape,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{xml .ExecPath}}</string>
{{- range .Args}}
        <string>{{xml .}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{xml .LogDir}}/vitalis-dashboard.stdout.log</string>
    <key>StandardErrorPath</key>
    <string>{{xml .LogDir}}/vitalis-dashboard.stderr.log</string>
</dict>
</plist>
`))

type launchdManager struct {
	mode      Mode
	plistPath string
	logDir    string
	runner    cmdrunner.Runner
}

// New returns a system-wide launchd Manager (a LaunchDaemon).
func New(runner cmdrunner.Runner) Manager { return NewWithMode(SystemMode, runner) }

// NewWithMode returns a launchd Manager; user mode installs a LaunchAgent.
func NewWithMode(mode Mode, runner cmdrunner.Runner) Manager {
	m := &launchdManager{mode: mode, runner: runner}
	if mode == UserMode {
		home, _ := os.UserHomeDir()
		m.plistPath = filepath.Join(home, "Library", "LaunchAgents", serviceLabel+".plist")
		m.logDir = filepath.Join(home, "Library", "Logs")
	} else {
		m.plistPath = filepath.Join("/Library/LaunchDaemons", serviceLabel+".plist")
		m.logDir = "/var/log"
	}
	return m
}

func (d *launchdManager) ServiceName() string { return serviceLabel }

func (d *launchdManager) IsInstalled() (bool, error) {
	_, err := os.Stat(d.plistPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking plist file: %w", err)
	}
	return true, nil
}

func (d *launchdManager) Install(ctx context.Context, launch Launch) error {
	plist, err := d.render(launch)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(d.plistPath), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(d.plistPath), err)
	}
	if err := os.WriteFile(d.plistPath, plist, 0644); err != nil {
		return fmt.Errorf("creating plist: %w", err)
	}
	if _, err := d.runner.Run(ctx, "launchctl", "load", "-w", d.plistPath); err != nil {
		return fmt.Errorf("loading plist: %w", err)
	}
	return nil
}

func (d *launchdManager) Uninstall(ctx context.Context) error {
	_, _ = d.runner.Run(ctx, "launchctl", "unload", d.plistPath)
	if err := os.Remove(d.plistPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing plist: %w", err)
	}
	return nil
}

func (d *launchdManager) render(launch Launch) ([]byte, error) {
	var buf bytes.Buffer
	err := plistTemplate.Execute(&buf, struct {
		Launch
		Label  string
		LogDir string
	}{launch, serviceLabel, d.logDir})
	if err != nil {
		return nil, fmt.Errorf("rendering plist: %w", err)
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) (string, error) {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
