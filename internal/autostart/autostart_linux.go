//go:build linux

package autostart

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"
)

var unitTemplate = template.Must(template.New("unit").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`[Unit]
Description={{.Description}}
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart={{quote .ExecPath}}{{range .Args}} {{quote .}}{{end}}
Restart=on-failure
RestartSec=10
SyslogIdentifier={{.Name}}
{{- if .System}}

# Read-only access is all the sampler needs.
NoNewPrivileges=true
ProtectSystem=strict
ProtectHome=read-only
PrivateTmp=true
{{- end}}

[Install]
WantedBy={{if .System}}multi-user.target{{else}}default.target{{end}}
`))

// systemdManager implements Manager with a systemd unit.
type systemdManager struct {
	mode     Mode
	unitPath string
	runner   cmdrunner.Runner
}

// New returns a system-wide systemd Manager.
func New(runner cmdrunner.Runner) Manager { return NewWithMode(SystemMode, runner) }

// NewWithMode returns a systemd Manager; user mode installs a user unit
// controlled with systemctl --user.
func NewWithMode(mode Mode, runner cmdrunner.Runner) Manager {
	m := &systemdManager{mode: mode, runner: runner}
	if mode == UserMode {
		configDir, err := os.UserConfigDir()
		if err != nil {
			home, _ := os.UserHomeDir()
			configDir = filepath.Join(home, ".config")
		}
		m.unitPath = filepath.Join(configDir, "systemd", "user", serviceName+".service")
	} else {
		m.unitPath = filepath.Join("/etc/systemd/system", serviceName+".service")
	}
	return m
}

// ServiceName returns the systemd service name.
func (l *systemdManager) ServiceName() string { return serviceName }

// IsInstalled checks whether the unit file exists.
func (l *systemdManager) IsInstalled() (bool, error) {
	_, err := os.Stat(l.unitPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking unit file: %w", err)
	}
	return true, nil
}

// Install writes the unit file, reloads the daemon, then enables and starts
// the service.
func (l *systemdManager) Install(ctx context.Context, launch Launch) error {
	unit, err := l.render(launch)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.unitPath), 0755); err != nil {
		return fmt.Errorf("creating unit directory: %w", err)
	}
	if err := os.WriteFile(l.unitPath, unit, 0644); err != nil {
		return fmt.Errorf("writing unit file: %w", err)
	}

	for _, args := range [][]string{
		{"daemon-reload"},
		{"enable", "--now", serviceName},
	} {
		if err := l.systemctl(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// Uninstall stops, disables and removes the service.
func (l *systemdManager) Uninstall(ctx context.Context) error {
	// Best effort; the service may already be inactive.
	_ = l.systemctl(ctx, "disable", "--now", serviceName)

	if err := os.Remove(l.unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing unit file: %w", err)
	}

	_ = l.systemctl(ctx, "daemon-reload")
	return nil
}

func (l *systemdManager) render(launch Launch) ([]byte, error) {
	var buf bytes.Buffer
	err := unitTemplate.Execute(&buf, struct {
		Launch
		Name        string
		Description string
		System      bool
	}{launch, serviceName, description, l.mode == SystemMode})
	if err != nil {
		return nil, fmt.Errorf("rendering unit file: %w", err)
	}
	return buf.Bytes(), nil
}

func (l *systemdManager) systemctl(ctx context.Context, args ...string) error {
	if l.mode == UserMode {
		args = append([]string{"--user"}, args...)
	}
	if _, err := l.runner.Run(ctx, "systemctl", args...); err != nil {
		return fmt.Errorf("systemctl %v: %w", args, err)
	}
	return nil
}
