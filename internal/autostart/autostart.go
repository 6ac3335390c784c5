// Package autostart registers the dashboard with the host's service manager
// so it starts at boot (system mode) or at login (user mode): systemd on
// Linux, launchd on macOS and the Service Control Manager on Windows.
package autostart

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupported is returned where no service manager integration exists.
var ErrUnsupported = errors.New("autostart is not supported on this platform")

const (
	serviceName = "vitalis-dashboard"
	description = "Vitalis system dashboard"
)

// Mode determines whether the service is installed system-wide or per-user.
type Mode int

const (
	SystemMode Mode = iota // System-wide service (requires root/admin)
	UserMode               // Per-user service/agent
)

func (m Mode) String() string {
	switch m {
	case SystemMode:
		return "system"
	case UserMode:
		return "user"
	default:
		return "unknown"
	}
}

// ParseMode parses "system" or "user".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "system":
		return SystemMode, nil
	case "user":
		return UserMode, nil
	default:
		return 0, fmt.Errorf("invalid install mode %q (expected \"system\" or \"user\")", s)
	}
}

// Launch describes the command the service manager should run.
type Launch struct {
	ExecPath string
	Args     []string
}

// Manager provides platform-specific autostart installation.
type Manager interface {
	IsInstalled() (bool, error)
	Install(ctx context.Context, launch Launch) error
	Uninstall(ctx context.Context) error
	ServiceName() string
}
