//go:build windows

package autostart

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"
)

const (
	scmName    = "VitalisDashboard"
	scmDisplay = "Vitalis Dashboard"
)

// windowsManager implements Manager for Windows using the Service Control Manager.
type windowsManager struct{}

// New returns a Manager that uses the Windows Service Control Manager.
func New(runner cmdrunner.Runner) Manager { return NewWithMode(SystemMode, runner) }

// NewWithMode returns an SCM Manager. Windows services are always
// machine-wide; Install rejects user mode.
func NewWithMode(mode Mode, _ cmdrunner.Runner) Manager {
	if mode == UserMode {
		return unsupportedManager{}
	}
	return &windowsManager{}
}

// ServiceName returns the Windows service name.
func (w *windowsManager) ServiceName() string { return scmName }

// IsInstalled checks whether the service is registered in the SCM.
func (w *windowsManager) IsInstalled() (bool, error) {
	m, err := mgr.Connect()
	if err != nil {
		return false, fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(scmName)
	if err != nil {
		// Service does not exist.
		return false, nil
	}
	s.Close()
	return true, nil
}

// Install creates the Windows service and starts it immediately.
func (w *windowsManager) Install(ctx context.Context, launch Launch) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.CreateService(scmName, launch.ExecPath, mgr.Config{
		DisplayName: scmDisplay,
		Description: description,
		StartType:   mgr.StartAutomatic,
	}, launch.Args...)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	return nil
}

// Uninstall stops and deletes the Windows service.
func (w *windowsManager) Uninstall(ctx context.Context) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(scmName)
	if err != nil {
		return fmt.Errorf("opening service: %w", err)
	}
	defer s.Close()

	// Stop may fail if the service is already stopped.
	if _, err := s.Control(svc.Stop); err == nil {
		waitStopped(ctx, s)
	}

	if err := s.Delete(); err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	return nil
}

func waitStopped(ctx context.Context, s *mgr.Service) {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		status, err := s.Query()
		if err != nil || status.State == svc.Stopped {
			return
		}
		time.Sleep(300 * time.Millisecond)
	}
}
