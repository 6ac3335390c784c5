//go:build !linux && !darwin && !windows

package autostart

import "github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"

// New returns a Manager that reports ErrUnsupported.
func New(runner cmdrunner.Runner) Manager { return NewWithMode(SystemMode, runner) }

// NewWithMode returns a Manager that reports ErrUnsupported.
func NewWithMode(Mode, cmdrunner.Runner) Manager { return unsupportedManager{} }
