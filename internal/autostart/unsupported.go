package autostart

import "context"

// unsupportedManager reports ErrUnsupported for every operation.
type unsupportedManager struct{}

func (unsupportedManager) IsInstalled() (bool, error)            { return false, ErrUnsupported }
func (unsupportedManager) Install(context.Context, Launch) error { return ErrUnsupported }
func (unsupportedManager) Uninstall(context.Context) error       { return ErrUnsupported }
func (unsupportedManager) ServiceName() string                   { return serviceName }
