//go:build !windows

// Package service provides a stub implementation for non-Windows platforms.
// On macOS and Linux the dashboard runs as a foreground process; the Windows
// service wrapper is not needed.
package service

import (
	"context"

	"go.uber.org/zap"
)

// DashboardService is a no-op service wrapper for non-Windows platforms.
type DashboardService struct {
	logger  *zap.Logger
	startFn func(ctx context.Context) error
}

// New creates a stub service wrapper for non-Windows platforms.
func New(logger *zap.Logger, startFn func(ctx context.Context) error) *DashboardService {
	return &DashboardService{
		logger:  logger,
		startFn: startFn,
	}
}

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool {
	return false
}

// Run executes the dashboard directly (no service wrapper needed on non-Windows).
func (s *DashboardService) Run() error {
	return s.startFn(context.Background())
}
