//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".vitalis", "dashboard.yaml"),
		"/etc/vitalis/dashboard.yaml",
	}
}

func defaultDiskPath() string { return "/" }
