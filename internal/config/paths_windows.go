//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	local := os.Getenv("LOCALAPPDATA")
	programData := os.Getenv("ProgramData")
	return []string{
		filepath.Join(local, "Vitalis", "dashboard.yaml"),
		filepath.Join(programData, "Vitalis", "dashboard.yaml"),
	}
}

// defaultDiskPath is the system drive root, usually C:\.
func defaultDiskPath() string {
	drive := os.Getenv("SystemDrive")
	if drive == "" {
		drive = "C:"
	}
	return drive + `\`
}
