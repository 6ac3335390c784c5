// OS naming. Uses platform-specific sources for the OS name and version:
//   - Linux: /etc/os-release, then lsb_release
//   - macOS: sw_vers
//   - Windows: CIM via PowerShell
//
// Results are cached since OS version rarely changes during runtime.

package collector

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/Guliveer/vitalis/dashboard/internal/cmdrunner"
)

// OSInfoResult holds the collected OS information.
type OSInfoResult struct {
	OSVersion string `json:"os_version"` // e.g., "14.2.1", "22.04", "10.0.22631"
	OSName    string `json:"os_name"`    // e.g., "macOS", "Ubuntu 22.04.4 LTS", "Microsoft Windows 11 Pro"
}

// osInfoCache resolves OS naming once per process.
type osInfoCache struct {
	runner    cmdrunner.Runner
	osRelease string
	cache     OSInfoResult
	once      sync.Once
}

func newOSInfoCache(runner cmdrunner.Runner) *osInfoCache {
	return &osInfoCache{runner: runner, osRelease: "/etc/os-release"}
}

func (c *osInfoCache) get(ctx context.Context) OSInfoResult {
	c.once.Do(func() {
		c.cache = c.collect(ctx)
	})
	return c.cache
}

// collect dispatches to platform-specific collection logic.
func (c *osInfoCache) collect(ctx context.Context) OSInfoResult {
	switch runtime.GOOS {
	case "linux":
		return c.linux(ctx)
	case "darwin":
		return c.darwin(ctx)
	case "windows":
		return c.windows(ctx)
	default:
		return OSInfoResult{
			OSName:    runtime.GOOS,
			OSVersion: "unknown",
		}
	}
}

// linux reads /etc/os-release to determine the distribution name and
// version. Falls back to lsb_release if the file is unavailable.
func (c *osInfoCache) linux(ctx context.Context) OSInfoResult {
	result := OSInfoResult{
		OSName:    "Linux",
		OSVersion: "unknown",
	}

	if data, err := os.ReadFile(c.osRelease); err == nil {
		fields := parseKeyValueFile(string(data))
		if name, ok := fields["NAME"]; ok {
			result.OSName = strings.Trim(name, "\"")
		}
		if version, ok := fields["VERSION_ID"]; ok {
			result.OSVersion = strings.Trim(version, "\"")
		}
		if pretty, ok := fields["PRETTY_NAME"]; ok {
			result.OSName = strings.Trim(pretty, "\"")
		}
		return result
	}

	if c.runner == nil {
		return result
	}
	if out, err := c.runner.Run(ctx, "lsb_release", "-d", "-s"); err == nil && out != "" {
		result.OSName = out
	}
	if out, err := c.runner.Run(ctx, "lsb_release", "-r", "-s"); err == nil && out != "" {
		result.OSVersion = out
	}
	return result
}

// darwin uses sw_vers to determine macOS name and version.
func (c *osInfoCache) darwin(ctx context.Context) OSInfoResult {
	result := OSInfoResult{
		OSName:    "macOS",
		OSVersion: "unknown",
	}
	if c.runner == nil {
		return result
	}
	if out, err := c.runner.Run(ctx, "sw_vers", "-productVersion"); err == nil && out != "" {
		result.OSVersion = out
	}
	if out, err := c.runner.Run(ctx, "sw_vers", "-productName"); err == nil && out != "" {
		result.OSName = out
	}
	return result
}

// windows uses PowerShell to read the OS caption and version.
func (c *osInfoCache) windows(ctx context.Context) OSInfoResult {
	result := OSInfoResult{
		OSName:    "Windows",
		OSVersion: "unknown",
	}
	if c.runner == nil {
		return result
	}
	if out, err := c.runner.Run(ctx, "powershell", "-NoProfile", "-Command",
		"(Get-CimInstance Win32_OperatingSystem).Caption"); err == nil && out != "" {
		result.OSName = out
	}
	if out, err := c.runner.Run(ctx, "powershell", "-NoProfile", "-Command",
		"(Get-CimInstance Win32_OperatingSystem).Version"); err == nil && out != "" {
		result.OSVersion = out
	}
	return result
}

// parseKeyValueFile parses a file with KEY=VALUE lines (like /etc/os-release).
func parseKeyValueFile(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			fields[parts[0]] = parts[1]
		}
	}
	return fields
}
