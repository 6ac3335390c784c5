// Package cmdrunner runs external helper commands (vendor probes such as
// nvidia-smi or sw_vers) with a hard timeout. A hung, missing or failing
// helper is reported as ErrUnavailable so callers can degrade that one field.
package cmdrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrUnavailable is wrapped by every error returned from Run.
var ErrUnavailable = errors.New("command unavailable")

// DefaultTimeout bounds a single command when no timeout is configured.
const DefaultTimeout = 2 * time.Second

// waitDelay caps how long Run waits for output pipes after the command is
// killed, in case a child it spawned still holds them open.
const waitDelay = 500 * time.Millisecond

// Runner executes an external command and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct {
	timeout  time.Duration
	lookPath func(string) (string, error)
}

// New returns an ExecRunner that kills commands running longer than timeout.
func New(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{timeout: timeout, lookPath: exec.LookPath}
}

// Run executes name with args. Stderr is folded into the error message.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if _, err := r.lookPath(name); err != nil {
		return "", fmt.Errorf("%s: not installed: %w", name, ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%s: timed out after %s: %w", name, r.timeout, ErrUnavailable)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s: %s: %w", name, msg, ErrUnavailable)
	}
	return strings.TrimSpace(stdout.String()), nil
}
