// Package command is the single choke point for executing external
// processes, so every subprocess in the codebase gets consistent context
// handling and error reporting.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Result carries the captured streams of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes name with args in dir, honoring ctx for cancellation and
// deadline. Stdout and stderr are captured separately; the agent protocol
// speaks on stdout only, with diagnostics on stderr. A nonzero exit is
// returned as an error alongside the captured Result.
func Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, fmt.Errorf("command failed: %s %s (exit code %d)",
				name, strings.Join(args, " "), res.ExitCode)
		}
		res.ExitCode = -1
		return res, fmt.Errorf("command failed: %s %s: %w", name, strings.Join(args, " "), err)
	}
	return res, nil
}
