package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jes/cursor-claw/internal/command"
)

// runner executes the agent command; injectable so tests can script output.
type runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (command.Result, error)
}

type realRunner struct{}

func (realRunner) Run(ctx context.Context, dir, name string, args ...string) (command.Result, error) {
	return command.Run(ctx, dir, name, args...)
}

// CLI invokes the agent executable in non-interactive mode and implements
// Invoker.
type CLI struct {
	config Config
	runner runner
	logger *slog.Logger
}

// NewCLI creates an agent client for the given configuration.
func NewCLI(config Config, logger *slog.Logger) (*CLI, error) {
	if config.Command == "" {
		return nil, fmt.Errorf("agent command cannot be empty")
	}
	if config.Workspace == "" {
		return nil, fmt.Errorf("agent workspace cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CLI{config: config, runner: realRunner{}, logger: logger}, nil
}

// Invoke runs one agent invocation and blocks until it exits. The agent runs
// unattended: command execution and file edits are pre-approved, since there
// is no terminal to confirm them on. With a session id, --resume continues
// that conversation; without one the agent starts fresh and mints a new id.
func (c *CLI) Invoke(ctx context.Context, prompt, sessionID string) (string, string) {
	if strings.TrimSpace(prompt) == "" {
		return "(no prompt)", sessionID
	}

	if c.config.Timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
			defer cancel()
		}
	}

	args := []string{
		"--print", "--trust", "--force",
		"--workspace", c.config.Workspace,
		"--model", c.config.Model,
		"--output-format", "json",
	}
	if sessionID != "" {
		args = append(args, "--resume", sessionID)
	}
	args = append(args, prompt)

	res, runErr := c.runner.Run(ctx, c.config.Workspace, c.config.Command, args...)

	reply, newSessionID := parseOutput(res.Stdout)
	if newSessionID == "" {
		newSessionID = sessionID
	}

	if runErr != nil && reply == "" {
		c.logger.Error("agent invocation failed", "error", runErr, "stderr", strings.TrimSpace(res.Stderr))
		return failureReply(ctx, runErr, res, c.config.Timeout), sessionID
	}
	if reply == "" {
		return "(no output)", newSessionID
	}
	return reply, newSessionID
}

// SetRunner injects a scripted runner. Test hook only.
func (c *CLI) SetRunner(r runner) {
	c.runner = r
}

func failureReply(ctx context.Context, runErr error, res command.Result, timeout time.Duration) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Sprintf("Agent timed out after %v.", timeout)
	}
	if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
		return stderr
	}
	return fmt.Sprintf("Error running agent: %v", runErr)
}
