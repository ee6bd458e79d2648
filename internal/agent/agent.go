// Package agent wraps the external coding agent executable behind a small
// capability: feed it a prompt and an optional session token, get back reply
// text and the session token to continue with. Nothing else about the agent
// is assumed, so tests substitute a stub.
package agent

import (
	"context"
	"time"
)

// Invoker is the conversational capability the relay and the reminder
// scheduler consume. Invoke blocks until the agent finishes. It never fails
// from the caller's perspective: any agent failure is converted into a short
// human-readable reply, and newSessionID is then the input session id, so a
// broken invocation cannot clobber a working session.
type Invoker interface {
	Invoke(ctx context.Context, prompt, sessionID string) (reply, newSessionID string)
}

// Config describes how to run the agent executable.
type Config struct {
	// Command is the agent binary.
	Command string
	// Workspace is the directory the agent operates on.
	Workspace string
	// Model is passed to --model.
	Model string
	// Timeout bounds one invocation; zero means no bound beyond ctx.
	Timeout time.Duration
}
