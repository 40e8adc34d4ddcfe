package claude

import (
	"context"
	"time"
)

// Invoker runs a single prompt through the Claude CLI.
type Invoker interface {
	// Invoke blocks until the process exits or the configured timeout elapses.
	// Failures are reported through Result, never by panicking or blocking past the timeout.
	Invoke(ctx context.Context, inv Invocation) Result
}

// Invocation describes one prompt run.
type Invocation struct {
	Prompt      string
	ProjectPath string
	Model       string
}

// Result captures the outcome of one invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	WorkDir  string
	Duration time.Duration
	// TimedOut is set when the process was killed after exceeding the timeout.
	TimedOut bool
	// Err is set when the process could not be run to completion: a launch
	// failure or ErrTimeout. A non-zero exit status alone leaves it nil.
	Err error
}
