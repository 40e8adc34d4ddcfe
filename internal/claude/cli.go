package claude

import (
	"bytes"
	"claudebridge/config"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrTimeout is reported in Result.Err when the CLI exceeds its time limit.
var ErrTimeout = errors.New("claude cli timed out")

// TimeoutMessage is reported on stderr when the CLI is killed for running too long.
const TimeoutMessage = "Timeout: Claude took too long to respond"

// waitDelay bounds how long Wait keeps draining pipes after the process is
// killed, in case a grandchild inherited stdout or stderr.
const waitDelay = 2 * time.Second

// CLI invokes the Claude Code binary in non-interactive mode.
type CLI struct {
	binaryPath string
	workDir    string
	timeout    time.Duration
	unsetEnv   []string
}

// NewCLI creates a CLI invoker from the claude section of the configuration.
func NewCLI(cfg config.ClaudeConfig) *CLI {
	unset := make([]string, len(cfg.UnsetEnv))
	copy(unset, cfg.UnsetEnv)

	logrus.Infof("Using Claude CLI binary: %s", cfg.BinaryPath)
	logrus.Infof("Using default working directory: %s", cfg.WorkDir)

	return &CLI{
		binaryPath: cfg.BinaryPath,
		workDir:    cfg.WorkDir,
		timeout:    cfg.Timeout,
		unsetEnv:   unset,
	}
}

// BuildArgs constructs the argument list for a non-interactive run.
func BuildArgs(prompt string) []string {
	return []string{"--print", "-p", prompt}
}

// ResolveWorkDir returns projectPath verbatim when set, else the default directory.
func (c *CLI) ResolveWorkDir(projectPath string) string {
	if projectPath != "" {
		return projectPath
	}
	return c.workDir
}

// Invoke implements Invoker.
func (c *CLI) Invoke(ctx context.Context, inv Invocation) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	workDir := c.ResolveWorkDir(inv.ProjectPath)
	log := logrus.WithFields(logrus.Fields{
		"binary":   c.binaryPath,
		"work_dir": workDir,
	})

	cmd := exec.CommandContext(ctx, c.binaryPath, BuildArgs(inv.Prompt)...)
	cmd.Dir = workDir
	cmd.Env = FilterEnv(os.Environ(), c.unsetEnv)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("Running Claude CLI with a prompt of %d characters", len(inv.Prompt))
	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	res := Result{
		WorkDir:  workDir,
		Duration: elapsed,
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if timedOut(runErr, ctx.Err()) {
		log.Warnf("Claude CLI killed after exceeding %s", c.timeout)
		res.TimedOut = true
		res.Err = ErrTimeout
		res.Stderr = TimeoutMessage
		return res
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil, errors.Is(runErr, exec.ErrWaitDelay):
	case errors.As(runErr, &exitErr):
		log.Debugf("Claude CLI exited with status %d", res.ExitCode)
	default:
		log.Errorf("Failed to run Claude CLI: %v", runErr)
		res.Err = runErr
		res.Stderr = runErr.Error()
		return res
	}

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	log.WithField("duration", elapsed).Infof("Claude CLI finished: %d bytes of output, %d bytes on stderr", len(res.Stdout), len(res.Stderr))
	return res
}

// timedOut reports whether the run was cut short by the deadline. A process
// that exited cleanly just before the deadline fired keeps its output.
func timedOut(runErr, ctxErr error) bool {
	return runErr != nil && errors.Is(ctxErr, context.DeadlineExceeded)
}
