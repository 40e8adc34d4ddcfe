package claude

import (
	"claudebridge/config"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// writeScript creates an executable shell script standing in for the claude binary.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claude")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("Failed to write fake binary: %v", err)
	}
	return path
}

func newTestCLI(t *testing.T, binary string, timeout time.Duration) (*CLI, string) {
	t.Helper()
	workDir := t.TempDir()
	return NewCLI(config.ClaudeConfig{
		BinaryPath: binary,
		WorkDir:    workDir,
		Timeout:    timeout,
		UnsetEnv:   []string{"CLAUDECODE"},
	}), workDir
}

func realPath(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		t.Fatalf("Failed to resolve %s: %v", path, err)
	}
	return resolved
}

func TestBuildArgs(t *testing.T) {
	got := BuildArgs("summarize the README")
	expected := []string{"--print", "-p", "summarize the README"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected: %v, got: %v", expected, got)
	}
}

func TestInvoke_Success(t *testing.T) {
	cli, _ := newTestCLI(t, writeScript(t, `echo "hello from claude"`), 10*time.Second)

	res := cli.Invoke(context.Background(), Invocation{Prompt: "hi"})

	if res.Err != nil {
		t.Fatalf("Expected no error, got: %v", res.Err)
	}
	if res.Stdout != "hello from claude\n" {
		t.Errorf("Expected stdout 'hello from claude\\n', got: %q", res.Stdout)
	}
	if res.Stderr != "" {
		t.Errorf("Expected empty stderr, got: %q", res.Stderr)
	}
	if res.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got: %d", res.ExitCode)
	}
}

func TestInvoke_PassesArguments(t *testing.T) {
	cli, _ := newTestCLI(t, writeScript(t, `printf '%s\n' "$@"`), 10*time.Second)

	res := cli.Invoke(context.Background(), Invocation{Prompt: "explain this repo"})

	expected := "--print\n-p\nexplain this repo\n"
	if res.Stdout != expected {
		t.Errorf("Expected args %q, got: %q", expected, res.Stdout)
	}
}

func TestInvoke_WorkingDirectory(t *testing.T) {
	cli, defaultDir := newTestCLI(t, writeScript(t, `pwd -P`), 10*time.Second)
	override := t.TempDir()

	testCases := []struct {
		name        string
		projectPath string
		expected    string
	}{
		{name: "default", projectPath: "", expected: realPath(t, defaultDir)},
		{name: "override", projectPath: override, expected: realPath(t, override)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := cli.Invoke(context.Background(), Invocation{Prompt: "pwd", ProjectPath: tc.projectPath})
			if res.Err != nil {
				t.Fatalf("Expected no error, got: %v", res.Err)
			}
			if got := strings.TrimSpace(res.Stdout); got != tc.expected {
				t.Errorf("Expected working directory %s, got: %s", tc.expected, got)
			}
		})
	}
}

func TestResolveWorkDir(t *testing.T) {
	cli := &CLI{workDir: "/srv/projects"}

	if got := cli.ResolveWorkDir(""); got != "/srv/projects" {
		t.Errorf("Expected default '/srv/projects', got: %s", got)
	}
	// Overrides are used verbatim, without cleaning or resolving.
	if got := cli.ResolveWorkDir("./some//dir/"); got != "./some//dir/" {
		t.Errorf("Expected override verbatim, got: %s", got)
	}
}

func TestInvoke_StripsEnvironment(t *testing.T) {
	t.Setenv("CLAUDECODE", "1")
	t.Setenv("BRIDGE_TEST_VAR", "kept")
	cli, _ := newTestCLI(t, writeScript(t, `printf '%s|%s' "${CLAUDECODE-unset}" "${BRIDGE_TEST_VAR-unset}"`), 10*time.Second)

	res := cli.Invoke(context.Background(), Invocation{Prompt: "env"})

	if res.Stdout != "unset|kept" {
		t.Errorf("Expected 'unset|kept', got: %q", res.Stdout)
	}
	if os.Getenv("CLAUDECODE") != "1" {
		t.Error("Expected the server environment to be left untouched")
	}
}

func TestInvoke_NonZeroExit(t *testing.T) {
	cli, _ := newTestCLI(t, writeScript(t, "echo partial\necho 'something broke' >&2\nexit 3"), 10*time.Second)

	res := cli.Invoke(context.Background(), Invocation{Prompt: "fail"})

	if res.Err != nil {
		t.Errorf("Expected non-zero exit not to be a launch error, got: %v", res.Err)
	}
	if res.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got: %d", res.ExitCode)
	}
	if res.Stdout != "partial\n" {
		t.Errorf("Expected stdout 'partial\\n', got: %q", res.Stdout)
	}
	if res.Stderr != "something broke\n" {
		t.Errorf("Expected stderr 'something broke\\n', got: %q", res.Stderr)
	}
}

func TestInvoke_Timeout(t *testing.T) {
	cli, _ := newTestCLI(t, writeScript(t, "echo started\nexec sleep 5"), 200*time.Millisecond)

	start := time.Now()
	res := cli.Invoke(context.Background(), Invocation{Prompt: "slow"})
	elapsed := time.Since(start)

	if !res.TimedOut {
		t.Error("Expected TimedOut to be set")
	}
	if !errors.Is(res.Err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got: %v", res.Err)
	}
	if res.Stdout != "" {
		t.Errorf("Expected empty stdout on timeout, got: %q", res.Stdout)
	}
	if res.Stderr != "Timeout: Claude took too long to respond" {
		t.Errorf("Expected timeout description, got: %q", res.Stderr)
	}
	if elapsed >= 5*time.Second {
		t.Errorf("Expected the process to be killed early, took %s", elapsed)
	}
}

func TestInvoke_LaunchFailures(t *testing.T) {
	testCases := []struct {
		name        string
		binary      func(t *testing.T) string
		projectPath func(t *testing.T) string
	}{
		{
			name:        "missing binary",
			binary:      func(t *testing.T) string { return filepath.Join(t.TempDir(), "does-not-exist") },
			projectPath: func(t *testing.T) string { return "" },
		},
		{
			name: "not executable",
			binary: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "claude")
				if err := os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0644); err != nil {
					t.Fatalf("Failed to write file: %v", err)
				}
				return path
			},
			projectPath: func(t *testing.T) string { return "" },
		},
		{
			name:   "missing working directory",
			binary: func(t *testing.T) string { return writeScript(t, "echo hi") },
			projectPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "gone")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cli, _ := newTestCLI(t, tc.binary(t), 10*time.Second)

			res := cli.Invoke(context.Background(), Invocation{Prompt: "hi", ProjectPath: tc.projectPath(t)})

			if res.Err == nil {
				t.Fatal("Expected a launch error, got nil")
			}
			if res.TimedOut {
				t.Error("Expected TimedOut to be false")
			}
			if res.Stdout != "" {
				t.Errorf("Expected empty stdout, got: %q", res.Stdout)
			}
			if res.Stderr != res.Err.Error() {
				t.Errorf("Expected stderr to carry the error description, got: %q", res.Stderr)
			}
		})
	}
}

func TestTimedOut(t *testing.T) {
	killed := errors.New("signal: killed")

	testCases := []struct {
		name     string
		runErr   error
		ctxErr   error
		expected bool
	}{
		{name: "killed at deadline", runErr: killed, ctxErr: context.DeadlineExceeded, expected: true},
		{name: "clean exit racing the deadline", runErr: nil, ctxErr: context.DeadlineExceeded, expected: false},
		{name: "failure before deadline", runErr: killed, ctxErr: nil, expected: false},
		{name: "cancelled", runErr: killed, ctxErr: context.Canceled, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := timedOut(tc.runErr, tc.ctxErr); got != tc.expected {
				t.Errorf("expected: %v, got: %v", tc.expected, got)
			}
		})
	}
}

func TestCLI_ImplementsInvoker(t *testing.T) {
	var _ Invoker = (*CLI)(nil)
}
