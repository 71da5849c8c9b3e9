// Package runner invokes external tools (git, cmake, ctest, python) with an
// explicit working directory and environment, and reports their exit status.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Cmd describes one external invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string            // working directory; empty means the current one
	Env  map[string]string // merged over the process environment
}

func (c Cmd) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result is the outcome of a finished invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ProcessError reports an external command that could not be started or
// exited with a non-zero status.
type ProcessError struct {
	Cmd      Cmd
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", e.Cmd.Name, e.ExitCode)
	if e.ExitCode < 0 {
		msg = fmt.Sprintf("%s: %v", e.Cmd.Name, e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Runner executes external commands. A non-nil error is always a
// *ProcessError unless ctx was cancelled before the command started.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (*Result, error)
}

// Exec runs commands with os/exec. Output is streamed to Stdout/Stderr and
// also captured into the Result.
type Exec struct {
	Log    *zap.SugaredLogger
	Stdout io.Writer
	Stderr io.Writer
}

var _ Runner = (*Exec)(nil)

// NewExec returns an Exec streaming to the process's stdout and stderr.
func NewExec(log *zap.SugaredLogger) *Exec {
	return &Exec{Log: log, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *Exec) Run(ctx context.Context, c Cmd) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.Log.Infow("Running command", "cmd", c.String(), "dir", c.Dir)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), c.Env)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, r.Stdout)
	cmd.Stderr = tee(&stderr, r.Stderr)

	err := cmd.Run()
	res := &Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			res.ExitCode = -1
		}
		r.Log.Debugw("Command failed", "cmd", c.Name, "exit", res.ExitCode, "error", err)
		return res, &ProcessError{Cmd: c, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	return res, nil
}

// DryRun logs commands without executing them.
type DryRun struct {
	Log *zap.SugaredLogger
}

var _ Runner = (*DryRun)(nil)

func (r *DryRun) Run(ctx context.Context, c Cmd) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.Log.Infow("Would run command", "cmd", c.String(), "dir", c.Dir)
	return &Result{}, nil
}

// LookPath returns the absolute path of name, or name itself when it is not
// on PATH so the failure surfaces when the command is run.
func LookPath(name string) string {
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	return name
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
