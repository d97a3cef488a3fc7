// Package shell runs external system commands on behalf of the management tool.
//
// Everything that shells out (certificate generation, web server reload)
// goes through the Runner interface so tests can substitute a Recorder
// and assert on the exact commands a code path would run.
package shell

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/benschumacher/mailinabox/core/errors"
	"github.com/benschumacher/mailinabox/internal/logging"
)

// Runner runs an external command and fails when it exits unsuccessfully.
type Runner interface {
	CheckCall(name string, args ...string) error
}

// ExecRunner runs commands on the host via os/exec.
type ExecRunner struct {
	Timeout time.Duration // zero means no timeout
}

// NewExecRunner creates an ExecRunner with a sane default timeout.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Timeout: 2 * time.Minute}
}

// CheckCall runs the command and returns a ToolError when it exits
// non-zero. Standard output is discarded; standard error is captured
// for the error message.
func (r *ExecRunner) CheckCall(name string, args ...string) error {
	ctx := context.Background()
	cancel := func() {}
	if r.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	startTime := time.Now()
	runErr := cmd.Run()
	duration := time.Since(startTime)

	if runErr == nil {
		logging.ToolInvocation(name, args, 0, duration, nil)
		return nil
	}

	if exitErr, ok := runErr.(*exec.ExitError); ok {
		toolErr := errors.NewTool(name, args, exitErr.ExitCode(), stderr.String(), runErr)
		logging.ToolInvocation(name, args, exitErr.ExitCode(), duration, toolErr)
		return toolErr
	}

	// The command could not be started at all (missing binary, bad
	// permissions, cancelled context).
	logging.ToolInvocation(name, args, -1, duration, runErr)
	return errors.Wrapf(runErr, "failed to run %s", name)
}

// Call is a single recorded command invocation.
type Call struct {
	Name string
	Args []string
}

// Recorder is a Runner that records invocations instead of executing them.
type Recorder struct {
	Calls []Call

	// Fail, when set, decides per call whether to return an error.
	Fail func(name string, args []string) error
}

// CheckCall records the invocation and returns the scripted error, if any.
func (r *Recorder) CheckCall(name string, args ...string) error {
	r.Calls = append(r.Calls, Call{Name: name, Args: append([]string(nil), args...)})
	if r.Fail != nil {
		return r.Fail(name, args)
	}
	return nil
}
