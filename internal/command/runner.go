// Package command runs external commands to completion and captures their
// full output.
//
// Command lines are tokenized with shell-style quoting rules but are not
// interpreted by a shell: pipes, redirections and variable expansion are
// not honored. A nonzero exit status is reported as data in the Result,
// not as an error, so callers decide for themselves what counts as failure.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"mvdan.cc/sh/v3/shell"
)

// Result holds everything a caller needs to judge one command invocation:
// the original command line, both captured output streams, and the exit
// status of the process.
type Result struct {
	Cmd      string
	Stdout   string
	Stderr   string
	ExitCode int
}

// OK reports whether the command exited with status 0.
func (r *Result) OK() bool {
	return r.ExitCode == 0
}

// Run tokenizes cmdline, spawns the resulting argv, and blocks until the
// process terminates. There is no timeout beyond ctx cancellation.
//
// An error is returned only when the command could not be run at all
// (empty command line, tokenization failure, missing binary). A process
// that ran and exited nonzero yields a Result and a nil error.
func Run(ctx context.Context, cmdline string) (*Result, error) {
	argv, err := shell.Fields(cmdline, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize command %q: %w", cmdline, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command line")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	res := &Result{
		Cmd:    cmdline,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("failed to run %q: %w", cmdline, runErr)
	}

	return res, nil
}
