// Package cmd provides helpers for executing external commands with proper error handling.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/bpeabody/git-meta/internal/log"
)

// Error is returned when an external command exits unsuccessfully.
// Msg holds the trimmed stderr output when there was any.
type Error struct {
	Name     string
	Args     []string
	ExitCode int
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("%s %s: %v", e.Name, strings.Join(e.Args, " "), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit code carried by err, or -1 if err did not come
// from a command that ran to completion.
func ExitCode(err error) int {
	var cmdErr *Error
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}

// Options configures a single command invocation.
type Options struct {
	Dir   string    // working directory, empty for the current one
	Env   []string  // extra KEY=VALUE pairs appended to the process environment
	Stdin io.Reader // optional standard input
}

// RunContext executes a command and returns stderr in the error message if it fails.
func RunContext(ctx context.Context, dir, name string, args ...string) error {
	_, err := Exec(ctx, Options{Dir: dir}, name, args...)
	return err
}

// OutputContext executes a command and returns stdout, with stderr in the error if it fails.
func OutputContext(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return Exec(ctx, Options{Dir: dir}, name, args...)
}

// Exec runs name with args using opts and returns stdout.
// The command is echoed through the context logger in verbose mode.
func Exec(ctx context.Context, opts Options, name string, args ...string) ([]byte, error) {
	log.FromContext(ctx).Command(name, args...)

	// #nosec G204 -- callers pass fixed tool names, arguments are never shell interpolated
	c := exec.CommandContext(ctx, name, args...)
	c.Dir = opts.Dir
	if len(opts.Env) > 0 {
		c.Env = append(os.Environ(), opts.Env...)
	}
	if opts.Stdin != nil {
		c.Stdin = opts.Stdin
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		cmdErr := &Error{
			Name:     name,
			Args:     args,
			ExitCode: -1,
			Msg:      strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return stdout.Bytes(), cmdErr
	}
	return stdout.Bytes(), nil
}
