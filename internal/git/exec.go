package git

import (
	"context"
	"io"

	"github.com/bpeabody/git-meta/internal/cmd"
)

// gitArgs prepends -C <dir> to args if dir is non-empty.
func gitArgs(dir string, args []string) []string {
	if dir == "" {
		return args
	}
	return append([]string{"-C", dir}, args...)
}

// runGit executes a git command with context support and verbose logging.
func runGit(ctx context.Context, dir string, args ...string) error {
	return cmd.RunContext(ctx, "", "git", gitArgs(dir, args)...)
}

// outputGit executes a git command with context support and verbose logging,
// returning stdout.
func outputGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	return cmd.OutputContext(ctx, "", "git", gitArgs(dir, args)...)
}

// inputGit executes a git command feeding stdin and extra environment.
func inputGit(ctx context.Context, dir string, stdin io.Reader, env []string, args ...string) ([]byte, error) {
	return cmd.Exec(ctx, cmd.Options{Stdin: stdin, Env: env}, "git", gitArgs(dir, args)...)
}

// RunGitCommand executes a git command with context support and verbose logging.
// This is the exported version of runGit for use by commands and tests.
func RunGitCommand(ctx context.Context, dir string, args ...string) error {
	return runGit(ctx, dir, args...)
}

// exitedWith reports whether err is git exiting with the given code.
func exitedWith(err error, code int) bool {
	return err != nil && cmd.ExitCode(err) == code
}
