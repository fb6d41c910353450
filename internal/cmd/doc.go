// Package cmd provides helpers for executing external commands with proper error handling.
//
// This package wraps [os/exec.Cmd] to capture stderr and include it in error
// messages, making command failures more informative for users. Failures are
// reported as [*Error], which also carries the exit code so callers can tell
// "git answered no" (for example merge-base exiting 1) from real failures.
//
// # Usage
//
//	if err := cmd.RunContext(ctx, dir, "git", "status"); err != nil {
//	    // err contains stderr output if available
//	    return fmt.Errorf("git failed: %w", err)
//	}
//
//	// Commands that need stdin or extra environment:
//	out, err := cmd.Exec(ctx, cmd.Options{Dir: dir, Stdin: r}, "git", "update-index", "--index-info")
//	if cmd.ExitCode(err) == 1 {
//	    // command ran and answered "false"
//	}
package cmd
