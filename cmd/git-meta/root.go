package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bpeabody/git-meta/internal/cherrypick"
	"github.com/bpeabody/git-meta/internal/config"
	"github.com/bpeabody/git-meta/internal/git"
	"github.com/bpeabody/git-meta/internal/log"
	"github.com/bpeabody/git-meta/internal/output"
)

// Command group IDs
const (
	GroupCore   = "core"
	GroupConfig = "config"
)

// errStopped is returned when an operation stopped on conflicts after its
// report was printed. It only sets the exit status.
var errStopped = errors.New("stopped")

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "git-meta",
	Short: "Work with a meta-repository and its sub-repositories",
	Long: `git-meta manages a meta-repository whose submodules are sub-repositories.

Commands operate on the meta-repository and recurse into every open
sub-repository as needed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && quiet {
			return fmt.Errorf("--verbose and --quiet cannot be used together")
		}

		ctx := cmd.Context()
		logger := log.New(os.Stderr, verbose, quiet)
		if r := config.ResolverFromContext(ctx); r != nil && !verbose && !quiet {
			logger.SetLevel(r.Global().Log.Level)
		}
		cmd.SetContext(log.WithLogger(ctx, logger))

		// config init works without git
		if cmd.GroupID == GroupConfig || (cmd.Parent() != nil && cmd.Parent().GroupID == GroupConfig) {
			return nil
		}
		return git.CheckGit()
	},
}

// Execute runs the root command
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx = config.WithResolver(ctx, config.NewResolver(&cfg))
	ctx = output.WithPrinter(ctx, output.NewTerminal(os.Stdout, os.Environ()))
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		stderr := output.NewTerminal(os.Stderr, os.Environ())
		switch {
		case errors.Is(err, errStopped):
		case cherrypick.IsUserError(err):
			stderr.Println(output.ErrorStyle.Render("error:"), err)
		default:
			stderr.Println(output.ErrorStyle.Render("error:"), err)
			stderr.Println()
			stderr.Println("Run with -v to see the git commands executed")
		}
		cancel()
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show external commands being executed")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Version flag
	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	rootCmd.AddCommand(newCherryPickCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// metaRoot returns the top level of the meta-repository containing the
// current directory.
func metaRoot(ctx context.Context) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return git.Toplevel(ctx, wd)
}

// repoConfig returns the effective config for the meta-repository at root.
func repoConfig(ctx context.Context, root string) (*config.Config, error) {
	r := config.ResolverFromContext(ctx)
	if r == nil {
		cfg := config.Default()
		return &cfg, nil
	}
	return r.ConfigForRepo(root)
}
