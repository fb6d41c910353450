package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/bpeabody/git-meta/internal/cherrypick"
	"github.com/bpeabody/git-meta/internal/log"
	"github.com/bpeabody/git-meta/internal/output"
)

func newCherryPickCmd() *cobra.Command {
	var (
		doContinue bool
		doAbort    bool
	)

	cmd := &cobra.Command{
		Use:     "cherry-pick <commit>...",
		Short:   "Apply commits from elsewhere onto HEAD",
		Aliases: []string{"cp"},
		GroupID: GroupCore,
		Long: `Apply the changes introduced by commits of the meta-repository onto HEAD.

Submodule pointer changes are replayed inside the open sub-repositories.
When conflicts occur the operation stops; resolve them and run
'git-meta cherry-pick --continue', or undo everything with --abort.`,
		Example: `  git-meta cherry-pick feature~2 feature   # Pick two commits
  git-meta cherry-pick --continue          # Resume after resolving conflicts
  git-meta cherry-pick --abort             # Restore the original HEAD`,
		Args: func(cmd *cobra.Command, args []string) error {
			if doContinue || doAbort {
				if len(args) > 0 {
					return fmt.Errorf("--continue and --abort take no commits")
				}
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("requires at least one commit")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			root, err := metaRoot(ctx)
			if err != nil {
				return err
			}
			cfg, err := repoConfig(ctx, root)
			if err != nil {
				return err
			}
			opts := cherrypick.Options{
				Parallelism: cfg.Parallelism,
				Fetch:       cfg.Fetch.RemoteMissing,
			}

			if doAbort {
				if err := cherrypick.Abort(ctx, root, opts); err != nil {
					return err
				}
				out.Println(output.SuccessStyle.Render("Cherry-pick aborted"))
				return nil
			}

			var result *cherrypick.Result
			if doContinue {
				result, err = cherrypick.Continue(ctx, root, opts)
			} else {
				if isatty.IsTerminal(os.Stderr.Fd()) {
					l.Printf("Cherry-picking %d commit(s) onto %s\n", len(args), root)
				}
				result, err = cherrypick.CherryPick(ctx, root, args, opts)
			}
			if errors.Is(err, cherrypick.ErrNothingToCommit) {
				out.Println(output.MutedStyle.Render("Nothing to commit; HEAD is unchanged"))
				return nil
			}
			if err != nil {
				return err
			}

			out.Print(renderResult(result))
			if !result.Succeeded() {
				return errStopped
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&doContinue, "continue", false, "Continue after resolving conflicts")
	cmd.Flags().BoolVar(&doAbort, "abort", false, "Abort and restore the original HEAD")
	cmd.MarkFlagsMutuallyExclusive("continue", "abort")

	return cmd
}
