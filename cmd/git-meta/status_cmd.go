package main

import (
	"github.com/spf13/cobra"

	"github.com/bpeabody/git-meta/internal/git"
	"github.com/bpeabody/git-meta/internal/output"
	"github.com/bpeabody/git-meta/internal/status"
)

func newStatusCmd() *cobra.Command {
	var (
		untracked bool
		all       bool
	)

	cmd := &cobra.Command{
		Use:     "status [submodule...]",
		Short:   "Show the state of the meta-repository and its sub-repositories",
		Aliases: []string{"st"},
		GroupID: GroupCore,
		Long: `Show the state of the meta-repository and its sub-repositories.

Submodules whose staged pointer or work tree differs from HEAD are listed.
Naming submodules (or directories containing them) restricts the output to
those and lists them even when clean.`,
		Example: `  git-meta status              # Changed submodules only
  git-meta status lib          # Everything under lib/
  git-meta status -u           # Include untracked files`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			root, err := metaRoot(ctx)
			if err != nil {
				return err
			}
			cfg, err := repoConfig(ctx, root)
			if err != nil {
				return err
			}

			rs, err := status.Read(ctx, root, status.Options{
				Paths:         args,
				ShowUntracked: untracked || cfg.Status.ShowUntracked,
				Parallelism:   cfg.Parallelism,
			})
			if err != nil {
				return err
			}

			if len(args) > 0 {
				if unknown := unknownSubmodules(args, rs.SubmoduleNames()); len(unknown) > 0 {
					links, err := git.IndexGitlinks(ctx, root)
					if err != nil {
						return err
					}
					names := make([]string, 0, len(links))
					for name := range links {
						names = append(names, name)
					}
					return unknownSubmoduleError(unknown, names)
				}
			}

			output.FromContext(ctx).Print(renderStatus(rs, all || len(args) > 0))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&untracked, "untracked", "u", false, "Show untracked files")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "List clean submodules too")

	return cmd
}
