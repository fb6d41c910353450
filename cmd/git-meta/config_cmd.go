package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/bpeabody/git-meta/internal/config"
	"github.com/bpeabody/git-meta/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage git-meta configuration.

Global config: ~/.config/git-meta/config.toml (or $GIT_META_CONFIG)
Local config:  .gitmeta.toml (in the meta-repository root)`,
		Example: `  git-meta config init     # Create default global config
  git-meta config show     # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Example: `  git-meta config init      # Create global config
  git-meta config init -f   # Overwrite existing config
  git-meta config init -s   # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			if stdout {
				out.Print(config.DefaultContent())
				return nil
			}
			path, err := config.Init(force)
			if err != nil {
				return fmt.Errorf("%w (use -f to overwrite)", err)
			}
			out.Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the effective configuration.

Inside a meta-repository the local .gitmeta.toml and environment overrides
are merged into the global config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := config.Default()
			effective := &cfg
			if r := config.ResolverFromContext(ctx); r != nil {
				effective = r.Global()
			}
			if root, err := metaRoot(ctx); err == nil {
				if effective, err = repoConfig(ctx, root); err != nil {
					return err
				}
			}

			return toml.NewEncoder(output.FromContext(ctx).Writer()).Encode(effective)
		},
	}
}
