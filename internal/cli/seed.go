package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostdb/hostdb/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Load a declarative YAML inventory file",
		Long: `Load hosts, groups, hierarchy edges, memberships, exclusions, and
variables from a YAML file. Every edge passes the same validation as an
interactive mutation; the first rejection aborts the load.

Example:
  hostdb seed ./inventory.yaml --db ./inventory.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load seed file", err)
			}

			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := seed.Apply(context.Background(), e, f); err != nil {
				return rejectionError(rootOpts, cmd, err)
			}
			return formatter(rootOpts, cmd).Success(
				fmt.Sprintf("seed file %s applied", args[0]))
		},
	}
	return cmd
}
