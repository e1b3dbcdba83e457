package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostdb/hostdb/internal/inventory"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <hostname>",
		Short: "Print a host's effective variables",
		Long: `Resolve and print one host's effective variable mapping as canonical
JSON: group variables applied farthest ancestor first, host variables last.

Example:
  hostdb resolve web1 --db ./inventory.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			vars, err := e.ResolveVars(context.Background(), args[0])
			if err != nil {
				return rejectionError(rootOpts, cmd, err)
			}

			out, err := inventory.MarshalCanonical(vars)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to serialize variables", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	return cmd
}
