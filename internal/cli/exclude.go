package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewExcludeCommand creates the exclude command.
func NewExcludeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exclude <group-a> <group-b>",
		Short: "Declare two groups mutually exclusive",
		Long: `Declare two groups mutually exclusive: no host may be a direct or
inherited member of both. The declaration is rejected if a host already
violates it.

Example:
  hostdb exclude staging production --db ./inventory.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := e.AddExclusion(context.Background(), args[0], args[1]); err != nil {
				return rejectionError(rootOpts, cmd, err)
			}
			return formatter(rootOpts, cmd).Success(
				fmt.Sprintf("groups %s and %s are now mutually exclusive", args[0], args[1]))
		},
	}
	return cmd
}
