package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostdb/hostdb/internal/inventory"
)

// NewAddCommand creates the add command: attach a host or a child group to
// a parent group.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Attach hosts or groups to a parent group",
		Long: `Attach a host (membership) or a group (hierarchy edge) to a parent
group. The mutation is validated atomically: self-references, cycles, and
mutual-exclusion conflicts are rejected without changing the database.

Examples:
  hostdb add host web1 web_servers --db ./inventory.db
  hostdb add group canary web_servers --db ./inventory.db`,
	}
	cmd.AddCommand(newAddEdgeCommand(rootOpts, "host", "Add a host to a group",
		func(name string) inventory.Ref { return inventory.HostRef(name) }))
	cmd.AddCommand(newAddEdgeCommand(rootOpts, "group", "Nest a group under a parent group",
		func(name string) inventory.Ref { return inventory.GroupRef(name) }))
	return cmd
}

func newAddEdgeCommand(rootOpts *RootOptions, kind, short string, ref func(string) inventory.Ref) *cobra.Command {
	return &cobra.Command{
		Use:           fmt.Sprintf("%s <name> <parent-group>", kind),
		Short:         short,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			name, parent := args[0], args[1]
			if err := e.AddToGroup(context.Background(), ref(name), parent); err != nil {
				return rejectionError(rootOpts, cmd, err)
			}
			return formatter(rootOpts, cmd).Success(
				fmt.Sprintf("%s %s added to %s", kind, name, parent))
		},
	}
}

// rejectionError renders an engine rejection in the configured format and
// converts it to the matching exit code.
func rejectionError(rootOpts *RootOptions, cmd *cobra.Command, err error) error {
	var ie *inventory.Error
	if errors.As(err, &ie) {
		out := formatter(rootOpts, cmd)
		_ = out.Error(string(ie.Code), ie.Message, rejectionDetails(ie))
	}
	return classify("mutation rejected", err)
}

func rejectionDetails(ie *inventory.Error) map[string]any {
	details := map[string]any{}
	if ie.Entity != "" {
		details["entity"] = ie.Entity
	}
	if ie.Parent != "" || ie.Child != "" {
		details["parent"] = ie.Parent
		details["child"] = ie.Child
	}
	if ie.GroupA != "" || ie.GroupB != "" {
		details["group_a"] = ie.GroupA
		details["group_b"] = ie.GroupB
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
