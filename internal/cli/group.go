package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// GroupOptions holds flags for the group subcommands.
type GroupOptions struct {
	*RootOptions
	Max int64
}

// NewGroupCommand creates the group command group.
func NewGroupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}
	cmd.AddCommand(newGroupAddCommand(rootOpts))
	cmd.AddCommand(newGroupRemoveCommand(rootOpts))
	cmd.AddCommand(newGroupListCommand(rootOpts))
	return cmd
}

func newGroupAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GroupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "add <groupname>",
		Short:         "Create a group",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			g, err := e.GetOrCreateGroup(context.Background(), args[0], opts.Max)
			if err != nil {
				return classify("failed to create group", err)
			}

			out := formatter(rootOpts, cmd)
			if rootOpts.Format == "json" {
				return out.Success(map[string]any{"id": g.ID, "groupname": g.Groupname, "max": g.Max})
			}
			return out.Success(fmt.Sprintf("group %s created", g.Groupname))
		},
	}

	cmd.Flags().Int64Var(&opts.Max, "max", -1, "capacity hint (-1 = unbounded)")
	return cmd
}

func newGroupRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <groupname>",
		Short:         "Remove a group and everything referencing it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := e.DeleteGroup(context.Background(), args[0]); err != nil {
				return classify("failed to remove group", err)
			}
			return formatter(rootOpts, cmd).Success(fmt.Sprintf("group %s removed", args[0]))
		},
	}
	return cmd
}

func newGroupListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List groups",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			groups, err := e.ListGroups(context.Background())
			if err != nil {
				return classify("failed to list groups", err)
			}

			out := formatter(rootOpts, cmd)
			if rootOpts.Format == "json" {
				rows := make([]map[string]any, 0, len(groups))
				for _, g := range groups {
					rows = append(rows, map[string]any{
						"id":        g.ID,
						"groupname": g.Groupname,
						"max":       g.Max,
						"builtin":   g.Builtin,
					})
				}
				return out.Success(rows)
			}

			for _, g := range groups {
				if g.Builtin {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(builtin)\n", g.Groupname)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n", g.Groupname)
				}
			}
			return nil
		},
	}
	return cmd
}
