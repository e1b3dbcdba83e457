package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostdb/hostdb/internal/store"
)

// VarOptions holds flags for the var subcommands.
type VarOptions struct {
	*RootOptions
	JSON bool
}

// NewVarCommand creates the var command group.
func NewVarCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "var",
		Short: "Manage host and group variables",
	}
	cmd.AddCommand(newVarSetCommand(rootOpts))
	cmd.AddCommand(newVarRemoveCommand(rootOpts))
	return cmd
}

func newVarSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VarOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <host|group> <entity> <name> <value>",
		Short: "Set a variable on a host or group",
		Long: `Set a variable on a host or group. Values are stored as strings;
pass --json to store a structured value (number, bool, list, map):

  hostdb var set group web_servers http_port 8080 --json --db ./inventory.db
  hostdb var set host web1 tier gold --db ./inventory.db`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}
			entityName, varName, raw := args[1], args[2], args[3]

			var value any = raw
			if opts.JSON {
				if err := json.Unmarshal([]byte(raw), &value); err != nil {
					return WrapExitError(ExitCommandError, "value is not valid JSON", err)
				}
			}

			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := e.SetVariable(context.Background(), entityType, entityName, varName, value); err != nil {
				return classify("failed to set variable", err)
			}
			return formatter(rootOpts, cmd).Success(
				fmt.Sprintf("%s = set on %s %s", varName, entityType, entityName))
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "parse the value as JSON")
	return cmd
}

func newVarRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <host|group> <entity> <name>",
		Short:         "Remove a variable from a host or group",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}

			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := e.RemoveVariable(context.Background(), entityType, args[1], args[2]); err != nil {
				return classify("failed to remove variable", err)
			}
			return formatter(rootOpts, cmd).Success(
				fmt.Sprintf("%s removed from %s %s", args[2], entityType, args[1]))
		},
	}
	return cmd
}

func parseEntityType(s string) (string, error) {
	switch s {
	case store.EntityHost, store.EntityGroup:
		return s, nil
	default:
		return "", NewExitError(ExitCommandError,
			fmt.Sprintf("entity type must be %q or %q, got %q", store.EntityHost, store.EntityGroup, s))
	}
}
