package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hostdb/hostdb/internal/hostip"
)

// HostOptions holds flags for the host subcommands.
type HostOptions struct {
	*RootOptions
	IP      string
	Resolve bool
}

// NewHostCommand creates the host command group.
func NewHostCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Manage hosts",
	}
	cmd.AddCommand(newHostAddCommand(rootOpts))
	cmd.AddCommand(newHostRemoveCommand(rootOpts))
	cmd.AddCommand(newHostListCommand(rootOpts))
	return cmd
}

func newHostAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <hostname>",
		Short: "Register a host",
		Long: `Register a host in the inventory.

An explicit --ip is stored verbatim. With --resolve the address is looked
up via DNS, falling back to the machine's primary outbound address.

Examples:
  hostdb host add web1 --db ./inventory.db --ip 192.0.2.10
  hostdb host add web1 --db ./inventory.db --resolve`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHostAdd(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.IP, "ip", "", "address literal to store")
	cmd.Flags().BoolVar(&opts.Resolve, "resolve", false, "resolve the address via DNS")
	return cmd
}

func runHostAdd(opts *HostOptions, cmd *cobra.Command, hostname string) error {
	ctx := context.Background()
	out := formatter(opts.RootOptions, cmd)

	ip := opts.IP
	if opts.Resolve {
		var r hostip.Resolver
		resolved, err := r.Resolve(ctx, hostname, opts.IP)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to resolve address", err)
		}
		ip = resolved
		out.VerboseLog("resolved %s to %s", hostname, ip)
	}

	e, closeFn, err := openEngine(opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeFn()

	h, err := e.GetOrCreateHost(ctx, hostname, ip)
	if err != nil {
		return classify("failed to register host", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]any{"id": h.ID, "hostname": h.Hostname, "ip": h.IP})
	}
	if h.IP != "" {
		return out.Success(fmt.Sprintf("host %s (%s) registered", h.Hostname, h.IP))
	}
	return out.Success(fmt.Sprintf("host %s registered", h.Hostname))
}

func newHostRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <hostname>",
		Short:         "Remove a host and everything referencing it",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := e.DeleteHost(context.Background(), args[0]); err != nil {
				return classify("failed to remove host", err)
			}
			return formatter(rootOpts, cmd).Success(fmt.Sprintf("host %s removed", args[0]))
		},
	}
	return cmd
}

func newHostListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List registered hosts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEngine(rootOpts)
			if err != nil {
				return err
			}
			defer closeFn()

			hosts, err := e.ListHosts(context.Background())
			if err != nil {
				return classify("failed to list hosts", err)
			}

			out := formatter(rootOpts, cmd)
			if rootOpts.Format == "json" {
				rows := make([]map[string]any, 0, len(hosts))
				for _, h := range hosts {
					rows = append(rows, map[string]any{"id": h.ID, "hostname": h.Hostname, "ip": h.IP})
				}
				return out.Success(rows)
			}

			var b strings.Builder
			for _, h := range hosts {
				if h.IP != "" {
					fmt.Fprintf(&b, "%s\t%s\n", h.Hostname, h.IP)
				} else {
					fmt.Fprintf(&b, "%s\n", h.Hostname)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}
	return cmd
}
