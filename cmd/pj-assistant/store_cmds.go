package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// schemaVersioner is implemented by the SQL-backed stores.
type schemaVersioner interface {
	SchemaVersion(ctx context.Context) (int64, error)
}

func newMigrateCmd(opts *rootOptions, deps appDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending booking store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.loadConfig == nil || deps.openStore == nil {
				return fmt.Errorf("missing store dependency")
			}
			ctx := cmd.Context()
			cfg, logger, cleanup, err := setup(ctx, opts, deps, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := deps.openStore(ctx, cfg.StoreDriver, cfg.StoreDSN, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			v, ok := st.(schemaVersioner)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s store has no schema\n", cfg.StoreDriver)
				return nil
			}
			version, err := v.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", cfg.StoreDriver, version)
			return nil
		},
	}
}

func newBookingsCmd(opts *rootOptions, deps appDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "bookings",
		Short: "List stored bookings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.loadConfig == nil || deps.openStore == nil {
				return fmt.Errorf("missing store dependency")
			}
			ctx := cmd.Context()
			cfg, logger, cleanup, err := setup(ctx, opts, deps, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := deps.openStore(ctx, cfg.StoreDriver, cfg.StoreDSN, logger)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			list, err := st.ListBookings(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tSERVICE\tSTYLIST\tCLIENT\tSTATUS")
			for _, b := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Date.Format(time.DateTime), b.Service, b.Stylist, b.ClientName, b.Status)
			}
			return tw.Flush()
		},
	}
}
