package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func renewCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "renew",
		Short: "Run one renewal sweep and print the report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			rep, err := a.renewals.SweepRenewals(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"success": true, "processed": rep.Processed, "details": rep.Details})
		},
	}
}

func reconcileCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Poll the provider for a batch of open invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			if limit <= 0 {
				limit = a.cfg.Billing.SweepLimit
			}
			rep, err := a.sweeps.SweepPending(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"success": true, "checked": rep.Checked, "updated": rep.Updated})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "invoices per batch (default billing.sweep_limit)")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
