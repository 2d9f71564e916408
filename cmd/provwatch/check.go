package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/provwatch/health"
	"github.com/jonwraymond/provwatch/monitor"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [provider...]",
		Short: "Check providers once and print their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			manual, _ := cmd.Flags().GetBool("manual")
			failOnDown, _ := cmd.Flags().GetBool("fail-on-down")

			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(context.Background()) }()

			trigger := monitor.TriggerAutomatic
			if manual {
				trigger = monitor.TriggerManual
			}
			statuses, err := a.orch.CheckAll(ctx, args, trigger)
			if err != nil {
				return err
			}

			ids := args
			if len(ids) == 0 {
				ids = a.orch.Providers()
			}
			if err := printStatuses(cmd.OutOrStdout(), ids, statuses); err != nil {
				return err
			}

			if down := a.orch.ListDown(1); failOnDown && len(down) > 0 {
				return fmt.Errorf("providers offline: %v", down)
			}
			return nil
		},
	}
	cmd.Flags().Bool("manual", false, "apply the manual check limits")
	cmd.Flags().Bool("fail-on-down", false, "exit non-zero when a provider is offline")
	return cmd
}

func printStatuses(w io.Writer, ids []string, statuses map[string]health.Status) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tSTATE\tFAILURES\tLATENCY\tERROR")
	for _, id := range ids {
		st := statuses[id]

		latency := "-"
		if st.ResponseTimeMs != nil {
			latency = (time.Duration(*st.ResponseTimeMs) * time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", id, st.State, st.ConsecutiveFailures, latency, st.LastError)
	}
	return tw.Flush()
}
