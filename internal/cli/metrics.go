package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"replicator/pkg/metrics"
)

func newMetricsCmd() *cobra.Command {
	var prometheusURL string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Summarize supervisor counters from a Prometheus server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := metrics.NewQueryService(prometheusURL)
			if err != nil {
				return err
			}

			summary, err := svc.SessionSummary(cmd.Context())
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode metrics summary: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&prometheusURL, "prometheus-url", "http://localhost:9090", "Prometheus server URL")
	return cmd
}
