package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/disha/internal/domain/nationwide"
)

const minWatchInterval = 30 * time.Second

func newNationwideCmd() *cobra.Command {
	var (
		refresh  bool
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "nationwide",
		Short: "Show the nationwide weather summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway, _ := cmd.Flags().GetString("gateway")
			asJSON, _ := cmd.Flags().GetBool("json")
			client := newGatewayClient(gateway)
			ctx := cmd.Context()

			show := func() error {
				var resp nationwide.Response
				if refresh {
					if err := client.do(ctx, http.MethodPost, "/api/v1/alerts/nationwide/refresh", &resp); err != nil {
						return fmt.Errorf("refresh: %w", err)
					}
				} else if err := client.do(ctx, http.MethodGet, "/api/v1/alerts/nationwide", &resp); err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				return printSummary(cmd.OutOrStdout(), resp)
			}

			if err := show(); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			if interval < minWatchInterval {
				interval = minWatchInterval
			}
			cmd.Printf("Watching every %s. Press Ctrl+C to stop.\n", interval)
			return watchLoop(ctx, interval, func() {
				if err := show(); err != nil {
					cmd.PrintErrln(fmt.Errorf("update failed: %w", err))
				}
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Force the gateway to regenerate the summary first")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep printing the summary")
	cmd.Flags().DurationVar(&interval, "interval", 10*time.Minute, "Watch interval (minimum 30s)")
	return cmd
}

func watchLoop(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}

func printSummary(w io.Writer, resp nationwide.Response) error {
	if len(resp.Items) == 0 {
		_, err := fmt.Fprintln(w, "No nationwide data yet.")
		return err
	}
	status := "fresh"
	if resp.Stale {
		status = "stale"
	}
	if resp.Refreshing {
		status += ", refreshing"
	}
	fmt.Fprintf(w, "Updated %ds ago (%s)\n", resp.AgeSeconds, status)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tSEVERITY\tCONDITION\tTEMP\tRAIN\tWIND\tALERT")
	for _, item := range resp.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			item.Region, item.Severity, item.Condition, item.Temperature, item.Rainfall, item.WindSpeed, item.AlertMessage)
	}
	return tw.Flush()
}
