package main

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yanqian/disha/internal/domain/directory"
)

func newServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List emergency helplines",
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway, _ := cmd.Flags().GetString("gateway")
			var resp directory.ServicesResponse
			if err := newGatewayClient(gateway).do(cmd.Context(), http.MethodGet, "/api/v1/services", &resp); err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SERVICE\tPHONE\tSMS")
			for _, s := range resp.Services {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Phone, s.SMS)
			}
			return tw.Flush()
		},
	}
}
