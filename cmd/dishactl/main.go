package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dishactl",
		Short: "Operate the DISHA gateway from the terminal",
		Long: `dishactl classifies weather readings locally and reads or refreshes
the nationwide weather summary served by a running DISHA gateway.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("gateway", envOr("DISHA_GATEWAY_URL", "http://localhost:8090"), "Base URL of the DISHA gateway")
	rootCmd.PersistentFlags().Bool("json", false, "Print raw JSON")

	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newNationwideCmd())
	rootCmd.AddCommand(newServicesCmd())
	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
