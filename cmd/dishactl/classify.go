package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yanqian/disha/internal/domain/alerts"
)

func newClassifyCmd() *cobra.Command {
	var (
		temp, wind, hubWind, aqi, rain float64
		condition                      string
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify weather readings into alerts",
		Example: `  dishactl classify --temp 41 --aqi 160
  dishactl classify --condition Rain --rain 14`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			readings := alerts.Readings{Condition: condition}
			if flags.Changed("temp") {
				readings.TemperatureC = &temp
			}
			if flags.Changed("wind") {
				readings.SurfaceWindMS = &wind
			}
			if flags.Changed("hub-wind") {
				readings.HubWindKPH = &hubWind
			}
			if flags.Changed("aqi") {
				readings.AirQualityIndex = &aqi
			}
			if flags.Changed("rain") {
				readings.RainLastHourMM = &rain
			}

			found := alerts.Classify(readings)
			resp := alerts.ClassifyResponse{Alerts: found, HasHighSeverity: alerts.HasHighSeverity(found)}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			return printAlerts(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().Float64Var(&temp, "temp", 0, "Temperature in °C")
	cmd.Flags().Float64Var(&wind, "wind", 0, "Surface wind speed in m/s")
	cmd.Flags().Float64Var(&hubWind, "hub-wind", 0, "Wind speed at 100 m in km/h")
	cmd.Flags().Float64Var(&aqi, "aqi", 0, "US air quality index")
	cmd.Flags().Float64Var(&rain, "rain", 0, "Rainfall in the last hour in mm")
	cmd.Flags().StringVar(&condition, "condition", "", "Weather condition label, e.g. Rain or Thunderstorm")
	return cmd
}

func printAlerts(w io.Writer, resp alerts.ClassifyResponse) error {
	if len(resp.Alerts) == 0 {
		_, err := fmt.Fprintln(w, "No alerts.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tCATEGORY\tMESSAGE")
	for _, a := range resp.Alerts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Severity, a.Category, a.Message)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
