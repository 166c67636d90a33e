package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mfragab5890/ev-stats/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "ev-stats",
	Short: "Battery health analytics for EV telemetry logs",
	Long: `ev-stats estimates battery state of health, counts equivalent full
cycles and reports cell voltage and temperature anomalies from EV battery logs.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); defaults and EVSTATS_ environment overrides apply when empty")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	return config.Load(cfgPath)
}
