package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Print the effective engine thresholds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg.Thresholds)
	},
}

func init() {
	rootCmd.AddCommand(thresholdsCmd)
}
