package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mfragab5890/ev-stats/app"
	"github.com/mfragab5890/ev-stats/infra/logger"
	"github.com/mfragab5890/ev-stats/infra/metrics"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyse battery log files and print the results as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("pretty", false, "indent the JSON output")
	analyzeCmd.Flags().IntP("workers", "w", 0, "number of logs analysed in parallel (overrides analysis.workers)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Analysis.Workers = workers
	}
	runner, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			logger.New("main").Errorf("runner close: %v", err)
		}
	}()

	reports, err := runner.AnalyzeFiles(ctx, args)
	if err != nil {
		return err
	}
	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, prometheus.DefaultGatherer); err != nil {
			return err
		}
	}
	if err := writeReports(cmd, reports); err != nil {
		return err
	}
	failed := 0
	for _, r := range reports {
		if r.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d logs could not be analysed", failed, len(reports))
	}
	return nil
}

func writeReports(cmd *cobra.Command, reports []app.Report) error {
	pretty, err := cmd.Flags().GetBool("pretty")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	if pretty {
		enc.SetIndent("", "  ")
	}
	if len(reports) == 1 && !reports[0].Failed() {
		return enc.Encode(reports[0].Result)
	}
	return enc.Encode(reports)
}

func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
