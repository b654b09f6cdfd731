package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/opsreport/pkg/infrastructure/config"
	"github.com/vsinha/opsreport/pkg/infrastructure/logging"
	"github.com/vsinha/opsreport/pkg/interfaces/cli/commands"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger

	reportFlags commands.Config
	forceInit   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "opsreport",
	Short: "Order, WIP and inventory reconciliation report",
	Long: `opsreport reads the ERP extracts (unfulfilled orders, WIP, inventory,
forecast, safety stock and the part-number mapping), pivots them by month or
warehouse and writes one workbook with a consolidated summary sheet.

Keys that appear in a source but not in the unfulfilled orders are marked red;
rows rewritten by the part-number mapping are marked yellow.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Encoding, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the report from the extracts in the input directory",
	Example: `  opsreport run --input ./extracts --cutoff 2025-02
  opsreport run --file unfulfilled_orders=orders.xlsx --format json --output report.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reportFlags.Verbose = verbose
		return commands.NewReportCommand(reportFlags, cfg, logger).Execute(ctx)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := commands.InitConfig(configPath, forceInit); err != nil {
			return err
		}
		logger.Info("Configuration written", zap.String("path", configPath))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return commands.ShowConfig(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "opsreport.yaml", "Configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Run timeout")

	runCmd.Flags().StringVarP(&reportFlags.InputDir, "input", "i", "", "Directory holding the extracts")
	runCmd.Flags().StringArrayVarP(&reportFlags.Files, "file", "f", nil, "Explicit extract as source=path (repeatable)")
	runCmd.Flags().StringVarP(&reportFlags.Output, "output", "o", "", "Output file (default: timestamped workbook)")
	runCmd.Flags().StringVar(&reportFlags.Format, "format", "", "Output format: xlsx, json")
	runCmd.Flags().StringVar(&reportFlags.CutoffMonth, "cutoff", "", "Fold order months up to YYYY-MM into history columns")
	runCmd.Flags().StringVar(&reportFlags.Encoding, "encoding", "", "CSV encoding: auto, utf-8, gbk")

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
