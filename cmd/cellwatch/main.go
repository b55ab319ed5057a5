// Command cellwatch polls the device's cellular radio and position and keeps
// the latest qualifying cell reading available to subscribers.
//
// Usage:
//
//	cellwatch run [--config cellwatch.yaml]
//	cellwatch snapshot [--fixture cells.json]
//	cellwatch operators import --input mcc_mnc.json [--db operators.db]
//
// Every cycle (3 seconds) the radio is asked for the visible cells. Only LTE
// records with a known mobile country code are kept and the last one wins.
// The reading is logged and, when configured, served at GET /api/v1/cells and
// published to NATS.
//
// Configuration comes from the YAML file given with --config and from
// CELLWATCH_* environment variables:
//
//	CELLWATCH_LOG_LEVEL      debug, info, warn or error
//	CELLWATCH_SOURCE         mmcli (default) or file
//	CELLWATCH_MODEM          mmcli modem index (default: any)
//	CELLWATCH_REPLAY_FILE    JSON replay file for the file source
//	CELLWATCH_PERMISSIONS    prompt (default) or static
//	CELLWATCH_GRANTED        comma-separated kinds granted in static mode
//	CELLWATCH_HTTP_ADDR      listen address for the API, e.g. :8090
//	CELLWATCH_API_KEYS       comma-separated API keys for /api/v1/cells
//	CELLWATCH_NATS_URL       NATS server, e.g. nats://localhost:4222
//	CELLWATCH_NATS_SUBJECT   subject for snapshots (default: cellwatch.cells)
//	CELLWATCH_OPERATORS_DB   SQLite operator directory
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cellwatch/internal/config"
	"cellwatch/internal/logging"
)

var (
	configPath string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "cellwatch",
	Short:         "Poll cellular tower identity and device location",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger, err = logging.New(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd, snapshotCmd, operatorsCmd)
	operatorsCmd.AddCommand(operatorsImportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
