package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cellwatch/internal/operator"
)

var (
	importInput string
	importDB    string
)

var operatorsCmd = &cobra.Command{
	Use:   "operators",
	Short: "Manage the MCC/MNC operator directory",
}

var operatorsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import operators from a JSON file",
	Long: `Imports a JSON list of operators into the SQLite directory:

  [{"mcc": "310", "mnc": "410", "country": "United States", "network": "AT&T"}]

Existing entries with the same MCC/MNC are replaced.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := importDB
		if dbPath == "" {
			dbPath = cfg.Operators.DB
		}
		if dbPath == "" {
			return errors.New("no directory given: use --db or operators.db in the config")
		}

		entries, err := operator.LoadJSON(importInput)
		if err != nil {
			return err
		}
		dir, err := operator.Open(dbPath)
		if err != nil {
			return err
		}
		defer func() { _ = dir.Close() }()

		n, err := dir.Import(cmd.Context(), entries)
		if err != nil {
			return err
		}
		total, err := dir.Count(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("operators imported", zap.Int("imported", n), zap.Int("skipped", len(entries)-n), zap.Int("total", total))
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d operators (%d total)\n", n, total)
		return nil
	},
}

func init() {
	operatorsImportCmd.Flags().StringVarP(&importInput, "input", "i", "", "JSON file to import")
	operatorsImportCmd.Flags().StringVar(&importDB, "db", "", "SQLite directory (default: operators.db from config)")
	_ = operatorsImportCmd.MarkFlagRequired("input")
}
