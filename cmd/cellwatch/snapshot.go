package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"cellwatch/internal/permission"
	"cellwatch/internal/poller"
	"cellwatch/internal/present"
	"cellwatch/internal/radio"
	"cellwatch/internal/state"
)

var (
	snapshotFixture string
	snapshotPretty  bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run a single poll cycle and print the result as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var src radio.CellSource = newSource(cfg)
		if snapshotFixture != "" {
			src = radio.NewFile(snapshotFixture)
		}
		cards, err := snapshot(cmd.Context(), src)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		if snapshotPretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(cards)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotFixture, "fixture", "", "read cells from a JSON replay file instead of the configured source")
	snapshotCmd.Flags().BoolVar(&snapshotPretty, "pretty", false, "pretty-print JSON output")
}

func snapshot(ctx context.Context, src radio.CellSource) ([]present.Card, error) {
	authority, err := newAuthority(cfg)
	if err != nil {
		return nil, err
	}
	gate := permission.NewGate(authority, logger.Named("permission"))
	result, err := gate.Ensure(ctx, permission.FineLocation, permission.CoarseLocation, permission.PhoneState)
	if err != nil {
		return nil, err
	}
	if result == permission.Denied {
		return nil, permission.ErrDenied
	}

	directory, err := openOperators(cfg)
	if err != nil {
		return nil, err
	}
	var lookup present.OperatorLookup
	if directory != nil {
		defer func() { _ = directory.Close() }()
		lookup = directory
	}

	store := state.NewStore()
	poller.NewCell(src, gate, store, logger.Named("poller.cell")).Poll(ctx)
	return present.Cards(ctx, store.Current(), lookup), nil
}
