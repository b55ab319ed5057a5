package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cellwatch/internal/api"
	"cellwatch/internal/permission"
	"cellwatch/internal/poller"
	"cellwatch/internal/present"
	"cellwatch/internal/publish"
	"cellwatch/internal/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Request permissions and start polling until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDaemon(ctx)
	},
}

func runDaemon(ctx context.Context) error {
	authority, err := newAuthority(cfg)
	if err != nil {
		return err
	}
	gate := permission.NewGate(authority, logger.Named("permission"))

	directory, err := openOperators(cfg)
	if err != nil {
		return err
	}
	var lookup present.OperatorLookup
	if directory != nil {
		defer func() { _ = directory.Close() }()
		lookup = directory
	}

	store := state.NewStore()
	store.Subscribe(present.NewLogger(logger.Named("cells"), lookup).Show)

	if cfg.NATS.URL != "" {
		pub, err := publish.Connect(cfg.NATS.URL, cfg.NATS.Subject, logger.Named("nats"))
		if err != nil {
			return err
		}
		defer pub.Close()
		store.Subscribe(pub.Publish)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Addr != "" {
		srv := api.NewServer(store, lookup, logger.Named("api"), api.Config{
			Addr:    cfg.HTTP.Addr,
			APIKeys: cfg.HTTP.APIKeys,
		})
		g.Go(func() error { return srv.Run(ctx) })
	}

	result, err := gate.Ensure(ctx, permission.FineLocation, permission.PhoneState)
	switch {
	case errors.Is(err, context.Canceled):
		return g.Wait()
	case err != nil:
		return err
	case result == permission.Denied:
		if cfg.HTTP.Addr == "" {
			return permission.ErrDenied
		}
		logger.Warn("data collection disabled for this session")
	default:
		src := newSource(cfg)
		cells := poller.NewCell(src, gate, store, logger.Named("poller.cell"))
		location := poller.NewLocation(src, gate, logger.Named("poller.location"))
		g.Go(func() error {
			cells.Run(ctx, poller.Interval)
			return nil
		})
		g.Go(func() error {
			location.Run(ctx, poller.Interval)
			return nil
		})
	}

	logger.Info("cellwatch running", zap.String("source", cfg.Source.Kind))
	return g.Wait()
}
