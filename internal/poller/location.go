package poller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"cellwatch/internal/permission"
	"cellwatch/internal/radio"
)

// Location polls the device position and logs each fix.
type Location struct {
	source radio.LocationSource
	gate   *permission.Gate
	logger *zap.Logger
}

// NewLocation creates a location poller.
func NewLocation(source radio.LocationSource, gate *permission.Gate, logger *zap.Logger) *Location {
	return &Location{source: source, gate: gate, logger: logger}
}

// Allowed reports whether either location permission is granted.
func (p *Location) Allowed() bool {
	return p.gate.Check(permission.FineLocation) || p.gate.Check(permission.CoarseLocation)
}

// Run polls every interval until ctx is cancelled. It returns immediately
// when no location permission is granted.
func (p *Location) Run(ctx context.Context, interval time.Duration) {
	if !p.Allowed() {
		p.logger.Info("location poller not started, no location permission")
		return
	}
	p.logger.Info("location poller started", zap.Duration("interval", interval))
	run(ctx, interval, p.logger, func(ctx context.Context) { p.Poll(ctx) })
	p.logger.Info("location poller stopped")
}

// Poll takes one reading. It reports whether a fix was obtained.
func (p *Location) Poll(ctx context.Context) bool {
	fix, err := p.source.Location(ctx)
	switch {
	case errors.Is(err, radio.ErrUnavailable):
		p.logger.Debug("no location fix this cycle")
		return false
	case err != nil:
		p.logger.Warn("location query failed", zap.Error(err))
		return false
	}
	p.logger.Info("location",
		zap.Float64("lat", fix.Latitude),
		zap.Float64("long", fix.Longitude),
		zap.Float64("accuracy", fix.Accuracy),
	)
	return true
}
