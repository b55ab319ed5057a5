package poller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"cellwatch/internal/cell"
	"cellwatch/internal/permission"
	"cellwatch/internal/radio"
)

// cellPermissions must all be granted before the radio is queried.
var cellPermissions = []permission.Kind{
	permission.FineLocation,
	permission.CoarseLocation,
	permission.PhoneState,
}

// Replacer receives the records produced by a cycle.
type Replacer interface {
	Replace(records []cell.Record)
}

// Cell polls the radio for visible cells and publishes the latest
// qualifying record.
type Cell struct {
	source radio.CellSource
	gate   *permission.Gate
	store  Replacer
	logger *zap.Logger
}

// NewCell creates a cell poller writing into store.
func NewCell(source radio.CellSource, gate *permission.Gate, store Replacer, logger *zap.Logger) *Cell {
	return &Cell{source: source, gate: gate, store: store, logger: logger}
}

// Run polls every interval until ctx is cancelled.
func (p *Cell) Run(ctx context.Context, interval time.Duration) {
	p.logger.Info("cell poller started", zap.Duration("interval", interval))
	run(ctx, interval, p.logger, func(ctx context.Context) { p.Poll(ctx) })
	p.logger.Info("cell poller stopped")
}

// Poll runs one cycle and returns the number of records written to the
// store. Query failures are logged and produce nothing.
func (p *Cell) Poll(ctx context.Context) int {
	if !p.gate.Check(cellPermissions...) {
		p.logger.Debug("skipping cell query, permissions missing")
		return 0
	}

	infos, err := p.source.CellInfo(ctx)
	switch {
	case errors.Is(err, radio.ErrUnavailable):
		p.logger.Debug("no cell info this cycle")
		return 0
	case err != nil:
		p.logger.Warn("cell info query failed", zap.Error(err))
		return 0
	}

	records := cell.Extract(infos)
	p.logger.Debug("cell info received", zap.Int("visible", len(infos)), zap.Int("qualifying", len(records)))

	for _, rec := range records {
		p.store.Replace([]cell.Record{rec})
	}
	return len(records)
}
