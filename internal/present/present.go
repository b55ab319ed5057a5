// Package present turns store snapshots into the views shown to users.
package present

import (
	"context"

	"go.uber.org/zap"

	"cellwatch/internal/cell"
	"cellwatch/internal/operator"
)

// OperatorLookup resolves MCC/MNC pairs. *operator.Directory implements it.
type OperatorLookup interface {
	Lookup(ctx context.Context, mcc, mnc string) (operator.Operator, bool, error)
}

// Card is one cell record with its resolved operator, if any.
type Card struct {
	cell.Record
	Operator *operator.Operator `json:"operator,omitempty"`
}

// Cards resolves operators for records. A nil lookup or a failed lookup
// leaves Operator empty.
func Cards(ctx context.Context, records []cell.Record, lookup OperatorLookup) []Card {
	cards := make([]Card, 0, len(records))
	for _, rec := range records {
		c := Card{Record: rec}
		if lookup != nil && rec.MCC != "" && rec.MNC != "" {
			if op, ok, err := lookup.Lookup(ctx, rec.MCC, rec.MNC); err == nil && ok {
				c.Operator = &op
			}
		}
		cards = append(cards, c)
	}
	return cards
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// Logger writes every snapshot to the log, one entry per cell.
type Logger struct {
	logger *zap.Logger
	lookup OperatorLookup
}

// NewLogger returns a Logger. lookup may be nil.
func NewLogger(logger *zap.Logger, lookup OperatorLookup) *Logger {
	return &Logger{logger: logger, lookup: lookup}
}

// Show is a state.Subscriber.
func (l *Logger) Show(records []cell.Record) {
	for _, c := range Cards(context.Background(), records, l.lookup) {
		fields := []zap.Field{
			zap.Int64("cell_id", c.CI),
			zap.Int("tac", c.TAC),
			zap.String("mcc", orUnknown(c.MCC)),
			zap.String("mnc", orUnknown(c.MNC)),
		}
		if c.Operator != nil {
			fields = append(fields, zap.String("operator", c.Operator.Network), zap.String("country", c.Operator.Country))
		}
		l.logger.Info("cell info", fields...)
	}
}
