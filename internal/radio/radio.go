// Package radio queries the device's cellular radio and positioning
// hardware.
package radio

import (
	"context"
	"errors"
	"time"

	"cellwatch/internal/cell"
)

// ErrUnavailable means the hardware returned no data for this query.
var ErrUnavailable = errors.New("radio: no data available")

// CellSource reports the cell towers currently visible to the radio.
type CellSource interface {
	CellInfo(ctx context.Context) ([]cell.Info, error)
}

// LocationSource reports the device position.
type LocationSource interface {
	Location(ctx context.Context) (Fix, error)
}

// Fix is a single position reading.
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"` // metres
	Time      time.Time `json:"time"`
}

// Static serves fixed readings.
type Static struct {
	Cells []cell.Info
	Fix   *Fix
	Err   error
}

func (s *Static) CellInfo(context.Context) ([]cell.Info, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Cells) == 0 {
		return nil, ErrUnavailable
	}
	out := make([]cell.Info, len(s.Cells))
	copy(out, s.Cells)
	return out, nil
}

func (s *Static) Location(context.Context) (Fix, error) {
	if s.Err != nil {
		return Fix{}, s.Err
	}
	if s.Fix == nil {
		return Fix{}, ErrUnavailable
	}
	return *s.Fix, nil
}
