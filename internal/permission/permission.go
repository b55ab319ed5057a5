// Package permission gates data collection on the hardware and location
// permissions granted by the user.
package permission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Kind names a permission that data collection depends on.
type Kind int

const (
	FineLocation Kind = iota + 1
	CoarseLocation
	PhoneState
)

func (k Kind) String() string {
	switch k {
	case FineLocation:
		return "fine_location"
	case CoarseLocation:
		return "coarse_location"
	case PhoneState:
		return "phone_state"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses the string form of a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fine_location":
		return FineLocation, nil
	case "coarse_location":
		return CoarseLocation, nil
	case "phone_state":
		return PhoneState, nil
	}
	return 0, fmt.Errorf("unknown permission kind %q", s)
}

// Result is the outcome of Gate.Ensure.
type Result int

const (
	Denied Result = iota
	Granted
)

func (r Result) String() string {
	if r == Granted {
		return "granted"
	}
	return "denied"
}

// ErrDenied is returned by callers that treat a denial as an error.
var ErrDenied = errors.New("permissions not granted")

// Decision maps each requested kind to the user's answer.
type Decision map[Kind]bool

// Authority grants or denies permissions. Request must call done exactly
// once, from any goroutine, unless ctx is cancelled first.
type Authority interface {
	Granted(kind Kind) bool
	Request(ctx context.Context, kinds []Kind, done func(Decision))
}

// Gate checks and requests permissions through an Authority.
type Gate struct {
	authority Authority
	logger    *zap.Logger
}

// NewGate creates a Gate backed by authority.
func NewGate(authority Authority, logger *zap.Logger) *Gate {
	return &Gate{authority: authority, logger: logger}
}

// Check reports whether every kind is currently granted.
func (g *Gate) Check(kinds ...Kind) bool {
	for _, k := range kinds {
		if !g.authority.Granted(k) {
			return false
		}
	}
	return true
}

// Ensure requests any of kinds that are not yet granted and waits for the
// answer. The result is Granted only if every kind was accepted. A denial
// is final; Ensure does not ask again.
func (g *Gate) Ensure(ctx context.Context, kinds ...Kind) (Result, error) {
	var missing []Kind
	for _, k := range kinds {
		if !g.authority.Granted(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return Granted, nil
	}

	g.logger.Debug("requesting permissions", zap.Stringers("kinds", missing))

	answer := make(chan Decision, 1)
	g.authority.Request(ctx, missing, func(d Decision) {
		answer <- d
	})

	var decision Decision
	select {
	case <-ctx.Done():
		return Denied, ctx.Err()
	case decision = <-answer:
	}

	var denied []Kind
	for _, k := range missing {
		if !decision[k] {
			denied = append(denied, k)
		}
	}
	if len(denied) > 0 {
		g.logger.Warn("permissions not granted by the user", zap.Stringers("denied", denied))
		return Denied, nil
	}

	g.logger.Info("permissions granted", zap.Stringers("kinds", missing))
	return Granted, nil
}
