package permission

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// recordingAuthority counts requests and answers from a fixed grant set.
type recordingAuthority struct {
	*Static
	requested [][]Kind
}

func (r *recordingAuthority) Request(ctx context.Context, kinds []Kind, done func(Decision)) {
	r.requested = append(r.requested, kinds)
	r.Static.Request(ctx, kinds, done)
}

// silentAuthority never answers.
type silentAuthority struct{}

func (silentAuthority) Granted(Kind) bool                               { return false }
func (silentAuthority) Request(context.Context, []Kind, func(Decision)) {}

func TestGateEnsureAlreadyGranted(t *testing.T) {
	auth := &recordingAuthority{Static: NewStatic(FineLocation, PhoneState)}
	gate := NewGate(auth, zap.NewNop())

	res, err := gate.Ensure(context.Background(), FineLocation, PhoneState)
	require.NoError(t, err)
	assert.Equal(t, Granted, res)
	assert.Empty(t, auth.requested, "no prompt when everything is granted")
}

func TestGateEnsureDenied(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	auth := &recordingAuthority{Static: NewStatic(FineLocation)}
	gate := NewGate(auth, zap.New(core))

	res, err := gate.Ensure(context.Background(), FineLocation, PhoneState)
	require.NoError(t, err)
	assert.Equal(t, Denied, res)
	require.Len(t, auth.requested, 1)
	assert.Equal(t, []Kind{PhoneState}, auth.requested[0], "only missing kinds are requested")
	assert.Equal(t, 1, logs.FilterMessage("permissions not granted by the user").Len())
}

func TestGateEnsureContextCancelled(t *testing.T) {
	gate := NewGate(silentAuthority{}, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := gate.Ensure(ctx, PhoneState)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Denied, res)
}

func TestGateCheck(t *testing.T) {
	gate := NewGate(NewStatic(FineLocation, CoarseLocation), zap.NewNop())
	assert.True(t, gate.Check(FineLocation, CoarseLocation))
	assert.False(t, gate.Check(FineLocation, CoarseLocation, PhoneState))
	assert.True(t, gate.Check())
}

func TestPromptRemembersAnswers(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader("y\nno\n"), &out)
	gate := NewGate(p, zap.NewNop())

	res, err := gate.Ensure(context.Background(), FineLocation, PhoneState)
	require.NoError(t, err)
	assert.Equal(t, Denied, res)
	assert.True(t, p.Granted(FineLocation))
	assert.False(t, p.Granted(PhoneState))
	assert.Contains(t, out.String(), "Allow cellwatch to access fine location? [y/N]")
	assert.Contains(t, out.String(), "phone state")

	// PhoneState was answered already; the exhausted reader is not consulted.
	res, err = gate.Ensure(context.Background(), PhoneState)
	require.NoError(t, err)
	assert.Equal(t, Denied, res)
	assert.Equal(t, 2, strings.Count(out.String(), "[y/N]"))
}

func TestPromptFineLocationCoversCoarse(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader("y\ny\n"), &out)
	gate := NewGate(p, zap.NewNop())

	res, err := gate.Ensure(context.Background(), FineLocation, PhoneState)
	require.NoError(t, err)
	assert.Equal(t, Granted, res)
	assert.True(t, gate.Check(FineLocation, CoarseLocation, PhoneState))

	res, err = gate.Ensure(context.Background(), CoarseLocation)
	require.NoError(t, err)
	assert.Equal(t, Granted, res)
	assert.NotContains(t, out.String(), "coarse location")
	assert.Equal(t, 2, strings.Count(out.String(), "[y/N]"))
}

func TestPromptCoarseAskedWhenFineDenied(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader("n\ny\n"), &out)
	gate := NewGate(p, zap.NewNop())

	res, err := gate.Ensure(context.Background(), FineLocation, CoarseLocation)
	require.NoError(t, err)
	assert.Equal(t, Denied, res)
	assert.False(t, p.Granted(FineLocation))
	assert.True(t, p.Granted(CoarseLocation))
	assert.Contains(t, out.String(), "coarse location")
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{FineLocation, CoarseLocation, PhoneState} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("camera")
	assert.Error(t, err)
}
