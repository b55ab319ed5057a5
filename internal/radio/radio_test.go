package radio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellwatch/internal/cell"
)

const modemStatus = `{"modem":{"generic":{"access-technologies":["umts","lte"],"state":"connected"}}}`

const modemLocation = `{"modem":{"location":{
	"3gpp":{"cid":"0AB1C2D3","lac":"FFFE","mcc":"310","mnc":"410","tac":"00A1B2"},
	"cdma-bs":{"latitude":"--","longitude":"--"},
	"gps":{"altitude":"34.0","latitude":"52.520008","longitude":"13.404954","nmea":[],"utc":"120000"}}}}`

func fakeRunner(outputs map[string]string) Runner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		key := name + " " + strings.Join(args, " ")
		out, ok := outputs[key]
		if !ok {
			return nil, errors.New("unexpected command: " + key)
		}
		return []byte(out), nil
	}
}

func TestMMCLICellInfo(t *testing.T) {
	m := NewMMCLI("0")
	m.Run = fakeRunner(map[string]string{
		"mmcli -m 0 -J":                modemStatus,
		"mmcli -m 0 -J --location-get": modemLocation,
	})

	infos, err := m.CellInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)

	want := cell.Info{
		Tech:    cell.LTE,
		CI:      0x0AB1C2D3,
		TAC:     0x00A1B2,
		LAC:     0xFFFE,
		MCC:     "310",
		MNC:     "410",
		Serving: true,
	}
	assert.Equal(t, want, infos[0])
}

func TestMMCLICellInfoUnknownValues(t *testing.T) {
	m := NewMMCLI("")
	m.Run = fakeRunner(map[string]string{
		"mmcli -m any -J":                `{"modem":{"generic":{"access-technologies":"lte"}}}`,
		"mmcli -m any -J --location-get": `{"modem":{"location":{"3gpp":{"cid":"--","lac":"--","mcc":"--","mnc":"--","tac":"--"}}}}`,
	})

	_, err := m.CellInfo(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMMCLIAccessTechnology(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   cell.Technology
	}{
		{"lte only", `{"modem":{"generic":{"access-technologies":["lte"]}}}`, cell.LTE},
		{"nsa anchor", `{"modem":{"generic":{"access-technologies":["lte","5gnr"]}}}`, cell.LTE},
		{"nsa anchor legacy list", `{"modem":{"generic":{"access-technologies":"5gnr, lte"}}}`, cell.LTE},
		{"standalone nr", `{"modem":{"generic":{"access-technologies":["5gnr"]}}}`, cell.NR},
		{"umts and gsm", `{"modem":{"generic":{"access-technologies":["gsm","umts"]}}}`, cell.WCDMA},
		{"missing", `{"modem":{"generic":{}}}`, cell.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMMCLI("0")
			m.Run = fakeRunner(map[string]string{
				"mmcli -m 0 -J":                tt.status,
				"mmcli -m 0 -J --location-get": modemLocation,
			})

			infos, err := m.CellInfo(context.Background())
			require.NoError(t, err)
			require.Len(t, infos, 1)
			assert.Equal(t, tt.want, infos[0].Tech)
		})
	}
}

func TestMMCLINSACellIsExtracted(t *testing.T) {
	m := NewMMCLI("0")
	m.Run = fakeRunner(map[string]string{
		"mmcli -m 0 -J":                `{"modem":{"generic":{"access-technologies":["lte","5gnr"]}}}`,
		"mmcli -m 0 -J --location-get": modemLocation,
	})

	infos, err := m.CellInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []cell.Record{{CI: 0x0AB1C2D3, TAC: 0x00A1B2, MCC: "310", MNC: "410"}}, cell.Extract(infos))
}

func TestMMCLICommandFailure(t *testing.T) {
	m := NewMMCLI("0")
	m.Run = fakeRunner(nil)

	_, err := m.CellInfo(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestMMCLILocation(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	m := NewMMCLI("0")
	m.now = func() time.Time { return now }
	m.Run = fakeRunner(map[string]string{"mmcli -m 0 -J --location-get": modemLocation})

	fix, err := m.Location(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 52.520008, fix.Latitude, 1e-9)
	assert.InDelta(t, 13.404954, fix.Longitude, 1e-9)
	assert.Equal(t, now, fix.Time)

	m.Run = fakeRunner(map[string]string{
		"mmcli -m 0 -J --location-get": `{"modem":{"location":{"gps":{"latitude":"--","longitude":"--"}}}}`,
	})
	_, err = m.Location(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.json")
	src := NewFile(path)

	_, err := src.CellInfo(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable, "missing file")

	body := `{
		"cells": [
			{"type": "lte", "ci": 100, "tac": 5, "mcc": "310", "mnc": "410"},
			{"type": "LTE", "ci": "200", "tac": 6, "mcc": null, "mnc": "260"},
			{"type": "gsm", "ci": 300, "lac": 7, "mcc": "234", "mnc": "15"}
		],
		"location": {"latitude": -33.86, "longitude": 151.21, "accuracy": 12.5}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	infos, err := src.CellInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []cell.Info{
		{Tech: cell.LTE, CI: 100, TAC: 5, MCC: "310", MNC: "410"},
		{Tech: cell.LTE, CI: 200, TAC: 6, MNC: "260"},
		{Tech: cell.GSM, CI: 300, LAC: 7, MCC: "234", MNC: "15"},
	}, infos)

	fix, err := src.Location(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -33.86, fix.Latitude)
	assert.Equal(t, 12.5, fix.Accuracy)

	require.NoError(t, os.WriteFile(path, []byte(`{"cells": []}`), 0o600))
	_, err = src.CellInfo(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable, "no visible towers")
	_, err = src.Location(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	require.NoError(t, os.WriteFile(path, []byte(`{"cells": [`), 0o600))
	_, err = src.CellInfo(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestFileSourceRejectsMalformedNumbers(t *testing.T) {
	tests := []struct {
		name string
		cell string
	}{
		{"non numeric string", `{"type": "lte", "ci": "abc", "tac": 5, "mcc": "310"}`},
		{"boolean", `{"type": "lte", "ci": 100, "tac": true, "mcc": "310"}`},
		{"fraction", `{"type": "lte", "ci": "1.5", "tac": 5, "mcc": "310"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "replay.json")
			require.NoError(t, os.WriteFile(path, []byte(`{"cells": [`+tt.cell+`]}`), 0o600))

			infos, err := NewFile(path).CellInfo(context.Background())
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrUnavailable)
			assert.Nil(t, infos)
		})
	}
}

func TestFileSourceEmptyNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.json")
	body := `{"cells": [{"type": "lte", "ci": 100, "tac": "", "lac": null, "mcc": "310"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	infos, err := NewFile(path).CellInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []cell.Info{{Tech: cell.LTE, CI: 100, MCC: "310"}}, infos)
}

func TestStaticSource(t *testing.T) {
	s := &Static{}
	_, err := s.CellInfo(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)

	s.Cells = []cell.Info{{Tech: cell.LTE, CI: 1, MCC: "310"}}
	infos, err := s.CellInfo(context.Background())
	require.NoError(t, err)
	infos[0].CI = 2
	assert.Equal(t, int64(1), s.Cells[0].CI, "callers get a copy")
}
