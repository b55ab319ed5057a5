package radio

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"cellwatch/internal/cell"
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// MMCLI reads the serving cell and GPS position through ModemManager's
// mmcli tool. The modem must have 3GPP (and, for positions, GPS) location
// gathering enabled.
type MMCLI struct {
	Modem string // modem index or path; "any" selects the first modem
	Run   Runner
	now   func() time.Time
}

// NewMMCLI returns a source for the given modem.
func NewMMCLI(modem string) *MMCLI {
	if modem == "" {
		modem = "any"
	}
	return &MMCLI{Modem: modem, Run: execRunner, now: time.Now}
}

func (m *MMCLI) query(ctx context.Context, args ...string) (map[string]any, error) {
	args = append([]string{"-m", m.Modem, "-J"}, args...)
	out, err := m.Run(ctx, "mmcli", args...)
	if err != nil {
		return nil, fmt.Errorf("mmcli %s: %w", strings.Join(args, " "), err)
	}
	var root map[string]any
	if err := json.Unmarshal(out, &root); err != nil {
		return nil, fmt.Errorf("decode mmcli output: %w", err)
	}
	return root, nil
}

func (m *MMCLI) CellInfo(ctx context.Context) ([]cell.Info, error) {
	status, err := m.query(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := m.query(ctx, "--location-get")
	if err != nil {
		return nil, err
	}

	if _, ok := deepGet(loc, "modem.location.3gpp"); !ok {
		return nil, ErrUnavailable
	}

	info := cell.Info{
		Tech:    accessTechnology(status),
		CI:      hexField(loc, "modem.location.3gpp.cid"),
		TAC:     int(hexField(loc, "modem.location.3gpp.tac")),
		LAC:     int(hexField(loc, "modem.location.3gpp.lac")),
		MCC:     firstString(loc, "modem.location.3gpp.mcc"),
		MNC:     firstString(loc, "modem.location.3gpp.mnc"),
		Serving: true,
	}
	if info.CI == 0 && info.MCC == "" {
		return nil, ErrUnavailable
	}
	return []cell.Info{info}, nil
}

func (m *MMCLI) Location(ctx context.Context) (Fix, error) {
	loc, err := m.query(ctx, "--location-get")
	if err != nil {
		return Fix{}, err
	}
	lat, okLat := firstFloat64(loc, "modem.location.gps.latitude")
	lon, okLon := firstFloat64(loc, "modem.location.gps.longitude")
	if !okLat || !okLon {
		return Fix{}, ErrUnavailable
	}
	return Fix{Latitude: lat, Longitude: lon, Time: m.now()}, nil
}

// accessTechnology reports the technology of the serving cell. In 5G NSA
// mode the modem lists both lte and 5gnr while the 3GPP location still
// describes the LTE anchor cell, so LTE wins whenever it is present.
// Otherwise the most capable technology is used.
func accessTechnology(status map[string]any) cell.Technology {
	v, ok := deepGet(status, "modem.generic.access-technologies")
	if !ok {
		return cell.Unknown
	}
	var names []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
	case string:
		// Older mmcli releases print a comma separated list.
		names = strings.Split(t, ",")
	}

	best := cell.Unknown
	for _, s := range names {
		tech := cell.ParseTechnology(s)
		if tech == cell.LTE {
			return cell.LTE
		}
		if tech > best {
			best = tech
		}
	}
	return best
}

// firstString returns the first non-empty string at paths. mmcli prints
// "--" for values it does not know.
func firstString(root map[string]any, paths ...string) string {
	for _, p := range paths {
		if v, ok := deepGet(root, p); ok {
			if s, ok := v.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" && s != "--" {
					return s
				}
			}
		}
	}
	return ""
}

func firstFloat64(root map[string]any, paths ...string) (float64, bool) {
	for _, p := range paths {
		if v, ok := deepGet(root, p); ok {
			switch t := v.(type) {
			case float64:
				return t, true
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
					return f, true
				}
			}
		}
	}
	return 0, false
}

// hexField parses a hexadecimal identifier such as "0AB1C2D3".
func hexField(root map[string]any, path string) int64 {
	s := firstString(root, path)
	if s == "" {
		return 0
	}
	i, err := strconv.ParseInt(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	if err != nil {
		return 0
	}
	return i
}

// deepGet walks a map[string]any using a dotted path: "a.b.c".
func deepGet(root map[string]any, dotted string) (any, bool) {
	var cur any = root
	for _, part := range strings.Split(dotted, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := node[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
