package radio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"cellwatch/internal/cell"
)

// flexInt accepts a JSON number, a decimal string or null. An empty string
// or null reads as 0.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		*f = flexInt(i)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("integer field: %s is neither a number nor a string", data)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("integer field: %w", err)
	}
	*f = flexInt(i)
	return nil
}

type replayCell struct {
	Type    string  `json:"type"`
	CI      flexInt `json:"ci"`
	TAC     flexInt `json:"tac"`
	LAC     flexInt `json:"lac"`
	MCC     *string `json:"mcc"`
	MNC     *string `json:"mnc"`
	Serving bool    `json:"serving"`
}

type replayFile struct {
	Cells    []replayCell `json:"cells"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Accuracy  float64 `json:"accuracy"`
	} `json:"location"`
}

// File replays readings from a JSON file. The file is read on every query,
// so it can be edited while the poller runs.
type File struct {
	Path string
	now  func() time.Time
}

// NewFile returns a File source for path.
func NewFile(path string) *File {
	return &File{Path: path, now: time.Now}
}

func (f *File) read() (*replayFile, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}
	var rf replayFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("decode replay file: %w", err)
	}
	return &rf, nil
}

func (f *File) CellInfo(context.Context) ([]cell.Info, error) {
	rf, err := f.read()
	if err != nil {
		return nil, err
	}
	if len(rf.Cells) == 0 {
		return nil, ErrUnavailable
	}

	infos := make([]cell.Info, 0, len(rf.Cells))
	for _, c := range rf.Cells {
		infos = append(infos, cell.Info{
			Tech:    cell.ParseTechnology(c.Type),
			CI:      int64(c.CI),
			TAC:     int(c.TAC),
			LAC:     int(c.LAC),
			MCC:     deref(c.MCC),
			MNC:     deref(c.MNC),
			Serving: c.Serving,
		})
	}
	return infos, nil
}

func (f *File) Location(context.Context) (Fix, error) {
	rf, err := f.read()
	if err != nil {
		return Fix{}, err
	}
	if rf.Location == nil {
		return Fix{}, ErrUnavailable
	}
	return Fix{
		Latitude:  rf.Location.Latitude,
		Longitude: rf.Location.Longitude,
		Accuracy:  rf.Location.Accuracy,
		Time:      f.now(),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
