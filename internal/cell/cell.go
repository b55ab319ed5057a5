// Package cell defines cell-tower records as reported by the device radio
// and the filtering applied before a record is published.
package cell

import "strings"

// Technology identifies the radio access technology of a cell record.
type Technology int

const (
	Unknown Technology = iota
	GSM
	WCDMA
	LTE
	NR
)

func (t Technology) String() string {
	switch t {
	case GSM:
		return "gsm"
	case WCDMA:
		return "wcdma"
	case LTE:
		return "lte"
	case NR:
		return "nr"
	default:
		return "unknown"
	}
}

// ParseTechnology maps the names used by modems and replay files onto a
// Technology. Unrecognised names map to Unknown.
func ParseTechnology(s string) Technology {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gsm", "gprs", "edge", "2g":
		return GSM
	case "wcdma", "umts", "hsdpa", "hsupa", "hspa", "hspa-plus", "3g":
		return WCDMA
	case "lte", "lte-advanced", "4g":
		return LTE
	case "nr", "5gnr", "5g":
		return NR
	default:
		return Unknown
	}
}

// Supported reports whether records of this technology are processed.
func Supported(t Technology) bool {
	return t == LTE
}

// Info is a single raw cell record from the radio subsystem.
// Empty MCC or MNC means the radio did not report a value.
type Info struct {
	Tech    Technology
	CI      int64
	TAC     int
	LAC     int
	MCC     string
	MNC     string
	Serving bool
}

// Record is the identity of one visible cell tower.
type Record struct {
	CI  int64  `json:"ci"`
	TAC int    `json:"tac"`
	MCC string `json:"mcc,omitempty"`
	MNC string `json:"mnc,omitempty"`
}

// Extract filters infos down to supported technologies and returns their
// identities in input order. Records without a mobile country code are
// dropped.
func Extract(infos []Info) []Record {
	var out []Record
	for _, info := range infos {
		var rec Record
		switch info.Tech {
		case LTE:
			rec = Record{CI: info.CI, TAC: info.TAC, MCC: info.MCC, MNC: info.MNC}
		case GSM, WCDMA, NR, Unknown:
			continue
		}
		if rec.MCC == "" {
			continue
		}
		out = append(out, rec)
	}
	return out
}
