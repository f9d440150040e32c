package zever

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Layouts used by the cloud. Timestamps carry no zone and are in the site's
// local time.
const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
	monthLayout     = "2006-01"
	clockLayout     = "15:04"
)

// jsonNumber decodes a numeric field the cloud serializes inconsistently,
// sometimes bare ("value": 0) and sometimes quoted ("value": "0.0").
type jsonNumber float64

func (n *jsonNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", s, err)
	}
	*n = jsonNumber(f)
	return nil
}

// measurement is a value/unit pair as reported by the cloud.
type measurement struct {
	Unit  string     `json:"unit"`
	Value jsonNumber `json:"value"`
}

// applyUnit converts a reported value to the standard units: Watt for power
// and kWh for yield. The cloud sometimes miscapitalizes units (KWh instead
// of kWh), so case is ignored. Power values are rounded to the nearest Watt.
func applyUnit(value float64, unit string) (float64, error) {
	u := strings.ToLower(unit)
	var scaled float64
	switch {
	case strings.HasPrefix(u, "w"):
		scaled = value
	case strings.HasPrefix(u, "k"):
		scaled = value * 1_000
	case strings.HasPrefix(u, "m"):
		scaled = value * 1_000_000
	default:
		return 0, fmt.Errorf("unrecognized unit %q", unit)
	}
	if strings.HasSuffix(u, "h") {
		// yields are reported in Wh, kWh or MWh; standardize on kWh
		return scaled / 1_000, nil
	}
	return math.Round(scaled), nil
}

func (c *Client) normalize(endpoint string, m measurement) (float64, error) {
	v, err := applyUnit(float64(m.Value), m.Unit)
	if err != nil {
		return 0, &DecodeError{Endpoint: endpoint, Err: err}
	}
	return v, nil
}
