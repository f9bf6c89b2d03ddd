// Package table turns winds aloft forecast text into station-keyed tables and
// combines the low and high altitude tiers into one.
package table

import (
	"errors"
	"strconv"
)

// StationLabel is the header of the station identifier column.
const StationLabel = "FT"

var (
	ErrMalformedUpstreamData = errors.New("malformed upstream data")
	ErrEmptyResult           = errors.New("no altitudes in range")
	ErrInvalidRange          = errors.New("invalid altitude range")
)

// Table is a forecast table. Labels[0] is the station column, the rest are
// altitudes in feet. Every row has len(Labels) cells and row[0] is the station.
type Table struct {
	Labels []string   `json:"labels"`
	Rows   [][]string `json:"data"`
}

// Altitudes returns the numeric altitude labels, skipping any that do not parse.
func (t Table) Altitudes() []int {
	out := make([]int, 0, len(t.Labels))
	for _, l := range t.Labels[min(1, len(t.Labels)):] {
		if alt, err := strconv.Atoi(l); err == nil {
			out = append(out, alt)
		}
	}
	return out
}

// Stations returns the station identifiers in row order.
func (t Table) Stations() []string {
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row) > 0 {
			out = append(out, row[0])
		}
	}
	return out
}

// AltitudeRange is an inclusive altitude window in feet. A nil bound is open.
type AltitudeRange struct {
	Lower *int
	Upper *int
}

func (r AltitudeRange) IsZero() bool {
	return r.Lower == nil && r.Upper == nil
}

func (r AltitudeRange) Contains(alt int) bool {
	if r.Lower != nil && alt < *r.Lower {
		return false
	}
	if r.Upper != nil && alt > *r.Upper {
		return false
	}
	return true
}

func (r AltitudeRange) Validate() error {
	if r.Lower != nil && r.Upper != nil && *r.Lower > *r.Upper {
		return ErrInvalidRange
	}
	return nil
}
