package types

import (
	"fmt"
	"time"

	"windsaloft-server/internal/modules/windsaloft/table"
)

// Tier is an altitude band the provider publishes as its own table.
type Tier string

const (
	TierLow  Tier = "low"
	TierHigh Tier = "high"
)

// Horizon is the forecast lead time in hours, formatted the way the provider
// expects it.
type Horizon string

const (
	Horizon06 Horizon = "06"
	Horizon12 Horizon = "12"
	Horizon24 Horizon = "24"
)

const DefaultRegion = "all"

func ParseHorizon(s string) (Horizon, error) {
	switch h := Horizon(s); h {
	case Horizon06, Horizon12, Horizon24:
		return h, nil
	default:
		return "", fmt.Errorf("invalid 'fcst' %q (allowed: 06, 12, 24)", s)
	}
}

type Query struct {
	Region  string
	Range   table.AltitudeRange
	Horizon Horizon
}

type QueryRecord struct {
	ID           int64     `json:"id"`
	Region       string    `json:"region"`
	Horizon      string    `json:"fcst"`
	LowAltitude  *int      `json:"lowAltitude"`
	HighAltitude *int      `json:"highAltitude"`
	Status       int       `json:"status"`
	Error        string    `json:"error,omitempty"`
	Stations     int       `json:"stations"`
	Columns      int       `json:"columns"`
	DurationMs   int64     `json:"durationMs"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ForecastMessage is published to the broker after a successful query.
type ForecastMessage struct {
	Region      string      `json:"region"`
	Horizon     string      `json:"fcst"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Table       table.Table `json:"table"`
}
