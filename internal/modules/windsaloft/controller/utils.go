package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"windsaloft-server/internal/modules/windsaloft/table"
	"windsaloft-server/internal/modules/windsaloft/types"
)

const (
	flightLayout = "2006-01-02 1504"

	defaultQueriesLimit = 100
	maxQueriesLimit     = 1000
)

// These are returned verbatim in the 400 body; existing clients match on the
// exact text, capitalization included.
var (
	errFlightMismatch  = errors.New("Missing Flight Time or Date")
	errBadFlightFormat = errors.New("Bad Date or Time Format")
	errFlightInPast    = errors.New("Flight time is more than one hour old")
	errInvertedRange   = errors.New("'low_altitude' must be <= 'high_altitude'")
)

// parseForecastQuery validates the winds aloft query string. Nothing here
// calls the provider, so every error is a 400.
func parseForecastQuery(r *http.Request, now time.Time) (types.Query, error) {
	q := r.URL.Query()

	out := types.Query{
		Region:  types.DefaultRegion,
		Horizon: types.Horizon06,
	}
	if s := strings.TrimSpace(q.Get("region")); s != "" {
		out.Region = strings.ToLower(s)
	}

	var err error
	if out.Range.Lower, err = parseAltitude(q.Get("low_altitude"), "low_altitude"); err != nil {
		return types.Query{}, err
	}
	if out.Range.Upper, err = parseAltitude(q.Get("high_altitude"), "high_altitude"); err != nil {
		return types.Query{}, err
	}
	if err := out.Range.Validate(); err != nil {
		return types.Query{}, errInvertedRange
	}

	flightTime := strings.TrimSpace(q.Get("flight_time"))
	flightDate := strings.TrimSpace(q.Get("flight_date"))
	if (flightTime == "") != (flightDate == "") {
		return types.Query{}, errFlightMismatch
	}

	// an explicit fcst wins over the flight time
	if s := strings.TrimSpace(q.Get("fcst")); s != "" {
		h, err := types.ParseHorizon(s)
		if err != nil {
			return types.Query{}, err
		}
		out.Horizon = h
		return out, nil
	}

	if flightTime != "" {
		flight, err := parseFlightTime(flightDate, flightTime)
		if err != nil {
			return types.Query{}, err
		}
		if out.Horizon, err = selectHorizon(flight, now); err != nil {
			return types.Query{}, err
		}
	}
	return out, nil
}

func parseAltitude(s, name string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid '%s' (expected integer feet)", name)
	}
	if n < 0 {
		return nil, fmt.Errorf("'%s' must be >= 0", name)
	}
	return &n, nil
}

// parseFlightTime reads flight_date (YYYY-MM-DD) and flight_time (HHMM) as UTC.
func parseFlightTime(date, hhmm string) (time.Time, error) {
	if len(hhmm) != 4 {
		return time.Time{}, errBadFlightFormat
	}
	t, err := time.ParseInLocation(flightLayout, date+" "+hhmm, time.UTC)
	if err != nil {
		return time.Time{}, errBadFlightFormat
	}
	return t, nil
}

// selectHorizon picks the forecast closest to the flight: up to 9h ahead uses
// the 06 product, up to 18h the 12, anything later the 24.
func selectHorizon(flight, now time.Time) (types.Horizon, error) {
	hours := flight.Sub(now).Hours()
	switch {
	case hours < -1:
		return "", errFlightInPast
	case hours <= 9:
		return types.Horizon06, nil
	case hours <= 18:
		return types.Horizon12, nil
	default:
		return types.Horizon24, nil
	}
}

func parseQueriesLimit(r *http.Request) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return defaultQueriesLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid 'limit' (expected integer)")
	}
	if n <= 0 {
		return 0, errors.New("'limit' must be > 0")
	}
	if n > maxQueriesLimit {
		return 0, fmt.Errorf("'limit' must be <= %d", maxQueriesLimit)
	}
	return n, nil
}

// forecastErrorMessage is the client facing text for a failed forecast.
func forecastErrorMessage(err error, status int) string {
	switch {
	case errors.Is(err, table.ErrEmptyResult):
		return "No altitudes in given altitude range, widen range and try again"
	case status == http.StatusBadRequest:
		return err.Error()
	case status == http.StatusBadGateway:
		return "weather provider request failed"
	default:
		return "failed to build forecast"
	}
}
