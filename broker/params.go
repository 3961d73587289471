package broker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrBadDuration    = errors.New("bad duration")
	ErrBadBarSize     = errors.New("bad bar size")
	ErrBadEndDateTime = errors.New("bad end date time")
)

// EndDateTimeLayout is the date/time part of an end timestamp. The zone
// abbreviation follows after a space.
const EndDateTimeLayout = "20060102 15:04:05"

// DurationUnits are the accepted duration unit letters, in display order.
var DurationUnits = []string{"S", "D", "W", "M", "Y"}

// maxSpan bounds the count per duration unit so every span stays within
// the range of time.Duration.
var maxSpan = map[string]int{
	"S": 200 * 365 * 24 * 60 * 60,
	"D": 200 * 365,
	"W": 200 * 52,
	"M": 200 * 12,
	"Y": 200,
}

// BarSizes are the accepted bar size settings, in display order.
var BarSizes = []string{
	"1 sec", "5 secs", "15 secs", "30 secs",
	"1 min", "2 mins", "3 mins", "5 mins", "15 mins", "30 mins",
	"1 hour", "1 day",
}

// WhatToShow lists the historical data kinds an operator can ask for.
var WhatToShow = []string{
	"TRADES", "MIDPOINT", "BID", "ASK", "BID_ASK",
	"HISTORICAL_VOLATILITY", "OPTION_IMPLIED_VOLATILITY",
	"REBATE_RATE", "FEE_RATE", "SCHEDULE",
}

// Span is a parsed duration string. Months and years are calendar units
// so they are kept apart from the fixed part.
type Span struct {
	N    int
	Unit string
}

// Before returns the start of the span that ends at end.
func (s Span) Before(end time.Time) time.Time {
	switch s.Unit {
	case "S":
		return end.Add(-time.Duration(s.N) * time.Second)
	case "D":
		return end.AddDate(0, 0, -s.N)
	case "W":
		return end.AddDate(0, 0, -7*s.N)
	case "M":
		return end.AddDate(0, -s.N, 0)
	default:
		return end.AddDate(-s.N, 0, 0)
	}
}

func (s Span) String() string {
	return fmt.Sprintf("%d %s", s.N, s.Unit)
}

// ParseDuration parses "<n> <unit>" where unit is one of DurationUnits.
func ParseDuration(s string) (Span, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Span{}, fmt.Errorf("%w: %q", ErrBadDuration, s)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return Span{}, fmt.Errorf("%w: %q", ErrBadDuration, s)
	}
	unit := strings.ToUpper(fields[1])
	limit, ok := maxSpan[unit]
	if !ok {
		return Span{}, fmt.Errorf("%w: unknown unit in %q", ErrBadDuration, s)
	}
	if n > limit {
		return Span{}, fmt.Errorf("%w: %q exceeds %d %s", ErrBadDuration, s, limit, unit)
	}
	return Span{N: n, Unit: unit}, nil
}

// ParseBarSize parses settings like "5 mins" or "1 day".
func ParseBarSize(s string) (time.Duration, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrBadBarSize, s)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadBarSize, s)
	}

	var unit time.Duration
	switch strings.TrimSuffix(strings.ToLower(fields[1]), "s") {
	case "sec":
		unit = time.Second
	case "min":
		unit = time.Minute
	case "hour":
		unit = time.Hour
	case "day":
		unit = 24 * time.Hour
	case "week":
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrBadBarSize, s)
	}
	return time.Duration(n) * unit, nil
}

// ParseEndDateTime parses "YYYYMMDD HH:MM:SS ZONE". The empty string is
// the "now" sentinel and yields now. Zones other than UTC/GMT are looked up
// in zones; unknown zones are an error.
func ParseEndDateTime(s string, now time.Time, zones map[string]*time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}

	i := strings.LastIndex(s, " ")
	if i < 0 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadEndDateTime, s)
	}
	stamp, zone := s[:i], strings.ToUpper(s[i+1:])

	loc, ok := zones[zone]
	if !ok {
		switch zone {
		case "UTC", "GMT":
			loc = time.UTC
		default:
			return time.Time{}, fmt.Errorf("%w: unknown zone %q", ErrBadEndDateTime, zone)
		}
	}

	t, err := time.ParseInLocation(EndDateTimeLayout, stamp, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadEndDateTime, s, err)
	}
	return t, nil
}

// DefaultZones maps the zone literals the desk emits to fixed offsets.
var DefaultZones = map[string]*time.Location{
	"EST": time.FixedZone("EST", -5*60*60),
	"CST": time.FixedZone("CST", -6*60*60),
	"PST": time.FixedZone("PST", -8*60*60),
	"CET": time.FixedZone("CET", 1*60*60),
	"JST": time.FixedZone("JST", 9*60*60),
}

// KnownZone reports whether ParseEndDateTime accepts zone with DefaultZones.
func KnownZone(zone string) bool {
	zone = strings.ToUpper(zone)
	if _, ok := DefaultZones[zone]; ok {
		return true
	}
	return zone == "UTC" || zone == "GMT"
}
