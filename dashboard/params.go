package dashboard

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rustyeddy/fxdesk/broker"
)

var (
	ErrInvalidEndTime  = errors.New("invalid end date/time")
	ErrInvalidDuration = errors.New("invalid duration")
)

// DefaultZone is the zone literal appended to composed end timestamps.
const DefaultZone = "EST"

// EndDateTime composes the end timestamp of a query from its form fields.
// If any of the four parts is unset the result is "", meaning now.
func EndDateTime(date string, hour, minute, second *int, zone string) (string, error) {
	if strings.TrimSpace(date) == "" || hour == nil || minute == nil || second == nil {
		return "", nil
	}
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("%w: date %q", ErrInvalidEndTime, date)
	}
	h, m, s := *hour, *minute, *second
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return "", fmt.Errorf("%w: time %02d:%02d:%02d", ErrInvalidEndTime, h, m, s)
	}
	if zone == "" {
		zone = DefaultZone
	}
	return fmt.Sprintf("%s %02d:%02d:%02d %s", d.Format("20060102"), h, m, s, zone), nil
}

// DurationString renders a magnitude and unit letter as "<n> <unit>".
// Spans too long for the broker wire format are rejected.
func DurationString(n int, unit string) (string, error) {
	u := strings.ToUpper(strings.TrimSpace(unit))
	if n <= 0 || !slices.Contains(broker.DurationUnits, u) {
		return "", fmt.Errorf("%w: %d %q", ErrInvalidDuration, n, unit)
	}
	span, err := broker.ParseDuration(fmt.Sprintf("%d %s", n, u))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDuration, err)
	}
	return span.String(), nil
}
