// Package timex parses the human-readable durations used in configuration
// ("15m", "24h", "7d") and provides a JSON-friendly Duration type.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var shortForm = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*(ms|s|m|h|d|w)?$`)

var units = map[string]time.Duration{
	"":   time.Millisecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  Day,
	"w":  Week,
}

// ErrInvalidDuration is returned for strings neither form understands.
var ErrInvalidDuration = errors.New("invalid duration")

// ParseDuration accepts "<n><unit>" with unit one of ms, s, m, h, d, w
// (a bare number means milliseconds) and falls back to time.ParseDuration
// for composite Go forms such as "1h30m".
func ParseDuration(s string) (time.Duration, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidDuration)
	}

	if m := shortForm.FindStringSubmatch(v); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		return time.Duration(n * float64(units[m[2]])), nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return d, nil
}

// MustParseDuration is ParseDuration for constants known to be valid.
func MustParseDuration(s string) time.Duration {
	d, err := ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Duration unmarshals from either a duration string ("7d") or an integer
// number of nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDuration, string(b))
	}
}
