// Package duration provides the unit-carrying time span used by configuration
// thresholds and lifecycle comparisons.
package duration

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Day is 24 hours. Calendar days are not used anywhere in comparisons.
const Day = 24 * time.Hour

// Duration is a positive span written as a number followed by a unit,
// e.g. "7d", "24h", "30m" or "3600s".
type Duration time.Duration

var unitNames = map[string]time.Duration{
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": Day, "day": Day, "days": Day,
}

// Parse reads a duration string. A unit is mandatory and the value must be
// greater than zero.
func Parse(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("duration cannot be empty")
	}

	split := 0
	for split < len(s) && s[split] >= '0' && s[split] <= '9' {
		split++
	}
	if split == 0 {
		return 0, fmt.Errorf("duration %q must start with a number", s)
	}
	unitPart := strings.TrimSpace(s[split:])
	if unitPart == "" {
		return 0, fmt.Errorf("duration %q must include a unit (s, m, h, d)", s)
	}

	value, err := strconv.ParseInt(s[:split], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in duration %q: %w", s, err)
	}
	if value == 0 {
		return 0, errors.New("duration must be greater than 0")
	}

	unit, ok := unitNames[strings.ToLower(unitPart)]
	if !ok {
		return 0, fmt.Errorf("invalid duration unit %q (valid units: s, m, h, d or their full names)", unitPart)
	}
	if value > int64(time.Duration(1<<63-1)/unit) {
		return 0, fmt.Errorf("duration %q is too large", s)
	}

	return Duration(time.Duration(value) * unit), nil
}

// MustParse is Parse for constants in tests and defaults.
func MustParse(s string) Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromDays returns a Duration of n days.
func FromDays(n int) Duration { return Duration(time.Duration(n) * Day) }

// FromHours returns a Duration of n hours.
func FromHours(n int) Duration { return Duration(time.Duration(n) * time.Hour) }

// FromMinutes returns a Duration of n minutes.
func FromMinutes(n int) Duration { return Duration(time.Duration(n) * time.Minute) }

// FromSeconds returns a Duration of n seconds.
func FromSeconds(n int) Duration { return Duration(time.Duration(n) * time.Second) }

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// IsZero reports whether the duration was never set.
func (d Duration) IsZero() bool { return d == 0 }

// Days returns whole days, truncated.
func (d Duration) Days() int64 { return int64(time.Duration(d) / Day) }

// Hours returns whole hours, truncated.
func (d Duration) Hours() int64 { return int64(time.Duration(d) / time.Hour) }

// Minutes returns whole minutes, truncated.
func (d Duration) Minutes() int64 { return int64(time.Duration(d) / time.Minute) }

// Seconds returns whole seconds, truncated.
func (d Duration) Seconds() int64 { return int64(time.Duration(d) / time.Second) }

// Unit returns the largest of day, hour, minute and second that divides d
// evenly. It is the granularity at which d is displayed and compared.
func (d Duration) Unit() time.Duration {
	for _, u := range []time.Duration{Day, time.Hour, time.Minute} {
		if time.Duration(d)%u == 0 {
			return u
		}
	}
	return time.Second
}

// Reached reports whether elapsed, truncated to d's unit, is at least d.
// A negative elapsed span (clock moved backwards) never reaches anything.
func (d Duration) Reached(elapsed time.Duration) bool {
	if elapsed < 0 {
		return false
	}
	return elapsed.Truncate(d.Unit()) >= time.Duration(d)
}

// Since is the span from t to now.
func Since(t, now time.Time) time.Duration {
	return now.Sub(t)
}

// String formats using the largest unit that divides the value evenly.
func (d Duration) String() string {
	switch d.Unit() {
	case Day:
		return fmt.Sprintf("%dd", d.Days())
	case time.Hour:
		return fmt.Sprintf("%dh", d.Hours())
	case time.Minute:
		return fmt.Sprintf("%dm", d.Minutes())
	default:
		return fmt.Sprintf("%ds", d.Seconds())
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts strings only; bare numbers are ambiguous.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string such as \"7d\" or \"24h\", got %s", string(data))
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts string scalars only.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode || value.Tag == "!!int" || value.Tag == "!!float" {
		return fmt.Errorf("line %d: duration must be a string such as \"7d\" or \"24h\", got %q", value.Line, value.Value)
	}
	return d.UnmarshalText([]byte(value.Value))
}
