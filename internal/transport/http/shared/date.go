package shared

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", value)
}

// DateRange reads from/to query parameters. Missing values default to the current month in loc.
func DateRange(query url.Values, now time.Time, loc *time.Location) (time.Time, time.Time, *Validator) {
	v := NewValidator()
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	if raw := query.Get("from"); raw != "" {
		if parsed, ok := v.Date("from", raw); ok {
			from = parsed
		}
	}
	if raw := query.Get("to"); raw != "" {
		if parsed, ok := v.Date("to", raw); ok {
			to = parsed
		}
	}
	v.DateOrder("from", from, "to", to)
	return from, to, v
}

func (v *Validator) Int(field, raw string, min, max int) (int, bool) {
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || value > max {
		v.Add(field, fmt.Sprintf("must be an integer between %d and %d", min, max))
		return 0, false
	}
	return value, true
}
