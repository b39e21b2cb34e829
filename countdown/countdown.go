// Package countdown computes the time remaining until the retirement date.
package countdown

import (
	"fmt"
	"time"
)

// Remaining is the countdown split the page displays.  All fields are zero
// once the target has passed.
type Remaining struct {
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// dateLayouts are the formats a configured retirement date may arrive in:
// date-only from admin edits, date-and-time from the seeded default.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
}

// ParseDate parses a configured retirement date.
func ParseDate(date string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date %q", date)
}

// Until computes the countdown from now to the configured date, clamped at
// zero.
func Until(date string, now time.Time) (Remaining, error) {
	target, err := ParseDate(date)
	if err != nil {
		return Remaining{}, err
	}

	d := target.Sub(now)
	if d <= 0 {
		return Remaining{}, nil
	}

	return Remaining{
		Days:    int(d / (24 * time.Hour)),
		Hours:   int(d % (24 * time.Hour) / time.Hour),
		Minutes: int(d % time.Hour / time.Minute),
		Seconds: int(d % time.Minute / time.Second),
	}, nil
}
