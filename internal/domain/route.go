package domain

import (
	"strconv"
	"strings"
	"time"
)

type Route struct {
	ID          int64     `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Duration    string    `json:"duration"`
	DistanceKm  *float64  `json:"distance_km,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	UpdatedBy   *int64    `json:"updated_by,omitempty"`
}

// TravelTime parses the route duration. See ParseDuration.
func (r Route) TravelTime() (time.Duration, error) {
	return ParseDuration(r.Duration)
}

// ParseDuration accepts exactly three forms:
//
//	H:M or H:M:S   colon separated, minutes and seconds below 60
//	<h>h[ <m>]     hours with an optional minutes part, e.g. "2h 15"
//	<h>            bare hours
//
// Anything else returns ErrInvalidDuration.
func ParseDuration(raw string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, ErrInvalidDuration
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return 0, ErrInvalidDuration
		}
		var fields [3]int
		for i, p := range parts {
			n, ok := digits(p)
			if !ok || (i > 0 && n > 59) {
				return 0, ErrInvalidDuration
			}
			fields[i] = n
		}
		return time.Duration(fields[0])*time.Hour +
			time.Duration(fields[1])*time.Minute +
			time.Duration(fields[2])*time.Second, nil
	}

	if idx := strings.IndexByte(s, 'h'); idx >= 0 {
		hours, ok := digits(strings.TrimSpace(s[:idx]))
		if !ok {
			return 0, ErrInvalidDuration
		}
		rest := strings.TrimSpace(s[idx+1:])
		minutes := 0
		if rest != "" {
			minutes, ok = digits(rest)
			if !ok || minutes > 59 {
				return 0, ErrInvalidDuration
			}
		}
		return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
	}

	hours, ok := digits(s)
	if !ok {
		return 0, ErrInvalidDuration
	}
	return time.Duration(hours) * time.Hour, nil
}

func digits(s string) (int, bool) {
	if s == "" || len(s) > 6 {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
