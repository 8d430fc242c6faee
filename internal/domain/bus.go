package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type BusType string

const (
	BusTypeExpress BusType = "Express"
	BusTypeCargo   BusType = "Cargo"
	BusTypeMetro   BusType = "Metro"
)

func (t BusType) Valid() bool {
	switch t {
	case BusTypeExpress, BusTypeCargo, BusTypeMetro:
		return true
	}
	return false
}

// ClockTime is a time of day with minute precision.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock accepts "HH:MM" or "HH:MM:SS"; seconds are dropped.
func ParseClock(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return ClockTime{}, NewValidation("departure_time", fmt.Sprintf("%q is not a HH:MM time", s))
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Add returns the time of day d after c, wrapping past midnight.
func (c ClockTime) Add(d time.Duration) ClockTime {
	total := (c.minutes() + int(d/time.Minute)) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return ClockTime{Hour: total / 60, Minute: total % 60}
}

// On places c on the calendar day of date in loc.
func (c ClockTime) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, loc)
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type Bus struct {
	ID         int64     `json:"id"`
	BusNumber  string    `json:"bus_number"`
	Capacity   int       `json:"capacity"`
	RouteID    int64     `json:"route_id"`
	Route      *Route    `json:"route,omitempty"`
	Type       BusType   `json:"bus_type"`
	Departure  ClockTime `json:"departure_time"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	CreatedBy  *int64    `json:"created_by,omitempty"`
	UpdatedBy  *int64    `json:"updated_by,omitempty"`
}

// ArrivalTime is departure plus the route duration. It reports false when
// the route is not loaded or its duration does not parse.
func (b Bus) ArrivalTime() (ClockTime, bool) {
	if b.Route == nil {
		return ClockTime{}, false
	}
	d, err := b.Route.TravelTime()
	if err != nil {
		return ClockTime{}, false
	}
	return b.Departure.Add(d), true
}

// DepartedBy reports whether the bus has left on date as of now.
func (b Bus) DepartedBy(date, now time.Time, loc *time.Location) bool {
	return !b.Departure.On(date, loc).After(now.In(loc))
}

// HasSeat reports whether seat is a valid seat number on this bus.
func (b Bus) HasSeat(seat string) bool {
	n, ok := digits(seat)
	return ok && n >= 1 && n <= b.Capacity
}
