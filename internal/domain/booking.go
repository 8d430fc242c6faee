package domain

import (
	"sort"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusReserved  BookingStatus = "reserved"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusExpired   BookingStatus = "expired"
	BookingStatusCancelled BookingStatus = "cancelled"
)

const BookingNumberPrefix = "BK-"

type Booking struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	RouteID       int64         `json:"route_id"`
	BusID         int64         `json:"bus_id"`
	BookingDate   time.Time     `json:"booking_date"`
	Seats         string        `json:"seat_number"`
	BookingNumber string        `json:"booking_number"`
	Status        BookingStatus `json:"status"`
	ReservedUntil *time.Time    `json:"reserved_until,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	CreatedBy     *int64        `json:"created_by,omitempty"`
	UpdatedBy     *int64        `json:"updated_by,omitempty"`
}

// IsActive reports whether the booking occupies its seats at now: it is
// confirmed, or reserved with a hold that has not yet passed.
func (b Booking) IsActive(now time.Time) bool {
	switch b.Status {
	case BookingStatusConfirmed:
		return true
	case BookingStatusReserved:
		return b.ReservedUntil != nil && b.ReservedUntil.After(now)
	}
	return false
}

// HoldLapsed is true for a reserved booking whose hold has passed.
func (b Booking) HoldLapsed(now time.Time) bool {
	return b.Status == BookingStatusReserved && !b.IsActive(now)
}

// EffectiveStatus reports expired for lapsed holds that no sweep has
// recorded yet.
func (b Booking) EffectiveStatus(now time.Time) BookingStatus {
	if b.HoldLapsed(now) {
		return BookingStatusExpired
	}
	return b.Status
}

func (b Booking) SeatList() []string {
	return ParseSeats(b.Seats)
}

func (b Booking) SeatCount() int {
	return len(b.SeatList())
}

// BookingDetails is a booking joined with its bus and route.
type BookingDetails struct {
	Booking
	Bus       Bus    `json:"bus"`
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	// Payment is the latest payment; only the admin listing fills it.
	Payment *Payment `json:"payment,omitempty"`
}

// ParseSeats splits a comma separated seat list, trimming whitespace and
// dropping empty entries.
func ParseSeats(raw string) []string {
	parts := strings.Split(raw, ",")
	seats := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			seats = append(seats, p)
		}
	}
	return seats
}

func JoinSeats(seats []string) string {
	return strings.Join(seats, ",")
}

// ActiveSeats is the union of seats held by active bookings at now.
func ActiveSeats(bookings []Booking, now time.Time) map[string]int64 {
	taken := make(map[string]int64)
	for _, b := range bookings {
		if !b.IsActive(now) {
			continue
		}
		for _, s := range b.SeatList() {
			taken[s] = b.ID
		}
	}
	return taken
}

// SeatConflictsWith returns requested seats already present in taken, in
// request order.
func SeatConflictsWith(requested []string, taken map[string]int64) []string {
	var conflicts []string
	for _, s := range requested {
		if _, ok := taken[s]; ok {
			conflicts = append(conflicts, s)
		}
	}
	return conflicts
}

// SortedSeats returns the keys of taken ordered numerically where possible.
func SortedSeats(taken map[string]int64) []string {
	seats := make([]string, 0, len(taken))
	for s := range taken {
		seats = append(seats, s)
	}
	sort.Slice(seats, func(i, j int) bool {
		a, aok := digits(seats[i])
		b, bok := digits(seats[j])
		if aok && bok {
			return a < b
		}
		return seats[i] < seats[j]
	})
	return seats
}

// TotalPriceCents is seat count times the unit price.
func TotalPriceCents(seatCount int, priceCents int64) int64 {
	return int64(seatCount) * priceCents
}

// DateOf returns the calendar day of t in loc as a UTC midnight value, the
// representation used for booking dates.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD booking date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, NewValidation("booking_date", "expected YYYY-MM-DD")
	}
	return t, nil
}
