package api

import (
	"strconv"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError{Field: name, Msg: "must be a positive integer", Err: err}
	}
	return id, nil
}

// dateOrToday parses a YYYY-MM-DD value, falling back to the current day
// in loc when raw is empty.
func dateOrToday(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	if raw == "" {
		return domain.DateOf(now, loc), nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, domain.ValidationError{Field: "booking_date", Msg: "expected YYYY-MM-DD", Err: err}
	}
	return d, nil
}

func requireDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, domain.NewValidation("booking_date", "is required")
	}
	return dateOrToday(raw, time.UTC, time.Time{})
}
