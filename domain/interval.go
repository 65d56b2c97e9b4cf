package domain

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Interval is a half-open date range [CheckIn, CheckOut). Both bounds are UTC
// midnights.
type Interval struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// ParseDate parses an ISO-8601 date and truncates it to a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Midnight(t), nil
}

// Midnight truncates a time to its UTC calendar day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewInterval validates checkIn < checkOut under half-open semantics.
func NewInterval(checkIn, checkOut time.Time) (Interval, error) {
	iv := Interval{CheckIn: Midnight(checkIn), CheckOut: Midnight(checkOut)}
	if !iv.CheckIn.Before(iv.CheckOut) {
		return Interval{}, &InvalidRangeError{CheckIn: iv.CheckIn, CheckOut: iv.CheckOut}
	}
	return iv, nil
}

// Overlaps reports whether two half-open intervals share any instant.
// Back-to-back stays (a.CheckOut == b.CheckIn) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(iv.CheckOut)
}

// Contains reports whether t falls inside the interval.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.CheckIn) && t.Before(iv.CheckOut)
}

// Nights is the number of nights covered by the interval.
func (iv Interval) Nights() int {
	return int(iv.CheckOut.Sub(iv.CheckIn).Hours() / 24)
}
