package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is a monetary amount in currency minor units. All arithmetic on
// amounts happens in cents; the two-decimal string form exists only at the
// API boundary.
type Cents int64

// ParseAmount accepts a non-negative decimal string with at most two
// fractional digits ("120", "120.5", "120.50").
func ParseAmount(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("amount must be a non-negative decimal, got %q", s)
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return Cents(w*100 + f), nil
}

// String renders the amount as a two-decimal string, e.g. 12050 -> "120.50".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
