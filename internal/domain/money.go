package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents holds a money amount in minor units. 129.99 credits is Cents(12999).
// Keeping amounts integral avoids float drift in balance arithmetic.
type Cents int64

// ParseCents parses a decimal amount string with at most two fractional
// digits ("50", "50.2", "50.25"). Sign prefixes are rejected; validation of
// positivity is left to the caller.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" || len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f := int64(0)
	if frac != "" {
		u, err := strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		f = int64(u)
		if len(frac) == 1 {
			f *= 10
		}
	}
	return Cents(w*100 + f), nil
}

// Mul scales the amount by an item quantity.
func (c Cents) Mul(qty int) Cents { return c * Cents(qty) }

// String renders the amount as a plain two-decimal value, e.g. "129.99".
func (c Cents) String() string {
	neg := c < 0
	if neg {
		c = -c
	}
	out := fmt.Sprintf("%d.%02d", c/100, c%100)
	if neg {
		return "-" + out
	}
	return out
}
