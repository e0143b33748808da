package validate

import (
	"regexp"
	"strconv"
	"strings"

	"tradepost/internal/domain"
)

var (
	reItem = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _'\-]{0,49}$`)
	reUser = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)
)

// Amount parses a strictly positive decimal amount (two fractional digits max).
func Amount(s string) (domain.Cents, bool) {
	c, err := domain.ParseCents(s)
	if err != nil || c <= 0 {
		return 0, false
	}
	return c, true
}

// Qty parses a strictly positive integer quantity.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// AccountID parses a numeric account identifier.
func AccountID(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ItemName validates a catalog item name.
func ItemName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reItem.MatchString(s)
}

// UserID validates a login / buyer identifier.
func UserID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUser.MatchString(s)
}
