package economydomain

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmount converts user-typed amount text into a positive integer. The
// original command surface coerced silently and let garbage through; here a
// non-numeric string is an explicit error.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingAmount
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if n == 0 {
		return 0, ErrMissingAmount
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return n, nil
}
