// Package filter turns list query parameters into store-neutral range filters.
package filter

import (
	"errors"
)

var (
	// ErrInvalidQueryCombination date was combined with from or upTo.
	ErrInvalidQueryCombination = errors.New("date cannot be combined with from or upTo")
	// ErrInvalidDateValue a date parameter is not a YYYY-MM-DD calendar date.
	ErrInvalidDateValue = errors.New("invalid date value, expected YYYY-MM-DD")
	// ErrInvalidAmountValue min or max is not a number.
	ErrInvalidAmountValue = errors.New("invalid amount value")
)

// Params is the read side of url.Values.
type Params interface {
	Has(key string) bool
	Get(key string) string
}
