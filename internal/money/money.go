// Package money holds the shared decimal conventions: every amount is a
// shopspring decimal and comparisons tolerate a one-cent discrepancy.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CentTolerance is the maximum discrepancy treated as equal.
var CentTolerance = decimal.NewFromFloat(0.01)

// Parse reads a monetary amount, tolerating a leading $ and surrounding
// whitespace. Negative amounts are rejected.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %q", s)
	}
	return d, nil
}

// WithinCent reports whether a and b differ by at most one cent.
func WithinCent(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(CentTolerance) <= 0
}

// Sum adds a set of amounts.
func Sum(amounts map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// FormatUSD renders an amount with two decimal places and a $ prefix.
func FormatUSD(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
