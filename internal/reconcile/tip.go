package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ykitano/splitbot/internal/money"
)

var oneHundred = decimal.NewFromInt(100)

// ParseTipFraction converts a tip string into a fraction of the pre-tip
// total. A trailing % marks a percentage; otherwise the value is an
// absolute amount divided by the total. Empty or whitespace means no tip.
func ParseTipFraction(tip string, preTipTotal decimal.Decimal) (decimal.Decimal, error) {
	tip = strings.TrimSpace(tip)
	if tip == "" {
		return decimal.Zero, nil
	}

	if strings.HasSuffix(tip, "%") {
		pct, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(tip, "%")))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid tip percentage %q: %w", tip, err)
		}
		if pct.IsNegative() {
			return decimal.Zero, fmt.Errorf("negative tip percentage %q", tip)
		}
		return pct.Div(oneHundred), nil
	}

	amount, err := money.Parse(tip)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tip amount %q: %w", tip, err)
	}
	if amount.IsZero() {
		return decimal.Zero, nil
	}
	if preTipTotal.IsZero() {
		return decimal.Zero, fmt.Errorf("cannot tip %s on an empty receipt", tip)
	}
	return amount.Div(preTipTotal), nil
}

// ApplyTip scales every share by (1 + fraction). A zero fraction returns
// the allocation untouched so an empty tip is an exact identity.
func ApplyTip(allocation map[string]decimal.Decimal, fraction decimal.Decimal) map[string]decimal.Decimal {
	if fraction.IsZero() {
		return allocation
	}
	multiplier := decimal.NewFromInt(1).Add(fraction)
	tipped := make(map[string]decimal.Decimal, len(allocation))
	for who, share := range allocation {
		tipped[who] = share.Mul(multiplier)
	}
	return tipped
}
