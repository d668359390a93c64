// Package transcript renders line-item messages and parses them back.
// The rendered text is the durable encoding of a transaction's item,
// price, and (via the message reference) creditor: re-parsing the
// transcript is how a reaction is correlated to its ledger entry.
package transcript

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedTransaction means a message claimed to be a line item could
// not be parsed. Callers must not mutate the ledger on it.
var ErrMalformedTransaction = errors.New("transcript: malformed line-item message")

const (
	itemPrefix  = "Item: "
	priceMarker = ", Price: $"
)

// Token is the correlation record reconstructed from a rendered message
// and the receipt post it replied to.
type Token struct {
	TransactionID string
	Item          string
	Price         decimal.Decimal
	Creditor      string
}

// Render produces the fixed line-item shape: Item: <name>, Price: $<amount>.
func Render(item string, price decimal.Decimal) string {
	return fmt.Sprintf("%s%s%s%s.", itemPrefix, item, priceMarker, price.StringFixed(2))
}

// Parse recovers the item and price from a rendered line. The amount is
// the numeric text between the last $ and the line terminator; a trailing
// period is tolerated. Any other shape is ErrMalformedTransaction.
func Parse(content string) (string, decimal.Decimal, error) {
	line := strings.TrimSpace(content)
	if !strings.HasPrefix(line, itemPrefix) {
		return "", decimal.Zero, fmt.Errorf("%w: missing item prefix", ErrMalformedTransaction)
	}

	// The price marker binds to its last occurrence so item names
	// containing the marker text still parse.
	idx := strings.LastIndex(line, priceMarker)
	if idx < 0 {
		return "", decimal.Zero, fmt.Errorf("%w: missing price marker", ErrMalformedTransaction)
	}

	item := line[len(itemPrefix):idx]
	if item == "" {
		return "", decimal.Zero, fmt.Errorf("%w: empty item name", ErrMalformedTransaction)
	}

	amountText := strings.TrimSuffix(line[idx+len(priceMarker):], ".")
	price, err := decimal.NewFromString(amountText)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("%w: bad amount %q", ErrMalformedTransaction, amountText)
	}
	if price.IsNegative() {
		return "", decimal.Zero, fmt.Errorf("%w: negative amount %q", ErrMalformedTransaction, amountText)
	}
	return item, price, nil
}

// Correlate rebuilds the transaction token for a rendered line-item
// message. messageID is the line item's own id (the transaction id);
// creditor is the author of the receipt post the line replied to.
func Correlate(messageID, content, creditor string) (Token, error) {
	item, price, err := Parse(content)
	if err != nil {
		return Token{}, err
	}
	return Token{
		TransactionID: messageID,
		Item:          item,
		Price:         price,
		Creditor:      creditor,
	}, nil
}
