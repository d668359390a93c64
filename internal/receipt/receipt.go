// Package receipt turns a receipt photograph into an item→price mapping
// via the vision model, validating the output strictly at the boundary.
package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ykitano/splitbot/internal/llm"
)

// ErrExtractionFailed means the vision call produced output that is not a
// flat string→number object. User-visible; retryable by re-upload.
var ErrExtractionFailed = errors.New("receipt: could not extract items from image")

const extractSystemPrompt = "You read restaurant receipts. Respond with ONLY a flat JSON object " +
	"mapping each line item name to its price as a number. No nesting, no commentary, " +
	"no markdown. Exclude tax, tip, and total lines."

const extractUserPrompt = "List every purchased item and its price from this receipt."

// VisionCompleter is the vision extraction collaborator.
type VisionCompleter interface {
	CompleteVision(ctx context.Context, system, user, imageURL string) (string, error)
}

// LineItem is one extracted receipt line. Immutable once produced.
type LineItem struct {
	Name  string
	Price decimal.Decimal
}

// Extract calls the vision model on the image and parses its output.
// Duplicate item names are disambiguated with a " #n" suffix so every
// line survives as its own item; prices are never altered.
func Extract(ctx context.Context, client VisionCompleter, imageURL string) ([]LineItem, error) {
	response, err := client.CompleteVision(ctx, extractSystemPrompt, extractUserPrompt, imageURL)
	if err != nil {
		return nil, fmt.Errorf("vision call failed: %w", err)
	}

	raw, err := llm.ExtractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	items, err := parseItems(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items found", ErrExtractionFailed)
	}
	return items, nil
}

// parseItems decodes a flat string→number object token by token so
// duplicate keys are preserved instead of collapsing.
func parseItems(raw string) ([]LineItem, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("not a JSON object")
	}

	var items []LineItem
	seen := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("non-string key")
		}

		var num json.Number
		if err := dec.Decode(&num); err != nil {
			return nil, fmt.Errorf("value for %q is not a number: %w", name, err)
		}
		price, err := decimal.NewFromString(num.String())
		if err != nil {
			return nil, fmt.Errorf("value for %q: %w", name, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("negative price for %q", name)
		}

		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s #%d", name, n)
		}
		items = append(items, LineItem{Name: name, Price: price})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return items, nil
}

// ItemMap converts extracted items into the mapping the reconciliation
// engine consumes.
func ItemMap(items []LineItem) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(items))
	for _, it := range items {
		m[it.Name] = it.Price
	}
	return m
}

// Total sums the extracted prices.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
	}
	return total
}
