// Package ledger owns the persisted debt records. A record lives at
// /{debtor}/{creditor}/{transaction} as a JSON list of items; same-key
// writes are serialized with a compare-and-set retry so concurrent
// reactions on one transaction cannot lose updates.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ykitano/splitbot/internal/store"
)

var (
	ErrNotFound = errors.New("ledger: record not found")
	// ErrWriteConflict is returned when the compare-and-set loop keeps
	// losing races past its bound.
	ErrWriteConflict = errors.New("ledger: concurrent write conflict")
)

// maxSwapAttempts bounds the optimistic retry on a contended key.
const maxSwapAttempts = 8

// aliasRoot is the reserved top-level segment used by the alias
// directory; full-ledger scans skip it.
const aliasRoot = "aliases"

// Record is one debt: debtor owes creditor the price of item, under the
// transaction that produced it.
type Record struct {
	Debtor        string
	Creditor      string
	TransactionID string
	Item          string
	Price         decimal.Decimal
}

// item is the persisted shape under a transaction node.
type item struct {
	Item  string          `json:"item"`
	Price decimal.Decimal `json:"price"`
}

type Ledger struct {
	store store.Store
}

func New(st store.Store) *Ledger {
	return &Ledger{store: st}
}

func recordPath(debtor, creditor, transactionID string) string {
	return store.Join(debtor, creditor, transactionID)
}

// Put appends the record to its transaction node, creating the node if
// absent. Existing items are never overwritten; use Replace for the
// explicit adjustment path.
func (l *Ledger) Put(ctx context.Context, rec Record) error {
	path := recordPath(rec.Debtor, rec.Creditor, rec.TransactionID)

	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		items, expected, err := l.readItems(ctx, path)
		if err != nil {
			return err
		}

		items = append(items, item{Item: rec.Item, Price: rec.Price})
		next, err := json.Marshal(items)
		if err != nil {
			return err
		}

		err = l.store.Swap(ctx, path, expected, next)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		return err
	}
	return ErrWriteConflict
}

// Replace overwrites a transaction node wholesale. This is the manual
// adjustment path; normal writes go through Put.
func (l *Ledger) Replace(ctx context.Context, debtor, creditor, transactionID string, records []Record) error {
	path := recordPath(debtor, creditor, transactionID)
	if len(records) == 0 {
		return l.store.Delete(ctx, path)
	}

	items := make([]item, 0, len(records))
	for _, rec := range records {
		items = append(items, item{Item: rec.Item, Price: rec.Price})
	}
	value, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, path, value)
}

// Remove deletes the first item matching name under the transaction. The
// node itself is deleted when its last item goes; no empty placeholders
// persist. A missing record reports ErrNotFound without failing the
// caller's event.
func (l *Ledger) Remove(ctx context.Context, debtor, creditor, transactionID, itemName string) error {
	path := recordPath(debtor, creditor, transactionID)

	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		items, expected, err := l.readItems(ctx, path)
		if err != nil {
			return err
		}
		if expected == nil {
			return ErrNotFound
		}

		idx := -1
		for i, it := range items {
			if it.Item == itemName {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrNotFound
		}
		items = append(items[:idx], items[idx+1:]...)

		var next json.RawMessage
		if len(items) > 0 {
			next, err = json.Marshal(items)
			if err != nil {
				return err
			}
		}

		err = l.store.Swap(ctx, path, expected, next)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		return err
	}
	return ErrWriteConflict
}

// Clear drops every record debtor owes creditor under one transaction,
// or, with an empty transaction id, everything between the pair.
func (l *Ledger) Clear(ctx context.Context, debtor, creditor, transactionID string) error {
	if transactionID == "" {
		return l.store.Delete(ctx, store.Join(debtor, creditor))
	}
	return l.store.Delete(ctx, recordPath(debtor, creditor, transactionID))
}

// Get returns every record debtor owes creditor.
func (l *Ledger) Get(ctx context.Context, debtor, creditor string) ([]Record, error) {
	return l.scan(ctx, store.Join(debtor, creditor))
}

// GetByDebtor returns every record the debtor owes, across creditors.
func (l *Ledger) GetByDebtor(ctx context.Context, debtor string) ([]Record, error) {
	return l.scan(ctx, store.Join(debtor))
}

// All returns the full ledger. The data is group-scale; a full scan is
// acceptable.
func (l *Ledger) All(ctx context.Context) ([]Record, error) {
	return l.scan(ctx, "")
}

// PutAllocation writes one debt per participant of an accepted
// allocation, skipping the creditor's own share. Callers invoke this
// only after reconciliation has fully converged.
func (l *Ledger) PutAllocation(ctx context.Context, creditor, transactionID, label string, allocation map[string]decimal.Decimal) error {
	for debtor, amount := range allocation {
		if debtor == creditor || amount.IsZero() {
			continue
		}
		rec := Record{
			Debtor:        debtor,
			Creditor:      creditor,
			TransactionID: transactionID,
			Item:          label,
			Price:         amount,
		}
		if err := l.Put(ctx, rec); err != nil {
			return fmt.Errorf("failed to write share for %s: %w", debtor, err)
		}
	}
	return nil
}

func (l *Ledger) readItems(ctx context.Context, path string) ([]item, json.RawMessage, error) {
	current, err := l.store.Get(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var items []item
	if err := json.Unmarshal(current, &items); err != nil {
		return nil, nil, fmt.Errorf("corrupt transaction node %s: %w", path, err)
	}
	return items, current, nil
}

func (l *Ledger) scan(ctx context.Context, prefix string) ([]Record, error) {
	nodes, err := l.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var records []Record
	for path, value := range nodes {
		debtor, creditor, transactionID, ok := parseRecordPath(path)
		if !ok {
			continue
		}
		var items []item
		if err := json.Unmarshal(value, &items); err != nil {
			return nil, fmt.Errorf("corrupt transaction node %s: %w", path, err)
		}
		for _, it := range items {
			records = append(records, Record{
				Debtor:        debtor,
				Creditor:      creditor,
				TransactionID: transactionID,
				Item:          it.Item,
				Price:         it.Price,
			})
		}
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Debtor != b.Debtor {
			return a.Debtor < b.Debtor
		}
		if a.Creditor != b.Creditor {
			return a.Creditor < b.Creditor
		}
		if a.TransactionID != b.TransactionID {
			return a.TransactionID < b.TransactionID
		}
		return a.Item < b.Item
	})
	return records, nil
}

func parseRecordPath(path string) (debtor, creditor, transactionID string, ok bool) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) != 3 || parts[0] == aliasRoot {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
