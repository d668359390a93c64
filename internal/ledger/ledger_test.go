package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ykitano/splitbot/internal/store"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory())

	rec := Record{Debtor: "u1", Creditor: "u2", TransactionID: "t1", Item: "Fries", Price: price("3.00")}
	if err := l.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := l.Get(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Get returned %d records, want 1", len(got))
	}
	if got[0].Item != "Fries" || !got[0].Price.Equal(rec.Price) {
		t.Errorf("round-trip mismatch: %+v", got[0])
	}
	if got[0].Debtor != "u1" || got[0].Creditor != "u2" || got[0].TransactionID != "t1" {
		t.Errorf("record identity mismatch: %+v", got[0])
	}
}

func TestPutAppendsNotOverwrites(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory())

	l.Put(ctx, Record{Debtor: "u1", Creditor: "u2", TransactionID: "t1", Item: "Burger", Price: price("10.00")})
	l.Put(ctx, Record{Debtor: "u1", Creditor: "u2", TransactionID: "t1", Item: "Fries", Price: price("3.00")})

	got, err := l.Get(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Get returned %d records, want 2 (append, not overwrite)", len(got))
	}
}

func TestRemovePrunesEmptyTransaction(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := New(st)

	l.Put(ctx, Record{Debtor: "u1", Creditor: "u2", TransactionID: "t1", Item: "Fries", Price: price("3.00")})

	if err := l.Remove(ctx, "u1", "u2", "t1", "Fries"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	got, err := l.Get(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("records remain after remove: %+v", got)
	}
	// The node itself must be gone, not an empty list.
	if _, err := st.Get(ctx, "/u1/u2/t1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("empty transaction node persisted: %v", err)
	}
}

func TestRemoveKeepsSiblingItems(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory())

	l.Put(ctx, Record{Debtor: "u1", Creditor: "u2", TransactionID: "t1", Item: "Burger", Price: price("10.00")})
	l.Put(ctx, Record{Debtor: "u1", Creditor: "u2", TransactionID: "t1", Item: "Fries", Price: price("3.00")})

	if err := l.Remove(ctx, "u1", "u2", "t1", "Burger"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	got, _ := l.Get(ctx, "u1", "u2")
	if len(got) != 1 || got[0].Item != "Fries" {
		t.Errorf("sibling item lost: %+v", got)
	}
}

func TestRemoveMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory())

	if err := l.Remove(ctx, "u1", "u2", "t1", "Fries"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove on absent node = %v, want ErrNotFound", err)
	}

	l.Put(ctx, Record{Debtor: "u1", Creditor: "u2", TransactionID: "t1", Item: "Fries", Price: price("3.00")})
	if err := l.Remove(ctx, "u1", "u2", "t1", "Burger"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove of absent item = %v, want ErrNotFound", err)
	}
}

func TestConcurrentPutsSameKeyLoseNothing(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory())

	// Each CAS loser observes at most writers-1 conflicts, so this stays
	// within the retry bound and the test cannot flake.
	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- l.Put(ctx, Record{
				Debtor:        "u1",
				Creditor:      "u2",
				TransactionID: "t1",
				Item:          "Item" + string(rune('A'+n)),
				Price:         price("1.00"),
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Put failed: %v", err)
		}
	}

	got, err := l.Get(ctx, "u1", "u2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != writers {
		t.Errorf("got %d records after %d concurrent puts (silent overwrite)", len(got), writers)
	}
}

func TestReplaceOverwrites(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory())

	l.Put(ctx, Record{Debtor: "u1", Creditor: "u2", TransactionID: "t1", Item: "Fries", Price: price("3.00")})
	err := l.Replace(ctx, "u1", "u2", "t1", []Record{
		{Item: "Fries (adjusted)", Price: price("2.50")},
	})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, _ := l.Get(ctx, "u1", "u2")
	if len(got) != 1 || got[0].Item != "Fries (adjusted)" || !got[0].Price.Equal(price("2.50")) {
		t.Errorf("Replace result: %+v", got)
	}
}

func TestScansAndAliasExclusion(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := New(st)

	l.Put(ctx, Record{Debtor: "u1", Creditor: "u2", TransactionID: "t1", Item: "Fries", Price: price("3.00")})
	l.Put(ctx, Record{Debtor: "u1", Creditor: "u3", TransactionID: "t2", Item: "Burger", Price: price("10.00")})
	l.Put(ctx, Record{Debtor: "u4", Creditor: "u2", TransactionID: "t3", Item: "Soda", Price: price("2.00")})
	// Alias nodes share the store but are not ledger records.
	st.Set(ctx, "/aliases/g1/u1", []byte(`"alice"`))

	byDebtor, err := l.GetByDebtor(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByDebtor failed: %v", err)
	}
	if len(byDebtor) != 2 {
		t.Errorf("GetByDebtor returned %d records, want 2", len(byDebtor))
	}

	all, err := l.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("All returned %d records, want 3 (aliases must be excluded)", len(all))
	}
}

func TestPutAllocationSkipsCreditor(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemory())

	allocation := map[string]decimal.Decimal{
		"u1": price("7.48"),
		"u2": price("7.48"),
	}
	if err := l.PutAllocation(ctx, "u2", "t1", "receipt split", allocation); err != nil {
		t.Fatalf("PutAllocation failed: %v", err)
	}

	all, _ := l.All(ctx)
	if len(all) != 1 {
		t.Fatalf("PutAllocation wrote %d records, want 1 (creditor share skipped)", len(all))
	}
	if all[0].Debtor != "u1" || all[0].Creditor != "u2" {
		t.Errorf("unexpected record: %+v", all[0])
	}
}
