// Package debts is the read side: aggregate sums over the ledger.
package debts

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ykitano/splitbot/internal/ledger"
)

type Service struct {
	ledger *ledger.Ledger
}

func New(l *ledger.Ledger) *Service {
	return &Service{ledger: l}
}

// UserToUser sums everything debtor owes creditor.
func (s *Service) UserToUser(ctx context.Context, debtor, creditor string) (decimal.Decimal, error) {
	records, err := s.ledger.Get(ctx, debtor, creditor)
	if err != nil {
		return decimal.Zero, err
	}
	return sum(records), nil
}

// TotalOwedBy sums the debtor's debts across all creditors.
func (s *Service) TotalOwedBy(ctx context.Context, debtor string) (decimal.Decimal, error) {
	records, err := s.ledger.GetByDebtor(ctx, debtor)
	if err != nil {
		return decimal.Zero, err
	}
	return sum(records), nil
}

// TotalOwedTo scans the full ledger for records naming the creditor.
// O(ledger size), which is fine at group scale.
func (s *Service) TotalOwedTo(ctx context.Context, creditor string) (decimal.Decimal, error) {
	records, err := s.ledger.All(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, rec := range records {
		if rec.Creditor == creditor {
			total = total.Add(rec.Price)
		}
	}
	return total, nil
}

func sum(records []ledger.Record) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.Price)
	}
	return total
}
