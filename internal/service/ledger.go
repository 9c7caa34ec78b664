package service

import (
	"context"
	"fmt"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
)

// ledgerQueries is the part of store.Queries the ledger reads.
type ledgerQueries interface {
	GetPerformance(ctx context.Context, key string) (*model.Performance, error)
	CountTicketsSold(ctx context.Context, key string) (int, error)
}

var _ ledgerQueries = (store.Queries)(nil)

// Ledger derives ticket availability from purchases on every call.  There
// is no stored counter to drift out of sync.
type Ledger struct {
	q ledgerQueries
}

// NewLedger returns a Ledger reading through q.  Pass the transaction's
// queries to read under the transaction's locks.
func NewLedger(q ledgerQueries) Ledger {
	return Ledger{q: q}
}

// TicketsSold counts the purchases holding key in either ticket slot.
func (l Ledger) TicketsSold(ctx context.Context, key string) (int, error) {
	n, err := l.q.CountTicketsSold(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("count tickets sold for %s: %w", key, err)
	}
	return n, nil
}

// TicketsLeft is max_tickets minus tickets sold.  It is not clamped and
// goes negative when a performance is oversold.
func (l Ledger) TicketsLeft(ctx context.Context, key string) (int, error) {
	p, err := l.q.GetPerformance(ctx, key)
	if err != nil {
		return 0, err
	}
	return l.ticketsLeft(ctx, p)
}

// TicketsLeftExcluding is TicketsLeft with the tickets already held by
// current counted as freed.  It is used when a purchase is edited.
func (l Ledger) TicketsLeftExcluding(ctx context.Context, key string, current *model.Purchase) (int, error) {
	left, err := l.TicketsLeft(ctx, key)
	if err != nil {
		return 0, err
	}
	if current != nil {
		left += current.Holds(key)
	}
	return left, nil
}

func (l Ledger) ticketsLeft(ctx context.Context, p *model.Performance) (int, error) {
	sold, err := l.TicketsSold(ctx, p.Key)
	if err != nil {
		return 0, err
	}
	return p.MaxTickets - sold, nil
}
