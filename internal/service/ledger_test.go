package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/store"
	"github.com/iftf/duoverkoop/internal/store/memory"
)

func TestLedger_CountsAfterPurchases(t *testing.T) {
	st := memory.New()
	seed(t, st)
	svc := newPurchaseService(st)
	ctx := context.Background()

	const n = 4
	for i := 0; i < n; i++ {
		_, err := svc.HandlePurchase(ctx, input("X", "Y"), pos.UserID)
		require.NoError(t, err)
	}
	_, err := svc.HandlePurchase(ctx, input("Z", "X"), pos.UserID)
	require.NoError(t, err)

	ledger := NewLedger(st)
	sold, err := ledger.TicketsSold(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, n+1, sold)

	left, err := ledger.TicketsLeft(ctx, "Y")
	require.NoError(t, err)
	assert.Equal(t, 10-n, left)

	left, err = ledger.TicketsLeft(ctx, "Z")
	require.NoError(t, err)
	assert.Equal(t, 9, left)
}

func TestLedger_TicketsLeftExcluding(t *testing.T) {
	st := memory.New()
	seed(t, st)
	ctx := context.Background()
	p, err := newPurchaseService(st).HandlePurchase(ctx, input("X", "Y"), pos.UserID)
	require.NoError(t, err)

	ledger := NewLedger(st)
	left, err := ledger.TicketsLeftExcluding(ctx, "X", p)
	require.NoError(t, err)
	assert.Equal(t, 10, left)

	left, err = ledger.TicketsLeftExcluding(ctx, "Z", p)
	require.NoError(t, err)
	assert.Equal(t, 10, left)

	_, err = ledger.TicketsLeft(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLedger_NotClamped(t *testing.T) {
	st := memory.New()
	seed(t, st)
	ctx := context.Background()
	addPerformance(t, st, "TINY", 500, 1, testDate())

	// The store itself does not enforce capacity.
	for i, code := range []string{"a-b-c", "d-e-f"} {
		require.NoError(t, st.InsertPurchase(ctx, &model.Purchase{
			Name: "Buyer", Email: "b@example.com", Ticket1: "TINY", Ticket2: []string{"X", "Y"}[i],
			VerificationCode: code, CreatedBy: pos.UserID,
		}))
	}

	left, err := NewLedger(st).TicketsLeft(ctx, "TINY")
	require.NoError(t, err)
	assert.Equal(t, -1, left)
}
